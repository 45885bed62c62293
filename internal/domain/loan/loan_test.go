package loan

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	dec, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return dec
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func testLoan(amount string, dueDate time.Time) Loan {
	return Loan{
		ID:              1,
		OwnerID:         10,
		CustomerID:      20,
		ItemDescription: "50kg rice bag",
		Amount:          d(amount),
		LoanDate:        date(2025, time.January, 1),
		DueDate:         dueDate,
	}
}

func TestNewLoan_Validation(t *testing.T) {
	due := date(2025, time.February, 1)

	t.Run("valid loan", func(t *testing.T) {
		l, err := NewLoan(10, 20, "groceries", d("150.00"), date(2025, time.January, 1), due, "")
		require.NoError(t, err)
		assert.Equal(t, FrequencyOnce, l.Frequency)
		assert.Equal(t, int64(10), l.OwnerID)
	})

	t.Run("empty item description", func(t *testing.T) {
		_, err := NewLoan(10, 20, "   ", d("150.00"), date(2025, time.January, 1), due, "")
		assert.Error(t, err)
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := NewLoan(10, 20, "groceries", decimal.Zero, date(2025, time.January, 1), due, "")
		assert.Error(t, err)
	})

	t.Run("negative amount", func(t *testing.T) {
		_, err := NewLoan(10, 20, "groceries", d("-5"), date(2025, time.January, 1), due, "")
		assert.Error(t, err)
	})

	t.Run("due date before loan date", func(t *testing.T) {
		_, err := NewLoan(10, 20, "groceries", d("150.00"), date(2025, time.March, 1), due, "")
		assert.Error(t, err)
	})
}

func TestNewRepayment_Validation(t *testing.T) {
	_, err := NewRepayment(1, decimal.Zero, date(2025, time.January, 5))
	assert.Error(t, err)

	_, err = NewRepayment(1, d("-10"), date(2025, time.January, 5))
	assert.Error(t, err)

	rep, err := NewRepayment(1, d("10.50"), date(2025, time.January, 5))
	require.NoError(t, err)
	assert.True(t, rep.Amount.Equal(d("10.50")))
}

func TestTotalRepaid(t *testing.T) {
	t.Run("empty set sums to zero", func(t *testing.T) {
		assert.True(t, TotalRepaid(nil).IsZero())
		assert.True(t, TotalRepaid([]Repayment{}).IsZero())
	})

	t.Run("sums all amounts", func(t *testing.T) {
		reps := []Repayment{
			{Amount: d("10.25")},
			{Amount: d("5.75")},
			{Amount: d("100.00")},
		}
		assert.True(t, TotalRepaid(reps).Equal(d("116.00")))
	})

	t.Run("order does not matter", func(t *testing.T) {
		a := []Repayment{{Amount: d("3.30")}, {Amount: d("7.70")}, {Amount: d("11.00")}}
		b := []Repayment{{Amount: d("11.00")}, {Amount: d("3.30")}, {Amount: d("7.70")}}
		assert.True(t, TotalRepaid(a).Equal(TotalRepaid(b)))
	})
}

func TestStatusOn_PriorityChain(t *testing.T) {
	due := date(2025, time.February, 1)
	l := testLoan("100.00", due)

	t.Run("no repayments before due date is pending", func(t *testing.T) {
		assert.Equal(t, StatusPending, l.StatusOn(decimal.Zero, date(2025, time.January, 15)))
	})

	t.Run("no repayments on due date is pending", func(t *testing.T) {
		assert.Equal(t, StatusPending, l.StatusOn(decimal.Zero, due))
	})

	t.Run("no repayments past due date is overdue", func(t *testing.T) {
		assert.Equal(t, StatusOverdue, l.StatusOn(decimal.Zero, date(2025, time.February, 2)))
	})

	t.Run("partial repayment past due date is overdue", func(t *testing.T) {
		assert.Equal(t, StatusOverdue, l.StatusOn(d("99.99"), date(2025, time.March, 1)))
	})

	t.Run("fully repaid before due date is paid", func(t *testing.T) {
		assert.Equal(t, StatusPaid, l.StatusOn(d("100.00"), date(2025, time.January, 20)))
	})

	t.Run("fully repaid past due date is still paid", func(t *testing.T) {
		// Paid wins the priority chain even after the due date.
		assert.Equal(t, StatusPaid, l.StatusOn(d("100.00"), date(2025, time.June, 1)))
	})

	t.Run("overpaid loan is paid", func(t *testing.T) {
		assert.Equal(t, StatusPaid, l.StatusOn(d("150.00"), date(2025, time.June, 1)))
	})

	t.Run("due date comparison ignores time of day", func(t *testing.T) {
		noon := time.Date(2025, time.February, 1, 12, 30, 0, 0, time.UTC)
		assert.Equal(t, StatusPending, l.StatusOn(decimal.Zero, noon))
	})
}

func TestOutstanding(t *testing.T) {
	l := testLoan("100.00", date(2025, time.February, 1))

	assert.True(t, l.Outstanding(decimal.Zero).Equal(d("100.00")))
	assert.True(t, l.Outstanding(d("40.00")).Equal(d("60.00")))
	assert.True(t, l.Outstanding(d("100.00")).IsZero())

	// Overpayment floors at zero instead of going negative.
	assert.True(t, l.Outstanding(d("130.00")).IsZero())
}

func TestSummarize(t *testing.T) {
	l := testLoan("100.00", date(2025, time.February, 1))
	acct := Account{
		Loan:         l,
		CustomerName: "Asha",
		Repayments:   []Repayment{{Amount: d("30.00")}, {Amount: d("20.00")}},
	}

	summary := acct.Summarize(date(2025, time.March, 1))

	assert.Equal(t, "Asha", summary.CustomerName)
	assert.True(t, summary.TotalRepaid.Equal(d("50.00")))
	assert.Equal(t, StatusOverdue, summary.Status)
}

func TestSummarizePortfolio(t *testing.T) {
	today := date(2025, time.March, 1)

	t.Run("empty portfolio sums to zero", func(t *testing.T) {
		summary := SummarizePortfolio(nil, today)
		assert.True(t, summary.TotalLoaned.IsZero())
		assert.True(t, summary.TotalCollected.IsZero())
		assert.True(t, summary.OverdueAmount.IsZero())
	})

	t.Run("aggregates across accounts", func(t *testing.T) {
		accounts := []Account{
			{
				// Overdue with 60 outstanding.
				Loan:       testLoan("100.00", date(2025, time.February, 1)),
				Repayments: []Repayment{{Amount: d("40.00")}},
			},
			{
				// Fully repaid after its due date; contributes nothing overdue.
				Loan:       testLoan("200.00", date(2025, time.January, 15)),
				Repayments: []Repayment{{Amount: d("200.00")}},
			},
			{
				// Still pending.
				Loan:       testLoan("50.00", date(2025, time.April, 1)),
				Repayments: nil,
			},
		}

		summary := SummarizePortfolio(accounts, today)

		assert.True(t, summary.TotalLoaned.Equal(d("350.00")), "totalLoaned = %s", summary.TotalLoaned)
		assert.True(t, summary.TotalCollected.Equal(d("240.00")), "totalCollected = %s", summary.TotalCollected)
		assert.True(t, summary.OverdueAmount.Equal(d("60.00")), "overdueAmount = %s", summary.OverdueAmount)
	})

	t.Run("overdue amount counts outstanding only", func(t *testing.T) {
		accounts := []Account{
			{
				Loan:       testLoan("100.00", date(2025, time.February, 1)),
				Repayments: []Repayment{{Amount: d("99.00")}},
			},
		}
		summary := SummarizePortfolio(accounts, today)
		assert.True(t, summary.OverdueAmount.Equal(d("1.00")))
	})
}

func TestOverdueAccounts(t *testing.T) {
	today := date(2025, time.March, 1)

	overdueLoan := testLoan("100.00", date(2025, time.February, 1))
	paidLateLoan := testLoan("200.00", date(2025, time.January, 15))
	pendingLoan := testLoan("50.00", date(2025, time.April, 1))

	t.Run("selects only overdue loans with a balance", func(t *testing.T) {
		accounts := []Account{
			{Loan: overdueLoan, CustomerName: "Asha", Repayments: []Repayment{{Amount: d("40.00")}}},
			{Loan: paidLateLoan, CustomerName: "Binod", Repayments: []Repayment{{Amount: d("200.00")}}},
			{Loan: pendingLoan, CustomerName: "Asha"},
		}

		overdue := OverdueAccounts(accounts, today)

		require.Len(t, overdue, 1)
		assert.Equal(t, overdueLoan.ID, overdue[0].Loan.ID)
		assert.Equal(t, "Asha", overdue[0].CustomerName)
		assert.True(t, overdue[0].Outstanding.Equal(d("60.00")))
	})

	t.Run("one row per overdue loan, not per customer", func(t *testing.T) {
		second := testLoan("80.00", date(2025, time.February, 10))
		second.ID = 2
		accounts := []Account{
			{Loan: overdueLoan, CustomerName: "Asha"},
			{Loan: second, CustomerName: "Asha"},
		}

		overdue := OverdueAccounts(accounts, today)
		assert.Len(t, overdue, 2)
	})

	t.Run("empty input yields empty slice", func(t *testing.T) {
		overdue := OverdueAccounts(nil, today)
		assert.NotNil(t, overdue)
		assert.Empty(t, overdue)
	})
}
