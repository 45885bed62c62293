package loan

import (
	"credit-ledger/internal/pkg/apperrors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPaid    Status = "PAID"
	StatusOverdue Status = "OVERDUE"
	StatusPending Status = "PENDING"
)

// Frequency is informational only; it never influences status derivation.
const (
	FrequencyOnce    = "ONCE"
	FrequencyWeekly  = "WEEKLY"
	FrequencyMonthly = "MONTHLY"
)

type Loan struct {
	ID              int64
	OwnerID         int64
	CustomerID      int64
	ItemDescription string
	Amount          decimal.Decimal
	LoanDate        time.Time
	DueDate         time.Time
	Frequency       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Repayment struct {
	ID        int64
	LoanID    int64
	Amount    decimal.Decimal
	Date      time.Time
	CreatedAt time.Time
}

// Account is one loan together with everything needed to derive its ledger
// state: the owning customer's display name and all repayments posted so far.
type Account struct {
	Loan         Loan
	CustomerName string
	Repayments   []Repayment
}

// LoanSummary is the read-model row for a single loan.
type LoanSummary struct {
	Loan         Loan
	CustomerName string
	TotalRepaid  decimal.Decimal
	Status       Status
}

// PortfolioSummary aggregates one shopkeeper's entire book.
type PortfolioSummary struct {
	TotalLoaned    decimal.Decimal
	TotalCollected decimal.Decimal
	OverdueAmount  decimal.Decimal
}

// OverdueAccount is one overdue loan with its outstanding balance. A customer
// with several overdue loans yields one entry per loan.
type OverdueAccount struct {
	Loan         Loan
	CustomerName string
	Outstanding  decimal.Decimal
}

func NewLoan(ownerID, customerID int64, itemDescription string, amount decimal.Decimal, loanDate, dueDate time.Time, frequency string) (*Loan, error) {
	itemDescription = strings.TrimSpace(itemDescription)
	if itemDescription == "" {
		return nil, fmt.Errorf("%w: item description cannot be empty", apperrors.ErrValidation)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrValidation)
	}
	if loanDate.IsZero() {
		loanDate = time.Now().Truncate(24 * time.Hour)
	}
	if dueDate.IsZero() {
		return nil, fmt.Errorf("%w: due date is required", apperrors.ErrValidation)
	}
	if dateOnly(dueDate).Before(dateOnly(loanDate)) {
		return nil, fmt.Errorf("%w: due date cannot precede loan date", apperrors.ErrValidation)
	}
	if frequency == "" {
		frequency = FrequencyOnce
	}

	return &Loan{
		OwnerID:         ownerID,
		CustomerID:      customerID,
		ItemDescription: itemDescription,
		Amount:          amount,
		LoanDate:        loanDate,
		DueDate:         dueDate,
		Frequency:       frequency,
	}, nil
}

func NewRepayment(loanID int64, amount decimal.Decimal, date time.Time) (*Repayment, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: repayment amount must be positive", apperrors.ErrValidation)
	}
	if date.IsZero() {
		date = time.Now().Truncate(24 * time.Hour)
	}
	return &Repayment{
		LoanID: loanID,
		Amount: amount,
		Date:   date,
	}, nil
}

// TotalRepaid sums all repayment amounts. The sum is commutative, so the
// insertion order of repayments is immaterial. An empty set sums to zero.
func TotalRepaid(repayments []Repayment) decimal.Decimal {
	total := decimal.Zero
	for _, rep := range repayments {
		total = total.Add(rep.Amount)
	}
	return total
}

// StatusOn derives the loan status for the given day. The checks form a
// priority chain: a fully repaid loan is PAID even past its due date.
func (l *Loan) StatusOn(totalRepaid decimal.Decimal, today time.Time) Status {
	if totalRepaid.GreaterThanOrEqual(l.Amount) {
		return StatusPaid
	}
	if dateOnly(today).After(dateOnly(l.DueDate)) {
		return StatusOverdue
	}
	return StatusPending
}

// Outstanding returns the unpaid remainder, floored at zero for reporting.
func (l *Loan) Outstanding(totalRepaid decimal.Decimal) decimal.Decimal {
	outstanding := l.Amount.Sub(totalRepaid)
	if outstanding.IsNegative() {
		return decimal.Zero
	}
	return outstanding
}

// Summarize derives the read-model row for one account.
func (a Account) Summarize(today time.Time) LoanSummary {
	totalRepaid := TotalRepaid(a.Repayments)
	return LoanSummary{
		Loan:         a.Loan,
		CustomerName: a.CustomerName,
		TotalRepaid:  totalRepaid,
		Status:       a.Loan.StatusOn(totalRepaid, today),
	}
}

// SummarizePortfolio computes the three portfolio sums over a shopkeeper's
// accounts. Every sum defaults to zero when no account qualifies. The overdue
// amount counts the outstanding balance only, so a loan repaid in full after
// its due date contributes nothing.
func SummarizePortfolio(accounts []Account, today time.Time) PortfolioSummary {
	summary := PortfolioSummary{
		TotalLoaned:    decimal.Zero,
		TotalCollected: decimal.Zero,
		OverdueAmount:  decimal.Zero,
	}
	for _, a := range accounts {
		totalRepaid := TotalRepaid(a.Repayments)
		summary.TotalLoaned = summary.TotalLoaned.Add(a.Loan.Amount)
		summary.TotalCollected = summary.TotalCollected.Add(totalRepaid)
		if a.Loan.StatusOn(totalRepaid, today) == StatusOverdue {
			summary.OverdueAmount = summary.OverdueAmount.Add(a.Loan.Outstanding(totalRepaid))
		}
	}
	return summary
}

// OverdueAccounts selects the accounts with a past due date and a positive
// outstanding balance, one row per overdue loan.
func OverdueAccounts(accounts []Account, today time.Time) []OverdueAccount {
	overdue := make([]OverdueAccount, 0)
	for _, a := range accounts {
		totalRepaid := TotalRepaid(a.Repayments)
		if a.Loan.StatusOn(totalRepaid, today) != StatusOverdue {
			continue
		}
		outstanding := a.Loan.Outstanding(totalRepaid)
		if !outstanding.IsPositive() {
			continue
		}
		overdue = append(overdue, OverdueAccount{
			Loan:         a.Loan,
			CustomerName: a.CustomerName,
			Outstanding:  outstanding,
		})
	}
	return overdue
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
