package batch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"credit-ledger/internal/domain/loan"
	"credit-ledger/internal/domain/shopkeeper"
	"credit-ledger/internal/event"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

var sweepDay = time.Date(2025, time.March, 15, 8, 0, 0, 0, time.UTC)

func sweepClock() time.Time { return sweepDay }

type MockShopkeeperRepository struct {
	mock.Mock
}

func (m *MockShopkeeperRepository) Create(ctx context.Context, sk *shopkeeper.Shopkeeper) error {
	return m.Called(ctx, sk).Error(0)
}

func (m *MockShopkeeperRepository) FindByEmail(ctx context.Context, email string) (*shopkeeper.Shopkeeper, error) {
	ret := m.Called(ctx, email)
	var r0 *shopkeeper.Shopkeeper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*shopkeeper.Shopkeeper)
	}
	return r0, ret.Error(1)
}

func (m *MockShopkeeperRepository) FindByID(ctx context.Context, shopkeeperID int64) (*shopkeeper.Shopkeeper, error) {
	ret := m.Called(ctx, shopkeeperID)
	var r0 *shopkeeper.Shopkeeper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*shopkeeper.Shopkeeper)
	}
	return r0, ret.Error(1)
}

func (m *MockShopkeeperRepository) ListIDs(ctx context.Context) ([]int64, error) {
	ret := m.Called(ctx)
	var r0 []int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]int64)
	}
	return r0, ret.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (m *MockLedgerService) CreateLoan(ctx context.Context, ownerID, customerID int64, itemDescription string, amount decimal.Decimal, loanDate, dueDate time.Time, frequency string) (*loan.Loan, error) {
	ret := m.Called(ctx, ownerID, customerID, itemDescription, amount, loanDate, dueDate, frequency)
	var r0 *loan.Loan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.Loan)
	}
	return r0, ret.Error(1)
}

func (m *MockLedgerService) RecordRepayment(ctx context.Context, ownerID, loanID int64, amount decimal.Decimal, date time.Time) (*loan.Repayment, error) {
	ret := m.Called(ctx, ownerID, loanID, amount, date)
	var r0 *loan.Repayment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.Repayment)
	}
	return r0, ret.Error(1)
}

func (m *MockLedgerService) GetLoan(ctx context.Context, ownerID, loanID int64, today time.Time) (*loan.LoanSummary, error) {
	ret := m.Called(ctx, ownerID, loanID, today)
	var r0 *loan.LoanSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.LoanSummary)
	}
	return r0, ret.Error(1)
}

func (m *MockLedgerService) ListLoans(ctx context.Context, ownerID int64, today time.Time) ([]loan.LoanSummary, error) {
	ret := m.Called(ctx, ownerID, today)
	var r0 []loan.LoanSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]loan.LoanSummary)
	}
	return r0, ret.Error(1)
}

func (m *MockLedgerService) Summary(ctx context.Context, ownerID int64, today time.Time) (*loan.PortfolioSummary, error) {
	ret := m.Called(ctx, ownerID, today)
	var r0 *loan.PortfolioSummary
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*loan.PortfolioSummary)
	}
	return r0, ret.Error(1)
}

func (m *MockLedgerService) OverdueAccounts(ctx context.Context, ownerID int64, today time.Time) ([]loan.OverdueAccount, error) {
	ret := m.Called(ctx, ownerID, today)
	var r0 []loan.OverdueAccount
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]loan.OverdueAccount)
	}
	return r0, ret.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishRepaymentRecorded(ctx context.Context, ev event.RepaymentRecordedEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func (m *MockEventPublisher) PublishLoanOverdue(ctx context.Context, ev event.LoanOverdueEvent) error {
	return m.Called(ctx, ev).Error(0)
}

func overdueAccount(ownerID, loanID int64, outstanding string) loan.OverdueAccount {
	return loan.OverdueAccount{
		Loan: loan.Loan{
			ID:         loanID,
			OwnerID:    ownerID,
			CustomerID: 20,
			DueDate:    time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
			Amount:     decimal.RequireFromString("100.00"),
		},
		CustomerName: "Asha",
		Outstanding:  decimal.RequireFromString(outstanding),
	}
}

func TestOverdueSweepJob_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("publishes one event per overdue loan", func(t *testing.T) {
		repo := new(MockShopkeeperRepository)
		ledger := new(MockLedgerService)
		pub := new(MockEventPublisher)
		job := NewOverdueSweepJob(repo, ledger, pub, sweepClock, testLogger)

		repo.On("ListIDs", ctx).Return([]int64{10, 11}, nil)
		ledger.On("OverdueAccounts", ctx, int64(10), sweepDay).
			Return([]loan.OverdueAccount{overdueAccount(10, 1, "60.00"), overdueAccount(10, 2, "50.00")}, nil)
		ledger.On("OverdueAccounts", ctx, int64(11), sweepDay).
			Return([]loan.OverdueAccount{}, nil)
		pub.On("PublishLoanOverdue", ctx, mock.MatchedBy(func(ev event.LoanOverdueEvent) bool {
			return ev.OwnerID == 10 && ev.Outstanding == "60.00"
		})).Return(nil).Once()
		pub.On("PublishLoanOverdue", ctx, mock.MatchedBy(func(ev event.LoanOverdueEvent) bool {
			return ev.OwnerID == 10 && ev.Outstanding == "50.00"
		})).Return(nil).Once()

		err := job.Run(ctx)

		require.NoError(t, err)
		repo.AssertExpectations(t)
		ledger.AssertExpectations(t)
		pub.AssertExpectations(t)
	})

	t.Run("no shopkeepers is a no-op", func(t *testing.T) {
		repo := new(MockShopkeeperRepository)
		ledger := new(MockLedgerService)
		job := NewOverdueSweepJob(repo, ledger, nil, sweepClock, testLogger)

		repo.On("ListIDs", ctx).Return([]int64{}, nil)

		require.NoError(t, job.Run(ctx))
		ledger.AssertNotCalled(t, "OverdueAccounts", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("listing failure aborts the job", func(t *testing.T) {
		repo := new(MockShopkeeperRepository)
		ledger := new(MockLedgerService)
		job := NewOverdueSweepJob(repo, ledger, nil, sweepClock, testLogger)

		repo.On("ListIDs", ctx).Return(nil, errors.New("connection refused"))

		assert.Error(t, job.Run(ctx))
	})

	t.Run("per-shopkeeper failure is counted, other books still processed", func(t *testing.T) {
		repo := new(MockShopkeeperRepository)
		ledger := new(MockLedgerService)
		pub := new(MockEventPublisher)
		job := NewOverdueSweepJob(repo, ledger, pub, sweepClock, testLogger)

		repo.On("ListIDs", ctx).Return([]int64{10, 11}, nil)
		ledger.On("OverdueAccounts", ctx, int64(10), sweepDay).
			Return(nil, errors.New("query timeout"))
		ledger.On("OverdueAccounts", ctx, int64(11), sweepDay).
			Return([]loan.OverdueAccount{overdueAccount(11, 3, "40.00")}, nil)
		pub.On("PublishLoanOverdue", ctx, mock.AnythingOfType("event.LoanOverdueEvent")).Return(nil).Once()

		err := job.Run(ctx)

		assert.ErrorContains(t, err, "1 errors")
		pub.AssertExpectations(t)
	})

	t.Run("publish failure is counted as an error", func(t *testing.T) {
		repo := new(MockShopkeeperRepository)
		ledger := new(MockLedgerService)
		pub := new(MockEventPublisher)
		job := NewOverdueSweepJob(repo, ledger, pub, sweepClock, testLogger)

		repo.On("ListIDs", ctx).Return([]int64{10}, nil)
		ledger.On("OverdueAccounts", ctx, int64(10), sweepDay).
			Return([]loan.OverdueAccount{overdueAccount(10, 1, "60.00")}, nil)
		pub.On("PublishLoanOverdue", ctx, mock.AnythingOfType("event.LoanOverdueEvent")).
			Return(errors.New("channel closed"))

		assert.ErrorContains(t, job.Run(ctx), "1 errors")
	})

	t.Run("nil publisher still computes books without publishing", func(t *testing.T) {
		repo := new(MockShopkeeperRepository)
		ledger := new(MockLedgerService)
		job := NewOverdueSweepJob(repo, ledger, nil, sweepClock, testLogger)

		repo.On("ListIDs", ctx).Return([]int64{10}, nil)
		ledger.On("OverdueAccounts", ctx, int64(10), sweepDay).
			Return([]loan.OverdueAccount{overdueAccount(10, 1, "60.00")}, nil)

		require.NoError(t, job.Run(ctx))
	})
}
