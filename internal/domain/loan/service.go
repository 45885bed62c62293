package loan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"credit-ledger/internal/domain/customer"
	"credit-ledger/internal/event"
	"credit-ledger/internal/infrastructure/monitoring"
	"credit-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

type LedgerService interface {
	CreateLoan(ctx context.Context, ownerID, customerID int64, itemDescription string, amount decimal.Decimal, loanDate, dueDate time.Time, frequency string) (*Loan, error)

	RecordRepayment(ctx context.Context, ownerID, loanID int64, amount decimal.Decimal, date time.Time) (*Repayment, error)

	GetLoan(ctx context.Context, ownerID, loanID int64, today time.Time) (*LoanSummary, error)

	ListLoans(ctx context.Context, ownerID int64, today time.Time) ([]LoanSummary, error)

	Summary(ctx context.Context, ownerID int64, today time.Time) (*PortfolioSummary, error)

	OverdueAccounts(ctx context.Context, ownerID int64, today time.Time) ([]OverdueAccount, error)
}

var _ LedgerService = (*ledgerService)(nil)

type ledgerService struct {
	repo            Repository
	customerService customer.CustomerService
	pub             event.EventPublisher
	logger          *slog.Logger
}

func NewLedgerService(repo Repository, customerService customer.CustomerService, pub event.EventPublisher, logger *slog.Logger) LedgerService {
	if repo == nil {
		panic("loan repository cannot be nil")
	}
	return &ledgerService{
		repo:            repo,
		customerService: customerService,
		pub:             pub,
		logger:          logger.With(slog.String("component", "ledgerService")),
	}
}

func (s *ledgerService) CreateLoan(ctx context.Context, ownerID, customerID int64, itemDescription string, amount decimal.Decimal, loanDate, dueDate time.Time, frequency string) (*Loan, error) {
	s.logger.InfoContext(ctx, "Creating new loan", slog.Int64("ownerID", ownerID), slog.Int64("customerID", customerID))

	if _, err := s.customerService.GetCustomer(ctx, customerID, ownerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found for loan creation", slog.Any("error", err))
			return nil, fmt.Errorf("%w: customer %d not found", apperrors.ErrNotFound, customerID)
		}
		s.logger.ErrorContext(ctx, "Failed to verify customer before loan creation", slog.Any("error", err))
		return nil, fmt.Errorf("failed to verify customer: %w", err)
	}

	newLoan, err := NewLoan(ownerID, customerID, itemDescription, amount, loanDate, dueDate, frequency)
	if err != nil {
		s.logger.WarnContext(ctx, "Loan validation failed", slog.Any("error", err))
		return nil, err
	}

	// The repository re-verifies customer ownership inside the insert
	// transaction; the check above only produces a friendlier early error.
	createdLoan, err := s.repo.CreateLoan(ctx, newLoan)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save loan", slog.Any("error", err))
		return nil, err
	}

	monitoring.RecordLoanCreated()
	s.logger.InfoContext(ctx, "Loan created successfully", slog.Int64("loanID", createdLoan.ID))
	return createdLoan, nil
}

func (s *ledgerService) RecordRepayment(ctx context.Context, ownerID, loanID int64, amount decimal.Decimal, date time.Time) (rep *Repayment, err error) {
	s.logger.InfoContext(ctx, "Recording repayment", slog.Int64("ownerID", ownerID), slog.Int64("loanID", loanID))

	defer func() {
		status := "success"
		switch {
		case errors.Is(err, apperrors.ErrValidation):
			status = "failure_amount"
		case errors.Is(err, apperrors.ErrNotFound):
			status = "failure_not_found"
		case err != nil:
			status = "failure_internal"
		}
		monitoring.RecordRepayment(status)
	}()

	newRepayment, err := NewRepayment(loanID, amount, date)
	if err != nil {
		s.logger.WarnContext(ctx, "Repayment validation failed", slog.Any("error", err))
		return nil, err
	}

	rep, err = s.repo.CreateRepayment(ctx, ownerID, newRepayment)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found for repayment", slog.Int64("loanID", loanID))
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Failed to save repayment", slog.Any("error", err))
		return nil, err
	}

	if s.pub != nil {
		ev := event.RepaymentRecordedEvent{
			OwnerID:   ownerID,
			LoanID:    loanID,
			Amount:    rep.Amount.StringFixed(2),
			Date:      rep.Date,
			Timestamp: time.Now(),
		}
		if pubErr := s.pub.PublishRepaymentRecorded(ctx, ev); pubErr != nil {
			s.logger.ErrorContext(ctx, "Repayment saved, but failed to publish event", slog.Any("error", pubErr))
		}
	}

	s.logger.InfoContext(ctx, "Repayment recorded successfully", slog.Int64("repaymentID", rep.ID))
	return rep, nil
}

func (s *ledgerService) GetLoan(ctx context.Context, ownerID, loanID int64, today time.Time) (*LoanSummary, error) {
	s.logger.InfoContext(ctx, "Getting loan details", slog.Int64("loanID", loanID))

	l, err := s.repo.GetLoanByID(ctx, loanID, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Loan not found", slog.Int64("loanID", loanID))
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Failed to get loan", slog.Any("error", err))
		return nil, err
	}

	repayments, err := s.repo.GetRepaymentsByLoanID(ctx, loanID, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to get repayments for loan", slog.Any("error", err))
		return nil, err
	}

	summary := Account{Loan: *l, Repayments: repayments}.Summarize(today)
	return &summary, nil
}

func (s *ledgerService) ListLoans(ctx context.Context, ownerID int64, today time.Time) ([]LoanSummary, error) {
	s.logger.InfoContext(ctx, "Listing loans", slog.Int64("ownerID", ownerID))

	accounts, err := s.fetchAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	summaries := make([]LoanSummary, len(accounts))
	for i, a := range accounts {
		summaries[i] = a.Summarize(today)
	}

	s.logger.InfoContext(ctx, "Loans listed successfully", slog.Int("count", len(summaries)))
	return summaries, nil
}

func (s *ledgerService) Summary(ctx context.Context, ownerID int64, today time.Time) (*PortfolioSummary, error) {
	s.logger.InfoContext(ctx, "Computing portfolio summary", slog.Int64("ownerID", ownerID))

	accounts, err := s.fetchAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	summary := SummarizePortfolio(accounts, today)
	return &summary, nil
}

func (s *ledgerService) OverdueAccounts(ctx context.Context, ownerID int64, today time.Time) ([]OverdueAccount, error) {
	s.logger.InfoContext(ctx, "Listing overdue accounts", slog.Int64("ownerID", ownerID))

	accounts, err := s.fetchAccounts(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	overdue := OverdueAccounts(accounts, today)
	s.logger.InfoContext(ctx, "Overdue accounts computed", slog.Int("count", len(overdue)))
	return overdue, nil
}

// fetchAccounts reads the shopkeeper's accounts and drops any row whose loan
// carries a different owner than requested. Such a row is a data-integrity
// fault; it must never leak into another shopkeeper's aggregates.
func (s *ledgerService) fetchAccounts(ctx context.Context, ownerID int64) ([]Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list loan accounts", slog.Any("error", err))
		return nil, err
	}

	filtered := accounts[:0]
	for _, a := range accounts {
		if a.Loan.OwnerID != ownerID {
			s.logger.ErrorContext(ctx, "Excluding loan with mismatched owner from results",
				slog.Int64("loanID", a.Loan.ID),
				slog.Int64("loanOwnerID", a.Loan.OwnerID),
				slog.Int64("requestedOwnerID", ownerID),
				slog.Any("error", apperrors.ErrTenantViolation),
			)
			continue
		}
		filtered = append(filtered, a)
	}
	return filtered, nil
}
