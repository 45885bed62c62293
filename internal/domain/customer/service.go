package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"credit-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
)

const (
	inputValidationPassed = "Input validation passed"
	customerNotFound      = "Customer not found by repository"
	maxTrustScore         = 10
)

// UpdateCustomerParams carries the mutable customer fields; nil pointers
// leave the stored value unchanged.
type UpdateCustomerParams struct {
	Name        *string
	Phone       *string
	Address     *string
	TrustScore  *int
	CreditLimit *decimal.Decimal
}

type CustomerService interface {
	CreateCustomer(ctx context.Context, ownerID int64, name, phone, address string, trustScore int, creditLimit decimal.Decimal) (*Customer, error)
	GetCustomer(ctx context.Context, customerID, ownerID int64) (*Customer, error)
	ListCustomers(ctx context.Context, ownerID int64) ([]*Customer, error)
	UpdateCustomer(ctx context.Context, customerID, ownerID int64, params UpdateCustomerParams) (*Customer, error)
	DeleteCustomer(ctx context.Context, customerID, ownerID int64) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo   CustomerRepository
	logger *slog.Logger
}

func NewCustomerService(repo CustomerRepository, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	return &customerService{
		repo:   repo,
		logger: logger.With(slog.String("component", "customerService")),
	}
}

func validateFields(name string, trustScore int, creditLimit decimal.Decimal) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError("name", "cannot be empty")
	}
	if trustScore < 0 || trustScore > maxTrustScore {
		return apperrors.NewValidationError("trustScore", fmt.Sprintf("must be between 0 and %d", maxTrustScore))
	}
	if creditLimit.IsNegative() {
		return apperrors.NewValidationError("creditLimit", "cannot be negative")
	}
	return nil
}

func (s *customerService) CreateCustomer(ctx context.Context, ownerID int64, name, phone, address string, trustScore int, creditLimit decimal.Decimal) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to create new customer", slog.Int64("ownerID", ownerID))

	name = strings.TrimSpace(name)
	if err := validateFields(name, trustScore, creditLimit); err != nil {
		s.logger.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		return nil, err
	}
	s.logger.InfoContext(ctx, inputValidationPassed)

	cust := NewCustomer(ownerID, name, strings.TrimSpace(phone), strings.TrimSpace(address), trustScore, creditLimit)

	if err := s.repo.Create(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully created new customer", slog.Int64("customerID", cust.ID))
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID, ownerID int64) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to get customer by ID", slog.Int64("customerID", customerID))

	cust, err := s.repo.FindByID(ctx, customerID, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound)
			return nil, apperrors.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customer")
	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context, ownerID int64) ([]*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to list customers", slog.Int64("ownerID", ownerID))

	customers, err := s.repo.FindAll(ctx, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	s.logger.InfoContext(ctx, "Successfully retrieved customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) UpdateCustomer(ctx context.Context, customerID, ownerID int64, params UpdateCustomerParams) (*Customer, error) {
	s.logger.InfoContext(ctx, "Attempting to update customer", slog.Int64("customerID", customerID))

	cust, err := s.repo.FindByID(ctx, customerID, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer not found by repository for update")
			return nil, apperrors.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error finding customer for update", slog.Any("error", err))
		return nil, fmt.Errorf("cannot find customer %d to update: %w", customerID, err)
	}

	if params.Name != nil {
		cust.Name = strings.TrimSpace(*params.Name)
	}
	if params.Phone != nil {
		cust.Phone = strings.TrimSpace(*params.Phone)
	}
	if params.Address != nil {
		cust.Address = strings.TrimSpace(*params.Address)
	}
	if params.TrustScore != nil {
		cust.TrustScore = *params.TrustScore
	}
	if params.CreditLimit != nil {
		cust.CreditLimit = *params.CreditLimit
	}

	if err := validateFields(cust.Name, cust.TrustScore, cust.CreditLimit); err != nil {
		s.logger.WarnContext(ctx, "Validation failed for customer update", slog.Any("error", err))
		return nil, err
	}
	s.logger.InfoContext(ctx, inputValidationPassed)

	// Update re-checks ownership in its WHERE clause; a concurrent owner
	// change surfaces as not found rather than a cross-tenant write.
	if err := s.repo.Update(ctx, cust); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Customer disappeared before update completed")
			return nil, apperrors.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save updated customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully updated customer")
	return cust, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID, ownerID int64) error {
	s.logger.InfoContext(ctx, "Attempting to delete customer", slog.Int64("customerID", customerID))

	if err := s.repo.Delete(ctx, customerID, ownerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, customerNotFound)
			return apperrors.ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}

	s.logger.InfoContext(ctx, "Successfully deleted customer")
	return nil
}
