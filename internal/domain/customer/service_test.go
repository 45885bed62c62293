package customer

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"credit-ledger/internal/pkg/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, cust *Customer) error {
	return m.Called(ctx, cust).Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, customerID, ownerID int64) (*Customer, error) {
	ret := m.Called(ctx, customerID, ownerID)
	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}
	return r0, ret.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, ownerID int64) ([]*Customer, error) {
	ret := m.Called(ctx, ownerID)
	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}
	return r0, ret.Error(1)
}

func (m *MockCustomerRepository) Update(ctx context.Context, cust *Customer) error {
	return m.Called(ctx, cust).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, customerID, ownerID int64) error {
	return m.Called(ctx, customerID, ownerID).Error(0)
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	ctx := context.Background()
	ownerID := int64(10)

	t.Run("creates customer scoped to owner", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		repo.On("Create", ctx, mock.AnythingOfType("*customer.Customer")).Run(func(args mock.Arguments) {
			cust := args.Get(1).(*Customer)
			cust.ID = 20
		}).Return(nil)

		cust, err := svc.CreateCustomer(ctx, ownerID, "Asha", "9800000001", "Main Street", 7, decimal.NewFromInt(500))

		require.NoError(t, err)
		assert.Equal(t, int64(20), cust.ID)
		assert.Equal(t, ownerID, cust.OwnerID)
		repo.AssertExpectations(t)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		_, err := svc.CreateCustomer(ctx, ownerID, "   ", "", "", 5, decimal.Zero)

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "name", validationErr.Field)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects trust score out of range", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		_, err := svc.CreateCustomer(ctx, ownerID, "Asha", "", "", 11, decimal.Zero)

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "trustScore", validationErr.Field)
	})

	t.Run("rejects negative credit limit", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		_, err := svc.CreateCustomer(ctx, ownerID, "Asha", "", "", 5, decimal.NewFromInt(-1))

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "creditLimit", validationErr.Field)
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("returns owned customer", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		repo.On("FindByID", ctx, int64(20), int64(10)).Return(&Customer{ID: 20, OwnerID: 10, Name: "Asha"}, nil)

		cust, err := svc.GetCustomer(ctx, 20, 10)
		require.NoError(t, err)
		assert.Equal(t, "Asha", cust.Name)
	})

	t.Run("foreign customer reports not found", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		repo.On("FindByID", ctx, int64(20), int64(99)).Return(nil, apperrors.ErrNotFound)

		_, err := svc.GetCustomer(ctx, 20, 99)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCustomerService_UpdateCustomer(t *testing.T) {
	ctx := context.Background()
	name := "Asha Devi"
	score := 9

	t.Run("applies only provided fields", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		stored := &Customer{ID: 20, OwnerID: 10, Name: "Asha", Phone: "9800000001", TrustScore: 7}
		repo.On("FindByID", ctx, int64(20), int64(10)).Return(stored, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*customer.Customer")).Return(nil)

		cust, err := svc.UpdateCustomer(ctx, 20, 10, UpdateCustomerParams{Name: &name, TrustScore: &score})

		require.NoError(t, err)
		assert.Equal(t, "Asha Devi", cust.Name)
		assert.Equal(t, 9, cust.TrustScore)
		assert.Equal(t, "9800000001", cust.Phone)
	})

	t.Run("customer deleted concurrently reports not found", func(t *testing.T) {
		repo := new(MockCustomerRepository)
		svc := NewCustomerService(repo, logger)

		stored := &Customer{ID: 20, OwnerID: 10, Name: "Asha"}
		repo.On("FindByID", ctx, int64(20), int64(10)).Return(stored, nil)
		repo.On("Update", ctx, mock.AnythingOfType("*customer.Customer")).Return(apperrors.ErrNotFound)

		_, err := svc.UpdateCustomer(ctx, 20, 10, UpdateCustomerParams{Name: &name})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	ctx := context.Background()

	repo := new(MockCustomerRepository)
	svc := NewCustomerService(repo, logger)

	repo.On("Delete", ctx, int64(20), int64(10)).Return(nil)
	assert.NoError(t, svc.DeleteCustomer(ctx, 20, 10))

	repo.On("Delete", ctx, int64(21), int64(10)).Return(apperrors.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteCustomer(ctx, 21, 10), apperrors.ErrNotFound)
}
