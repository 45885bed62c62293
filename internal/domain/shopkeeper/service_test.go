package shopkeeper

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"credit-ledger/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, nil))

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, sk *Shopkeeper) error {
	return m.Called(ctx, sk).Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*Shopkeeper, error) {
	ret := m.Called(ctx, email)
	var r0 *Shopkeeper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Shopkeeper)
	}
	return r0, ret.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, shopkeeperID int64) (*Shopkeeper, error) {
	ret := m.Called(ctx, shopkeeperID)
	var r0 *Shopkeeper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Shopkeeper)
	}
	return r0, ret.Error(1)
}

func (m *MockRepository) ListIDs(ctx context.Context) ([]int64, error) {
	ret := m.Called(ctx)
	var r0 []int64
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]int64)
	}
	return r0, ret.Error(1)
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("hashes password and normalizes email", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("Create", ctx, mock.AnythingOfType("*shopkeeper.Shopkeeper")).Run(func(args mock.Arguments) {
			sk := args.Get(1).(*Shopkeeper)
			sk.ID = 10
		}).Return(nil)

		sk, err := svc.Register(ctx, " Ram Kirana ", " Ram@Example.COM ", "supersecret")

		require.NoError(t, err)
		assert.Equal(t, int64(10), sk.ID)
		assert.Equal(t, "Ram Kirana", sk.Name)
		assert.Equal(t, "ram@example.com", sk.Email)
		assert.NotEqual(t, "supersecret", sk.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(sk.PasswordHash), []byte("supersecret")))
	})

	t.Run("rejects short password", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		_, err := svc.Register(ctx, "Ram", "ram@example.com", "short")

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "password", validationErr.Field)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("rejects malformed email", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		_, err := svc.Register(ctx, "Ram", "not-an-email", "supersecret")

		var validationErr *apperrors.ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "email", validationErr.Field)
	})

	t.Run("duplicate email reports already exists", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("Create", ctx, mock.AnythingOfType("*shopkeeper.Shopkeeper")).Return(apperrors.ErrAlreadyExists)

		_, err := svc.Register(ctx, "Ram", "ram@example.com", "supersecret")
		assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	})
}

func TestService_Authenticate(t *testing.T) {
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := &Shopkeeper{ID: 10, Name: "Ram", Email: "ram@example.com", PasswordHash: string(hash)}

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("FindByEmail", ctx, "ram@example.com").Return(stored, nil)

		sk, err := svc.Authenticate(ctx, " Ram@Example.com ", "supersecret")
		require.NoError(t, err)
		assert.Equal(t, int64(10), sk.ID)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("FindByEmail", ctx, "ram@example.com").Return(stored, nil)

		_, err := svc.Authenticate(ctx, "ram@example.com", "wrong")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("unknown email is unauthorized, not not-found", func(t *testing.T) {
		repo := new(MockRepository)
		svc := NewService(repo, logger)

		repo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

		_, err := svc.Authenticate(ctx, "ghost@example.com", "supersecret")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		assert.NotErrorIs(t, err, apperrors.ErrNotFound)
	})
}
