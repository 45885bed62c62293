package shopkeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"credit-ledger/internal/pkg/apperrors"

	"golang.org/x/crypto/bcrypt"
)

type Service interface {
	Register(ctx context.Context, name, email, password string) (*Shopkeeper, error)

	Authenticate(ctx context.Context, email, password string) (*Shopkeeper, error)
}

var _ Service = (*service)(nil)

type service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) Service {
	if repo == nil {
		panic("shopkeeper repository cannot be nil")
	}
	return &service{
		repo:   repo,
		logger: logger.With(slog.String("component", "shopkeeperService")),
	}
}

func (s *service) Register(ctx context.Context, name, email, password string) (*Shopkeeper, error) {
	s.logger.InfoContext(ctx, "Attempting to register shopkeeper")

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, apperrors.NewValidationError("name", "cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewValidationError("email", "must be a valid email address")
	}
	if len(password) < 8 {
		return nil, apperrors.NewValidationError("password", "must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to hash password: %v", apperrors.ErrInternalServer, err)
	}

	sk := &Shopkeeper{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}

	// Email uniqueness is a database constraint; a duplicate surfaces as
	// ErrAlreadyExists from the repository.
	if err := s.repo.Create(ctx, sk); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "Shopkeeper email already registered")
			return nil, fmt.Errorf("%w: email already registered", apperrors.ErrAlreadyExists)
		}
		s.logger.ErrorContext(ctx, "Repository failed to save shopkeeper", slog.Any("error", err))
		return nil, fmt.Errorf("failed to register shopkeeper: %w", err)
	}

	s.logger.InfoContext(ctx, "Shopkeeper registered successfully", slog.Int64("shopkeeperID", sk.ID))
	return sk, nil
}

func (s *service) Authenticate(ctx context.Context, email, password string) (*Shopkeeper, error) {
	s.logger.InfoContext(ctx, "Attempting to authenticate shopkeeper")

	email = strings.ToLower(strings.TrimSpace(email))
	sk, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "Authentication failed: unknown email")
			return nil, apperrors.ErrUnauthorized
		}
		s.logger.ErrorContext(ctx, "Repository error finding shopkeeper by email", slog.Any("error", err))
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(sk.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "Authentication failed: bad credentials", slog.Int64("shopkeeperID", sk.ID))
		return nil, apperrors.ErrUnauthorized
	}

	s.logger.InfoContext(ctx, "Shopkeeper authenticated successfully", slog.Int64("shopkeeperID", sk.ID))
	return sk, nil
}
