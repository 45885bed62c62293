package handler

import (
	"credit-ledger/internal/api/handler/dto"
	"credit-ledger/internal/config"
	"credit-ledger/internal/domain/shopkeeper"
	"credit-ledger/internal/pkg/apperrors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type AuthHandler struct {
	service shopkeeper.Service
	cfg     config.AuthConfig
	logger  *slog.Logger
}

func NewAuthHandler(s shopkeeper.Service, cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: s,
		cfg:     cfg,
		logger:  l.With("component", "AuthHandler"),
	}
}

// Register creates a shopkeeper account.
//
// @Summary Register a shopkeeper
// @Description This endpoint registers a new shopkeeper account with name, email and password.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration request payload"
// @Success 201 {object} dto.ShopkeeperResponse "Shopkeeper successfully registered"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or validation error"
// @Failure 409 {object} dto.ErrorResponse "Email already registered"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	sk, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewShopkeeperResponse(sk))
}

// Login authenticates a shopkeeper and issues a bearer token.
//
// @Summary Authenticate a shopkeeper
// @Description This endpoint verifies the shopkeeper's credentials and returns a JWT bearer token carrying the shopkeeper's identity.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login request payload"
// @Success 200 {object} dto.TokenResponse "Token successfully issued"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 401 {object} dto.ErrorResponse "Bad credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}

	sk, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		respondError(w, err)
		return
	}

	expiresAt := time.Now().Add(h.cfg.TokenTTL)
	claims := jwt.MapClaims{
		"sub":  sk.ID,
		"name": sk.Name,
		"exp":  expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: failed to sign token", apperrors.ErrInternalServer))
		return
	}

	respondJSON(w, http.StatusOK, dto.TokenResponse{
		Token:     tokenString,
		ExpiresAt: expiresAt,
	})
}
