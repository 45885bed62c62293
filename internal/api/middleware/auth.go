package middleware

import (
	"context"
	"credit-ledger/internal/config"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const shopkeeperIDKey contextKey = "shopkeeperID"

// ShopkeeperID returns the authenticated shopkeeper's ID from the request
// context. The second return is false when the request never passed the auth
// middleware.
func ShopkeeperID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(shopkeeperIDKey).(int64)
	return id, ok
}

// WithShopkeeperID stamps a shopkeeper ID onto a context. Handler tests use
// this to simulate an authenticated request.
func WithShopkeeperID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, shopkeeperIDKey, id)
}

// AuthMiddleware validates the bearer token and resolves the calling
// shopkeeper. Every route behind it can trust ShopkeeperID(ctx) as the tenant
// boundary for the request.
func AuthMiddleware(cfg config.AuthConfig, logger *slog.Logger) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			shopkeeperID, ok := validateJWT(r, cfg.JWTSecret, logger)
			if !ok {
				http.Error(w, `{"error":{"message":"Unauthorized"}}`, http.StatusUnauthorized)
				return
			}
			ctx := WithShopkeeperID(r.Context(), shopkeeperID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validateJWT(r *http.Request, secret string, logger *slog.Logger) (int64, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		logger.Warn("AuthMiddleware: Missing Authorization header")
		return 0, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		logger.Warn("AuthMiddleware: Invalid Authorization header format")
		return 0, false
	}
	tokenString := parts[1]

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {

		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			logger.Warn("AuthMiddleware: Unexpected signing method")
			return nil, http.ErrAbortHandler
		}
		return []byte(secret), nil
	})

	if err != nil || !token.Valid {
		logger.Warn("AuthMiddleware: Invalid token", "error", err)
		return 0, false
	}

	// The subject claim carries the shopkeeper ID issued at login.
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		logger.Warn("AuthMiddleware: Token missing shopkeeper subject claim")
		return 0, false
	}

	return int64(sub), true
}
