package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"credit-ledger/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stdout, nil))

const testSecret = "test-secret"

func signedToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func authedRequest(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/loans", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestAuthMiddleware(t *testing.T) {
	cfg := config.AuthConfig{Enabled: true, JWTSecret: testSecret}

	var gotID int64
	var gotOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, gotOK = ShopkeeperID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := AuthMiddleware(cfg, testLogger)(next)

	t.Run("valid token resolves shopkeeper ID", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub": 42,
			"exp": time.Now().Add(time.Hour).Unix(),
		}, testSecret)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest(token))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, gotOK)
		assert.Equal(t, int64(42), gotID)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest(""))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("wrong signature is rejected", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub": 42,
			"exp": time.Now().Add(time.Hour).Unix(),
		}, "other-secret")

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest(token))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"sub": 42,
			"exp": time.Now().Add(-time.Hour).Unix(),
		}, testSecret)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest(token))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("token without subject claim is rejected", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		}, testSecret)

		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, authedRequest(token))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("disabled auth passes requests through untouched", func(t *testing.T) {
		disabled := AuthMiddleware(config.AuthConfig{Enabled: false}, testLogger)(next)

		rr := httptest.NewRecorder()
		disabled.ServeHTTP(rr, authedRequest(""))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, gotOK)
	})
}
