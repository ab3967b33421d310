package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gestock/backend/internal/infrastructure/auth"
	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/gestock/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWTService() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "gestock-test",
	})
}

type stubRevocations struct {
	revoked bool
	err     error
}

func (s stubRevocations) IsRevoked(context.Context, *auth.Identity) (bool, error) {
	return s.revoked, s.err
}

func issue(t *testing.T, svc *auth.JWTService, username string) (string, auth.IssueInput) {
	t.Helper()
	in := auth.IssueInput{TenantID: uuid.New(), UserID: uuid.New(), Username: username}
	token, err := svc.Issue(in)
	require.NoError(t, err)
	return token, in
}

func serveWithJWT(cfg JWTMiddlewareConfig, token string, handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.Use(JWTAuthMiddleware(cfg))
	router.GET("/test", handler)
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "up") })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func okHandler(c *gin.Context) { c.String(http.StatusOK, "ok") }

func TestJWTAuthMiddleware_ValidToken(t *testing.T) {
	svc := newTestJWTService()
	token, in := issue(t, svc, "Awa Diop")

	w := serveWithJWT(JWTMiddlewareConfig{Verifier: svc}, token, func(c *gin.Context) {
		tenantID, ok := GetTenantID(c)
		assert.True(t, ok)
		assert.Equal(t, in.TenantID, tenantID)
		assert.Equal(t, "Awa Diop", GetActor(c))
		require.NotNil(t, GetIdentity(c))
		assert.Equal(t, in.UserID, GetIdentity(c).UserID)

		ctx := c.Request.Context()
		assert.Equal(t, in.TenantID.String(), logger.GetTenantID(ctx))
		assert.Equal(t, "Awa Diop", logger.GetActor(ctx))
		c.String(http.StatusOK, "ok")
	})

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_Rejections(t *testing.T) {
	svc := newTestJWTService()

	t.Run("missing header", func(t *testing.T) {
		w := serveWithJWT(JWTMiddlewareConfig{Verifier: svc}, "", okHandler)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("malformed token", func(t *testing.T) {
		w := serveWithJWT(JWTMiddlewareConfig{Verifier: svc}, "not-a-jwt", okHandler)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})

	t.Run("expired token", func(t *testing.T) {
		now := time.Now()
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "gestock-test",
				IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Hour)),
			},
			TenantID: uuid.NewString(),
			UserID:   uuid.NewString(),
		}).SignedString([]byte("test-secret-key-at-least-32-chars"))
		require.NoError(t, err)
		w := serveWithJWT(JWTMiddlewareConfig{Verifier: svc}, token, okHandler)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		other := auth.NewJWTService(config.JWTConfig{Secret: "another-secret-key-at-least-32-chars", Issuer: "gestock-test"})
		token, _ := issue(t, other, "awa")
		w := serveWithJWT(JWTMiddlewareConfig{Verifier: svc}, token, okHandler)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("revoked token", func(t *testing.T) {
		token, _ := issue(t, svc, "awa")
		w := serveWithJWT(JWTMiddlewareConfig{Verifier: svc, Revocations: stubRevocations{revoked: true}}, token, okHandler)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_REVOKED")
	})
}

func TestJWTAuthMiddleware_RevocationCheckFailsOpen(t *testing.T) {
	svc := newTestJWTService()
	token, _ := issue(t, svc, "awa")

	w := serveWithJWT(JWTMiddlewareConfig{Verifier: svc, Revocations: stubRevocations{err: assert.AnError}}, token, okHandler)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestJWTAuthMiddleware_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(JWTAuthMiddleware(JWTMiddlewareConfig{Verifier: newTestJWTService(), SkipPaths: []string{"/health"}}))
	router.GET("/health", okHandler)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
