package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allow(t *testing.T, l Limiter, key string) bool {
	t.Helper()
	ok, _, err := l.Allow(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestRateLimiter(t *testing.T) {
	t.Run("blocks requests exceeding limit", func(t *testing.T) {
		limiter := NewRateLimiter(3, time.Minute)

		for i := 0; i < 3; i++ {
			assert.True(t, allow(t, limiter, "client"), "request %d should be allowed", i+1)
		}
		assert.False(t, allow(t, limiter, "client"))
	})

	t.Run("separate limits per key", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)

		assert.True(t, allow(t, limiter, "a"))
		assert.False(t, allow(t, limiter, "a"))
		assert.True(t, allow(t, limiter, "b"))
	})

	t.Run("resets after window", func(t *testing.T) {
		limiter := NewRateLimiter(1, time.Minute)
		now := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
		limiter.now = func() time.Time { return now }

		assert.True(t, allow(t, limiter, "c"))
		assert.False(t, allow(t, limiter, "c"))

		now = now.Add(time.Minute)
		assert.True(t, allow(t, limiter, "c"))
	})
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRedisRateLimiter(client, 2, time.Hour)

	ok, remaining, err := limiter.Allow(context.Background(), "tenant:ip")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	assert.True(t, allow(t, limiter, "tenant:ip"))
	assert.False(t, allow(t, limiter, "tenant:ip"))
	assert.True(t, allow(t, limiter, "other:ip"))

	t.Run("reports redis failures", func(t *testing.T) {
		mr.Close()
		_, _, err := limiter.Allow(context.Background(), "tenant:ip")
		assert.Error(t, err)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tenantID := uuid.New()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(TenantIDKey, tenantID)
		c.Next()
	})
	router.Use(RateLimit(NewRateLimiter(1, time.Minute), nil))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, assert.AnError
}
func (failingLimiter) Limit() int { return 1 }

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RateLimit(failingLimiter{}, nil))
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
