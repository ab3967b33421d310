package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func tenantRouter(tenantID *uuid.UUID) *gin.Engine {
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if tenantID != nil {
			c.Set(TenantIDKey, *tenantID)
		}
		c.Next()
	})
	router.Use(TenantMiddleware())
	router.GET("/test", okHandler)
	return router
}

func TestTenantMiddleware(t *testing.T) {
	tenantID := uuid.New()

	tests := []struct {
		name   string
		tenant *uuid.UUID
		header string
		status int
	}{
		{"tenant from token", &tenantID, "", http.StatusOK},
		{"matching header", &tenantID, tenantID.String(), http.StatusOK},
		{"header naming another tenant", &tenantID, uuid.NewString(), http.StatusForbidden},
		{"malformed header", &tenantID, "acme", http.StatusForbidden},
		{"no tenant in context", nil, tenantID.String(), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(TenantHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			tenantRouter(tt.tenant).ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
