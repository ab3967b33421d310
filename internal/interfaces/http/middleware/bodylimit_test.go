package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gestock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saleDraft struct {
	Items []struct {
		Name     string `json:"name"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
}

func newSalesRouter(limit int64) *gin.Engine {
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	router.POST("/api/v1/sales", func(c *gin.Context) {
		var draft saleDraft
		if err := c.ShouldBindJSON(&draft); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				abortPayloadTooLarge(c)
				return
			}
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"lines": len(draft.Items)})
	})
	router.GET("/api/v1/sales", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func saleBody(lines int) string {
	parts := make([]string, lines)
	for i := range parts {
		parts[i] = `{"name":"Sucre 1kg","quantity":2}`
	}
	return `{"items":[` + strings.Join(parts, ",") + `]}`
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("a sale draft under the limit is bound", func(t *testing.T) {
		body := saleBody(3)
		w := httptest.NewRecorder()
		newSalesRouter(int64(len(body))).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body)))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"lines":3}`, w.Body.String())
	})

	t.Run("declared oversize bodies are refused before the handler", func(t *testing.T) {
		body := saleBody(50)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
		req.Header.Set(RequestIDHeader, "req-oversize")
		w := httptest.NewRecorder()
		newSalesRouter(256).ServeHTTP(w, req)

		require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodePayloadTooLarge, resp.Error.Code)
		assert.Equal(t, "req-oversize", resp.Error.RequestID)
	})

	t.Run("streamed bodies are cut at the limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(saleBody(50)))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		newSalesRouter(256).ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodePayloadTooLarge)
	})

	t.Run("listing sales carries no body to limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		newSalesRouter(1).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/sales", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("a zero limit disables the check", func(t *testing.T) {
		w := httptest.NewRecorder()
		newSalesRouter(0).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(saleBody(50))))
		assert.Equal(t, http.StatusCreated, w.Code)
	})
}
