package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	_ "github.com/gestock/backend/docs"
	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/application/trade"
	"github.com/gestock/backend/internal/infrastructure/auth"
	"github.com/gestock/backend/internal/infrastructure/config"
	"github.com/gestock/backend/internal/infrastructure/persistence"
	"github.com/gestock/backend/internal/interfaces/http/dto"
	"github.com/gestock/backend/internal/interfaces/http/handler"
	"github.com/gestock/backend/internal/interfaces/http/middleware"
	"github.com/gestock/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testServer struct {
	engine *gin.Engine
	jwt    *auth.JWTService
}

func newTestServer(t *testing.T, limiter middleware.Limiter) *testServer {
	t.Helper()
	return newTestServerWith(t, func(o *Options) { o.Limiter = limiter })
}

func newTestServerWith(t *testing.T, configure func(*Options)) *testServer {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	db := testutil.NewSQLiteDB(t)
	log := zaptest.NewLogger(t)
	scope := persistence.NewGormTransactionScope(db)
	inventoryService := inventoryapp.NewInventoryService(
		persistence.NewGormStockItemRepository(db),
		persistence.NewGormMovementRepository(db),
		scope,
		log,
	)
	campaignService := inventoryapp.NewCampaignService(persistence.NewGormCampaignRepository(db), scope, log)
	saleService := trade.NewSaleService(
		persistence.NewGormSaleRepository(db),
		persistence.NewGormInvoiceRepository(db),
		persistence.NewGormPaymentRepository(db),
		persistence.NewGormSalesTransactionScope(db),
		trade.DefaultSaleSettings(),
		log,
	)

	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret: "router-test-secret-at-least-32-chars",
		Issuer: "gestock-test",
	})

	opts := Options{
		App: config.AppConfig{Name: "gestock", Env: "test"},
		HTTP: config.HTTPConfig{
			MaxBodySize:      1 << 20,
			CORSAllowOrigins: []string{"https://app.gestock.test"},
		},
		Verifier: jwtService,
		Logger:   log,
	}
	configure(&opts)
	engine := NewEngine(opts, Handlers{
		Stock:    handler.NewStockHandler(inventoryService),
		Campaign: handler.NewCampaignHandler(campaignService),
		Sale:     handler.NewSaleHandler(saleService),
		System:   handler.NewSystemHandler("gestock", "test", nil),
	})
	return &testServer{engine: engine, jwt: jwtService}
}

func (s *testServer) token(t *testing.T, tenantID uuid.UUID) string {
	t.Helper()
	token, err := s.jwt.Issue(auth.IssueInput{TenantID: tenantID, UserID: uuid.New(), Username: "Awa"})
	require.NoError(t, err)
	return token
}

func (s *testServer) request(method, path, token, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestEngine_HealthIsPublic(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.request(http.MethodGet, "/health", "", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestEngine_APIRequiresToken(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.request(http.MethodGet, "/api/v1/stock", "", "", nil)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, dto.ErrCodeUnauthorized, errorCode(t, w))
}

func TestEngine_TenantIsolation(t *testing.T) {
	s := newTestServer(t, nil)
	tenantA, tenantB := uuid.New(), uuid.New()
	tokenA, tokenB := s.token(t, tenantA), s.token(t, tenantB)

	w := s.request(http.MethodPost, "/api/v1/stock", tokenA, `{"name":"Mil","quantity":3}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Data inventoryapp.StockItemResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, tenantA, created.Data.TenantID)

	w = s.request(http.MethodGet, "/api/v1/stock/"+created.Data.ID.String(), tokenB, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.request(http.MethodGet, "/api/v1/stock", tokenA, "", map[string]string{
		middleware.TenantHeaderKey: tenantB.String(),
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
}

func TestEngine_StaticRoutesWinOverItemID(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, uuid.New())

	for _, path := range []string{
		"/api/v1/stock/movements",
		"/api/v1/stock/movements/stats",
		"/api/v1/stock/campaigns",
		"/api/v1/sales",
	} {
		w := s.request(http.MethodGet, path, token, "", nil)
		assert.Equal(t, http.StatusOK, w.Code, path+": "+w.Body.String())
	}
}

func TestEngine_RateLimit(t *testing.T) {
	s := newTestServer(t, middleware.NewRateLimiter(2, time.Minute))
	token := s.token(t, uuid.New())

	for i := 0; i < 2; i++ {
		w := s.request(http.MethodGet, "/api/v1/stock", token, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := s.request(http.MethodGet, "/api/v1/stock", token, "", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, dto.ErrCodeRateLimited, errorCode(t, w))
}

func TestEngine_CORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.request(http.MethodOptions, "/api/v1/stock", "", "", map[string]string{
		"Origin":                        "https://app.gestock.test",
		"Access-Control-Request-Method": http.MethodPost,
	})

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.gestock.test", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEngine_BodyLimit(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.token(t, uuid.New())
	body := `{"name":"` + strings.Repeat("x", 2<<20) + `"}`

	w := s.request(http.MethodPost, "/api/v1/stock", token, body, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestEngine_Swagger(t *testing.T) {
	t.Run("disabled answers not found", func(t *testing.T) {
		s := newTestServer(t, nil)

		w := s.request(http.MethodGet, "/swagger/doc.json", "", "", nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, errorCode(t, w))
	})

	t.Run("serves the API description", func(t *testing.T) {
		s := newTestServerWith(t, func(o *Options) { o.Swagger = config.SwaggerConfig{Enabled: true} })

		w := s.request(http.MethodGet, "/swagger/doc.json", "", "", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var doc struct {
			Info struct {
				Title string `json:"title"`
			} `json:"info"`
			Paths map[string]json.RawMessage `json:"paths"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
		assert.Equal(t, "Gestock API", doc.Info.Title)
		assert.Contains(t, doc.Paths, "/sales/{id}/cancel")
		assert.Contains(t, doc.Paths, "/stock/campaigns/{id}/validate")
	})

	t.Run("auth required", func(t *testing.T) {
		s := newTestServerWith(t, func(o *Options) {
			o.Swagger = config.SwaggerConfig{Enabled: true, RequireAuth: true}
		})

		w := s.request(http.MethodGet, "/swagger/doc.json", "", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		w = s.request(http.MethodGet, "/swagger/doc.json", s.token(t, uuid.New()), "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("allow-list", func(t *testing.T) {
		s := newTestServerWith(t, func(o *Options) {
			o.Swagger = config.SwaggerConfig{Enabled: true, AllowedIPs: []string{"10.0.0.0/8"}}
		})

		// httptest requests come from 192.0.2.1
		w := s.request(http.MethodGet, "/swagger/doc.json", "", "", nil)

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, w))
	})
}
