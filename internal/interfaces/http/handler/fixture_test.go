package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/application/trade"
	"github.com/gestock/backend/internal/infrastructure/persistence"
	"github.com/gestock/backend/internal/interfaces/http/middleware"
	"github.com/gestock/backend/tests/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// api serves the stock, campaign and sale routes over an in-memory
// database, authenticated as a fixed tenant.
type api struct {
	router   *gin.Engine
	tenantID uuid.UUID
}

func newAPI(t *testing.T) *api {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	db := testutil.NewSQLiteDB(t)
	logger := zaptest.NewLogger(t)
	scope := persistence.NewGormTransactionScope(db)

	inventoryService := inventoryapp.NewInventoryService(
		persistence.NewGormStockItemRepository(db),
		persistence.NewGormMovementRepository(db),
		scope,
		logger,
	)
	campaignService := inventoryapp.NewCampaignService(persistence.NewGormCampaignRepository(db), scope, logger)
	saleService := trade.NewSaleService(
		persistence.NewGormSaleRepository(db),
		persistence.NewGormInvoiceRepository(db),
		persistence.NewGormPaymentRepository(db),
		persistence.NewGormSalesTransactionScope(db),
		trade.DefaultSaleSettings(),
		logger,
	)

	a := &api{router: gin.New(), tenantID: uuid.New()}
	a.router.Use(middleware.RequestID(), func(c *gin.Context) {
		c.Set(middleware.TenantIDKey, a.tenantID)
		c.Set(middleware.UsernameKey, "Awa")
		c.Next()
	})

	stock := NewStockHandler(inventoryService)
	campaigns := NewCampaignHandler(campaignService)
	sales := NewSaleHandler(saleService)

	r := a.router.Group("/api/v1")
	r.GET("/stock", stock.List)
	r.POST("/stock", stock.Create)
	r.GET("/stock/movements", stock.ListMovements)
	r.GET("/stock/movements/stats", stock.MovementStats)
	r.POST("/stock/movements", stock.AddMovement)
	r.POST("/stock/movements/bulk-in", stock.BulkStockIn)
	r.GET("/stock/campaigns", campaigns.List)
	r.POST("/stock/campaigns", campaigns.Create)
	r.GET("/stock/campaigns/:id", campaigns.Get)
	r.GET("/stock/campaigns/:id/sheet", campaigns.Export)
	r.PUT("/stock/campaigns/:id/items/:itemId", campaigns.UpdateCount)
	r.POST("/stock/campaigns/:id/validate", campaigns.Validate)
	r.POST("/stock/campaigns/:id/suspend", campaigns.Suspend)
	r.POST("/stock/campaigns/:id/cancel", campaigns.Cancel)
	r.POST("/stock/campaigns/:id/resume", campaigns.Resume)
	r.GET("/stock/:id", stock.Get)
	r.PUT("/stock/:id", stock.Update)
	r.DELETE("/stock/:id", stock.Delete)
	r.GET("/sales", sales.List)
	r.POST("/sales", sales.Create)
	r.GET("/sales/:id", sales.Get)
	r.PUT("/sales/:id", sales.Update)
	r.POST("/sales/:id/payments", sales.AddPayment)
	r.POST("/sales/:id/delivery", sales.RecordDelivery)
	r.POST("/sales/:id/cancel", sales.Cancel)
	return a
}

func (a *api) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// data decodes the data field of a success response into T
func data[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool `json:"success"`
		Data    T    `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope), w.Body.String())
	require.True(t, envelope.Success, w.Body.String())
	return envelope.Data
}

func (a *api) createItem(t *testing.T, name string, qty int) inventoryapp.StockItemResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/stock", map[string]any{
		"name":       name,
		"unit_price": "1500",
		"quantity":   qty,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data[inventoryapp.StockItemResponse](t, w)
}
