package handler

import (
	"net/http"
	"testing"

	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/interfaces/http/dto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStockHandler_CreateAndGet(t *testing.T) {
	a := newAPI(t)

	item := a.createItem(t, "Riz parfumé 5kg", 12)
	assert.NotEmpty(t, item.SKU)
	assert.Equal(t, 12, item.CurrentLevel)

	w := a.do(t, http.MethodGet, "/stock/"+item.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := data[inventoryapp.StockItemResponse](t, w)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, "Riz parfumé 5kg", got.Name)

	movements := data[[]inventoryapp.MovementResponse](t, a.do(t, http.MethodGet, "/stock/movements?stock_item_id="+item.ID.String(), nil))
	require.Len(t, movements, 1)
	assert.Equal(t, "IN", movements[0].Type)
	assert.Equal(t, "Awa", movements[0].Actor)
}

func TestStockHandler_CreateValidation(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodPost, "/stock", map[string]any{"quantity": -1})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestStockHandler_GetUnknown(t *testing.T) {
	a := newAPI(t)

	w := a.do(t, http.MethodGet, "/stock/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decode(t, w).Error.Code)
}

func TestStockHandler_ListPaginates(t *testing.T) {
	a := newAPI(t)
	a.createItem(t, "Beurre", 1)
	a.createItem(t, "Café", 1)
	a.createItem(t, "Attiéké", 1)

	w := a.do(t, http.MethodGet, "/stock?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.TotalPages)

	items := data[[]inventoryapp.StockItemResponse](t, w)
	require.Len(t, items, 2)
	assert.Equal(t, "Attiéké", items[0].Name)
}

func TestStockHandler_UpdateAndDelete(t *testing.T) {
	a := newAPI(t)
	item := a.createItem(t, "Savon", 3)

	w := a.do(t, http.MethodPut, "/stock/"+item.ID.String(), map[string]any{"location": "Rayon B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Rayon B", data[inventoryapp.StockItemResponse](t, w).Location)

	w = a.do(t, http.MethodDelete, "/stock/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = a.do(t, http.MethodGet, "/stock/"+item.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStockHandler_AddMovement(t *testing.T) {
	a := newAPI(t)
	item := a.createItem(t, "Huile 1L", 5)

	t.Run("out within stock", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/stock/movements", map[string]any{
			"stock_item_id": item.ID, "type": "OUT", "qty": 2, "reason": "Casse",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		m := data[inventoryapp.MovementResponse](t, w)
		assert.Equal(t, 5, m.PreviousLevel)
		assert.Equal(t, 3, m.NewLevel)
	})

	t.Run("out beyond stock", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/stock/movements", map[string]any{
			"stock_item_id": item.ID, "type": "OUT", "qty": 50,
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeInsufficientStock, decode(t, w).Error.Code)
	})

	t.Run("unknown type", func(t *testing.T) {
		w := a.do(t, http.MethodPost, "/stock/movements", map[string]any{
			"stock_item_id": item.ID, "type": "TRANSFER", "qty": 1,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestStockHandler_BulkStockIn(t *testing.T) {
	a := newAPI(t)
	sugar := a.createItem(t, "Sucre", 0)
	milk := a.createItem(t, "Lait", 4)

	w := a.do(t, http.MethodPost, "/stock/movements/bulk-in", map[string]any{
		"items": []map[string]any{
			{"stock_item_id": sugar.ID, "qty": 10},
			{"stock_item_id": milk.ID, "qty": 6},
		},
		"reason": "Livraison fournisseur",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, data[[]inventoryapp.MovementResponse](t, w), 2)

	got := data[inventoryapp.StockItemResponse](t, a.do(t, http.MethodGet, "/stock/"+milk.ID.String(), nil))
	assert.Equal(t, 10, got.CurrentLevel)

	stats := data[[]inventoryapp.DailyStatResponse](t, a.do(t, http.MethodGet, "/stock/movements/stats", nil))
	require.NotEmpty(t, stats)
	total := 0
	for _, s := range stats {
		total += s.In
	}
	assert.Equal(t, 20, total)
}
