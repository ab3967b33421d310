package handler

import (
	"net/http"
	"testing"

	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (a *api) openCampaign(t *testing.T, name string) inventoryapp.CampaignResponse {
	t.Helper()
	w := a.do(t, http.MethodPost, "/stock/campaigns", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return data[inventoryapp.CampaignResponse](t, w)
}

func TestCampaignHandler_CountAndValidate(t *testing.T) {
	a := newAPI(t)
	item := a.createItem(t, "Farine 1kg", 10)

	campaign := a.openCampaign(t, "Inventaire mensuel")
	assert.Equal(t, "DRAFT", campaign.Status)
	require.Len(t, campaign.Items, 1)
	line := campaign.Items[0]
	assert.Equal(t, 10, line.SystemQty)

	w := a.do(t, http.MethodPut, "/stock/campaigns/"+campaign.ID.String()+"/items/"+line.ID.String(),
		map[string]any{"counted_qty": 7})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, -3, data[inventoryapp.CampaignItemResponse](t, w).Delta)

	w = a.do(t, http.MethodPost, "/stock/campaigns/"+campaign.ID.String()+"/validate",
		map[string]any{"sync_stock": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "VALIDATED", data[inventoryapp.CampaignResponse](t, w).Status)

	got := data[inventoryapp.StockItemResponse](t, a.do(t, http.MethodGet, "/stock/"+item.ID.String(), nil))
	assert.Equal(t, 7, got.CurrentLevel)

	list := data[[]inventoryapp.CampaignResponse](t, a.do(t, http.MethodGet, "/stock/campaigns", nil))
	assert.Len(t, list, 1)
}

func TestCampaignHandler_LocksStock(t *testing.T) {
	a := newAPI(t)
	item := a.createItem(t, "Lait en poudre", 4)
	campaign := a.openCampaign(t, "Comptage")

	w := a.do(t, http.MethodPost, "/stock/movements", map[string]any{
		"stock_item_id": item.ID, "type": "IN", "qty": 1,
	})
	assert.Equal(t, http.StatusLocked, w.Code)
	assert.Equal(t, dto.ErrCodeInventoryLocked, decode(t, w).Error.Code)

	w = a.do(t, http.MethodPost, "/stock/campaigns", map[string]any{"name": "Deuxième"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, dto.ErrCodeCampaignConflict, decode(t, w).Error.Code)

	w = a.do(t, http.MethodPost, "/stock/campaigns/"+campaign.ID.String()+"/suspend", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "SUSPENDED", data[inventoryapp.CampaignResponse](t, w).Status)

	w = a.do(t, http.MethodPost, "/stock/movements", map[string]any{
		"stock_item_id": item.ID, "type": "IN", "qty": 1,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/stock/campaigns/"+campaign.ID.String()+"/resume", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/stock/campaigns/"+campaign.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CANCELLED", data[inventoryapp.CampaignResponse](t, w).Status)
}

func TestCampaignHandler_ValidateTwice(t *testing.T) {
	a := newAPI(t)
	a.createItem(t, "Sel", 2)
	campaign := a.openCampaign(t, "Contrôle")

	w := a.do(t, http.MethodPost, "/stock/campaigns/"+campaign.ID.String()+"/validate", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodPost, "/stock/campaigns/"+campaign.ID.String()+"/validate", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decode(t, w).Error.Code)
}

func TestCampaignHandler_ExportSheet(t *testing.T) {
	a := newAPI(t)
	a.createItem(t, "Thé vert", 9)
	campaign := a.openCampaign(t, "Export")

	w := a.do(t, http.MethodGet, "/stock/campaigns/"+campaign.ID.String()+"/sheet", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment;")
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	// XLSX workbooks are zip archives
	assert.Equal(t, []byte("PK"), w.Body.Bytes()[:2])
}
