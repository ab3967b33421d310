package handler

import (
	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// StockHandler handles the stock catalog and the movement ledger
type StockHandler struct {
	BaseHandler
	inventoryService *inventoryapp.InventoryService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(inventoryService *inventoryapp.InventoryService) *StockHandler {
	return &StockHandler{inventoryService: inventoryService}
}

// List godoc
// @ID           listStockItems
// @Summary      List stock items
// @Description  Active catalog of the tenant, ordered by name by default
// @Tags         stock
// @Produce      json
// @Param        search query string false "Search on name or SKU"
// @Param        category query string false "Filter by category"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(100) maximum(500)
// @Param        order_by query string false "Order by field" default(name)
// @Param        order_dir query string false "Order direction" Enums(asc, desc) default(asc)
// @Success      200 {object} APIResponse[[]inventoryapp.StockItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock [get]
func (h *StockHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.StockItemListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = 100
	}

	items, total, err := h.inventoryService.ListItems(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// Create godoc
// @ID           createStockItem
// @Summary      Create a stock item
// @Description  Creates an item; the SKU is generated from the name when absent and the initial quantity is recorded as an IN movement
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateStockItemRequest true "Item"
// @Success      201 {object} APIResponse[inventoryapp.StockItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock [post]
func (h *StockHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req inventoryapp.CreateStockItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.inventoryService.CreateItem(c.Request.Context(), tenantID, h.actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Get godoc
// @ID           getStockItem
// @Summary      Get a stock item
// @Tags         stock
// @Produce      json
// @Param        id path string true "Stock item ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.StockItemResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/{id} [get]
func (h *StockHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	item, err := h.inventoryService.GetItem(c.Request.Context(), tenantID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Update godoc
// @ID           updateStockItem
// @Summary      Update a stock item
// @Description  Updates descriptive fields. The SKU is immutable and the level only moves through movements.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        id path string true "Stock item ID" format(uuid)
// @Param        request body inventoryapp.UpdateStockItemRequest true "Changes"
// @Success      200 {object} APIResponse[inventoryapp.StockItemResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/{id} [put]
func (h *StockHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.UpdateStockItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	item, err := h.inventoryService.UpdateItem(c.Request.Context(), tenantID, itemID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete godoc
// @ID           deleteStockItem
// @Summary      Delete a stock item
// @Description  Soft delete; refused while the item is referenced by a sale
// @Tags         stock
// @Param        id path string true "Stock item ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/{id} [delete]
func (h *StockHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.inventoryService.DeleteItem(c.Request.Context(), tenantID, itemID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
