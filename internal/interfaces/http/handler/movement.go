package handler

import (
	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// ListMovements godoc
// @ID           listStockMovements
// @Summary      List stock movements
// @Description  Most recent ledger entries, newest first
// @Tags         stock
// @Produce      json
// @Param        stock_item_id query string false "Restrict to one item" format(uuid)
// @Param        limit query int false "Max rows" maximum(500)
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Security     BearerAuth
// @Router       /stock/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter inventoryapp.MovementListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	movements, err := h.inventoryService.ListMovements(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

// MovementStats godoc
// @ID           stockMovementStats
// @Summary      Daily movement statistics
// @Description  IN and OUT quantities per day over the last 30 days
// @Tags         stock
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.DailyStatResponse]
// @Security     BearerAuth
// @Router       /stock/movements/stats [get]
func (h *StockHandler) MovementStats(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	stats, err := h.inventoryService.MovementStats(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// AddMovement godoc
// @ID           addStockMovement
// @Summary      Record a manual movement
// @Description  IN, OUT or ADJUSTMENT (INCREASE/DECREASE, DECREASE by default). The level never goes below zero.
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.AddMovementRequest true "Movement"
// @Success      201 {object} APIResponse[inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/movements [post]
func (h *StockHandler) AddMovement(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req inventoryapp.AddMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movement, err := h.inventoryService.AddMovement(c.Request.Context(), tenantID, h.actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}

// BulkStockIn godoc
// @ID           bulkStockIn
// @Summary      Replenish several items
// @Description  One IN movement per line, all or nothing
// @Tags         stock
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.BulkStockInRequest true "Lines"
// @Success      201 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/movements/bulk-in [post]
func (h *StockHandler) BulkStockIn(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req inventoryapp.BulkStockInRequest
	if !h.bindJSON(c, &req) {
		return
	}

	movements, err := h.inventoryService.BulkStockIn(c.Request.Context(), tenantID, h.actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movements)
}
