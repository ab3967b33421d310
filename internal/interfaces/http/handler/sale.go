package handler

import (
	"github.com/gestock/backend/internal/application/trade"
	"github.com/gestock/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SaleHandler handles sales, their deliveries and payments
type SaleHandler struct {
	BaseHandler
	saleService *trade.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *trade.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// List godoc
// @ID           listSales
// @Summary      List sales
// @Tags         sales
// @Produce      json
// @Param        search query string false "Search on the reference"
// @Param        status query string false "Status" Enums(EN_COURS, TERMINE, ANNULE, REMBOURSE)
// @Param        customer_id query string false "Customer" format(uuid)
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to query string false "To date, inclusive (YYYY-MM-DD)"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20) maximum(100)
// @Success      200 {object} APIResponse[[]trade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [get]
func (h *SaleHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var filter trade.SaleListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = dto.DefaultPageSize
	}

	sales, total, err := h.saleService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, sales, total, filter.Page, filter.PageSize)
}

// Create godoc
// @ID           createSale
// @Summary      Create a sale
// @Description  Opens a sale with its invoice and optional initial payment. Stock is not touched until delivery.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        request body trade.CreateSaleRequest true "Sale"
// @Success      201 {object} APIResponse[trade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales [post]
func (h *SaleHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req trade.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// Get godoc
// @ID           getSale
// @Summary      Get a sale with its invoice and payments
// @Tags         sales
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Success      200 {object} APIResponse[trade.SaleResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [get]
func (h *SaleHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	sale, err := h.saleService.Get(c.Request.Context(), tenantID, saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Update godoc
// @ID           updateSale
// @Summary      Replace the lines of a sale
// @Description  Only allowed while nothing has been delivered
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body trade.UpdateSaleRequest true "Lines"
// @Success      200 {object} APIResponse[trade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id} [put]
func (h *SaleHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req trade.UpdateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.Update(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// AddPayment godoc
// @ID           addSalePayment
// @Summary      Record a payment
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body trade.AddPaymentRequest true "Payment"
// @Success      201 {object} APIResponse[trade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/payments [post]
func (h *SaleHandler) AddPayment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req trade.AddPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.AddPayment(c.Request.Context(), tenantID, saleID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sale)
}

// RecordDelivery godoc
// @ID           recordSaleDelivery
// @Summary      Deliver sale lines
// @Description  Decrements stock for product lines. Refused while an inventory count is open.
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body trade.RecordDeliveryRequest true "Lines to deliver"
// @Success      200 {object} APIResponse[trade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/delivery [post]
func (h *SaleHandler) RecordDelivery(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req trade.RecordDeliveryRequest
	if !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.RecordDelivery(c.Request.Context(), tenantID, saleID, h.actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Cancel godoc
// @ID           cancelSale
// @Summary      Cancel a sale
// @Description  Optionally returns delivered quantities to stock and reverses collected payments
// @Tags         sales
// @Accept       json
// @Produce      json
// @Param        id path string true "Sale ID" format(uuid)
// @Param        request body trade.CancelSaleRequest false "Cancellation"
// @Success      200 {object} APIResponse[trade.SaleResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      423 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /sales/{id}/cancel [post]
func (h *SaleHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	saleID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req trade.CancelSaleRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	sale, err := h.saleService.Cancel(c.Request.Context(), tenantID, saleID, h.actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
