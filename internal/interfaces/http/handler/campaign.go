package handler

import (
	"context"
	"fmt"
	"net/http"

	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CampaignHandler handles inventory count campaigns
type CampaignHandler struct {
	BaseHandler
	campaignService *inventoryapp.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService *inventoryapp.CampaignService) *CampaignHandler {
	return &CampaignHandler{campaignService: campaignService}
}

// List godoc
// @ID           listCampaigns
// @Summary      List inventory campaigns
// @Tags         campaigns
// @Produce      json
// @Success      200 {object} APIResponse[[]inventoryapp.CampaignResponse]
// @Security     BearerAuth
// @Router       /stock/campaigns [get]
func (h *CampaignHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	campaigns, err := h.campaignService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaigns)
}

// Create godoc
// @ID           createCampaign
// @Summary      Open an inventory campaign
// @Description  Snapshots every active item. Only one DRAFT campaign may exist per tenant.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.CreateCampaignRequest true "Campaign"
// @Success      201 {object} APIResponse[inventoryapp.CampaignResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns [post]
func (h *CampaignHandler) Create(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}

	var req inventoryapp.CreateCampaignRequest
	if !h.bindJSON(c, &req) {
		return
	}

	campaign, err := h.campaignService.Create(c.Request.Context(), tenantID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, campaign)
}

// Get godoc
// @ID           getCampaign
// @Summary      Get an inventory campaign with its lines
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns/{id} [get]
func (h *CampaignHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	campaignID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	campaign, err := h.campaignService.Get(c.Request.Context(), tenantID, campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// Export godoc
// @ID           exportCampaignSheet
// @Summary      Download the count sheet
// @Tags         campaigns
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns/{id}/sheet [get]
func (h *CampaignHandler) Export(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	campaignID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	sheet, err := h.campaignService.ExportSheet(c.Request.Context(), tenantID, campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", sheet.FileName))
	c.Data(http.StatusOK, xlsxContentType, sheet.Content)
}

// UpdateCount godoc
// @ID           updateCampaignCount
// @Summary      Record a counted quantity
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        itemId path string true "Campaign line ID" format(uuid)
// @Param        request body inventoryapp.UpdateCountRequest true "Count"
// @Success      200 {object} APIResponse[inventoryapp.CampaignItemResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns/{id}/items/{itemId} [put]
func (h *CampaignHandler) UpdateCount(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	campaignID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.pathUUID(c, "itemId")
	if !ok {
		return
	}

	var req inventoryapp.UpdateCountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	line, err := h.campaignService.UpdateCount(c.Request.Context(), tenantID, campaignID, itemID, *req.CountedQty)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, line)
}

// Validate godoc
// @ID           validateCampaign
// @Summary      Validate a campaign
// @Description  Closes the count. With sync_stock every line with a delta is reconciled through an ADJUSTMENT movement.
// @Tags         campaigns
// @Accept       json
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Param        request body inventoryapp.ValidateCampaignRequest false "Options"
// @Success      200 {object} APIResponse[inventoryapp.CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns/{id}/validate [post]
func (h *CampaignHandler) Validate(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	campaignID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req inventoryapp.ValidateCampaignRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	campaign, err := h.campaignService.Validate(c.Request.Context(), tenantID, campaignID, h.actor(c), req.SyncStock)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}

// Suspend godoc
// @ID           suspendCampaign
// @Summary      Suspend a campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns/{id}/suspend [post]
func (h *CampaignHandler) Suspend(c *gin.Context) {
	h.transition(c, h.campaignService.Suspend)
}

// Cancel godoc
// @ID           cancelCampaign
// @Summary      Cancel a campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns/{id}/cancel [post]
func (h *CampaignHandler) Cancel(c *gin.Context) {
	h.transition(c, h.campaignService.Cancel)
}

// Resume godoc
// @ID           resumeCampaign
// @Summary      Resume a suspended campaign
// @Tags         campaigns
// @Produce      json
// @Param        id path string true "Campaign ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.CampaignResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /stock/campaigns/{id}/resume [post]
func (h *CampaignHandler) Resume(c *gin.Context) {
	h.transition(c, h.campaignService.Resume)
}

type campaignTransition func(ctx context.Context, tenantID, campaignID uuid.UUID) (*inventoryapp.CampaignResponse, error)

func (h *CampaignHandler) transition(c *gin.Context, apply campaignTransition) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	campaignID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	campaign, err := apply(c.Request.Context(), tenantID, campaignID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, campaign)
}
