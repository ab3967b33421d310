package inventory

import (
	"time"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItemResponse represents a stock item in API responses
type StockItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Category       string          `json:"category,omitempty"`
	Location       string          `json:"location,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	CurrentLevel   int             `json:"current_level"`
	MinThreshold   int             `json:"min_threshold"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Status         string          `json:"status"`
	IsBelowMinimum bool            `json:"is_below_minimum"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// StockItemListFilter represents filter options for the stock catalog
type StockItemListFilter struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// CreateStockItemRequest represents a request to create a stock item.
// When SKU is empty one is generated from the name.
type CreateStockItemRequest struct {
	SKU          string          `json:"sku" binding:"omitempty,max=50"`
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	Category     string          `json:"category" binding:"max=100"`
	Location     string          `json:"location" binding:"max=100"`
	ImageURL     string          `json:"image_url" binding:"omitempty,url"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	MinThreshold *int            `json:"min_threshold" binding:"omitempty,min=0"`
	Quantity     int             `json:"quantity" binding:"min=0"`
}

// UpdateStockItemRequest represents a partial update of a stock item.
// SKU and level are not part of the request: the SKU is immutable and the
// level only moves through the ledger.
type UpdateStockItemRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=200"`
	Category     *string          `json:"category" binding:"omitempty,max=100"`
	Location     *string          `json:"location" binding:"omitempty,max=100"`
	ImageURL     *string          `json:"image_url" binding:"omitempty,url"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	MinThreshold *int             `json:"min_threshold" binding:"omitempty,min=0"`
}

// AddMovementRequest represents a manual stock movement
type AddMovementRequest struct {
	StockItemID uuid.UUID `json:"stock_item_id" binding:"required"`
	Type        string    `json:"type" binding:"required,movement_type"`
	Quantity    int       `json:"qty" binding:"required,min=1"`
	// Direction only applies to ADJUSTMENT; it defaults to DECREASE
	Direction   string `json:"direction" binding:"omitempty,oneof=INCREASE DECREASE"`
	Reason      string `json:"reason" binding:"max=255"`
	ReferenceID string `json:"reference_id" binding:"max=100"`
}

// BulkStockInLine is one product of a bulk replenishment
type BulkStockInLine struct {
	StockItemID uuid.UUID `json:"stock_item_id" binding:"required"`
	Quantity    int       `json:"qty" binding:"required,min=1"`
}

// BulkStockInRequest represents a multi-item replenishment
type BulkStockInRequest struct {
	Items       []BulkStockInLine `json:"items" binding:"required,min=1,dive"`
	Reason      string            `json:"reason" binding:"max=255"`
	ReferenceID string            `json:"reference_id" binding:"max=100"`
}

// MovementResponse represents a ledger entry in API responses
type MovementResponse struct {
	ID            uuid.UUID `json:"id"`
	StockItemID   uuid.UUID `json:"stock_item_id"`
	Type          string    `json:"type"`
	Quantity      int       `json:"qty"`
	PreviousLevel int       `json:"previous_level"`
	NewLevel      int       `json:"new_level"`
	Reason        string    `json:"reason"`
	ReferenceID   string    `json:"reference_id"`
	Actor         string    `json:"user_ref"`
	MovementDate  time.Time `json:"movement_date"`
}

// MovementListFilter represents filter options for the movement history
type MovementListFilter struct {
	StockItemID *uuid.UUID `form:"stock_item_id"`
	Limit       int        `form:"limit" binding:"omitempty,min=1,max=500"`
}

// DailyStatResponse is one day of the movement statistics
type DailyStatResponse struct {
	Day string `json:"day"`
	In  int    `json:"in"`
	Out int    `json:"out"`
}

// CampaignResponse represents an inventory campaign in API responses
type CampaignResponse struct {
	ID          uuid.UUID              `json:"id"`
	Name        string                 `json:"name"`
	Status      string                 `json:"status"`
	ValidatedAt *time.Time             `json:"validated_at,omitempty"`
	ItemCount   int                    `json:"item_count"`
	Items       []CampaignItemResponse `json:"items,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// CampaignItemResponse represents one counted line
type CampaignItemResponse struct {
	ID          uuid.UUID `json:"id"`
	StockItemID uuid.UUID `json:"stock_item_id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	SystemQty   int       `json:"system_qty"`
	CountedQty  int       `json:"counted_qty"`
	Delta       int       `json:"delta"`
	Skipped     bool      `json:"skipped,omitempty"`
}

// CreateCampaignRequest represents a request to open a count
type CreateCampaignRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// UpdateCountRequest records a counted quantity
type UpdateCountRequest struct {
	CountedQty *int `json:"counted_qty" binding:"required,min=0"`
}

// ValidateCampaignRequest closes a count, optionally reconciling stock
type ValidateCampaignRequest struct {
	SyncStock bool `json:"sync_stock"`
}

// ToStockItemResponse converts a domain StockItem to StockItemResponse
func ToStockItemResponse(item *inventory.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:             item.ID,
		TenantID:       item.TenantID,
		SKU:            item.SKU,
		Name:           item.Name,
		Category:       item.Category,
		Location:       item.Location,
		ImageURL:       item.ImageURL,
		CurrentLevel:   item.CurrentLevel,
		MinThreshold:   item.MinThreshold,
		UnitPrice:      item.UnitPrice,
		Status:         string(item.Status),
		IsBelowMinimum: item.IsBelowThreshold(),
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
		Version:        item.Version,
	}
}

// ToStockItemResponses converts a slice of stock items
func ToStockItemResponses(items []inventory.StockItem) []StockItemResponse {
	responses := make([]StockItemResponse, len(items))
	for i := range items {
		responses[i] = ToStockItemResponse(&items[i])
	}
	return responses
}

// ToMovementResponse converts a domain ProductMovement to MovementResponse
func ToMovementResponse(m *inventory.ProductMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		StockItemID:   m.StockItemID,
		Type:          string(m.Type),
		Quantity:      m.Quantity,
		PreviousLevel: m.PreviousLevel,
		NewLevel:      m.NewLevel,
		Reason:        m.Reason,
		ReferenceID:   m.ReferenceID,
		Actor:         m.Actor,
		MovementDate:  m.MovementDate,
	}
}

// ToMovementResponses converts a slice of movements
func ToMovementResponses(movements []inventory.ProductMovement) []MovementResponse {
	responses := make([]MovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToMovementResponse(&movements[i])
	}
	return responses
}

// ToCampaignResponse converts a campaign; items are included when loaded
func ToCampaignResponse(c *inventory.Campaign) CampaignResponse {
	resp := CampaignResponse{
		ID:          c.ID,
		Name:        c.Name,
		Status:      string(c.Status),
		ValidatedAt: c.ValidatedAt,
		ItemCount:   len(c.Items),
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if len(c.Items) > 0 {
		resp.Items = make([]CampaignItemResponse, len(c.Items))
		for i := range c.Items {
			resp.Items[i] = ToCampaignItemResponse(&c.Items[i])
		}
	}
	return resp
}

// ToCampaignItemResponse converts a campaign line
func ToCampaignItemResponse(item *inventory.CampaignItem) CampaignItemResponse {
	return CampaignItemResponse{
		ID:          item.ID,
		StockItemID: item.StockItemID,
		SKU:         item.SKU,
		Name:        item.Name,
		SystemQty:   item.SystemQty,
		CountedQty:  item.CountedQty,
		Delta:       item.Delta(),
		Skipped:     item.Skipped,
	}
}
