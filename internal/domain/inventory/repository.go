package inventory

import (
	"context"
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Every method takes the tenant explicitly; implementations must filter on it
// for reads and writes alike.

// StockItemRepository defines the interface for stock item persistence
type StockItemRepository interface {
	// FindByID finds an item of the tenant regardless of status
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockItem, error)

	// FindByIDForUpdate finds an item and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*StockItem, error)

	// FindActive lists active items matching the filter
	FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]StockItem, int64, error)

	// LockAllActive loads every active item of the tenant with a row lock
	LockAllActive(ctx context.Context, tenantID uuid.UUID) ([]StockItem, error)

	// ExistsActiveSKU checks whether an active item already uses the SKU
	ExistsActiveSKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error)

	// Create inserts a new item
	Create(ctx context.Context, item *StockItem) error

	// Update persists descriptive attributes and status, guarded by version
	Update(ctx context.Context, item *StockItem) error

	// UpdateLevel writes a new level, guarded by the level read under lock.
	// Returns shared.ErrConcurrencyConflict when the guard does not match.
	UpdateLevel(ctx context.Context, item *StockItem, expectedLevel int) error
}

// MovementRepository defines the interface for the append-only movement ledger
type MovementRepository interface {
	Create(ctx context.Context, m *ProductMovement) error
	FindRecent(ctx context.Context, tenantID uuid.UUID, stockItemID *uuid.UUID, limit int) ([]ProductMovement, error)
	DailyStats(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]DailyMovementStat, error)
}

// CampaignRepository defines the interface for inventory campaign persistence
type CampaignRepository interface {
	// FindByID loads a campaign with its items
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Campaign, error)

	// FindByIDForUpdate loads a campaign with its items, locking the campaign row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Campaign, error)

	// FindAll lists campaigns without items, newest first
	FindAll(ctx context.Context, tenantID uuid.UUID) ([]Campaign, error)

	// FindDraft returns the tenant's DRAFT campaign, locking it, or shared.ErrNotFound
	FindDraft(ctx context.Context, tenantID uuid.UUID) (*Campaign, error)

	// Create inserts the campaign and its items
	Create(ctx context.Context, c *Campaign) error

	// UpdateStatus persists status, version and validation time
	UpdateStatus(ctx context.Context, c *Campaign) error

	// UpdateItemCount persists a single counted quantity
	UpdateItemCount(ctx context.Context, tenantID uuid.UUID, item *CampaignItem) error

	// MarkItemsSkipped flags lines that could not be reconciled at validation
	MarkItemsSkipped(ctx context.Context, tenantID, campaignID uuid.UUID, itemIDs []uuid.UUID) error

	// LockTenant serialises campaign openings against stock mutations of the
	// tenant until the surrounding transaction ends. Openings take the lock
	// exclusively, mutations share it.
	LockTenant(ctx context.Context, tenantID uuid.UUID, exclusive bool) error
}

// SaleReferenceChecker tells whether sale lines point at a stock item
type SaleReferenceChecker interface {
	IsStockItemReferenced(ctx context.Context, tenantID, stockItemID uuid.UUID) (bool, error)
}
