package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a stock item of the tenant by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockItem, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate finds a stock item and takes a row lock (SELECT ... FOR UPDATE)
func (r *GormStockItemRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockItem, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormStockItemRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*inventory.StockItem, error) {
	var model models.StockItemModel
	if err := db.Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Produit introuvable.")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive lists the tenant's active items
func (r *GormStockItemRepository) FindActive(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]inventory.StockItem, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.StockItemModel{}).
		Where("tenant_id = ? AND status = ?", tenantID, string(inventory.StockItemStatusActive))
	query = r.applyFilterWithoutPagination(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockItemModel
	if err := applyPaging(query, filter, StockItemSortFields, "name").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	items := make([]inventory.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, total, nil
}

// LockAllActive loads and locks every active item of the tenant
func (r *GormStockItemRepository) LockAllActive(ctx context.Context, tenantID uuid.UUID) ([]inventory.StockItem, error) {
	var rows []models.StockItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND status = ?", tenantID, string(inventory.StockItemStatusActive)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]inventory.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// ExistsActiveSKU checks whether an active item of the tenant uses the SKU
func (r *GormStockItemRepository) ExistsActiveSKU(ctx context.Context, tenantID uuid.UUID, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.StockItemModel{}).
		Where("tenant_id = ? AND sku = ? AND status = ?", tenantID, sku, string(inventory.StockItemStatusActive)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts a new stock item
func (r *GormStockItemRepository) Create(ctx context.Context, item *inventory.StockItem) error {
	model := models.StockItemModelFromDomain(item)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Un produit actif utilise déjà le SKU "+item.SKU)
		}
		return err
	}
	return nil
}

// Update persists the descriptive attributes and status, guarded by version.
// The level is deliberately absent: only UpdateLevel writes it.
func (r *GormStockItemRepository) Update(ctx context.Context, item *inventory.StockItem) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", item.TenantID, item.ID, item.Version-1).
		Updates(map[string]interface{}{
			"name":          item.Name,
			"category":      item.Category,
			"location":      item.Location,
			"image_url":     item.ImageURL,
			"min_threshold": item.MinThreshold,
			"unit_price":    item.UnitPrice,
			"status":        string(item.Status),
			"deleted_at":    item.DeletedAt,
			"version":       item.Version,
			"updated_at":    item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// UpdateLevel writes the new level with a compare-and-set on the level read
// under lock. Zero affected rows means another writer got there first.
func (r *GormStockItemRepository) UpdateLevel(ctx context.Context, item *inventory.StockItem, expectedLevel int) error {
	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("tenant_id = ? AND id = ? AND current_level = ?", item.TenantID, item.ID, expectedLevel).
		Updates(map[string]interface{}{
			"current_level": item.CurrentLevel,
			"version":       item.Version,
			"updated_at":    item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// applyFilterWithoutPagination applies search and filter options without pagination
func (r *GormStockItemRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", like, like)
	}
	for key, value := range filter.Filters {
		switch key {
		case "category":
			query = query.Where("category = ?", value)
		case "below_minimum":
			if value == true {
				query = query.Where("current_level <= min_threshold")
			}
		}
	}
	return query
}

// Ensure GormStockItemRepository implements StockItemRepository
var _ inventory.StockItemRepository = (*GormStockItemRepository)(nil)
