package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/domain/trade"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// FindByID loads a sale of the tenant with its lines
func (r *GormSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads a sale with its lines and locks the sale row
func (r *GormSaleRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormSaleRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC").Order("id ASC")
	}).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Vente introuvable.")
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAll lists the tenant's sales without lines
func (r *GormSaleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]trade.Sale, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleModel{}).Where("tenant_id = ?", tenantID)
	query = r.applyFilterWithoutPagination(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.SaleModel
	if err := applyPaging(query, filter, SaleSortFields, "sale_date").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	sales := make([]trade.Sale, 0, len(rows))
	for i := range rows {
		s, err := rows[i].ToDomain()
		if err != nil {
			return nil, 0, err
		}
		sales = append(sales, *s)
	}
	return sales, total, nil
}

// ExistsByReference checks a reference across all tenants: references are globally unique
func (r *GormSaleRepository) ExistsByReference(ctx context.Context, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("reference = ?", reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the sale and its lines
func (r *GormSaleRepository) Create(ctx context.Context, s *trade.Sale) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(models.SaleModelFromDomain(s)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "La référence de vente existe déjà : "+s.Reference)
		}
		return err
	}
	return r.insertItems(db, s)
}

// Update persists the header, guarded by version
func (r *GormSaleRepository) Update(ctx context.Context, s *trade.Sale) error {
	result := r.db.WithContext(ctx).
		Model(&models.SaleModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", s.TenantID, s.ID, s.Version-1).
		Updates(map[string]interface{}{
			"customer_id": s.CustomerID,
			"status":      string(s.Status),
			"total_ht":    s.TotalHt,
			"tax_amount":  s.TaxAmount,
			"total_ttc":   s.TotalTtc,
			"amount_paid": s.AmountPaid,
			"version":     s.Version,
			"updated_at":  s.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ReplaceItems deletes the persisted lines and writes the current ones
func (r *GormSaleRepository) ReplaceItems(ctx context.Context, s *trade.Sale) error {
	db := r.db.WithContext(ctx)
	owned := r.db.Model(&models.SaleModel{}).Select("id").Where("tenant_id = ? AND id = ?", s.TenantID, s.ID)
	if err := db.Where("sale_id IN (?)", owned).Delete(&models.SaleItemModel{}).Error; err != nil {
		return fmt.Errorf("failed to delete sale items: %w", err)
	}
	return r.insertItems(db, s)
}

// UpdateDelivered persists the delivered quantity of the given lines
func (r *GormSaleRepository) UpdateDelivered(ctx context.Context, s *trade.Sale, items []*trade.SaleItem) error {
	db := r.db.WithContext(ctx)
	for _, item := range items {
		result := db.Model(&models.SaleItemModel{}).
			Where("id = ? AND sale_id = ?", item.ID, s.ID).
			Update("quantity_delivered", item.QuantityDelivered)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.NewDomainError(shared.CodeNotFound, "Ligne de vente introuvable.")
		}
	}
	return nil
}

func (r *GormSaleRepository) insertItems(db *gorm.DB, s *trade.Sale) error {
	if len(s.Items) == 0 {
		return nil
	}
	rows := make([]*models.SaleItemModel, len(s.Items))
	for i := range s.Items {
		s.Items[i].SaleID = s.ID
		rows[i] = models.SaleItemModelFromDomain(&s.Items[i])
	}
	return db.Create(rows).Error
}

// applyFilterWithoutPagination applies search and filter options without pagination
func (r *GormSaleRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("LOWER(reference) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "customer_id":
			query = query.Where("customer_id = ?", value)
		case "from":
			if t, ok := value.(time.Time); ok {
				query = query.Where("sale_date >= ?", t)
			}
		case "to":
			if t, ok := value.(time.Time); ok {
				query = query.Where("sale_date < ?", t)
			}
		}
	}
	return query
}

// GormSaleReferenceChecker answers whether sale lines point at a stock item
type GormSaleReferenceChecker struct {
	db *gorm.DB
}

// NewGormSaleReferenceChecker creates a new GormSaleReferenceChecker
func NewGormSaleReferenceChecker(db *gorm.DB) *GormSaleReferenceChecker {
	return &GormSaleReferenceChecker{db: db}
}

// IsStockItemReferenced checks the tenant's sale lines for the item
func (c *GormSaleReferenceChecker) IsStockItemReferenced(ctx context.Context, tenantID, stockItemID uuid.UUID) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.SaleItemModel{}).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.tenant_id = ? AND sale_items.stock_item_id = ?", tenantID, stockItemID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
