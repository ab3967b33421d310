package persistence

import (
	"context"
	"errors"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/domain/trade"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindBySaleID loads the invoice of a sale with its lines
func (r *GormInvoiceRepository) FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) (*trade.Invoice, error) {
	var model models.InvoiceModel
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Facture introuvable.")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// ExistsByID checks whether an invoice number is taken
func (r *GormInvoiceRepository) ExistsByID(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create inserts the invoice and its lines
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *trade.Invoice) error {
	db := r.db.WithContext(ctx)
	if err := db.Create(models.InvoiceModelFromDomain(inv)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.NewDomainError(shared.CodeAlreadyExists, "Le numéro de facture existe déjà : "+inv.ID)
		}
		return err
	}
	return r.insertItems(db, inv)
}

// Update persists the header and replaces the lines
func (r *GormInvoiceRepository) Update(ctx context.Context, inv *trade.Invoice) error {
	db := r.db.WithContext(ctx)
	result := db.Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ?", inv.TenantID, inv.ID).
		Updates(map[string]interface{}{
			"customer_id": inv.CustomerID,
			"amount":      inv.Amount,
			"tax_amount":  inv.TaxAmount,
			"status":      string(inv.Status),
			"updated_at":  inv.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeNotFound, "Facture introuvable.")
	}
	if err := db.Where("invoice_id = ?", inv.ID).Delete(&models.InvoiceItemModel{}).Error; err != nil {
		return err
	}
	return r.insertItems(db, inv)
}

// UpdateStatus persists the status only
func (r *GormInvoiceRepository) UpdateStatus(ctx context.Context, inv *trade.Invoice) error {
	return r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("tenant_id = ? AND id = ?", inv.TenantID, inv.ID).
		Updates(map[string]interface{}{
			"status":     string(inv.Status),
			"updated_at": inv.UpdatedAt,
		}).Error
}

func (r *GormInvoiceRepository) insertItems(db *gorm.DB, inv *trade.Invoice) error {
	if len(inv.Items) == 0 {
		return nil
	}
	rows := make([]*models.InvoiceItemModel, len(inv.Items))
	for i := range inv.Items {
		rows[i] = models.InvoiceItemModelFromDomain(&inv.Items[i])
	}
	return db.Create(rows).Error
}

var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
