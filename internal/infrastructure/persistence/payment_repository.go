package persistence

import (
	"context"

	"github.com/gestock/backend/internal/domain/trade"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPaymentRepository implements PaymentRepository using GORM.
// Payments are never updated; corrections are negative entries.
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create appends a payment
func (r *GormPaymentRepository) Create(ctx context.Context, p *trade.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error
}

// FindBySaleID returns the sale's payments in chronological order
func (r *GormPaymentRepository) FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) ([]trade.Payment, error) {
	var rows []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND sale_id = ?", tenantID, saleID).
		Order("payment_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	payments := make([]trade.Payment, len(rows))
	for i := range rows {
		payments[i] = *rows[i].ToDomain()
	}
	return payments, nil
}

var _ trade.PaymentRepository = (*GormPaymentRepository)(nil)
