package persistence

import (
	"context"
	"time"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM.
// The ledger is append-only: there is no update or delete.
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

// Create appends a movement to the ledger
func (r *GormMovementRepository) Create(ctx context.Context, m *inventory.ProductMovement) error {
	return r.db.WithContext(ctx).Create(models.ProductMovementModelFromDomain(m)).Error
}

// FindRecent returns the newest movements of the tenant, optionally for one item
func (r *GormMovementRepository) FindRecent(ctx context.Context, tenantID uuid.UUID, stockItemID *uuid.UUID, limit int) ([]inventory.ProductMovement, error) {
	query := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if stockItemID != nil {
		query = query.Where("stock_item_id = ?", *stockItemID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []models.ProductMovementModel
	if err := query.Order("movement_date DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	movements := make([]inventory.ProductMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, nil
}

// DailyStats sums IN and OUT quantities per calendar day since the given time.
// Adjustments are left out. Bucketing happens here rather than in SQL so the
// same code runs on PostgreSQL and SQLite.
func (r *GormMovementRepository) DailyStats(ctx context.Context, tenantID uuid.UUID, since time.Time) ([]inventory.DailyMovementStat, error) {
	var rows []struct {
		Type         string
		Qty          int
		MovementDate time.Time
	}
	if err := r.db.WithContext(ctx).
		Model(&models.ProductMovementModel{}).
		Select("type, qty, movement_date").
		Where("tenant_id = ? AND movement_date >= ? AND type IN ?", tenantID, since,
			[]string{string(inventory.MovementTypeIn), string(inventory.MovementTypeOut)}).
		Order("movement_date ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := make([]inventory.DailyMovementStat, 0)
	index := make(map[string]int)
	for _, row := range rows {
		day := row.MovementDate.UTC().Format(time.DateOnly)
		i, ok := index[day]
		if !ok {
			stats = append(stats, inventory.DailyMovementStat{Day: day})
			i = len(stats) - 1
			index[day] = i
		}
		switch inventory.MovementType(row.Type) {
		case inventory.MovementTypeIn:
			stats[i].In += row.Qty
		case inventory.MovementTypeOut:
			stats[i].Out += row.Qty
		}
	}
	return stats, nil
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
