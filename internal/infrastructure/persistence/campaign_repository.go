package persistence

import (
	"context"
	"errors"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCampaignRepository implements CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// FindByID loads a campaign with its count lines
func (r *GormCampaignRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Campaign, error) {
	return r.findOne(r.db.WithContext(ctx), tenantID, id)
}

// FindByIDForUpdate loads a campaign with its lines and locks the campaign row
func (r *GormCampaignRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*inventory.Campaign, error) {
	return r.findOne(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), tenantID, id)
}

func (r *GormCampaignRepository) findOne(db *gorm.DB, tenantID, id uuid.UUID) (*inventory.Campaign, error) {
	var model models.CampaignModel
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	}).Where("tenant_id = ? AND id = ?", tenantID, id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Campagne d'inventaire introuvable.")
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists the tenant's campaigns, newest first, without their lines
func (r *GormCampaignRepository) FindAll(ctx context.Context, tenantID uuid.UUID) ([]inventory.Campaign, error) {
	var rows []models.CampaignModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	campaigns := make([]inventory.Campaign, len(rows))
	for i := range rows {
		campaigns[i] = *rows[i].ToDomain()
	}
	return campaigns, nil
}

// FindDraft returns the tenant's open campaign and locks it. The partial
// unique index guarantees there is at most one.
func (r *GormCampaignRepository) FindDraft(ctx context.Context, tenantID uuid.UUID) (*inventory.Campaign, error) {
	var model models.CampaignModel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND status = ?", tenantID, string(inventory.CampaignStatusDraft)).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the campaign header and its snapshot lines
func (r *GormCampaignRepository) Create(ctx context.Context, c *inventory.Campaign) error {
	model := models.CampaignModelFromDomain(c)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items").Create(model).Error; err != nil {
			return err
		}
		if len(model.Items) == 0 {
			return nil
		}
		return tx.CreateInBatches(model.Items, 200).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrCampaignConflict
	}
	return err
}

// UpdateStatus persists the lifecycle fields, guarded by version
func (r *GormCampaignRepository) UpdateStatus(ctx context.Context, c *inventory.Campaign) error {
	result := r.db.WithContext(ctx).
		Model(&models.CampaignModel{}).
		Where("tenant_id = ? AND id = ? AND version = ?", c.TenantID, c.ID, c.Version-1).
		Updates(map[string]interface{}{
			"status":       string(c.Status),
			"validated_at": c.ValidatedAt,
			"version":      c.Version,
			"updated_at":   c.UpdatedAt,
		})
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return shared.ErrCampaignConflict
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// UpdateItemCount persists one counted quantity. The line is matched through
// its campaign so a foreign tenant can never touch it.
func (r *GormCampaignRepository) UpdateItemCount(ctx context.Context, tenantID uuid.UUID, item *inventory.CampaignItem) error {
	owned := r.db.Model(&models.CampaignModel{}).
		Select("id").
		Where("tenant_id = ? AND id = ?", tenantID, item.CampaignID)

	result := r.db.WithContext(ctx).
		Model(&models.CampaignItemModel{}).
		Where("id = ? AND campaign_id IN (?)", item.ID, owned).
		Updates(map[string]interface{}{
			"counted_qty": item.CountedQty,
			"updated_at":  item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeNotFound, "Ligne d'inventaire introuvable.")
	}
	return nil
}

// MarkItemsSkipped flags lines left unreconciled by validation
func (r *GormCampaignRepository) MarkItemsSkipped(ctx context.Context, tenantID, campaignID uuid.UUID, itemIDs []uuid.UUID) error {
	if len(itemIDs) == 0 {
		return nil
	}
	owned := r.db.Model(&models.CampaignModel{}).
		Select("id").
		Where("tenant_id = ? AND id = ?", tenantID, campaignID)

	return r.db.WithContext(ctx).
		Model(&models.CampaignItemModel{}).
		Where("id IN ? AND campaign_id IN (?)", itemIDs, owned).
		Update("skipped", true).Error
}

// tenantLockSpace namespaces the advisory locks taken by LockTenant
const tenantLockSpace = 7341

// LockTenant takes a transaction-scoped advisory lock keyed by the tenant.
// Only postgres has advisory locks; the other dialects are used with a single
// connection and are already serial.
func (r *GormCampaignRepository) LockTenant(ctx context.Context, tenantID uuid.UUID, exclusive bool) error {
	if r.db.Dialector.Name() != "postgres" {
		return nil
	}
	fn := "pg_advisory_xact_lock_shared"
	if exclusive {
		fn = "pg_advisory_xact_lock"
	}
	return r.db.WithContext(ctx).
		Exec("SELECT "+fn+"(?, hashtext(?))", tenantLockSpace, tenantID.String()).Error
}

var _ inventory.CampaignRepository = (*GormCampaignRepository)(nil)
