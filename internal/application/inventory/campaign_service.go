package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CampaignService runs physical inventory counts. A DRAFT campaign freezes
// every stock mutation of its tenant until it is validated, suspended or
// cancelled.
type CampaignService struct {
	campaigns      inventory.CampaignRepository
	txScope        TransactionScope
	ledger         *StockLedger
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewCampaignService creates a new CampaignService
func NewCampaignService(campaigns inventory.CampaignRepository, txScope TransactionScope, logger *zap.Logger) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CampaignService{
		campaigns: campaigns,
		txScope:   txScope,
		ledger:    NewStockLedger(),
		logger:    logger,
	}
}

// SetLedgerRecorder reports the stock movements booked by the service
func (s *CampaignService) SetLedgerRecorder(recorder LedgerRecorder) {
	s.ledger.SetRecorder(recorder)
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CampaignService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create opens a DRAFT campaign and snapshots every active item of the
// tenant. It holds the tenant lock exclusively, so it waits for in-flight
// mutations (item creation included) and mutations started after it see the
// DRAFT row once it commits.
func (s *CampaignService) Create(ctx context.Context, tenantID uuid.UUID, req CreateCampaignRequest) (*CampaignResponse, error) {
	var campaign *inventory.Campaign
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Campaigns().LockTenant(ctx, tenantID, true); err != nil {
			return err
		}
		draft, err := repos.Campaigns().FindDraft(ctx, tenantID)
		switch {
		case err == nil:
			return shared.NewDomainError(shared.CodeCampaignConflict,
				fmt.Sprintf("Une campagne d'inventaire est déjà active : %s", draft.Name))
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		snapshot, err := repos.StockItems().LockAllActive(ctx, tenantID)
		if err != nil {
			return err
		}
		campaign, err = inventory.NewCampaign(tenantID, req.Name, snapshot)
		if err != nil {
			return err
		}
		return repos.Campaigns().Create(ctx, campaign)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory campaign opened",
		zap.String("tenant_id", tenantID.String()),
		zap.String("campaign_id", campaign.ID.String()),
		zap.Int("item_count", len(campaign.Items)),
	)
	publishEvents(ctx, s.eventPublisher, s.logger, shared.CollectEvents(campaign))
	response := ToCampaignResponse(campaign)
	return &response, nil
}

// UpdateCount records the counted quantity of one line
func (s *CampaignService) UpdateCount(ctx context.Context, tenantID, campaignID, itemID uuid.UUID, countedQty int) (*CampaignItemResponse, error) {
	var item *inventory.CampaignItem
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		campaign, err := repos.Campaigns().FindByIDForUpdate(ctx, tenantID, campaignID)
		if err != nil {
			return err
		}
		item, err = campaign.UpdateCount(itemID, countedQty)
		if err != nil {
			return err
		}
		return repos.Campaigns().UpdateItemCount(ctx, tenantID, item)
	})
	if err != nil {
		return nil, err
	}

	response := ToCampaignItemResponse(item)
	return &response, nil
}

// Validate closes a DRAFT campaign. With syncStock every line whose count
// differs from the snapshot sets the item level to the counted quantity
// through an ADJUSTMENT movement, in the same transaction as the status flip.
func (s *CampaignService) Validate(ctx context.Context, tenantID, campaignID uuid.UUID, actor string, syncStock bool) (*CampaignResponse, error) {
	var campaign *inventory.Campaign
	var entries []*LedgerEntry
	var skippedIDs []uuid.UUID
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		campaign, err = repos.Campaigns().FindByIDForUpdate(ctx, tenantID, campaignID)
		if err != nil {
			return err
		}
		if !campaign.IsDraft() {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("Cette campagne est %s et ne peut plus être clôturée.", campaign.Status))
		}

		if syncStock {
			for _, line := range campaign.Discrepancies() {
				entry, err := s.ledger.ApplyAdjustmentTo(ctx, repos, tenantID, line.StockItemID, line.CountedQty,
					campaign.ReconciliationReason(line.Delta()), campaign.ShortReference(), actor)
				if err != nil {
					if !errors.Is(err, shared.ErrNotFound) {
						return err
					}
					// removed while the campaign was suspended
					skipped, err := campaign.SkipLine(line.StockItemID)
					if err != nil {
						return err
					}
					s.logger.Warn("Skipping reconciliation of a removed stock item",
						zap.String("campaign_id", campaign.ID.String()),
						zap.String("stock_item_id", line.StockItemID.String()),
					)
					skippedIDs = append(skippedIDs, skipped.ID)
					continue
				}
				if entry != nil {
					entries = append(entries, entry)
				}
			}
			if err := repos.Campaigns().MarkItemsSkipped(ctx, tenantID, campaign.ID, skippedIDs); err != nil {
				return err
			}
		}

		if err := campaign.Validate(syncStock); err != nil {
			return err
		}
		return repos.Campaigns().UpdateStatus(ctx, campaign)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Inventory campaign validated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("campaign_id", campaign.ID.String()),
		zap.Bool("sync_stock", syncStock),
		zap.Int("adjustments", len(entries)),
		zap.Int("skipped", len(skippedIDs)),
	)
	events := append(shared.CollectEvents(campaign), EntryEvents(entries)...)
	publishEvents(ctx, s.eventPublisher, s.logger, events)
	response := ToCampaignResponse(campaign)
	return &response, nil
}

// Suspend pauses a DRAFT campaign, releasing the stock lock
func (s *CampaignService) Suspend(ctx context.Context, tenantID, campaignID uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, tenantID, campaignID, func(_ context.Context, _ TransactionalRepositories, c *inventory.Campaign) error {
		return c.Suspend()
	})
}

// Cancel abandons a DRAFT campaign without touching stock
func (s *CampaignService) Cancel(ctx context.Context, tenantID, campaignID uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, tenantID, campaignID, func(_ context.Context, _ TransactionalRepositories, c *inventory.Campaign) error {
		return c.Cancel()
	})
}

// Resume reopens a SUSPENDED campaign. It fails with a campaign conflict
// when another campaign was opened meanwhile.
func (s *CampaignService) Resume(ctx context.Context, tenantID, campaignID uuid.UUID) (*CampaignResponse, error) {
	return s.transition(ctx, tenantID, campaignID, func(ctx context.Context, repos TransactionalRepositories, c *inventory.Campaign) error {
		if c.Status != inventory.CampaignStatusSuspended {
			return shared.NewDomainError(shared.CodeInvalidState, "Seules les campagnes suspendues peuvent être relancées.")
		}
		if err := repos.Campaigns().LockTenant(ctx, tenantID, true); err != nil {
			return err
		}
		draft, err := repos.Campaigns().FindDraft(ctx, tenantID)
		switch {
		case err == nil && draft.ID != c.ID:
			return shared.NewDomainError(shared.CodeCampaignConflict,
				fmt.Sprintf("Une campagne d'inventaire est déjà active : %s", draft.Name))
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			return err
		}
		return c.Resume()
	})
}

func (s *CampaignService) transition(
	ctx context.Context,
	tenantID, campaignID uuid.UUID,
	apply func(ctx context.Context, repos TransactionalRepositories, c *inventory.Campaign) error,
) (*CampaignResponse, error) {
	var campaign *inventory.Campaign
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		campaign, err = repos.Campaigns().FindByIDForUpdate(ctx, tenantID, campaignID)
		if err != nil {
			return err
		}
		if err := apply(ctx, repos, campaign); err != nil {
			return err
		}
		return repos.Campaigns().UpdateStatus(ctx, campaign)
	})
	if err != nil {
		return nil, err
	}

	publishEvents(ctx, s.eventPublisher, s.logger, shared.CollectEvents(campaign))
	response := ToCampaignResponse(campaign)
	return &response, nil
}

// ===================== Query Methods =====================

// List returns the tenant's campaigns, newest first
func (s *CampaignService) List(ctx context.Context, tenantID uuid.UUID) ([]CampaignResponse, error) {
	campaigns, err := s.campaigns.FindAll(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	responses := make([]CampaignResponse, len(campaigns))
	for i := range campaigns {
		responses[i] = ToCampaignResponse(&campaigns[i])
	}
	return responses, nil
}

// Get returns a campaign with its lines
func (s *CampaignService) Get(ctx context.Context, tenantID, campaignID uuid.UUID) (*CampaignResponse, error) {
	campaign, err := s.campaigns.FindByID(ctx, tenantID, campaignID)
	if err != nil {
		return nil, err
	}
	response := ToCampaignResponse(campaign)
	return &response, nil
}
