package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultMovementHistoryLimit caps the movement history listing
	DefaultMovementHistoryLimit = 500
	// MovementStatsWindow is the look-back period of the daily statistics
	MovementStatsWindow = 30 * 24 * time.Hour
)

// InventoryService handles the stock catalog and manual stock movements
type InventoryService struct {
	stockItems     inventory.StockItemRepository
	movements      inventory.MovementRepository
	txScope        TransactionScope
	ledger         *StockLedger
	skus           *SKUGenerator
	historyLimit   int
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	stockItems inventory.StockItemRepository,
	movements inventory.MovementRepository,
	txScope TransactionScope,
	logger *zap.Logger,
) *InventoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		stockItems:   stockItems,
		movements:    movements,
		txScope:      txScope,
		ledger:       NewStockLedger(),
		skus:         NewSKUGenerator(),
		historyLimit: DefaultMovementHistoryLimit,
		logger:       logger,
	}
}

// SetMovementHistoryLimit caps the movement history listing
func (s *InventoryService) SetMovementHistoryLimit(limit int) {
	if limit > 0 {
		s.historyLimit = limit
	}
}

// SetLedgerRecorder reports the stock movements booked by the service
func (s *InventoryService) SetLedgerRecorder(recorder LedgerRecorder) {
	s.ledger.SetRecorder(recorder)
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// publishEvents hands committed events to the bus. Failures never undo the
// committed write; they are only logged.
func (s *InventoryService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	publishEvents(ctx, s.eventPublisher, s.logger, events)
}

func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, events []shared.DomainEvent) {
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events",
			zap.Int("event_count", len(events)),
			zap.Error(err),
		)
	}
}

// ===================== Catalog =====================

// CreateItem adds a product to the catalog. A non-zero opening quantity is
// booked as an IN movement so that the ledger explains the first level.
func (s *InventoryService) CreateItem(ctx context.Context, tenantID uuid.UUID, actor string, req CreateStockItemRequest) (*StockItemResponse, error) {
	threshold := inventory.DefaultMinThreshold
	if req.MinThreshold != nil {
		threshold = *req.MinThreshold
	}

	var item *inventory.StockItem
	var entries []*LedgerEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ledger.AssertNoActiveCampaign(ctx, repos, tenantID); err != nil {
			return err
		}

		sku := strings.ToUpper(strings.TrimSpace(req.SKU))
		if sku == "" {
			generated, err := s.skus.Generate(ctx, repos.StockItems(), tenantID, req.Name)
			if err != nil {
				return err
			}
			sku = generated
		} else {
			exists, err := repos.StockItems().ExistsActiveSKU(ctx, tenantID, sku)
			if err != nil {
				return err
			}
			if exists {
				return shared.NewDomainError(shared.CodeAlreadyExists, "Un produit actif utilise déjà le SKU "+sku)
			}
		}

		created, err := inventory.NewStockItem(tenantID, sku, req.Name, req.UnitPrice, threshold)
		if err != nil {
			return err
		}
		created.Category = strings.TrimSpace(req.Category)
		created.Location = strings.TrimSpace(req.Location)
		created.ImageURL = strings.TrimSpace(req.ImageURL)

		if err := repos.StockItems().Create(ctx, created); err != nil {
			return err
		}
		item = created

		if req.Quantity > 0 {
			entry, err := s.ledger.Apply(ctx, repos, tenantID, MovementCommand{
				StockItemID: created.ID,
				Type:        inventory.MovementTypeIn,
				Quantity:    req.Quantity,
				Reason:      inventory.InitialStockReason,
				ReferenceID: inventory.DefaultManualReference,
				Actor:       actor,
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
			item = entry.Item
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, EntryEvents(entries))
	s.logger.Info("Stock item created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("stock_item_id", item.ID.String()),
		zap.String("sku", item.SKU),
	)
	response := ToStockItemResponse(item)
	return &response, nil
}

// UpdateItem changes the descriptive attributes of an item. Items already
// sold cannot be edited; the SKU and level never change here.
func (s *InventoryService) UpdateItem(ctx context.Context, tenantID, itemID uuid.UUID, req UpdateStockItemRequest) (*StockItemResponse, error) {
	var item *inventory.StockItem
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ledger.AssertNoActiveCampaign(ctx, repos, tenantID); err != nil {
			return err
		}

		referenced, err := repos.SaleReferences().IsStockItemReferenced(ctx, tenantID, itemID)
		if err != nil {
			return err
		}
		if referenced {
			return shared.NewDomainError(shared.CodeUpdateLocked,
				"Modification impossible : ce produit est rattaché à une ou plusieurs ventes.")
		}

		found, err := s.findActiveForUpdate(ctx, repos, tenantID, itemID)
		if err != nil {
			return err
		}

		name, category, location, imageURL := found.Name, found.Category, found.Location, found.ImageURL
		unitPrice, threshold := found.UnitPrice, found.MinThreshold
		if req.Name != nil {
			name = *req.Name
		}
		if req.Category != nil {
			category = strings.TrimSpace(*req.Category)
		}
		if req.Location != nil {
			location = strings.TrimSpace(*req.Location)
		}
		if req.ImageURL != nil {
			imageURL = strings.TrimSpace(*req.ImageURL)
		}
		if req.UnitPrice != nil {
			unitPrice = *req.UnitPrice
		}
		if req.MinThreshold != nil {
			threshold = *req.MinThreshold
		}

		if err := found.UpdateDetails(name, category, location, imageURL, unitPrice, threshold); err != nil {
			return err
		}
		if err := repos.StockItems().Update(ctx, found); err != nil {
			return err
		}
		item = found
		return nil
	})
	if err != nil {
		return nil, err
	}

	response := ToStockItemResponse(item)
	return &response, nil
}

// DeleteItem soft-deletes an item. Items referenced by a sale line are kept.
func (s *InventoryService) DeleteItem(ctx context.Context, tenantID, itemID uuid.UUID) error {
	var item *inventory.StockItem
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ledger.AssertNoActiveCampaign(ctx, repos, tenantID); err != nil {
			return err
		}

		referenced, err := repos.SaleReferences().IsStockItemReferenced(ctx, tenantID, itemID)
		if err != nil {
			return err
		}
		if referenced {
			return shared.NewDomainError(shared.CodeDeleteLocked,
				"Suppression impossible : ce produit figure dans des transactions de vente.")
		}

		found, err := s.findActiveForUpdate(ctx, repos, tenantID, itemID)
		if err != nil {
			return err
		}
		if err := found.SoftDelete(); err != nil {
			return err
		}
		if err := repos.StockItems().Update(ctx, found); err != nil {
			return err
		}
		item = found
		return nil
	})
	if err != nil {
		return err
	}

	s.publishEvents(ctx, shared.CollectEvents(item))
	return nil
}

func (s *InventoryService) findActiveForUpdate(ctx context.Context, repos TransactionalRepositories, tenantID, itemID uuid.UUID) (*inventory.StockItem, error) {
	item, err := repos.StockItems().FindByIDForUpdate(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive() {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Produit introuvable ou déjà supprimé.")
	}
	return item, nil
}

// ===================== Movements =====================

// AddMovement records a manual movement on a single item
func (s *InventoryService) AddMovement(ctx context.Context, tenantID uuid.UUID, actor string, req AddMovementRequest) (*MovementResponse, error) {
	mt := inventory.MovementType(strings.ToUpper(req.Type))
	if !mt.IsValid() {
		return nil, shared.NewValidationError("Type de mouvement invalide : %s", req.Type)
	}
	dir := inventory.Direction(strings.ToUpper(req.Direction))
	if dir == "" {
		dir = inventory.DirectionDecrease
	}
	reason := req.Reason
	if reason == "" {
		reason = inventory.DefaultManualReason
	}
	ref := req.ReferenceID
	if ref == "" {
		ref = inventory.DefaultManualReference
	}

	var entry *LedgerEntry
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ledger.AssertNoActiveCampaign(ctx, repos, tenantID); err != nil {
			return err
		}
		var err error
		entry, err = s.ledger.Apply(ctx, repos, tenantID, MovementCommand{
			StockItemID: req.StockItemID,
			Type:        mt,
			Quantity:    req.Quantity,
			Direction:   dir,
			Reason:      reason,
			ReferenceID: ref,
			Actor:       actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, EntryEvents([]*LedgerEntry{entry}))
	response := ToMovementResponse(entry.Movement)
	return &response, nil
}

// BulkStockIn books several IN movements in one transaction; any failing
// line rolls back the whole batch.
func (s *InventoryService) BulkStockIn(ctx context.Context, tenantID uuid.UUID, actor string, req BulkStockInRequest) ([]MovementResponse, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("Aucun article à réceptionner")
	}
	reason := req.Reason
	if reason == "" {
		reason = inventory.DefaultBulkInReason
	}
	ref := req.ReferenceID
	if ref == "" {
		ref = inventory.DefaultBulkInReference
	}

	entries := make([]*LedgerEntry, 0, len(req.Items))
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := s.ledger.AssertNoActiveCampaign(ctx, repos, tenantID); err != nil {
			return err
		}
		for _, line := range req.Items {
			entry, err := s.ledger.Apply(ctx, repos, tenantID, MovementCommand{
				StockItemID: line.StockItemID,
				Type:        inventory.MovementTypeIn,
				Quantity:    line.Quantity,
				Reason:      reason,
				ReferenceID: ref,
				Actor:       actor,
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishEvents(ctx, EntryEvents(entries))
	responses := make([]MovementResponse, len(entries))
	for i, e := range entries {
		responses[i] = ToMovementResponse(e.Movement)
	}
	return responses, nil
}

// ===================== Query Methods =====================

// GetItem retrieves an active stock item by ID
func (s *InventoryService) GetItem(ctx context.Context, tenantID, itemID uuid.UUID) (*StockItemResponse, error) {
	item, err := s.stockItems.FindByID(ctx, tenantID, itemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive() {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Produit introuvable.")
	}
	response := ToStockItemResponse(item)
	return &response, nil
}

// ListItems lists the active catalog, ordered by name by default
func (s *InventoryService) ListItems(ctx context.Context, tenantID uuid.UUID, filter StockItemListFilter) ([]StockItemResponse, int64, error) {
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if domainFilter.Page == 0 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize == 0 {
		domainFilter.PageSize = 100
	}
	if domainFilter.OrderBy == "" {
		domainFilter.OrderBy = "name"
	}
	if domainFilter.OrderDir == "" {
		domainFilter.OrderDir = "asc"
	}
	if filter.Category != "" {
		domainFilter.Filters["category"] = filter.Category
	}

	items, total, err := s.stockItems.FindActive(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToStockItemResponses(items), total, nil
}

// ListMovements returns the most recent movements, newest first
func (s *InventoryService) ListMovements(ctx context.Context, tenantID uuid.UUID, filter MovementListFilter) ([]MovementResponse, error) {
	limit := filter.Limit
	if limit <= 0 || limit > s.historyLimit {
		limit = s.historyLimit
	}
	movements, err := s.movements.FindRecent(ctx, tenantID, filter.StockItemID, limit)
	if err != nil {
		return nil, err
	}
	return ToMovementResponses(movements), nil
}

// MovementStats returns IN/OUT totals per day over the last 30 days
func (s *InventoryService) MovementStats(ctx context.Context, tenantID uuid.UUID) ([]DailyStatResponse, error) {
	since := time.Now().Add(-MovementStatsWindow)
	stats, err := s.movements.DailyStats(ctx, tenantID, since)
	if err != nil {
		return nil, err
	}
	responses := make([]DailyStatResponse, len(stats))
	for i, st := range stats {
		responses[i] = DailyStatResponse{Day: st.Day, In: st.In, Out: st.Out}
	}
	return responses, nil
}
