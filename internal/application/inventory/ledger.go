package inventory

import (
	"context"
	"errors"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementCommand describes a single stock change requested by a caller
type MovementCommand struct {
	StockItemID uuid.UUID
	Type        inventory.MovementType
	Quantity    int
	// Direction is only read for ADJUSTMENT movements
	Direction   inventory.Direction
	Reason      string
	ReferenceID string
	Actor       string
}

// LedgerEntry is the outcome of a ledger write: the appended movement and the
// item in its post-movement state (with its pending domain events).
type LedgerEntry struct {
	Movement *inventory.ProductMovement
	Item     *inventory.StockItem
}

// LedgerRecorder observes ledger outcomes, typically to feed metrics
type LedgerRecorder interface {
	MovementApplied(ctx context.Context, tenantID uuid.UUID, movementType string, quantity int)
	MovementRejected(ctx context.Context, tenantID uuid.UUID, code string)
}

type nopRecorder struct{}

func (nopRecorder) MovementApplied(context.Context, uuid.UUID, string, int) {}
func (nopRecorder) MovementRejected(context.Context, uuid.UUID, string)     {}

// StockLedger is the single writer of stock levels. Every call must run inside
// a TransactionScope so that the row lock, the guarded level update and the
// movement insert commit or roll back together.
type StockLedger struct {
	recorder LedgerRecorder
}

// NewStockLedger creates a new StockLedger
func NewStockLedger() *StockLedger {
	return &StockLedger{recorder: nopRecorder{}}
}

// SetRecorder replaces the outcome recorder; nil restores the no-op one
func (l *StockLedger) SetRecorder(recorder LedgerRecorder) {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	l.recorder = recorder
}

// Apply locks the item, applies the movement and appends the ledger entry.
// The level is left untouched when the movement would make it negative.
func (l *StockLedger) Apply(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID, cmd MovementCommand) (*LedgerEntry, error) {
	item, err := l.lockActive(ctx, repos, tenantID, cmd.StockItemID)
	if err != nil {
		return nil, err
	}

	change, err := item.ApplyMovement(cmd.Type, cmd.Quantity, cmd.Direction)
	if err != nil {
		if errors.Is(err, shared.ErrInsufficientStock) {
			l.recorder.MovementRejected(ctx, tenantID, shared.CodeInsufficientStock)
		}
		return nil, err
	}
	return l.record(ctx, repos, item, cmd.Type, change, cmd.Reason, cmd.ReferenceID, cmd.Actor)
}

// ApplyAdjustmentTo sets the level of an item to target and records the
// difference as an ADJUSTMENT movement. It returns a nil entry when the level
// already equals target.
func (l *StockLedger) ApplyAdjustmentTo(ctx context.Context, repos TransactionalRepositories, tenantID, stockItemID uuid.UUID, target int, reason, referenceID, actor string) (*LedgerEntry, error) {
	item, err := l.lockActive(ctx, repos, tenantID, stockItemID)
	if err != nil {
		return nil, err
	}
	if item.CurrentLevel == target {
		return nil, nil
	}

	change, err := item.SetLevel(target)
	if err != nil {
		return nil, err
	}
	return l.record(ctx, repos, item, inventory.MovementTypeAdjustment, change, reason, referenceID, actor)
}

func (l *StockLedger) lockActive(ctx context.Context, repos TransactionalRepositories, tenantID, stockItemID uuid.UUID) (*inventory.StockItem, error) {
	item, err := repos.StockItems().FindByIDForUpdate(ctx, tenantID, stockItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive() {
		return nil, shared.NewDomainError(shared.CodeNotFound, "Produit introuvable")
	}
	return item, nil
}

func (l *StockLedger) record(
	ctx context.Context,
	repos TransactionalRepositories,
	item *inventory.StockItem,
	mt inventory.MovementType,
	change inventory.LevelChange,
	reason, referenceID, actor string,
) (*LedgerEntry, error) {
	movement, err := inventory.NewProductMovement(item.TenantID, item.ID, mt, change, reason, referenceID, actor)
	if err != nil {
		return nil, err
	}

	if err := repos.StockItems().UpdateLevel(ctx, item, change.Previous); err != nil {
		return nil, err
	}
	if err := repos.Movements().Create(ctx, movement); err != nil {
		return nil, err
	}
	l.recorder.MovementApplied(ctx, item.TenantID, string(mt), movement.Quantity)
	return &LedgerEntry{Movement: movement, Item: item}, nil
}

// AssertNoActiveCampaign fails with an InventoryLockedError when the tenant
// has a DRAFT campaign. It first takes the tenant lock in shared mode, so a
// campaign opening waits for the mutation to commit and a mutation that starts
// after an opening sees its DRAFT row.
func (l *StockLedger) AssertNoActiveCampaign(ctx context.Context, repos TransactionalRepositories, tenantID uuid.UUID) error {
	if err := repos.Campaigns().LockTenant(ctx, tenantID, false); err != nil {
		return err
	}
	draft, err := repos.Campaigns().FindDraft(ctx, tenantID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	l.recorder.MovementRejected(ctx, tenantID, shared.CodeInventoryLocked)
	return &shared.InventoryLockedError{CampaignName: draft.Name}
}

// EntryEvents gathers the pending events of every item touched by the entries
func EntryEvents(entries []*LedgerEntry) []shared.DomainEvent {
	sources := make([]shared.EventSource, 0, len(entries))
	for _, e := range entries {
		if e != nil {
			sources = append(sources, e.Item)
		}
	}
	return shared.CollectEvents(sources...)
}
