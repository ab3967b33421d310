package inventory

import (
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MovementType is the kind of stock change
type MovementType string

const (
	MovementTypeIn         MovementType = "IN"
	MovementTypeOut        MovementType = "OUT"
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeIn, MovementTypeOut, MovementTypeAdjustment:
		return true
	}
	return false
}

// Increases reports whether the movement adds stock.
// IN always increases, OUT always decreases, ADJUSTMENT follows dir.
func (t MovementType) Increases(dir Direction) bool {
	switch t {
	case MovementTypeIn:
		return true
	case MovementTypeAdjustment:
		return dir == DirectionIncrease
	}
	return false
}

// Direction is the sign of an ADJUSTMENT. Manual adjustments default to a
// decrease (breakage, shrinkage).
type Direction string

const (
	DirectionIncrease Direction = "INCREASE"
	DirectionDecrease Direction = "DECREASE"
)

// Default movement attribution values
const (
	DefaultManualReason    = "Ajustement manuel"
	DefaultManualReference = "MANUAL"
	DefaultBulkInReason    = "Réapprovisionnement"
	DefaultBulkInReference = "BATCH_IN"
	InitialStockReason     = "Stock initial"
)

// ProductMovement is an immutable ledger entry for a single stock change
type ProductMovement struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	StockItemID   uuid.UUID
	Type          MovementType
	Quantity      int
	PreviousLevel int
	NewLevel      int
	Reason        string
	ReferenceID   string
	Actor         string
	MovementDate  time.Time
}

// NewProductMovement records a level change. The quantity is the magnitude of
// the change and must agree with the movement type.
func NewProductMovement(tenantID, stockItemID uuid.UUID, mt MovementType, change LevelChange, reason, referenceID, actor string) (*ProductMovement, error) {
	if tenantID == uuid.Nil || stockItemID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant and stock item are required")
	}
	if !mt.IsValid() {
		return nil, shared.NewValidationError("Type de mouvement invalide : %s", mt)
	}
	delta := change.Delta()
	switch {
	case delta == 0:
		return nil, shared.NewValidationError("A movement must change the stock level")
	case mt == MovementTypeIn && delta < 0, mt == MovementTypeOut && delta > 0:
		return nil, shared.NewValidationError("Movement %s does not match level change %d", mt, delta)
	case change.New < 0:
		return nil, shared.NewValidationError("Stock level cannot be negative")
	}
	qty := delta
	if qty < 0 {
		qty = -qty
	}

	return &ProductMovement{
		ID:            uuid.New(),
		TenantID:      tenantID,
		StockItemID:   stockItemID,
		Type:          mt,
		Quantity:      qty,
		PreviousLevel: change.Previous,
		NewLevel:      change.New,
		Reason:        reason,
		ReferenceID:   referenceID,
		Actor:         actor,
		MovementDate:  time.Now(),
	}, nil
}

// IsConsistent checks the ledger invariant newLevel = previousLevel ± qty
func (m *ProductMovement) IsConsistent() bool {
	switch m.Type {
	case MovementTypeIn:
		return m.NewLevel == m.PreviousLevel+m.Quantity
	case MovementTypeOut:
		return m.NewLevel == m.PreviousLevel-m.Quantity
	case MovementTypeAdjustment:
		return m.NewLevel == m.PreviousLevel+m.Quantity || m.NewLevel == m.PreviousLevel-m.Quantity
	}
	return false
}

// DailyMovementStat aggregates IN and OUT quantities for one day
type DailyMovementStat struct {
	Day string
	In  int
	Out int
}
