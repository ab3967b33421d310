package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockItemStatus is the lifecycle status of a stock item
type StockItemStatus string

const (
	StockItemStatusActive  StockItemStatus = "actif"
	StockItemStatusDeleted StockItemStatus = "supprime"
)

// DefaultMinThreshold is applied when an item is created without a threshold
const DefaultMinThreshold = 5

// StockItem is a tenant-scoped product whose CurrentLevel is the
// authoritative on-hand quantity. The level only changes through
// ApplyMovement or SetLevel, both of which keep it non-negative.
type StockItem struct {
	shared.TenantAggregateRoot
	SKU          string
	Name         string
	Category     string
	Location     string
	ImageURL     string
	CurrentLevel int
	MinThreshold int
	UnitPrice    decimal.Decimal
	Status       StockItemStatus
	DeletedAt    *time.Time
}

// NewStockItem creates an active stock item with a zero level.
// The opening quantity is booked separately as an IN movement.
func NewStockItem(tenantID uuid.UUID, sku, name string, unitPrice decimal.Decimal, minThreshold int) (*StockItem, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("Le nom du produit est obligatoire")
	}
	if sku == "" {
		return nil, shared.NewValidationError("SKU cannot be empty")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Unit price cannot be negative")
	}
	if minThreshold < 0 {
		return nil, shared.NewValidationError("Minimum threshold cannot be negative")
	}

	return &StockItem{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		SKU:                 sku,
		Name:                name,
		MinThreshold:        minThreshold,
		UnitPrice:           unitPrice,
		Status:              StockItemStatusActive,
	}, nil
}

// IsActive reports whether the item can still receive movements
func (s *StockItem) IsActive() bool {
	return s.Status == StockItemStatusActive
}

// IsBelowThreshold reports whether the current level is under the alert threshold
func (s *StockItem) IsBelowThreshold() bool {
	return s.CurrentLevel <= s.MinThreshold
}

// LevelChange is the before/after pair of a single stock mutation
type LevelChange struct {
	Previous int
	New      int
}

// Delta returns New - Previous
func (c LevelChange) Delta() int {
	return c.New - c.Previous
}

// ApplyMovement changes the level by qty in the direction implied by the
// movement type. ADJUSTMENT uses the explicit direction.
func (s *StockItem) ApplyMovement(mt MovementType, qty int, dir Direction) (LevelChange, error) {
	if !s.IsActive() {
		return LevelChange{}, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Le produit %s n'est plus actif", s.SKU))
	}
	if !mt.IsValid() {
		return LevelChange{}, shared.NewValidationError("Type de mouvement invalide : %s", mt)
	}
	if qty <= 0 {
		return LevelChange{}, shared.NewValidationError("La quantité doit être strictement positive")
	}

	change := LevelChange{Previous: s.CurrentLevel}
	if mt.Increases(dir) {
		change.New = s.CurrentLevel + qty
	} else {
		if s.CurrentLevel < qty {
			return LevelChange{}, &shared.InsufficientStockError{SKU: s.SKU, Available: s.CurrentLevel, Requested: qty}
		}
		change.New = s.CurrentLevel - qty
	}

	s.setLevel(change)
	return change, nil
}

// SetLevel sets the level to an explicitly counted value. It is used when an
// inventory campaign reconciles counted quantities.
func (s *StockItem) SetLevel(target int) (LevelChange, error) {
	if !s.IsActive() {
		return LevelChange{}, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Le produit %s n'est plus actif", s.SKU))
	}
	if target < 0 {
		return LevelChange{}, shared.NewValidationError("Stock level cannot be negative")
	}
	change := LevelChange{Previous: s.CurrentLevel, New: target}
	s.setLevel(change)
	return change, nil
}

func (s *StockItem) setLevel(change LevelChange) {
	s.CurrentLevel = change.New
	s.IncrementVersion()

	s.AddDomainEvent(NewStockLevelChangedEvent(s, change))
	if change.New < change.Previous && s.IsBelowThreshold() {
		s.AddDomainEvent(NewStockBelowThresholdEvent(s))
	}
}

// UpdateDetails changes the descriptive attributes. The SKU is immutable.
func (s *StockItem) UpdateDetails(name, category, location, imageURL string, unitPrice decimal.Decimal, minThreshold int) error {
	if !s.IsActive() {
		return shared.ErrNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewValidationError("Le nom du produit est obligatoire")
	}
	if unitPrice.IsNegative() {
		return shared.NewValidationError("Unit price cannot be negative")
	}
	if minThreshold < 0 {
		return shared.NewValidationError("Minimum threshold cannot be negative")
	}
	s.Name = name
	s.Category = category
	s.Location = location
	s.ImageURL = imageURL
	s.UnitPrice = unitPrice
	s.MinThreshold = minThreshold
	s.IncrementVersion()
	return nil
}

// SoftDelete flags the item as deleted; rows are never physically removed.
func (s *StockItem) SoftDelete() error {
	if !s.IsActive() {
		return shared.ErrNotFound
	}
	now := time.Now()
	s.Status = StockItemStatusDeleted
	s.DeletedAt = &now
	s.IncrementVersion()
	s.AddDomainEvent(NewStockItemDeletedEvent(s))
	return nil
}
