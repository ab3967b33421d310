package trade

import (
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// LineKind discriminates what a sale line refers to
type LineKind string

const (
	LineKindProduct LineKind = "PRODUCT"
	LineKindService LineKind = "SERVICE"
)

// LineTarget is what a sale line sells: exactly one stock item or one
// service. The zero value is invalid.
type LineTarget struct {
	kind LineKind
	id   uuid.UUID
}

// ProductLine targets a stock item
func ProductLine(stockItemID uuid.UUID) LineTarget {
	return LineTarget{kind: LineKindProduct, id: stockItemID}
}

// ServiceLine targets a service
func ServiceLine(serviceID uuid.UUID) LineTarget {
	return LineTarget{kind: LineKindService, id: serviceID}
}

// NewLineTarget builds a target from its persisted form
func NewLineTarget(kind LineKind, id uuid.UUID) (LineTarget, error) {
	t := LineTarget{kind: kind, id: id}
	return t, t.Validate()
}

func (t LineTarget) Kind() LineKind { return t.kind }
func (t LineTarget) ID() uuid.UUID  { return t.id }

// IsProduct reports whether the line moves stock
func (t LineTarget) IsProduct() bool { return t.kind == LineKindProduct }

// StockItemID returns the stock item of a product line
func (t LineTarget) StockItemID() (uuid.UUID, bool) {
	if t.kind != LineKindProduct {
		return uuid.Nil, false
	}
	return t.id, true
}

// ServiceID returns the service of a service line
func (t LineTarget) ServiceID() (uuid.UUID, bool) {
	if t.kind != LineKindService {
		return uuid.Nil, false
	}
	return t.id, true
}

// Validate checks the variant is well formed
func (t LineTarget) Validate() error {
	if t.kind != LineKindProduct && t.kind != LineKindService {
		return shared.NewValidationError("Type d'article invalide : %q", t.kind)
	}
	if t.id == uuid.Nil {
		if t.kind == LineKindProduct {
			return shared.NewValidationError("ID produit manquant")
		}
		return shared.NewValidationError("ID service manquant")
	}
	return nil
}
