package trade

import (
	"fmt"
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a sale
type SaleStatus string

const (
	SaleStatusOpen      SaleStatus = "EN_COURS"
	SaleStatusCompleted SaleStatus = "TERMINE"
	SaleStatusCancelled SaleStatus = "ANNULE"
	// SaleStatusRefunded is reserved: no operation produces it yet.
	SaleStatusRefunded SaleStatus = "REMBOURSE"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	switch s {
	case SaleStatusOpen, SaleStatusCompleted, SaleStatusCancelled, SaleStatusRefunded:
		return true
	}
	return false
}

// IsClosed reports whether the sale can no longer take payments or deliveries
func (s SaleStatus) IsClosed() bool {
	return s == SaleStatusCancelled || s == SaleStatusRefunded
}

// DefaultTaxRate is the VAT percentage applied to every sale line
var DefaultTaxRate = decimal.NewFromInt(18)

var hundred = decimal.NewFromInt(100)

// LineInput describes one requested sale line
type LineInput struct {
	Target    LineTarget
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
}

// Validate checks a single line
func (l LineInput) Validate() error {
	if err := l.Target.Validate(); err != nil {
		return err
	}
	if l.Quantity <= 0 {
		return shared.NewValidationError("La quantité doit être strictement positive")
	}
	if l.UnitPrice.IsNegative() {
		return shared.NewValidationError("Le prix unitaire ne peut pas être négatif")
	}
	return nil
}

// SaleItem is a line within a sale
type SaleItem struct {
	ID                uuid.UUID
	SaleID            uuid.UUID
	Target            LineTarget
	Name              string
	Quantity          int
	QuantityDelivered int
	UnitPrice         decimal.Decimal
	TaxRate           decimal.Decimal
	TotalTtc          decimal.Decimal
}

// TotalHt returns price x quantity
func (i *SaleItem) TotalHt() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RemainingToDeliver returns the undelivered quantity
func (i *SaleItem) RemainingToDeliver() int {
	return i.Quantity - i.QuantityDelivered
}

// Sale is a commercial transaction. It owns its items.
type Sale struct {
	shared.TenantAggregateRoot
	CustomerID *uuid.UUID
	Reference  string
	Status     SaleStatus
	TotalHt    decimal.Decimal
	TaxAmount  decimal.Decimal
	TotalTtc   decimal.Decimal
	AmountPaid decimal.Decimal
	SaleDate   time.Time
	Items      []SaleItem
}

// NewSale creates an open sale with computed totals
func NewSale(tenantID uuid.UUID, customerID *uuid.UUID, reference string, lines []LineInput, taxRate decimal.Decimal) (*Sale, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewValidationError("Tenant ID cannot be empty")
	}
	if reference == "" {
		return nil, shared.NewValidationError("Sale reference cannot be empty")
	}
	s := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		Reference:           reference,
		Status:              SaleStatusOpen,
		AmountPaid:          decimal.Zero,
	}
	s.SaleDate = s.CreatedAt
	if err := s.setItems(lines, taxRate); err != nil {
		return nil, err
	}
	s.AddDomainEvent(NewSaleCreatedEvent(s))
	return s, nil
}

func (s *Sale) setItems(lines []LineInput, taxRate decimal.Decimal) error {
	if len(lines) == 0 {
		return shared.NewValidationError("Une vente doit contenir au moins un article")
	}
	if taxRate.IsNegative() {
		return shared.NewValidationError("Tax rate cannot be negative")
	}
	factor := decimal.NewFromInt(1).Add(taxRate.Div(hundred))

	items := make([]SaleItem, 0, len(lines))
	totalHt := decimal.Zero
	for idx, l := range lines {
		if err := l.Validate(); err != nil {
			return shared.NewValidationError("Ligne %d : %s", idx+1, err.Error())
		}
		item := SaleItem{
			ID:        uuid.New(),
			SaleID:    s.ID,
			Target:    l.Target,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			TaxRate:   taxRate,
		}
		itemHt := item.TotalHt()
		item.TotalTtc = itemHt.Mul(factor).Round(2)
		totalHt = totalHt.Add(itemHt)
		items = append(items, item)
	}

	s.Items = items
	s.TotalHt = totalHt.Round(2)
	s.TaxAmount = totalHt.Mul(taxRate).Div(hundred).Round(2)
	s.TotalTtc = s.TotalHt.Add(s.TaxAmount)
	return nil
}

// HasDeliveries reports whether any line has been (partially) delivered
func (s *Sale) HasDeliveries() bool {
	for _, item := range s.Items {
		if item.QuantityDelivered > 0 {
			return true
		}
	}
	return false
}

// IsLocked reports whether the sale can no longer be edited
func (s *Sale) IsLocked() bool {
	return s.AmountPaid.IsPositive() || s.HasDeliveries() || s.Status.IsClosed()
}

// ReplaceItems discards every line and rebuilds the sale from the new list.
// Only sales with no payment and no delivery can be edited.
func (s *Sale) ReplaceItems(customerID *uuid.UUID, lines []LineInput, taxRate decimal.Decimal) error {
	if s.IsLocked() {
		return shared.NewDomainError(shared.CodeUpdateLocked,
			fmt.Sprintf("La vente %s ne peut plus être modifiée : paiement ou livraison déjà enregistré", s.Reference))
	}
	if err := s.setItems(lines, taxRate); err != nil {
		return err
	}
	s.CustomerID = customerID
	s.IncrementVersion()
	return nil
}

// Item returns the line with the given id
func (s *Sale) Item(itemID uuid.UUID) (*SaleItem, error) {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i], nil
		}
	}
	return nil, shared.NewDomainError(shared.CodeNotFound, fmt.Sprintf("Ligne %s introuvable dans la vente %s", itemID, s.Reference))
}

// Deliver increments the delivered quantity of a product line. It never
// lets the delivered quantity exceed the ordered one.
func (s *Sale) Deliver(itemID uuid.UUID, qty int) (*SaleItem, error) {
	if s.Status.IsClosed() {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("La vente %s est %s", s.Reference, s.Status))
	}
	if qty <= 0 {
		return nil, shared.NewValidationError("La quantité à livrer doit être strictement positive")
	}
	item, err := s.Item(itemID)
	if err != nil {
		return nil, err
	}
	if !item.Target.IsProduct() {
		return nil, shared.NewValidationError("La ligne %s est une prestation de service et ne se livre pas", item.Name)
	}
	if item.QuantityDelivered+qty > item.Quantity {
		return nil, shared.NewValidationError("Livraison de %d dépasse le reste à livrer (%d) pour %s",
			qty, item.RemainingToDeliver(), item.Name)
	}
	item.QuantityDelivered += qty
	return item, nil
}

// MarkDelivered records a completed delivery request
func (s *Sale) MarkDelivered(lines int) {
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleDeliveredEvent(s, lines))
}

// ApplyPayment adds a payment to the paid amount and derives the status
func (s *Sale) ApplyPayment(amount decimal.Decimal) error {
	if s.Status.IsClosed() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Impossible d'encaisser un paiement sur une vente %s", s.Status))
	}
	if !amount.IsPositive() {
		return shared.NewValidationError("Le montant du paiement doit être strictement positif")
	}
	s.AmountPaid = s.AmountPaid.Add(amount)
	if s.AmountPaid.GreaterThanOrEqual(s.TotalTtc) {
		s.Status = SaleStatusCompleted
	} else {
		s.Status = SaleStatusOpen
	}
	s.IncrementVersion()
	s.AddDomainEvent(NewPaymentRecordedEvent(s, amount))
	return nil
}

// ReturnableQty is the quantity of a line that can go back to stock on
// cancellation: min(delivered, requested).
func (i *SaleItem) ReturnableQty(requested int) int {
	if requested <= 0 || !i.Target.IsProduct() {
		return 0
	}
	if requested > i.QuantityDelivered {
		return i.QuantityDelivered
	}
	return requested
}

// Cancel voids the sale and returns the amount that must be reversed
func (s *Sale) Cancel(reason string) (decimal.Decimal, error) {
	if s.Status.IsClosed() {
		return decimal.Zero, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("La vente %s est déjà %s", s.Reference, s.Status))
	}
	refund := s.AmountPaid
	s.Status = SaleStatusCancelled
	s.AmountPaid = decimal.Zero
	s.IncrementVersion()
	s.AddDomainEvent(NewSaleCancelledEvent(s, reason, refund))
	return refund, nil
}

// DeliveryReason is the movement reason of a delivery
func (s *Sale) DeliveryReason() string {
	return "Livraison Vente " + s.Reference
}

// CancellationReason is the movement reason of a stock return on cancellation
func (s *Sale) CancellationReason() string {
	return "Annulation Livraison Vente " + s.Reference
}

// CancellationPaymentReference is the reference of the compensating payment
func (s *Sale) CancellationPaymentReference() string {
	return "ANNULATION_" + s.Reference
}
