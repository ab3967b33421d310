package trade

import (
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how money was received
type PaymentMethod string

const (
	PaymentMethodCash        PaymentMethod = "CASH"
	PaymentMethodOrangeMoney PaymentMethod = "ORANGE_MONEY"
	PaymentMethodWave        PaymentMethod = "WAVE"
	PaymentMethodMTNMomo     PaymentMethod = "MTN_MOMO"
	PaymentMethodStripe      PaymentMethod = "STRIPE"
	PaymentMethodTransfer    PaymentMethod = "TRANSFER"
)

// PaymentMethods lists every accepted method
var PaymentMethods = []PaymentMethod{
	PaymentMethodCash, PaymentMethodOrangeMoney, PaymentMethodWave,
	PaymentMethodMTNMomo, PaymentMethodStripe, PaymentMethodTransfer,
}

// IsValid checks if the method is accepted
func (m PaymentMethod) IsValid() bool {
	for _, known := range PaymentMethods {
		if m == known {
			return true
		}
	}
	return false
}

// InitialPaymentReference marks the down payment taken at sale creation
const InitialPaymentReference = "ACOMPTE_INITIAL"

// Payment is an append-only money record. Negative amounts are reversals.
type Payment struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	SaleID      *uuid.UUID
	Amount      decimal.Decimal
	Method      PaymentMethod
	Reference   string
	PaymentDate time.Time
}

// NewPayment records money received against a sale
func NewPayment(tenantID, saleID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference string) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("Le montant du paiement doit être strictement positif")
	}
	if method == "" {
		method = PaymentMethodCash
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError("Moyen de paiement invalide : %s", method)
	}
	return newPayment(tenantID, saleID, amount, method, reference), nil
}

// NewReversalPayment records the negative compensating entry of a cancellation
func NewReversalPayment(sale *Sale, refunded decimal.Decimal) *Payment {
	return newPayment(sale.TenantID, sale.ID, refunded.Neg(), PaymentMethodCash, sale.CancellationPaymentReference())
}

func newPayment(tenantID, saleID uuid.UUID, amount decimal.Decimal, method PaymentMethod, reference string) *Payment {
	return &Payment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		SaleID:      &saleID,
		Amount:      amount,
		Method:      method,
		Reference:   reference,
		PaymentDate: time.Now(),
	}
}
