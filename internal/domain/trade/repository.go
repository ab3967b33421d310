package trade

import (
	"context"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleRepository defines the interface for sale persistence.
// Every method is scoped by the tenant passed in.
type SaleRepository interface {
	// FindByID loads a sale with its items
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate loads a sale with its items and locks the sale row
	FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)

	// FindAll lists sales without items, newest first
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Sale, int64, error)

	// ExistsByReference checks whether a reference is already used
	ExistsByReference(ctx context.Context, reference string) (bool, error)

	// Create inserts the sale and its items
	Create(ctx context.Context, s *Sale) error

	// Update persists header fields, guarded by version
	Update(ctx context.Context, s *Sale) error

	// ReplaceItems deletes the sale's items and inserts the current ones
	ReplaceItems(ctx context.Context, s *Sale) error

	// UpdateDelivered persists the delivered quantity of the given lines
	UpdateDelivered(ctx context.Context, s *Sale, items []*SaleItem) error
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) (*Invoice, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, inv *Invoice) error
	// Update persists header fields and replaces the lines
	Update(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, inv *Invoice) error
}

// PaymentRepository defines the interface for the append-only payment journal
type PaymentRepository interface {
	Create(ctx context.Context, p *Payment) error
	FindBySaleID(ctx context.Context, tenantID, saleID uuid.UUID) ([]Payment, error)
}
