package trade

import (
	"context"

	appinv "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/domain/trade"
)

// TransactionScope runs sale operations in one database transaction
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories extends the stock repositories with the sale
// aggregates so that a delivery or a cancellation can write the sale, its
// invoice, its payments and the stock ledger atomically.
type TransactionalRepositories interface {
	appinv.TransactionalRepositories
	Sales() trade.SaleRepository
	Invoices() trade.InvoiceRepository
	Payments() trade.PaymentRepository
}
