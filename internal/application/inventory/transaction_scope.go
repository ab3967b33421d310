package inventory

import (
	"context"

	"github.com/gestock/backend/internal/domain/inventory"
)

// TransactionScope provides transactional access to stock repositories.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the stock repositories within a transaction.
// All repositories returned share the same underlying database transaction, which is
// what lets the campaign gate, the row lock and the ledger insert commit together.
type TransactionalRepositories interface {
	// StockItems returns the stock item repository scoped to the current transaction
	StockItems() inventory.StockItemRepository
	// Movements returns the append-only movement repository scoped to the current transaction
	Movements() inventory.MovementRepository
	// Campaigns returns the inventory campaign repository scoped to the current transaction
	Campaigns() inventory.CampaignRepository
	// SaleReferences returns the sale line reference checker scoped to the current transaction
	SaleReferences() inventory.SaleReferenceChecker
}
