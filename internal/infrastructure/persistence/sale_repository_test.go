package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newSale(t *testing.T, tenantID uuid.UUID, reference string, lines ...trade.LineInput) *trade.Sale {
	t.Helper()
	s, err := trade.NewSale(tenantID, nil, reference, lines, trade.DefaultTaxRate)
	require.NoError(t, err)
	return s
}

func productLine(stockItemID uuid.UUID, qty int, price int64) trade.LineInput {
	return trade.LineInput{
		Target:    trade.ProductLine(stockItemID),
		Name:      "Produit",
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(price),
	}
}

func seedSale(t *testing.T, db *gorm.DB, tenantID uuid.UUID, reference string, lines ...trade.LineInput) *trade.Sale {
	t.Helper()
	s := newSale(t, tenantID, reference, lines...)
	require.NoError(t, NewGormSaleRepository(db).Create(context.Background(), s))
	return s
}

func TestGormSaleRepository_SQLite(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip keeps line variants", func(t *testing.T) {
		db := newSQLiteDB(t)
		tenantID := uuid.New()
		stockItemID, serviceID := uuid.New(), uuid.New()
		s := seedSale(t, db, tenantID, "V-000001",
			productLine(stockItemID, 2, 100),
			trade.LineInput{Target: trade.ServiceLine(serviceID), Name: "Installation", Quantity: 1, UnitPrice: decimal.NewFromInt(50)},
		)

		found, err := NewGormSaleRepository(db).FindByID(ctx, tenantID, s.ID)
		require.NoError(t, err)
		assert.Equal(t, "V-000001", found.Reference)
		assert.True(t, found.TotalHt.Equal(decimal.NewFromInt(250)))
		assert.True(t, found.TotalTtc.Equal(decimal.NewFromInt(295)))
		require.Len(t, found.Items, 2)

		var product, service *trade.SaleItem
		for i := range found.Items {
			if found.Items[i].Target.IsProduct() {
				product = &found.Items[i]
			} else {
				service = &found.Items[i]
			}
		}
		require.NotNil(t, product)
		require.NotNil(t, service)
		id, ok := product.Target.StockItemID()
		assert.True(t, ok)
		assert.Equal(t, stockItemID, id)
		sid, ok := service.Target.ServiceID()
		assert.True(t, ok)
		assert.Equal(t, serviceID, sid)
	})

	t.Run("tenant isolation", func(t *testing.T) {
		db := newSQLiteDB(t)
		s := seedSale(t, db, uuid.New(), "V-000002", productLine(uuid.New(), 1, 10))

		_, err := NewGormSaleRepository(db).FindByID(ctx, uuid.New(), s.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("references are globally unique", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormSaleRepository(db)
		seedSale(t, db, uuid.New(), "V-123456", productLine(uuid.New(), 1, 10))

		exists, err := repo.ExistsByReference(ctx, "V-123456")
		require.NoError(t, err)
		assert.True(t, exists)

		dup := newSale(t, uuid.New(), "V-123456", productLine(uuid.New(), 1, 10))
		assert.ErrorIs(t, repo.Create(ctx, dup), shared.ErrAlreadyExists)
	})

	t.Run("replace items and version guarded update", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormSaleRepository(db)
		tenantID := uuid.New()
		s := seedSale(t, db, tenantID, "V-000003", productLine(uuid.New(), 1, 10), productLine(uuid.New(), 1, 20))

		require.NoError(t, s.ReplaceItems(nil, []trade.LineInput{productLine(uuid.New(), 3, 100)}, trade.DefaultTaxRate))
		require.NoError(t, repo.ReplaceItems(ctx, s))
		require.NoError(t, repo.Update(ctx, s))

		found, err := repo.FindByID(ctx, tenantID, s.ID)
		require.NoError(t, err)
		require.Len(t, found.Items, 1)
		assert.Equal(t, 3, found.Items[0].Quantity)
		assert.True(t, found.TotalTtc.Equal(decimal.NewFromInt(354)))
		assert.Equal(t, 2, found.Version)

		// writing the same version twice loses
		assert.ErrorIs(t, repo.Update(ctx, s), shared.ErrConcurrencyConflict)
	})

	t.Run("update delivered", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormSaleRepository(db)
		tenantID := uuid.New()
		s := seedSale(t, db, tenantID, "V-000004", productLine(uuid.New(), 5, 10))

		item, err := s.Deliver(s.Items[0].ID, 2)
		require.NoError(t, err)
		require.NoError(t, repo.UpdateDelivered(ctx, s, []*trade.SaleItem{item}))

		found, err := repo.FindByID(ctx, tenantID, s.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Items[0].QuantityDelivered)
	})

	t.Run("list filters and pages", func(t *testing.T) {
		db := newSQLiteDB(t)
		repo := NewGormSaleRepository(db)
		tenantID := uuid.New()
		seedSale(t, db, tenantID, "V-100001", productLine(uuid.New(), 1, 10))
		paid := newSale(t, tenantID, "V-100002", productLine(uuid.New(), 1, 10))
		require.NoError(t, paid.ApplyPayment(decimal.NewFromInt(100)))
		require.NoError(t, repo.Create(ctx, paid))
		seedSale(t, db, uuid.New(), "V-100003", productLine(uuid.New(), 1, 10))

		all, total, err := repo.FindAll(ctx, tenantID, shared.Filter{Page: 1, PageSize: 10})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, all, 2)

		done, total, err := repo.FindAll(ctx, tenantID, shared.Filter{Filters: map[string]interface{}{"status": "TERMINE"}})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "V-100002", done[0].Reference)

		found, _, err := repo.FindAll(ctx, tenantID, shared.Filter{Search: "100001"})
		require.NoError(t, err)
		require.Len(t, found, 1)

		none, _, err := repo.FindAll(ctx, tenantID, shared.Filter{Filters: map[string]interface{}{
			"from": time.Now().Add(24 * time.Hour),
		}})
		require.NoError(t, err)
		assert.Empty(t, none)
	})
}

func TestGormSaleReferenceChecker_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	tenantID := uuid.New()
	sold, unsold := uuid.New(), uuid.New()
	seedSale(t, db, tenantID, "V-200001", productLine(sold, 1, 10))

	checker := NewGormSaleReferenceChecker(db)

	referenced, err := checker.IsStockItemReferenced(ctx, tenantID, sold)
	require.NoError(t, err)
	assert.True(t, referenced)

	referenced, err = checker.IsStockItemReferenced(ctx, tenantID, unsold)
	require.NoError(t, err)
	assert.False(t, referenced)

	referenced, err = checker.IsStockItemReferenced(ctx, uuid.New(), sold)
	require.NoError(t, err)
	assert.False(t, referenced)
}

func TestGormInvoiceAndPaymentRepositories_SQLite(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	tenantID := uuid.New()
	s := seedSale(t, db, tenantID, "V-300001", productLine(uuid.New(), 2, 100))

	invoices := NewGormInvoiceRepository(db)
	inv, err := trade.NewInvoice("INV-30000001", s, 30, "F CFA")
	require.NoError(t, err)
	require.NoError(t, invoices.Create(ctx, inv))
	assert.ErrorIs(t, invoices.Create(ctx, inv), shared.ErrAlreadyExists)

	exists, err := invoices.ExistsByID(ctx, "INV-30000001")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.ReplaceItems(nil, []trade.LineInput{productLine(uuid.New(), 1, 100), productLine(uuid.New(), 1, 50)}, trade.DefaultTaxRate))
	inv.SyncWith(s)
	require.NoError(t, invoices.Update(ctx, inv))

	found, err := invoices.FindBySaleID(ctx, tenantID, s.ID)
	require.NoError(t, err)
	assert.Len(t, found.Items, 2)
	assert.True(t, found.Amount.Equal(s.TotalTtc))

	found.Cancel()
	require.NoError(t, invoices.UpdateStatus(ctx, found))
	found, err = invoices.FindBySaleID(ctx, tenantID, s.ID)
	require.NoError(t, err)
	assert.Equal(t, trade.InvoiceStatusCancelled, found.Status)

	_, err = invoices.FindBySaleID(ctx, uuid.New(), s.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	payments := NewGormPaymentRepository(db)
	p, err := trade.NewPayment(tenantID, s.ID, decimal.NewFromInt(50), "", trade.InitialPaymentReference)
	require.NoError(t, err)
	require.NoError(t, payments.Create(ctx, p))
	require.NoError(t, payments.Create(ctx, trade.NewReversalPayment(s, decimal.NewFromInt(50))))

	journal, err := payments.FindBySaleID(ctx, tenantID, s.ID)
	require.NoError(t, err)
	require.Len(t, journal, 2)
	assert.Equal(t, trade.PaymentMethodCash, journal[0].Method)
	assert.True(t, journal[1].Amount.Equal(decimal.NewFromInt(-50)))
	assert.Equal(t, "ANNULATION_V-300001", journal[1].Reference)
}
