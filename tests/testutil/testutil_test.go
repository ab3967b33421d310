package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	m := NewMockDB(t)
	m.Mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	var n int
	require.NoError(t, m.DB.Raw("SELECT 1").Scan(&n).Error)
	assert.Equal(t, 1, n)
}

func TestNewSQLiteDB_HasSchema(t *testing.T) {
	db := NewSQLiteDB(t)

	for _, table := range []string{"stock_items", "product_movements", "inventory_campaigns", "sales", "invoices", "payments", "audit_logs"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}

func TestNewServices_PublishesEvents(t *testing.T) {
	recorder := NewEventRecorder()
	svc := NewServices(t, NewSQLiteDB(t), recorder)
	threshold := 5

	item, err := svc.Inventory.CreateItem(context.Background(), TestTenantID(), "Awa", inventoryapp.CreateStockItemRequest{
		Name:         "Huile",
		Quantity:     3,
		MinThreshold: &threshold,
	})

	require.NoError(t, err)
	assert.Equal(t, 3, item.CurrentLevel)
	assert.NotEmpty(t, recorder.Events())

	recorder.Reset()
	assert.Empty(t, recorder.Events())
	assert.Empty(t, recorder.OfType(inventory.EventTypeStockBelowThreshold))
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("a"), NewTestUUID("a"))
	assert.NotEqual(t, NewTestUUID("a"), NewTestUUID("b"))
	assert.Equal(t, NewTestUUID("test-tenant"), TestTenantID())
}

func TestRequireEventually(t *testing.T) {
	var calls atomic.Int32
	RequireEventually(t, func() bool { return calls.Add(1) >= 3 }, time.Second, time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
