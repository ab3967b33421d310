// Package testutil provides common test utilities for the gestock backend:
// in-memory databases, sqlmock-backed GORM handles, fully wired services
// and an event recorder.
package testutil

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	inventoryapp "github.com/gestock/backend/internal/application/inventory"
	"github.com/gestock/backend/internal/application/trade"
	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB wraps a GORM database with sqlmock for testing.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB opens GORM's postgres dialect on sqlmock. Expectations are
// checked when the test ends.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	}), persistence.GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err, "Failed to open GORM connection")

	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet(), "Unmet database expectations")
		_ = mockDB.Close()
	})
	return &MockDB{DB: gormDB, Mock: mock, SqlDB: mockDB}
}

// NewSQLiteDB opens an in-memory SQLite database with the full schema.
// The pool is pinned to one connection: every connection to ":memory:" is a
// distinct database, and transactions must see the rows written before them.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), persistence.GormConfig(logger.Default.LogMode(logger.Silent)))
	require.NoError(t, err, "Failed to open SQLite database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, persistence.AutoMigrate(db), "Failed to migrate SQLite schema")
	return db
}

// Services holds the application services wired on one database
type Services struct {
	Inventory *inventoryapp.InventoryService
	Campaigns *inventoryapp.CampaignService
	Sales     *trade.SaleService
}

// NewServices wires the services on db the way the server does. A nil
// publisher leaves events unpublished.
func NewServices(t *testing.T, db *gorm.DB, publisher shared.EventPublisher) *Services {
	t.Helper()

	log := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	scope := persistence.NewGormTransactionScope(db)
	s := &Services{
		Inventory: inventoryapp.NewInventoryService(
			persistence.NewGormStockItemRepository(db),
			persistence.NewGormMovementRepository(db),
			scope,
			log,
		),
		Campaigns: inventoryapp.NewCampaignService(persistence.NewGormCampaignRepository(db), scope, log),
		Sales: trade.NewSaleService(
			persistence.NewGormSaleRepository(db),
			persistence.NewGormInvoiceRepository(db),
			persistence.NewGormPaymentRepository(db),
			persistence.NewGormSalesTransactionScope(db),
			trade.DefaultSaleSettings(),
			log,
		),
	}
	if publisher != nil {
		s.Inventory.SetEventPublisher(publisher)
		s.Campaigns.SetEventPublisher(publisher)
		s.Sales.SetEventPublisher(publisher)
	}
	return s
}

// EventRecorder is an EventPublisher that keeps what it receives
type EventRecorder struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

// NewEventRecorder creates an empty recorder
func NewEventRecorder() *EventRecorder {
	return &EventRecorder{}
}

// Publish implements shared.EventPublisher
func (r *EventRecorder) Publish(_ context.Context, events ...shared.DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, events...)
	return nil
}

// Events returns a copy of the recorded events
func (r *EventRecorder) Events() []shared.DomainEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shared.DomainEvent(nil), r.events...)
}

// OfType returns the recorded events of one type, in publish order
func (r *EventRecorder) OfType(eventType string) []shared.DomainEvent {
	var out []shared.DomainEvent
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset forgets the recorded events
func (r *EventRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// NewTestUUID generates a deterministic UUID from seed.
func NewTestUUID(seed string) uuid.UUID {
	namespace := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	return uuid.NewSHA1(namespace, []byte(seed))
}

// TestTenantID returns a standard tenant ID for tests.
func TestTenantID() uuid.UUID {
	return NewTestUUID("test-tenant")
}

// RequireEventually polls condition until it holds or the timeout expires.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...interface{}) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
