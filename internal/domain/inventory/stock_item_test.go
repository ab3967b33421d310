package inventory

import (
	"errors"
	"testing"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStockItem(t *testing.T, level int) *StockItem {
	t.Helper()
	item, err := NewStockItem(uuid.New(), "RIZ-AB12C", "Riz 25kg", decimal.NewFromInt(15000), DefaultMinThreshold)
	require.NoError(t, err)
	item.CurrentLevel = level
	return item
}

func TestNewStockItem(t *testing.T) {
	tenantID := uuid.New()

	t.Run("creates active item with zero level", func(t *testing.T) {
		item, err := NewStockItem(tenantID, "SKU-1", "  Savon  ", decimal.NewFromInt(500), 3)

		require.NoError(t, err)
		assert.Equal(t, tenantID, item.TenantID)
		assert.Equal(t, "Savon", item.Name)
		assert.Equal(t, 0, item.CurrentLevel)
		assert.Equal(t, 1, item.Version)
		assert.True(t, item.IsActive())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewStockItem(tenantID, "SKU-1", " ", decimal.Zero, 0)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects negative price", func(t *testing.T) {
		_, err := NewStockItem(tenantID, "SKU-1", "Savon", decimal.NewFromInt(-1), 0)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects nil tenant", func(t *testing.T) {
		_, err := NewStockItem(uuid.Nil, "SKU-1", "Savon", decimal.Zero, 0)
		assert.ErrorIs(t, err, shared.ErrValidation)
	})
}

func TestStockItem_ApplyMovement(t *testing.T) {
	t.Run("IN increases level", func(t *testing.T) {
		item := newTestStockItem(t, 10)

		change, err := item.ApplyMovement(MovementTypeIn, 5, "")

		require.NoError(t, err)
		assert.Equal(t, LevelChange{Previous: 10, New: 15}, change)
		assert.Equal(t, 15, item.CurrentLevel)
		assert.Equal(t, 2, item.Version)
	})

	t.Run("OUT beyond level fails and leaves level untouched", func(t *testing.T) {
		item := newTestStockItem(t, 10)

		_, err := item.ApplyMovement(MovementTypeOut, 15, "")

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.Equal(t, 10, item.CurrentLevel)
		assert.Empty(t, item.GetDomainEvents())
	})

	t.Run("OUT of the whole level reaches zero", func(t *testing.T) {
		item := newTestStockItem(t, 4)

		change, err := item.ApplyMovement(MovementTypeOut, 4, "")

		require.NoError(t, err)
		assert.Equal(t, 0, change.New)
	})

	t.Run("ADJUSTMENT follows direction", func(t *testing.T) {
		item := newTestStockItem(t, 10)

		change, err := item.ApplyMovement(MovementTypeAdjustment, 3, DirectionDecrease)
		require.NoError(t, err)
		assert.Equal(t, 7, change.New)

		change, err = item.ApplyMovement(MovementTypeAdjustment, 3, DirectionIncrease)
		require.NoError(t, err)
		assert.Equal(t, 10, change.New)

		_, err = item.ApplyMovement(MovementTypeAdjustment, 11, DirectionDecrease)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		item := newTestStockItem(t, 10)

		_, err := item.ApplyMovement(MovementTypeIn, 0, "")
		assert.ErrorIs(t, err, shared.ErrValidation)

		_, err = item.ApplyMovement(MovementTypeOut, -2, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		item := newTestStockItem(t, 10)
		_, err := item.ApplyMovement(MovementType("TRANSFER"), 1, "")
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	t.Run("rejects deleted item", func(t *testing.T) {
		item := newTestStockItem(t, 10)
		require.NoError(t, item.SoftDelete())

		_, err := item.ApplyMovement(MovementTypeIn, 1, "")
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestStockItem_Events(t *testing.T) {
	item := newTestStockItem(t, 8)
	item.MinThreshold = 5

	_, err := item.ApplyMovement(MovementTypeOut, 2, "")
	require.NoError(t, err)
	events := item.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeStockLevelChanged, events[0].EventType())
	item.ClearDomainEvents()

	_, err = item.ApplyMovement(MovementTypeOut, 2, "")
	require.NoError(t, err)
	events = item.GetDomainEvents()
	require.Len(t, events, 2)
	below, ok := events[1].(*StockBelowThresholdEvent)
	require.True(t, ok)
	assert.Equal(t, 4, below.CurrentLevel)
	assert.Equal(t, item.TenantID, below.TenantID())
	item.ClearDomainEvents()

	_, err = item.ApplyMovement(MovementTypeIn, 1, "")
	require.NoError(t, err)
	assert.Len(t, item.GetDomainEvents(), 1, "increases never raise a low stock alert")
}

func TestStockItem_SetLevel(t *testing.T) {
	item := newTestStockItem(t, 50)

	change, err := item.SetLevel(45)
	require.NoError(t, err)
	assert.Equal(t, -5, change.Delta())
	assert.Equal(t, 45, item.CurrentLevel)

	_, err = item.SetLevel(-1)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestStockItem_UpdateDetailsAndDelete(t *testing.T) {
	item := newTestStockItem(t, 0)
	sku := item.SKU

	require.NoError(t, item.UpdateDetails("Riz 50kg", "Céréales", "A1", "", decimal.NewFromInt(28000), 2))
	assert.Equal(t, "Riz 50kg", item.Name)
	assert.Equal(t, sku, item.SKU)

	require.NoError(t, item.SoftDelete())
	assert.False(t, item.IsActive())
	assert.NotNil(t, item.DeletedAt)

	assert.ErrorIs(t, item.SoftDelete(), shared.ErrNotFound)
	assert.ErrorIs(t, item.UpdateDetails("x", "", "", "", decimal.Zero, 0), shared.ErrNotFound)
}

func TestNewProductMovement(t *testing.T) {
	tenantID, itemID := uuid.New(), uuid.New()

	tests := []struct {
		name    string
		mt      MovementType
		change  LevelChange
		wantQty int
		wantErr bool
	}{
		{"in", MovementTypeIn, LevelChange{Previous: 5, New: 8}, 3, false},
		{"out", MovementTypeOut, LevelChange{Previous: 5, New: 1}, 4, false},
		{"adjustment down", MovementTypeAdjustment, LevelChange{Previous: 50, New: 45}, 5, false},
		{"adjustment up", MovementTypeAdjustment, LevelChange{Previous: 45, New: 50}, 5, false},
		{"in with decrease", MovementTypeIn, LevelChange{Previous: 5, New: 4}, 0, true},
		{"out with increase", MovementTypeOut, LevelChange{Previous: 5, New: 6}, 0, true},
		{"no change", MovementTypeAdjustment, LevelChange{Previous: 5, New: 5}, 0, true},
		{"negative level", MovementTypeOut, LevelChange{Previous: 1, New: -1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewProductMovement(tenantID, itemID, tt.mt, tt.change, "r", "ref", "alice")
			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantQty, m.Quantity)
			assert.True(t, m.IsConsistent())
		})
	}
}
