package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/gestock/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormPaymentRepository(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)
	repo := NewGormPaymentRepository(db)
	tenantID, saleID := uuid.New(), uuid.New()

	payment := func(amount string, at time.Time) *trade.Payment {
		return &trade.Payment{
			ID:          uuid.New(),
			TenantID:    tenantID,
			SaleID:      &saleID,
			Amount:      decimal.RequireFromString(amount),
			Method:      trade.PaymentMethodCash,
			Reference:   "ANNULATION_V-000001",
			PaymentDate: at,
		}
	}

	t.Run("journals payments and their reversals in order", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, repo.Create(ctx, payment("150.00", now.Add(-time.Minute))))
		require.NoError(t, repo.Create(ctx, payment("-150.00", now)))

		got, err := repo.FindBySaleID(ctx, tenantID, saleID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].Amount.Equal(decimal.NewFromInt(150)))
		assert.True(t, got[1].Amount.Equal(decimal.NewFromInt(-150)))
	})

	t.Run("zero amounts violate the amount check", func(t *testing.T) {
		err := repo.Create(ctx, payment("0", time.Now()))
		assert.Error(t, err)
	})

	t.Run("scoped by tenant", func(t *testing.T) {
		got, err := repo.FindBySaleID(ctx, uuid.New(), saleID)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
