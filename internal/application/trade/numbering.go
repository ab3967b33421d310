package trade

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/gestock/backend/internal/domain/trade"
)

const numberAttempts = 5

// NumberGenerator issues human readable sale references (V-xxxxxx) and invoice
// numbers (INV-xxxxxxxx) derived from the clock. Collisions are checked against
// storage; later attempts append random digits.
type NumberGenerator struct {
	now  func() time.Time
	rand func(n int) int
}

// NewNumberGenerator creates a clock-based generator
func NewNumberGenerator() *NumberGenerator {
	return &NumberGenerator{now: time.Now, rand: rand.IntN}
}

// SaleReference returns an unused sale reference
func (g *NumberGenerator) SaleReference(ctx context.Context, sales trade.SaleRepository) (string, error) {
	return g.unique(ctx, "V-", 6, sales.ExistsByReference)
}

// InvoiceNumber returns an unused invoice number
func (g *NumberGenerator) InvoiceNumber(ctx context.Context, invoices trade.InvoiceRepository) (string, error) {
	return g.unique(ctx, "INV-", 8, invoices.ExistsByID)
}

func (g *NumberGenerator) unique(ctx context.Context, prefix string, digits int, exists func(context.Context, string) (bool, error)) (string, error) {
	ms := strconv.FormatInt(g.now().UnixMilli(), 10)
	if len(ms) > digits {
		ms = ms[len(ms)-digits:]
	}

	candidate := prefix + ms
	for attempt := 0; attempt < numberAttempts; attempt++ {
		if attempt > 0 {
			candidate = fmt.Sprintf("%s%s%03d", prefix, ms, g.rand(1000))
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free number with prefix %s after %d attempts", prefix, numberAttempts)
}
