package inventory

import (
	"context"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/gestock/backend/internal/domain/inventory"
	"github.com/google/uuid"
)

const (
	defaultSKUPrefix = "PRD"
	skuAttempts      = 6
	base36Alphabet   = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// SKUGenerator builds short human readable SKUs such as "CAF-M1ZK4Q7B".
// Candidates are checked against the tenant's active items; the unique index
// on (tenant_id, sku) still has the last word on races.
type SKUGenerator struct {
	now  func() time.Time
	rand func(n int) int
}

// NewSKUGenerator creates a generator backed by the wall clock
func NewSKUGenerator() *SKUGenerator {
	return &SKUGenerator{now: time.Now, rand: rand.IntN}
}

// Generate returns an SKU not used by any active item of the tenant
func (g *SKUGenerator) Generate(ctx context.Context, items inventory.StockItemRepository, tenantID uuid.UUID, name string) (string, error) {
	prefix := skuPrefix(name)
	for range skuAttempts {
		stamp := g.timePart()
		if len(stamp) > 5 {
			stamp = stamp[len(stamp)-5:]
		}
		candidate := prefix + "-" + stamp + g.randomPart(3)
		exists, err := items.ExistsActiveSKU(ctx, tenantID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "SKU-" + g.timePart() + g.randomPart(4), nil
}

func (g *SKUGenerator) timePart() string {
	return strings.ToUpper(strconv.FormatInt(g.now().UnixMilli(), 36))
}

func (g *SKUGenerator) randomPart(n int) string {
	var b strings.Builder
	for range n {
		b.WriteByte(base36Alphabet[g.rand(len(base36Alphabet))])
	}
	return b.String()
}

// skuPrefix keeps the first three ASCII letters or digits of the name
func skuPrefix(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
		if b.Len() == 3 {
			break
		}
	}
	if b.Len() == 0 {
		return defaultSKUPrefix
	}
	return b.String()
}
