package persistence

import (
	"testing"

	"github.com/gestock/backend/internal/domain/shared"
	"github.com/gestock/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestValidateSortOrder(t *testing.T) {
	assert.Equal(t, "ASC", ValidateSortOrder(" asc "))
	assert.Equal(t, "DESC", ValidateSortOrder("desc"))
	assert.Equal(t, "DESC", ValidateSortOrder(""))
	assert.Equal(t, "DESC", ValidateSortOrder("ASC, reference"))
}

func TestValidateSortField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unset falls back to the sale date", "", "sale_date"},
		{"listed column is kept", "total_ttc", "total_ttc"},
		{"padding is trimmed", "  amount_paid ", "amount_paid"},
		{"stock column is not a sale column", "current_level", "sale_date"},
		{"column names are case sensitive", "STATUS", "sale_date"},
		{"expressions are refused", "status; DELETE FROM sales", "sale_date"},
		{"subqueries are refused", "(SELECT tenant_id FROM sales)", "sale_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateSortField(tt.input, SaleSortFields, "sale_date"))
		})
	}
}

func TestSortFields_AreSchemaColumns(t *testing.T) {
	db := newSQLiteDB(t)

	for table, fields := range map[string]struct {
		model   any
		allowed map[string]bool
	}{
		"stock_items": {&models.StockItemModel{}, StockItemSortFields},
		"sales":       {&models.SaleModel{}, SaleSortFields},
	} {
		for field := range fields.allowed {
			assert.True(t, db.Migrator().HasColumn(fields.model, field), "%s.%s is sortable but not a column", table, field)
		}
	}
}

func TestApplyPaging(t *testing.T) {
	db := newSQLiteDB(t)

	render := func(filter shared.Filter, allowed map[string]bool, defaultField string, model any) *gorm.Statement {
		var rows []map[string]any
		query := db.Session(&gorm.Session{DryRun: true}).Model(model).Where("tenant_id = ?", "t-1")
		return applyPaging(query, filter, allowed, defaultField).Find(&rows).Statement
	}

	t.Run("sales default to newest sale date first", func(t *testing.T) {
		stmt := render(shared.Filter{}, SaleSortFields, "sale_date", &models.SaleModel{})
		assert.Contains(t, stmt.SQL.String(), "ORDER BY sale_date DESC")
		assert.NotContains(t, stmt.SQL.String(), "LIMIT")
	})

	t.Run("catalog pages by name", func(t *testing.T) {
		stmt := render(shared.Filter{Page: 3, PageSize: 10, OrderBy: "name", OrderDir: "asc"}, StockItemSortFields, "name", &models.StockItemModel{})
		sql := stmt.SQL.String()
		assert.Contains(t, sql, "ORDER BY name ASC")
		require.Contains(t, sql, "LIMIT")
		assert.Contains(t, sql, "OFFSET")
		assert.Contains(t, stmt.Vars, 10)
		assert.Contains(t, stmt.Vars, 20)
	})

	t.Run("unknown columns never reach the query", func(t *testing.T) {
		stmt := render(shared.Filter{OrderBy: "reference; DROP TABLE sales", OrderDir: "ASC"}, SaleSortFields, "sale_date", &models.SaleModel{})
		assert.Contains(t, stmt.SQL.String(), "ORDER BY sale_date ASC")
		assert.NotContains(t, stmt.SQL.String(), "DROP")
	})

	t.Run("a page without a size is not limited", func(t *testing.T) {
		stmt := render(shared.Filter{Page: 2}, SaleSortFields, "sale_date", &models.SaleModel{})
		assert.NotContains(t, stmt.SQL.String(), "OFFSET")
	})
}
