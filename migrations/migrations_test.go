package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamesOrdering(t *testing.T) {
	up, err := Names(Up)
	require.NoError(t, err)
	require.NotEmpty(t, up)
	assert.Equal(t, "0001_init.up.sql", up[0])

	down, err := Names(Down)
	require.NoError(t, err)
	require.Len(t, down, len(up))
	assert.Equal(t, "0001_init.down.sql", down[len(down)-1])
}

func TestInitCreatesEveryRepositoryTable(t *testing.T) {
	body, err := files.ReadFile("0001_init.up.sql")
	require.NoError(t, err)
	schema := string(body)

	for _, table := range []string{
		"companies", "customers", "vendors", "brands", "categories", "products",
		"product_alternatives", "warehouses", "document_sequences",
		"delivery_challans", "delivery_challan_lines",
		"purchase_orders", "purchase_order_lines",
		"purchase_returns", "purchase_return_lines",
		"stock_journals", "stock_journal_consumption_lines", "stock_journal_production_lines",
		"stock_balances", "stock_card_entries",
		"designations", "employees", "attendance",
		"idempotency_keys", "audit_logs",
	} {
		assert.True(t, strings.Contains(schema, "CREATE TABLE "+table+" ("), table)
	}
	assert.Contains(t, schema, "UNIQUE (employee_id, attendance_date)")
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "0001", version("0001_init.up.sql"))
}
