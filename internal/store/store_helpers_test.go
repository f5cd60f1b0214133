package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/glassinv/internal/db"
	"github.com/vbonduro/glassinv/internal/domain"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func createTestInventory(t *testing.T, d *sql.DB, stableID, invType string) *domain.Inventory {
	t.Helper()
	inv, err := NewInventoryStore(d).Create(context.Background(), domain.Inventory{
		ItemStableID: stableID,
		Type:         invType,
		Quantity:     decimal.Zero,
	})
	require.NoError(t, err)
	return inv
}

func countRows(t *testing.T, d *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}
