package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/glassinv/internal/db"
	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/store"
)

type inventoryFixture struct {
	svc   *InventoryService
	items *store.GlassItemStore
	inv   *store.InventoryStore
	tags  *store.UserTagsStore
}

func newInventoryFixture(t *testing.T) *inventoryFixture {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return newInventoryFixtureFromDB(d)
}

func newInventoryFixtureFromDB(d *sql.DB) *inventoryFixture {
	f := &inventoryFixture{
		items: store.NewGlassItemStore(d),
		inv:   store.NewInventoryStore(d),
		tags:  store.NewUserTagsStore(d),
	}
	f.svc = NewInventoryService(f.items, f.inv, store.NewLocationStore(d), f.tags, slog.Default())
	return f
}

func (f *inventoryFixture) seed(t *testing.T) (*domain.GlassItem, *domain.Inventory) {
	t.Helper()
	ctx := context.Background()
	item, err := f.items.Create(ctx, domain.GlassItem{Name: "Dark Turquoise", Manufacturer: "Effetre", SKU: "204", COE: 104})
	require.NoError(t, err)
	inv, err := f.inv.Create(ctx, domain.Inventory{ItemStableID: item.StableID, Type: "rod"})
	require.NoError(t, err)
	return item, inv
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *inventoryFixture) quantity(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	inv, err := f.inv.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, inv)
	return inv.Quantity
}

func TestInventoryServiceAddToLocation_SyncsQuantity(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()
	_, inv := f.seed(t)

	loc, err := f.svc.AddToLocation(ctx, inv.ID, " Shelf A ", dec("2.5"))
	require.NoError(t, err)
	assert.Equal(t, "Shelf A", loc.Location)

	_, err = f.svc.AddToLocation(ctx, inv.ID, "Drawer 1", dec("1"))
	require.NoError(t, err)

	assert.True(t, f.quantity(t, inv.ID).Equal(dec("3.5")))
}

func TestInventoryServiceRemoveFromLocation(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()
	_, inv := f.seed(t)

	_, err := f.svc.AddToLocation(ctx, inv.ID, "Shelf A", dec("3"))
	require.NoError(t, err)

	loc, err := f.svc.RemoveFromLocation(ctx, inv.ID, "Shelf A", dec("1"))
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.True(t, loc.Quantity.Equal(dec("2")))
	assert.True(t, f.quantity(t, inv.ID).Equal(dec("2")))

	loc, err = f.svc.RemoveFromLocation(ctx, inv.ID, "Shelf A", dec("5"))
	require.NoError(t, err)
	assert.Nil(t, loc)
	assert.True(t, f.quantity(t, inv.ID).IsZero())
}

func TestInventoryServiceMoveBetweenLocations(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()
	_, inv := f.seed(t)

	_, err := f.svc.AddToLocation(ctx, inv.ID, "Shelf A", dec("4"))
	require.NoError(t, err)

	require.NoError(t, f.svc.MoveBetweenLocations(ctx, inv.ID, "Shelf A", "Bin 3", dec("1.5")))

	locs, err := f.svc.Locations(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.True(t, f.quantity(t, inv.ID).Equal(dec("4")))

	err = f.svc.MoveBetweenLocations(ctx, inv.ID, "Bin 3", "Shelf A", dec("10"))
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)

	err = f.svc.MoveBetweenLocations(ctx, inv.ID, "Nowhere", "Shelf A", dec("1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryServiceReplaceLocations(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()
	_, inv := f.seed(t)

	_, err := f.svc.AddToLocation(ctx, inv.ID, "Old", dec("9"))
	require.NoError(t, err)

	locs, err := f.svc.ReplaceLocations(ctx, inv.ID, []domain.Location{
		{Location: "Shelf A", Quantity: dec("1")},
		{Location: "Shelf A", Quantity: dec("2")},
		{Location: "Empty", Quantity: decimal.Zero},
	})
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, "Shelf A", locs[0].Location)
	assert.True(t, f.quantity(t, inv.ID).Equal(dec("3")))
}

func TestInventoryServiceUnknownInventory(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddToLocation(ctx, "missing", "Shelf A", dec("1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.Locations(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryServiceSummary(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()
	item, inv := f.seed(t)

	sheet, err := f.inv.Create(ctx, domain.Inventory{ItemStableID: item.StableID, Type: "frit"})
	require.NoError(t, err)
	_, err = f.svc.AddToLocation(ctx, inv.ID, "Shelf A", dec("2"))
	require.NoError(t, err)
	_, err = f.svc.AddToLocation(ctx, sheet.ID, "Jar 7", dec("0.25"))
	require.NoError(t, err)
	require.NoError(t, f.tags.AddTags(ctx, item.StableID, []string{"Transparent"}))

	summary, err := f.svc.Summary(ctx, item.StableID)
	require.NoError(t, err)
	assert.Equal(t, item.StableID, summary.Item.StableID)
	assert.Len(t, summary.Inventories, 2)
	assert.Equal(t, []string{"transparent"}, summary.Tags)
	assert.True(t, summary.Total.Equal(dec("2.25")))

	_, err = f.svc.Summary(ctx, "NOPE00")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventoryServiceLocationQueries(t *testing.T) {
	f := newInventoryFixture(t)
	ctx := context.Background()
	_, inv := f.seed(t)

	_, err := f.svc.AddToLocation(ctx, inv.ID, "Shelf A", dec("1"))
	require.NoError(t, err)
	_, err = f.svc.AddToLocation(ctx, inv.ID, "Shelf B", dec("1"))
	require.NoError(t, err)
	_, err = f.svc.AddToLocation(ctx, inv.ID, "Bin", dec("1"))
	require.NoError(t, err)

	names, err := f.svc.LocationNames(ctx, "Shelf")
	require.NoError(t, err)
	assert.Equal(t, []string{"Shelf A", "Shelf B"}, names)

	held, err := f.svc.InventoriesInLocation(ctx, "Bin")
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, inv.ID, held[0].ID)
}
