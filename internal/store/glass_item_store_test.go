package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/glassinv/internal/catalog"
	"github.com/vbonduro/glassinv/internal/domain"
)

func createTestGlassItem(t *testing.T, items *GlassItemStore, mfr, sku, name string, coe int) *domain.GlassItem {
	t.Helper()
	item, err := items.Create(context.Background(), domain.GlassItem{Manufacturer: mfr, SKU: sku, Name: name, COE: coe})
	require.NoError(t, err)
	return item
}

func TestGlassItemStoreCreate_DerivesIdentifiers(t *testing.T) {
	d := openTestDB(t)
	items := NewGlassItemStore(d)

	item := createTestGlassItem(t, items, "Bullseye", "0001", "Black", 90)

	want, err := catalog.StableID("Bullseye", "0001", nil)
	require.NoError(t, err)
	assert.Equal(t, want, item.StableID)
	assert.Equal(t, "bullseye-0001-0", item.NaturalKey)
	assert.Equal(t, domain.MfrStatusAvailable, item.MfrStatus)
	assert.Equal(t, 90, item.COE)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestGlassItemStoreCreate_Duplicate(t *testing.T) {
	d := openTestDB(t)
	items := NewGlassItemStore(d)
	createTestGlassItem(t, items, "Bullseye", "0001", "Black", 90)

	_, err := items.Create(context.Background(), domain.GlassItem{Manufacturer: "Bullseye", SKU: "0001", Name: "Again"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestGlassItemStoreCreate_AvoidsStableIDCollision(t *testing.T) {
	d := openTestDB(t)
	items := NewGlassItemStore(d)
	ctx := context.Background()

	taken, err := catalog.StableID("Effetre", "204", nil)
	require.NoError(t, err)
	_, err = items.Create(ctx, domain.GlassItem{StableID: taken, NaturalKey: "other-1-0", Manufacturer: "Other", SKU: "1", Name: "Squatter"})
	require.NoError(t, err)

	item := createTestGlassItem(t, items, "Effetre", "204", "Pale Amethyst", 104)
	assert.NotEqual(t, taken, item.StableID)
}

func TestGlassItemStoreLookups(t *testing.T) {
	d := openTestDB(t)
	items := NewGlassItemStore(d)
	ctx := context.Background()

	black := createTestGlassItem(t, items, "Bullseye", "0001", "Black", 90)
	createTestGlassItem(t, items, "Bullseye", "0100", "Clear", 90)
	createTestGlassItem(t, items, "Effetre", "204", "Pale Amethyst", 104)

	got, err := items.GetByNaturalKey(ctx, " Bullseye-0001-0 ")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, black.StableID, got.StableID)

	missing, err := items.GetByID(ctx, "nope00")
	require.NoError(t, err)
	assert.Nil(t, missing)

	bullseye, err := items.ListByManufacturer(ctx, "bullseye")
	require.NoError(t, err)
	assert.Len(t, bullseye, 2)

	soft, err := items.ListByCOE(ctx, 104)
	require.NoError(t, err)
	require.Len(t, soft, 1)
	assert.Equal(t, "Pale Amethyst", soft[0].Name)

	found, err := items.Search(ctx, "AMETH")
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = items.Search(ctx, "0100")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Clear", found[0].Name)

	mfrs, err := items.DistinctManufacturers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bullseye", "Effetre"}, mfrs)

	coes, err := items.DistinctCOEs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{90, 104}, coes)
}

func TestGlassItemStoreUpdateAndDelete(t *testing.T) {
	d := openTestDB(t)
	items := NewGlassItemStore(d)
	ctx := context.Background()

	item := createTestGlassItem(t, items, "Bullseye", "0001", "Black", 90)
	item.Name = "Black Opal"
	item.MfrStatus = domain.MfrStatusDiscontinued
	require.NoError(t, items.Update(ctx, *item))

	got, err := items.GetByID(ctx, item.StableID)
	require.NoError(t, err)
	assert.Equal(t, "Black Opal", got.Name)
	assert.Equal(t, domain.MfrStatusDiscontinued, got.MfrStatus)
	assert.Equal(t, item.NaturalKey, got.NaturalKey)

	require.NoError(t, items.Delete(ctx, item.StableID))
	assert.ErrorIs(t, items.Delete(ctx, item.StableID), domain.ErrNotFound)
	assert.ErrorIs(t, items.Update(ctx, *item), domain.ErrNotFound)
}
