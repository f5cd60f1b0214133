package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/glassinv/internal/domain"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
	return &t
}

func TestPurchaseRecordStoreCreateWithItems(t *testing.T) {
	d := openTestDB(t)
	purchases := NewPurchaseRecordStore(d)
	ctx := context.Background()

	rec, err := purchases.Create(ctx, domain.PurchaseRecord{
		Supplier:      " Frantz Art Glass ",
		Price:         dec("84.50"),
		DatePurchased: day(2024, time.March, 2),
		Items: []domain.PurchaseItem{
			{ItemNaturalKey: "cim-511-0", Type: "rod", Quantity: dec("1.5"), Unit: "lb", Price: dec("42.25")},
			{ItemNaturalKey: "ef-204-0", Type: "rod", Quantity: dec("1.5"), Unit: "lb", Price: dec("42.25")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Frantz Art Glass", rec.Supplier)
	assert.Equal(t, "USD", rec.Currency)
	assertDecimal(t, "84.5", rec.Price)
	require.NotNil(t, rec.DatePurchased)
	assert.True(t, day(2024, time.March, 2).Equal(*rec.DatePurchased))
	require.Len(t, rec.Items, 2)
	assert.Equal(t, "cim-511-0", rec.Items[0].ItemNaturalKey)
	assert.Equal(t, "ef-204-0", rec.Items[1].ItemNaturalKey)
}

func TestPurchaseRecordStoreUpdate_ReplacesItems(t *testing.T) {
	d := openTestDB(t)
	purchases := NewPurchaseRecordStore(d)
	ctx := context.Background()

	rec, err := purchases.Create(ctx, domain.PurchaseRecord{
		Supplier: "Mountain Glass",
		Items: []domain.PurchaseItem{
			{ItemNaturalKey: "a-1-0", Quantity: dec("1")},
			{ItemNaturalKey: "b-1-0", Quantity: dec("1")},
		},
	})
	require.NoError(t, err)

	rec.Items = []domain.PurchaseItem{{ItemNaturalKey: "c-1-0", Quantity: dec("2")}}
	require.NoError(t, purchases.Update(ctx, *rec))

	got, err := purchases.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "c-1-0", got.Items[0].ItemNaturalKey)
	assert.Equal(t, 1, countRows(t, d, "purchase_record_items"))

	assert.ErrorIs(t, purchases.Update(ctx, domain.PurchaseRecord{ID: "missing", Supplier: "x"}), domain.ErrNotFound)
}

func TestPurchaseRecordStoreDelete_CascadesItems(t *testing.T) {
	d := openTestDB(t)
	purchases := NewPurchaseRecordStore(d)
	ctx := context.Background()

	rec, err := purchases.Create(ctx, domain.PurchaseRecord{
		Supplier: "Mountain Glass",
		Items:    []domain.PurchaseItem{{ItemNaturalKey: "a-1-0", Quantity: dec("1")}},
	})
	require.NoError(t, err)

	require.NoError(t, purchases.Delete(ctx, rec.ID))
	assert.Equal(t, 0, countRows(t, d, "purchase_record_items"))
	assert.ErrorIs(t, purchases.Delete(ctx, rec.ID), domain.ErrNotFound)

	got, err := purchases.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPurchaseRecordStoreQueries(t *testing.T) {
	d := openTestDB(t)
	purchases := NewPurchaseRecordStore(d)
	ctx := context.Background()

	for _, rec := range []domain.PurchaseRecord{
		{Supplier: "Frantz", Price: dec("10.10"), DatePurchased: day(2024, time.January, 5)},
		{Supplier: "frantz", Price: dec("20.20"), DatePurchased: day(2024, time.February, 5)},
		{Supplier: "Olympic Color Rods", Price: dec("5"), DatePurchased: day(2024, time.June, 1)},
		{Supplier: "Olympic Color Rods", Price: dec("99")},
	} {
		_, err := purchases.Create(ctx, rec)
		require.NoError(t, err)
	}

	frantz, err := purchases.ListBySupplier(ctx, "FRANTZ")
	require.NoError(t, err)
	assert.Len(t, frantz, 2)

	from, to := *day(2024, time.January, 1), *day(2024, time.March, 1)
	inRange, err := purchases.ListInDateRange(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assertDecimal(t, "10.1", inRange[0].Price)

	spent, err := purchases.TotalSpent(ctx, from, to)
	require.NoError(t, err)
	assertDecimal(t, "30.30", spent)

	all, err := purchases.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	suppliers, err := purchases.DistinctSuppliers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Frantz", "Olympic Color Rods", "frantz"}, suppliers)
}
