package store

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/glassinv/internal/domain"
)

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestProjectPlanStoreCreateWithChildren(t *testing.T) {
	d := openTestDB(t)
	plans := NewProjectPlanStore(d)
	ctx := context.Background()

	p, err := plans.Create(ctx, domain.ProjectPlan{
		Title:    "  Boro pendant ",
		PlanType: domain.PlanTypeRecipe,
		COE:      "33",
		PriceMin: decPtr("25"),
		PriceMax: decPtr("40.50"),
		Tags:     []string{"  Favorite  ", "WISHLIST", "", "favorite"},
		GlassItems: []domain.ProjectGlassItem{
			{ItemNaturalKey: "nsg-cfl-0", Quantity: dec("0.25"), Unit: "rod"},
			{},
			{FreeformDescription: "clear tubing", Quantity: dec("1")},
		},
		ReferenceURLs: []domain.ProjectReferenceURL{{URL: "https://example.com/pendant", Title: "Video"}, {Title: "no url"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Boro pendant", p.Title)
	assert.Equal(t, []string{"favorite", "wishlist"}, p.Tags)
	require.Len(t, p.GlassItems, 2)
	assert.Equal(t, "nsg-cfl-0", p.GlassItems[0].ItemNaturalKey)
	assert.Equal(t, "clear tubing", p.GlassItems[1].FreeformDescription)
	require.Len(t, p.ReferenceURLs, 1)
	require.NotNil(t, p.PriceMax)
	assertDecimal(t, "40.5", *p.PriceMax)
	assert.Nil(t, p.LastUsedAt)
}

func TestProjectPlanStoreGetByID_Missing(t *testing.T) {
	d := openTestDB(t)
	p, err := NewProjectPlanStore(d).GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestProjectPlanStoreUpdate_ReplacesTags(t *testing.T) {
	d := openTestDB(t)
	plans := NewProjectPlanStore(d)
	ctx := context.Background()

	p, err := plans.Create(ctx, domain.ProjectPlan{Title: "Marble", Tags: []string{"a", "b"}})
	require.NoError(t, err)

	p.Tags = []string{"c"}
	require.NoError(t, plans.Update(ctx, *p))

	got, err := plans.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got.Tags)
	assert.Equal(t, 1, countRows(t, d, "project_plan_tags"))

	assert.ErrorIs(t, plans.Update(ctx, domain.ProjectPlan{ID: "missing", Title: "x"}), domain.ErrNotFound)
}

func TestProjectPlanStoreDelete_LeavesNoOrphans(t *testing.T) {
	d := openTestDB(t)
	plans := NewProjectPlanStore(d)
	ctx := context.Background()

	p, err := plans.Create(ctx, domain.ProjectPlan{
		Title:         "Marble",
		Tags:          []string{"a", "b"},
		GlassItems:    []domain.ProjectGlassItem{{ItemNaturalKey: "x-1-0"}},
		ReferenceURLs: []domain.ProjectReferenceURL{{URL: "https://example.com"}},
	})
	require.NoError(t, err)

	require.NoError(t, plans.Delete(ctx, p.ID))
	for _, table := range []string{"project_plan_tags", "project_plan_glass_items", "project_plan_reference_urls"} {
		assert.Equal(t, 0, countRows(t, d, table), table)
	}
	assert.ErrorIs(t, plans.Delete(ctx, p.ID), domain.ErrNotFound)
}

func TestProjectPlanStoreQueries(t *testing.T) {
	d := openTestDB(t)
	plans := NewProjectPlanStore(d)
	ctx := context.Background()

	a, err := plans.Create(ctx, domain.ProjectPlan{Title: "A", PlanType: domain.PlanTypeRecipe, Tags: []string{"Beads"}})
	require.NoError(t, err)
	_, err = plans.Create(ctx, domain.ProjectPlan{Title: "B", PlanType: domain.PlanTypeIdea, IsArchived: true})
	require.NoError(t, err)

	recipes, err := plans.ListByType(ctx, domain.PlanTypeRecipe)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, a.ID, recipes[0].ID)

	tagged, err := plans.ListByTag(ctx, " BEADS ")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, []string{"beads"}, tagged[0].Tags)

	archived, err := plans.ListArchived(ctx, true)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "B", archived[0].Title)

	active, err := plans.ListArchived(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := plans.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestProjectPlanStoreRecordUse(t *testing.T) {
	d := openTestDB(t)
	plans := NewProjectPlanStore(d)
	ctx := context.Background()

	p, err := plans.Create(ctx, domain.ProjectPlan{Title: "Marble"})
	require.NoError(t, err)

	require.NoError(t, plans.RecordUse(ctx, p.ID))
	require.NoError(t, plans.RecordUse(ctx, p.ID))

	got, err := plans.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TimesUsed)
	assert.NotNil(t, got.LastUsedAt)

	assert.ErrorIs(t, plans.RecordUse(ctx, "missing"), domain.ErrNotFound)
}

func TestProjectPlanStoreSetChildren(t *testing.T) {
	d := openTestDB(t)
	plans := NewProjectPlanStore(d)
	ctx := context.Background()

	p, err := plans.Create(ctx, domain.ProjectPlan{Title: "Marble"})
	require.NoError(t, err)

	require.NoError(t, plans.SetTags(ctx, p.ID, []string{"Hot Work", "hot work"}))
	require.NoError(t, plans.SetGlassItems(ctx, p.ID, []domain.ProjectGlassItem{{ItemNaturalKey: "x-1-0"}}))
	require.NoError(t, plans.SetReferenceURLs(ctx, p.ID, []domain.ProjectReferenceURL{{URL: "https://a"}, {URL: "https://b"}}))

	n, err := plans.CountChildren(ctx, p.ID, FieldTags)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = plans.CountChildren(ctx, p.ID, FieldReferenceURLs)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = plans.CountChildren(ctx, p.ID, FieldTechniques)
	assert.Error(t, err)
	assert.ErrorIs(t, plans.SetTags(ctx, "missing", []string{"a"}), domain.ErrNotFound)
}

func TestProjectPlanStoreLegacyRecords(t *testing.T) {
	d := openTestDB(t)
	plans := NewProjectPlanStore(d)
	ctx := context.Background()

	withLegacy, err := plans.Create(ctx, domain.ProjectPlan{Title: "Old"})
	require.NoError(t, err)
	_, err = plans.Create(ctx, domain.ProjectPlan{Title: "New"})
	require.NoError(t, err)

	_, err = d.Exec(`UPDATE project_plans SET legacy_tags = ? WHERE id = ?`, []byte(`["a"]`), withLegacy.ID)
	require.NoError(t, err)

	records, err := plans.LegacyRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, withLegacy.ID, records[0].ID)
	assert.Equal(t, `["a"]`, string(records[0].Tags))
	assert.Nil(t, records[0].GlassItems)
}
