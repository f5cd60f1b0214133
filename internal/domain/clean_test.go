package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanLocationName(t *testing.T) {
	assert.Equal(t, "Shelf A", CleanLocationName("  Shelf   A \t"))
	assert.Equal(t, "", CleanLocationName("   "))
}

func TestFoldName(t *testing.T) {
	assert.Equal(t, FoldName("étagère"), FoldName("ÉTAGÈRE"))
	assert.Equal(t, "shelf a", FoldName("Shelf A"))
	// Decomposed and precomposed accents fold to the same form.
	assert.Equal(t, FoldName("\u00c9tag"), FoldName("E\u0301tag"))
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "favorite", NormalizeTag("  Favorite  "))
	assert.Equal(t, "wishlist", NormalizeTag("WISHLIST"))
	assert.Equal(t, "work-in-progress", NormalizeTag(" Work  In Progress"))
	assert.Equal(t, "", NormalizeTag(" \n "))
}

func TestNormalizeTags_FiltersAndDedupes(t *testing.T) {
	got := NormalizeTags([]string{"  Favorite  ", "WISHLIST", "", "favorite"})
	assert.Equal(t, []string{"favorite", "wishlist"}, got)
}

func TestCleanStrings(t *testing.T) {
	assert.Equal(t, []string{"encasing", "twisties"}, CleanStrings([]string{" encasing", "", "  ", "twisties "}))
}

func TestOwnerValidate(t *testing.T) {
	assert.NoError(t, GlassItemOwner("A3F9K2").Validate())
	assert.NoError(t, StandaloneOwner().Validate())
	assert.Error(t, Owner{Kind: OwnerProjectPlan}.Validate())
	assert.Error(t, Owner{Kind: OwnerStandalone, ID: "x"}.Validate())
	assert.Error(t, Owner{Kind: "bogus", ID: "x"}.Validate())
}

func TestParseOwner(t *testing.T) {
	o, err := ParseOwner("project_plan", "p1")
	assert.NoError(t, err)
	assert.Equal(t, ProjectPlanOwner("p1"), o)
	assert.Equal(t, "project_plan(p1)", o.String())

	_, err = ParseOwner("glass_item", "")
	assert.Error(t, err)
}
