package service

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/glassinv/internal/db"
	"github.com/vbonduro/glassinv/internal/domain"
	"github.com/vbonduro/glassinv/internal/store"
)

func TestTagService(t *testing.T) {
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	svc := NewTagService(store.NewUserTagsStore(d), slog.Default())
	ctx := context.Background()

	got, err := svc.SetItemTags(ctx, "A", []string{"Red", "opaque", "red"})
	require.NoError(t, err)
	assert.Equal(t, []string{"opaque", "red"}, got)
	_, err = svc.SetItemTags(ctx, "B", []string{"red"})
	require.NoError(t, err)

	names, err := svc.TagNames(ctx, "r")
	require.NoError(t, err)
	assert.Equal(t, []string{"red"}, names)

	all, err := svc.TagNames(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"opaque", "red"}, all)

	usage, err := svc.Usage(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.TagCount{{Tag: "red", Count: 2}, {Tag: "opaque", Count: 1}}, usage)

	top, err := svc.Usage(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []domain.TagCount{{Tag: "red", Count: 2}}, top)

	tags, err := svc.ItemTags(ctx, "B")
	require.NoError(t, err)
	assert.Equal(t, []string{"red"}, tags)
}
