package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsStoreGetSet(t *testing.T) {
	d := openTestDB(t)
	settings := NewSettingsStore(d)
	ctx := context.Background()

	_, ok, err := settings.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, settings.Set(ctx, "theme", "dark"))
	require.NoError(t, settings.Set(ctx, "theme", "light"))

	value, ok, err := settings.Get(ctx, "theme")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)
	assert.Equal(t, 1, countRows(t, d, "settings"))

	require.NoError(t, settings.Delete(ctx, "theme"))
	_, ok, err = settings.Get(ctx, "theme")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSettingsStoreBool(t *testing.T) {
	d := openTestDB(t)
	settings := NewSettingsStore(d)
	ctx := context.Background()

	done, err := settings.Bool(ctx, "legacy.tags.v1")
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, settings.SetBool(ctx, "legacy.tags.v1", true))
	done, err = settings.Bool(ctx, "legacy.tags.v1")
	require.NoError(t, err)
	assert.True(t, done)

	value, _, err := settings.Get(ctx, "legacy.tags.v1")
	require.NoError(t, err)
	assert.Equal(t, "true", value)

	require.NoError(t, settings.Set(ctx, "broken", "maybe"))
	_, err = settings.Bool(ctx, "broken")
	assert.Error(t, err)
}
