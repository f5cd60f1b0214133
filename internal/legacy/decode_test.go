package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeStrings(t *testing.T) {
	got, err := decodeStrings([]byte(`["a", 2, null, "b"]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "2", "b"}, got)

	got, err = decodeStrings([]byte("- one\n- two\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)

	got, err = decodeStrings([]byte("   "))
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = decodeStrings([]byte(`{"not": "a list"}`))
	assert.Error(t, err)
}

func TestDecodeStrings_RejectsNestedEntries(t *testing.T) {
	for _, blob := range []string{
		`[["a", "b"]]`,
		`["ok", {"tag": "x"}]`,
		"- one\n- [two, three]\n",
	} {
		_, err := decodeStrings([]byte(blob))
		assert.Error(t, err, blob)
	}
}

func TestDecodeGlassItems_RejectsBadQuantity(t *testing.T) {
	_, err := decodeGlassItems([]byte(`[{"natural_key": "x-1-0", "quantity": "lots"}]`))
	assert.Error(t, err)
}

func TestDecodeReferenceURLs_DropsEntriesWithoutURL(t *testing.T) {
	got, err := decodeReferenceURLs([]byte(`[" https://a ", {"title": "t"}, ""]`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://a", got[0].URL)
}
