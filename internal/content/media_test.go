package content_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legacy-registry/profile-api/internal/content"
)

func items(urls ...string) []content.MediaItem {
	out := make([]content.MediaItem, len(urls))
	for i, u := range urls {
		out[i] = content.MediaItem{URL: u, Type: content.MediaTypeImage, Order: i}
	}
	return out
}

func urls(items []content.MediaItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.URL
	}
	return out
}

func TestNormalizeMediaOrder(t *testing.T) {
	t.Parallel()
	in := []content.MediaItem{
		{URL: "c", Order: 9},
		{URL: "a", Order: 2},
		{URL: "b", Order: 2},
	}
	got := content.NormalizeMediaOrder(in)

	if diff := cmp.Diff([]string{"a", "b", "c"}, urls(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	for i, it := range got {
		assert.Equal(t, i, it.Order)
	}
	assert.Equal(t, 9, in[0].Order, "input must not be mutated")
}

func TestMoveMedia(t *testing.T) {
	t.Parallel()
	got, err := content.MoveMedia(items("a", "b", "c", "d"), 0, 2)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"b", "c", "a", "d"}, urls(got)); diff != "" {
		t.Fatalf("move forward (-want +got):\n%s", diff)
	}
	for i, it := range got {
		assert.Equal(t, i, it.Order)
	}

	got, err = content.MoveMedia(items("a", "b", "c", "d"), 3, 0)
	require.NoError(t, err)
	if diff := cmp.Diff([]string{"d", "a", "b", "c"}, urls(got)); diff != "" {
		t.Fatalf("move backward (-want +got):\n%s", diff)
	}

	_, err = content.MoveMedia(items("a"), 0, 1)
	assert.Error(t, err)
}

func TestFeatured(t *testing.T) {
	t.Parallel()
	in := items("a", "b")
	_, ok := content.Featured(in)
	assert.False(t, ok)

	in[1].Featured = true
	got, ok := content.Featured(in)
	require.True(t, ok)
	assert.Equal(t, "b", got.URL)
}
