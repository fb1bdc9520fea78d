package model_test

import (
	"encoding/json"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/nikbrunner/bundles/internal/model"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
func int64Ptr(i int64) *int64 { return &i }

func validBundle() model.Bundle {
	return model.Bundle{
		Name:        "Morning",
		Description: "news and mail",
		URLs:        []string{"https://news.ycombinator.com", "https://mail.google.com"},
		LastUpdated: 1700000000000,
	}
}

func TestBundle_JSONFieldNames(t *testing.T) {
	data, err := json.Marshal(validBundle())
	assert.NilError(t, err)

	var raw map[string]any
	assert.NilError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"name", "description", "urls", "lastUpdated"} {
		_, ok := raw[key]
		assert.Assert(t, ok, "missing key %q", key)
	}
	// pinned is optional and omitted when false
	_, ok := raw["pinned"]
	assert.Assert(t, !ok)
}

func TestBundle_UnmarshalMissingPinned(t *testing.T) {
	var b model.Bundle
	err := json.Unmarshal([]byte(`{"name":"a","description":"","urls":["x"],"lastUpdated":5}`), &b)
	assert.NilError(t, err)
	assert.Equal(t, b.Pinned, false)
	assert.Equal(t, b.LastUpdated, int64(5))
}

func TestBundle_Apply(t *testing.T) {
	orig := validBundle()

	got := orig.Apply(model.Patch{Description: strPtr("new")})
	assert.Equal(t, got.Description, "new")
	assert.Equal(t, got.Name, orig.Name)
	assert.DeepEqual(t, got.URLs, orig.URLs)
	assert.Equal(t, got.LastUpdated, orig.LastUpdated)

	got = orig.Apply(model.Patch{
		Name:        strPtr("Evening"),
		URLs:        []string{"https://example.com"},
		Pinned:      boolPtr(true),
		LastUpdated: int64Ptr(42),
	})
	assert.Equal(t, got.Name, "Evening")
	assert.DeepEqual(t, got.URLs, []string{"https://example.com"})
	assert.Equal(t, got.Pinned, true)
	assert.Equal(t, got.LastUpdated, int64(42))

	// original untouched
	assert.Equal(t, orig.Name, "Morning")
}

func TestBundle_ApplyDoesNotShareURLs(t *testing.T) {
	urls := []string{"https://a.com"}
	got := validBundle().Apply(model.Patch{URLs: urls})
	urls[0] = "https://changed.com"

	assert.Equal(t, got.URLs[0], "https://a.com")
}

func TestSortByLastUpdated(t *testing.T) {
	list := []model.Bundle{
		{Name: "old", LastUpdated: 100},
		{Name: "new", LastUpdated: 300},
		{Name: "tie-a", LastUpdated: 200},
		{Name: "tie-b", LastUpdated: 200},
	}

	model.SortByLastUpdated(list)

	names := make([]string, len(list))
	for i, b := range list {
		names[i] = b.Name
	}
	assert.DeepEqual(t, names, []string{"new", "tie-a", "tie-b", "old"})
}

func TestIndexByName(t *testing.T) {
	list := []model.Bundle{{Name: "a"}, {Name: "b"}}
	assert.Equal(t, model.IndexByName(list, "b"), 1)
	assert.Equal(t, model.IndexByName(list, "zzz"), -1)
}

func TestPinnedCount(t *testing.T) {
	list := []model.Bundle{{Name: "a", Pinned: true}, {Name: "b"}, {Name: "c", Pinned: true}}
	assert.Equal(t, model.PinnedCount(list), 2)
}
