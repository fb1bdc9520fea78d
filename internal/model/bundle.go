package model

import (
	"slices"
	"sort"
)

// Bundle is a named collection of URLs.
type Bundle struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	URLs        []string `json:"urls" yaml:"urls"`
	Pinned      bool     `json:"pinned,omitempty" yaml:"pinned,omitempty"`
	LastUpdated int64    `json:"lastUpdated" yaml:"lastUpdated"` // epoch milliseconds
}

// Patch holds a partial update. Nil fields keep the original value.
type Patch struct {
	Name        *string
	Description *string
	URLs        []string // nil = unchanged
	Pinned      *bool
	LastUpdated *int64
}

// Clone returns a copy of the bundle that shares no slices with b.
func (b Bundle) Clone() Bundle {
	b.URLs = slices.Clone(b.URLs)
	return b
}

// Apply shallow-merges p onto b and returns the result.
func (b Bundle) Apply(p Patch) Bundle {
	out := b.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Description != nil {
		out.Description = *p.Description
	}
	if p.URLs != nil {
		out.URLs = slices.Clone(p.URLs)
	}
	if p.Pinned != nil {
		out.Pinned = *p.Pinned
	}
	if p.LastUpdated != nil {
		out.LastUpdated = *p.LastUpdated
	}
	return out
}

// Equal reports whether two bundles hold the same values.
func (b Bundle) Equal(other Bundle) bool {
	return b.Name == other.Name &&
		b.Description == other.Description &&
		b.Pinned == other.Pinned &&
		b.LastUpdated == other.LastUpdated &&
		slices.Equal(b.URLs, other.URLs)
}

// IndexByName returns the position of the bundle called name, or -1.
func IndexByName(list []Bundle, name string) int {
	for i := range list {
		if list[i].Name == name {
			return i
		}
	}
	return -1
}

// SortByLastUpdated orders list most recently updated first.
// Bundles with equal timestamps keep their relative order.
func SortByLastUpdated(list []Bundle) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].LastUpdated > list[j].LastUpdated
	})
}

// PinnedCount returns how many bundles in list are pinned.
func PinnedCount(list []Bundle) int {
	n := 0
	for _, b := range list {
		if b.Pinned {
			n++
		}
	}
	return n
}
