// Package present decides how a list of bundles is laid out for display:
// pinned bundles in their own section while browsing, one flat ranked list
// once the user is clearly searching.
package present

import (
	"fmt"

	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/search"
)

// DefaultIgnorePinThreshold is the query length above which pinned bundles
// lose their separate section.
const DefaultIgnorePinThreshold = 3

// PinMarker flags pinned bundles in lists.
const PinMarker = "*"

// Sections is a displayable split of a bundle list.
type Sections struct {
	Pinned   []model.Bundle `json:"pinned"`
	Unpinned []model.Bundle `json:"unpinned"`
	// All is the list as it came in, whatever the split.
	All  []model.Bundle `json:"all"`
	Flat bool           `json:"flat"`
}

// Partition splits list into pinned and unpinned sections, each keeping the
// list's order. A query longer than threshold characters yields a flat
// result instead, so ranking is not overridden by pin state.
func Partition(query string, list []model.Bundle, threshold int) Sections {
	s := Sections{All: list}
	if len([]rune(query)) > threshold {
		s.Flat = true
		return s
	}

	s.Pinned = []model.Bundle{}
	s.Unpinned = []model.Bundle{}
	for _, b := range list {
		if b.Pinned {
			s.Pinned = append(s.Pinned, b)
		} else {
			s.Unpinned = append(s.Unpinned, b)
		}
	}
	return s
}

// Build ranks bundles against query and partitions the result.
func Build(query string, bundles []model.Bundle, threshold int, opts search.Options) Sections {
	return Partition(query, search.Search(query, bundles, opts), threshold)
}

// Len returns the number of bundles shown.
func (s Sections) Len() int {
	return len(s.All)
}

// Ordered returns bundles in display order: the pinned section before the
// unpinned one, or the flat list.
func (s Sections) Ordered() []model.Bundle {
	if s.Flat {
		return s.All
	}
	out := make([]model.Bundle, 0, len(s.Pinned)+len(s.Unpinned))
	out = append(out, s.Pinned...)
	return append(out, s.Unpinned...)
}

// ItemCount describes the number of URLs in b, e.g. "3 items".
func ItemCount(b model.Bundle) string {
	if len(b.URLs) == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", len(b.URLs))
}

// Accessory is the trailing text of a bundle row: its URL count, plus a pin
// marker when pinned.
func Accessory(b model.Bundle) string {
	if b.Pinned {
		return ItemCount(b) + " " + PinMarker
	}
	return ItemCount(b)
}
