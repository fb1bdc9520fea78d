package tui

import (
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/present"
)

// Section tells which part of the list an item is shown in.
type Section int

const (
	SectionPinned Section = iota
	SectionBundles
	SectionResults // flat ranked list while searching
)

// Label is the separator text shown above the section.
func (s Section) Label() string {
	switch s {
	case SectionPinned:
		return "Pinned"
	case SectionBundles:
		return "Bundles"
	default:
		return "Results"
	}
}

// Item is one bundle row in the list.
type Item struct {
	Bundle  model.Bundle
	Section Section
}

// Title returns a display title for the item.
func (i Item) Title() string {
	return i.Bundle.Name
}

// Accessory returns the trailing row text: URL count and pin marker.
func (i Item) Accessory() string {
	return present.Accessory(i.Bundle)
}

// itemsFromSections flattens sections into rows in display order.
func itemsFromSections(s present.Sections) []Item {
	if s.Flat {
		items := make([]Item, len(s.All))
		for i, b := range s.All {
			items[i] = Item{Bundle: b, Section: SectionResults}
		}
		return items
	}

	items := make([]Item, 0, len(s.Pinned)+len(s.Unpinned))
	for _, b := range s.Pinned {
		items = append(items, Item{Bundle: b, Section: SectionPinned})
	}
	for _, b := range s.Unpinned {
		items = append(items, Item{Bundle: b, Section: SectionBundles})
	}
	return items
}
