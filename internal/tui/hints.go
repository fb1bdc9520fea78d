package tui

import "strings"

// Hint represents a single keybind hint for display.
type Hint struct {
	Key  string // Display key (e.g., "j/k", "Enter")
	Desc string // Short description (e.g., "move", "open")
}

// renderHint renders a single hint as "key:desc" with styling.
func (a App) renderHint(h Hint) string {
	return a.styles.HintKey.Render(h.Key) + ":" + a.styles.HintDesc.Render(h.Desc)
}

// renderHints renders hints in horizontal format for bottom bar: "j/k:move enter:open"
func (a App) renderHints(hints HintSet) string {
	return a.renderHintSlice(hints.All())
}

// renderHintSlice renders a slice of hints in horizontal format.
func (a App) renderHintSlice(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = a.renderHint(h)
	}
	return strings.Join(parts, " ")
}

// renderHintsInline renders hints in inline format for modals: "Enter confirm  Esc cancel"
func (a App) renderHintsInline(hints []Hint) string {
	if len(hints) == 0 {
		return ""
	}

	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = a.styles.HintKey.Render(h.Key) + " " + a.styles.HintDesc.Render(h.Desc)
	}
	return strings.Join(parts, "  ")
}

// HintSet is an ordered collection of hints by group.
type HintSet struct {
	Nav    []Hint // Navigation hints (j/k, g/G)
	Edit   []Hint // Edit hints (a, e, d, etc.)
	Action []Hint // Action hints (Enter, /, etc.)
	System []Hint // System hints (?, q, Esc)
}

// All returns all hints flattened in display order: Nav + Action + Edit + System.
func (h HintSet) All() []Hint {
	result := make([]Hint, 0, len(h.Nav)+len(h.Action)+len(h.Edit)+len(h.System))
	result = append(result, h.Nav...)
	result = append(result, h.Action...)
	result = append(result, h.Edit...)
	result = append(result, h.System...)
	return result
}

// getContextualHints returns the appropriate hints for the current mode.
func (a App) getContextualHints() HintSet {
	switch a.mode {
	case ModeNormal:
		return a.getNormalModeHints()
	case ModeSearch:
		return HintSet{
			Nav:    []Hint{{Key: "↑/↓", Desc: "move"}, {Key: "type", Desc: "search"}},
			Action: []Hint{{Key: "Enter", Desc: "keep"}},
			System: []Hint{{Key: "Esc", Desc: "clear"}},
		}
	case ModeAdd, ModeEdit:
		return HintSet{
			Nav:    []Hint{{Key: "Tab", Desc: "next"}},
			Action: []Hint{{Key: "ctrl+s", Desc: "save"}},
			System: []Hint{{Key: "Esc", Desc: "cancel"}},
		}
	case ModeCheckLoading:
		return HintSet{
			System: []Hint{{Key: "Esc", Desc: "cancel"}},
		}
	case ModeCheckResults:
		return HintSet{
			Nav:    []Hint{{Key: "j/k", Desc: "move"}},
			Action: []Hint{{Key: "o", Desc: "open"}},
			Edit:   []Hint{{Key: "d", Desc: "del bundle"}},
			System: []Hint{{Key: "Esc", Desc: "close"}},
		}
	case ModeHelp:
		// Help overlay covers screen, minimal hints
		return HintSet{
			System: []Hint{{Key: "?/q/Esc", Desc: "close"}},
		}
	default:
		// ModeConfirmDelete shows its hints inside the modal.
		return HintSet{}
	}
}

// getNormalModeHints returns hints for ModeNormal (main browse).
func (a App) getNormalModeHints() HintSet {
	hints := HintSet{
		Nav: []Hint{
			{Key: "j/k", Desc: "move"},
		},
		Action: []Hint{
			{Key: "Enter", Desc: "open"},
			{Key: "y", Desc: "copy"},
			{Key: "/", Desc: "search"},
		},
		Edit: []Hint{
			{Key: "a", Desc: "add"},
			{Key: "e", Desc: "edit"},
			{Key: "d", Desc: "del"},
			{Key: "*", Desc: "pin"},
		},
		System: []Hint{
			{Key: "?", Desc: "help"},
			{Key: "q", Desc: "quit"},
		},
	}
	if a.search.Query != "" {
		hints.System = append([]Hint{{Key: "Esc", Desc: "clear"}}, hints.System...)
	}
	return hints
}

// getGlobalHints returns hints shown below the local ones in normal mode.
func (a App) getGlobalHints() []Hint {
	return []Hint{
		{Key: "t/b", Desc: "top/bottom"},
		{Key: "C", Desc: "check links"},
		{Key: "r", Desc: "reload"},
	}
}
