package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	App           lipgloss.Style
	Pane          lipgloss.Style
	PaneActive    lipgloss.Style
	Modal         lipgloss.Style
	Title         lipgloss.Style
	Section       lipgloss.Style // "── Pinned ──" separators
	Item          lipgloss.Style
	ItemSelected  lipgloss.Style
	URL           lipgloss.Style
	Description   lipgloss.Style
	Date          lipgloss.Style
	Label         lipgloss.Style // form field labels
	LabelFocused  lipgloss.Style
	FieldError    lipgloss.Style
	Help          lipgloss.Style
	Empty         lipgloss.Style
	HintKey       lipgloss.Style // Key portion of hints (e.g., "Enter", "j/k")
	HintDesc      lipgloss.Style // Description portion of hints (e.g., "confirm", "move")
	HintLabel     lipgloss.Style // "Local"/"Global" prefixes of the help bar
	MessageError  lipgloss.Style
	MessageWarn   lipgloss.Style
	MessageOK     lipgloss.Style
	MessageInfo   lipgloss.Style
	StatusDead    lipgloss.Style
	StatusUnknown lipgloss.Style
}

// DefaultStyles returns the default style configuration.
// Industrial design: grayscale with single desaturated teal accent.
func DefaultStyles() Styles {
	// Industrial color palette
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"} // main text
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}  // secondary text
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}  // desaturated teal
	border := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#505050"}  // inactive borders
	danger := lipgloss.AdaptiveColor{Light: "#CC3333", Dark: "#FF6666"}
	warning := lipgloss.AdaptiveColor{Light: "#CC8800", Dark: "#FFAA00"}
	success := lipgloss.AdaptiveColor{Light: "#338833", Dark: "#66CC66"}

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(border).
			Padding(0, 1),

		PaneActive: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(0, 1),

		Modal: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(accent).
			Padding(1, 2),

		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Section: lipgloss.NewStyle().
			Foreground(subtle),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),

		URL: lipgloss.NewStyle().
			Foreground(subtle),

		Description: lipgloss.NewStyle().
			Foreground(primary),

		Date: lipgloss.NewStyle().
			Foreground(subtle),

		Label: lipgloss.NewStyle().
			Foreground(subtle),

		LabelFocused: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		FieldError: lipgloss.NewStyle().
			Foreground(danger),

		Help: lipgloss.NewStyle().
			Foreground(subtle),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		HintKey: lipgloss.NewStyle().
			Foreground(subtle),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),

		HintLabel: lipgloss.NewStyle().
			Foreground(accent),

		MessageError: lipgloss.NewStyle().
			Foreground(danger).
			Bold(true),

		MessageWarn: lipgloss.NewStyle().
			Foreground(warning).
			Bold(true),

		MessageOK: lipgloss.NewStyle().
			Foreground(success).
			Bold(true),

		MessageInfo: lipgloss.NewStyle().
			Foreground(accent).
			Bold(true),

		StatusDead: lipgloss.NewStyle().
			Foreground(danger),

		StatusUnknown: lipgloss.NewStyle().
			Foreground(warning),
	}
}
