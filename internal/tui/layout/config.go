package layout

// LayoutConfig holds all layout-related configuration values.
type LayoutConfig struct {
	Pane  PaneConfig
	Modal ModalConfig
	Input InputConfig
	Text  TextConfig
}

// PaneConfig holds pane dimension configuration.
type PaneConfig struct {
	// HeightReduction is subtracted from terminal height for pane content.
	// Accounts for: app padding (1) + search line (1) + pane borders (2) + help bar (3) = 7
	HeightReduction int

	// MinHeight is the minimum pane height.
	MinHeight int

	// TwoPaneWidthOffset is subtracted before splitting the width between
	// the list and the preview. Accounts for borders and app padding.
	TwoPaneWidthOffset int

	// ListWidthPercent is the share of the remaining width given to the list.
	ListWidthPercent int

	// MinListWidth is the minimum width of the bundle list.
	MinListWidth int

	// MinPreviewWidth is the minimum width of the preview pane.
	MinPreviewWidth int

	// ContentPadding is subtracted from pane width for item rendering.
	// Accounts for pane border/padding on each side.
	ContentPadding int
}

// ModalConfig holds modal dialog configuration.
type ModalConfig struct {
	// DefaultWidthPercent is the standard modal width as percentage of terminal width.
	DefaultWidthPercent int

	// LargeWidthPercent is used for modals needing more space (form, check results).
	LargeWidthPercent int

	// MinWidth is the minimum modal width in characters.
	MinWidth int

	// MaxWidth is the maximum modal width in characters.
	MaxWidth int

	// CheckMaxVisible: max rows shown in the check results list.
	CheckMaxVisible int

	// HelpLeftColumnWidth: width for help overlay left column.
	HelpLeftColumnWidth int

	// HelpRightColumnWidth: width for help overlay right column.
	HelpRightColumnWidth int
}

// InputConfig holds text input configuration.
type InputConfig struct {
	// Character limits
	NameCharLimit        int
	DescriptionCharLimit int
	URLsCharLimit        int
	SearchCharLimit      int

	// Display widths
	StandardWidth int // Used for name, description and URLs
	SearchWidth   int

	// URLsHeight is the number of visible lines of the URL textarea.
	URLsHeight int
}

// TextConfig holds text truncation configuration.
type TextConfig struct {
	// Ellipsis is the string used to indicate truncation.
	Ellipsis string
}

// DefaultConfig returns the default layout configuration.
func DefaultConfig() LayoutConfig {
	return LayoutConfig{
		Pane: PaneConfig{
			HeightReduction:    7, // app padding (1) + search line (1) + pane borders (2) + help bar (3)
			MinHeight:          5,
			TwoPaneWidthOffset: 8,
			ListWidthPercent:   45,
			MinListWidth:       24,
			MinPreviewWidth:    20,
			ContentPadding:     4,
		},
		Modal: ModalConfig{
			DefaultWidthPercent:  40,
			LargeWidthPercent:    60,
			MinWidth:             50,
			MaxWidth:             90,
			CheckMaxVisible:      10,
			HelpLeftColumnWidth:  18,
			HelpRightColumnWidth: 22,
		},
		Input: InputConfig{
			NameCharLimit:        100,
			DescriptionCharLimit: 500,
			URLsCharLimit:        20000,
			SearchCharLimit:      100,
			StandardWidth:        50,
			SearchWidth:          40,
			URLsHeight:           6,
		},
		Text: TextConfig{
			Ellipsis: "...",
		},
	}
}
