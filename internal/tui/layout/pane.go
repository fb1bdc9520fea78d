package layout

// PaneLayout holds calculated pane widths.
type PaneLayout struct {
	ListWidth    int
	PreviewWidth int
}

// CalculatePaneHeight computes the content height for panes.
// Returns at least MinHeight.
func CalculatePaneHeight(terminalHeight int, cfg PaneConfig) int {
	return max(terminalHeight-cfg.HeightReduction, cfg.MinHeight)
}

// CalculatePaneWidths splits the terminal width between the bundle list and
// the preview pane.
func CalculatePaneWidths(terminalWidth int, cfg PaneConfig) PaneLayout {
	available := terminalWidth - cfg.TwoPaneWidthOffset

	list := max(available*cfg.ListWidthPercent/100, cfg.MinListWidth)
	preview := max(available-list, cfg.MinPreviewWidth)

	return PaneLayout{
		ListWidth:    list,
		PreviewWidth: preview,
	}
}

// CalculateItemWidth computes the width available for item content.
func CalculateItemWidth(paneWidth int, cfg PaneConfig) int {
	return paneWidth - cfg.ContentPadding
}

// CalculateVisibleHeight computes the visible item count in a pane.
func CalculateVisibleHeight(paneHeight, headerLines int) int {
	return max(paneHeight-headerLines, 1)
}

// CalculateViewportOffset calculates the scroll offset needed to keep the
// selected item visible within the viewport.
func CalculateViewportOffset(selected, total, viewportHeight int) int {
	if total <= viewportHeight {
		return 0
	}

	// Keep selection roughly centered, but clamp to valid range
	offset := max(selected-viewportHeight/2, 0)
	return min(offset, total-viewportHeight)
}
