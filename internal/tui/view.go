package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/bundles/internal/culler"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/tui/layout"
)

// renderView creates the list and preview view, or the active modal.
func (a App) renderView() string {
	switch a.mode {
	case ModeAdd, ModeEdit:
		return a.renderForm()
	case ModeConfirmDelete:
		return a.renderConfirmDelete()
	case ModeCheckLoading:
		return a.renderCheckLoading()
	case ModeCheckResults:
		return a.renderCheckResults()
	case ModeHelp:
		return a.renderHelpOverlay()
	}

	paneHeight := layout.CalculatePaneHeight(a.height, a.layoutConfig.Pane)
	panes := layout.CalculatePaneWidths(a.width, a.layoutConfig.Pane)

	columns := lipgloss.JoinHorizontal(
		lipgloss.Top,
		a.renderListPane(panes.ListWidth, paneHeight),
		a.renderPreviewPane(panes.PreviewWidth, paneHeight),
	)

	content := a.styles.App.Render(
		lipgloss.JoinVertical(lipgloss.Left, a.renderSearchLine(), columns, a.renderHelpBar()),
	)

	// Use Place to ensure exact terminal dimensions and prevent overflow
	return lipgloss.Place(a.width, a.height, lipgloss.Left, lipgloss.Top, content)
}

// renderSearchLine shows the search input while typing, the active query
// afterwards, or the app name.
func (a App) renderSearchLine() string {
	if a.mode == ModeSearch {
		return a.search.Input.View()
	}
	if a.search.Query != "" {
		return a.styles.Title.Render("/"+a.search.Query) +
			a.styles.Help.Render(fmt.Sprintf("  %d of %d", len(a.items), len(a.bundles)))
	}
	return a.styles.Title.Render("bundles") +
		a.styles.Help.Render(fmt.Sprintf("  %d", len(a.bundles)))
}

func (a App) renderListPane(width, height int) string {
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	var lines []string
	cursorLine := 0
	for i, item := range a.items {
		if !a.sections.Flat && (i == 0 || a.items[i-1].Section != item.Section) {
			lines = append(lines, a.styles.Section.Render("── "+item.Section.Label()+" ──"))
		}
		if i == a.cursor {
			cursorLine = len(lines)
		}
		lines = append(lines, a.renderItem(item, i == a.cursor, itemWidth))
	}

	var content string
	switch {
	case len(a.bundles) == 0:
		content = a.renderEmpty(itemWidth, "No bundles yet.", "Press a to add one.")
	case len(a.items) == 0:
		content = a.renderEmpty(itemWidth, "No bundles match.")
	default:
		visibleHeight := layout.CalculateVisibleHeight(height, 0)
		offset := layout.CalculateViewportOffset(cursorLine, len(lines), visibleHeight)
		end := min(offset+visibleHeight, len(lines))
		content = strings.Join(lines[offset:end], "\n")
	}

	return a.styles.PaneActive.
		Width(width).
		Height(height).
		Render(content)
}

// renderEmpty renders placeholder lines truncated to width so none of them wrap.
func (a App) renderEmpty(width int, lines ...string) string {
	for i, line := range lines {
		lines[i], _ = layout.TruncateText(line, width, a.layoutConfig.Text)
	}
	return a.styles.Empty.Render(strings.Join(lines, "\n"))
}

func (a App) renderItem(item Item, isCursor bool, maxWidth int) string {
	// Item styles add one column of left padding
	line := layout.SpreadRow(item.Title(), item.Accessory(), maxWidth-1, a.layoutConfig.Text)
	if isCursor {
		// Pad to fill width for highlight
		line += strings.Repeat(" ", max(maxWidth-1-layout.VisibleLength(line), 0))
		return a.styles.ItemSelected.Render(line)
	}
	return a.styles.Item.Render(line)
}

func (a App) renderPreviewPane(width, height int) string {
	var content strings.Builder
	itemWidth := layout.CalculateItemWidth(width, a.layoutConfig.Pane)

	if b := a.selected(); b != nil {
		content.WriteString(a.styles.Title.Render(b.Name) + "\n")
		if b.Description != "" {
			content.WriteString(a.styles.Description.Render(b.Description) + "\n")
		}
		content.WriteString("\n")

		for _, u := range b.URLs {
			line, _ := layout.TruncateWithPrefixSuffix(u, itemWidth, "• ", "", a.layoutConfig.Text)
			content.WriteString(a.styles.URL.Render(line) + "\n")
		}
		content.WriteString("\n")

		if b.Pinned {
			content.WriteString(a.styles.Date.Render("Pinned") + "\n")
		}
		content.WriteString(a.styles.Date.Render(
			"Updated: " + formatUpdated(b.LastUpdated),
		))
	}

	return a.styles.Pane.
		Width(width).
		Height(height).
		Render(strings.TrimRight(content.String(), "\n"))
}

// formatUpdated renders an epoch-millisecond timestamp as a local date.
func formatUpdated(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}

func (a App) renderHelpBar() string {
	var lines []string

	// Line 1: Empty spacer OR message (message replaces the gap)
	if a.messageText != "" {
		lines = append(lines, a.renderMessageLine())
	} else {
		lines = append(lines, "")
	}

	// Line 2: Local (contextual) keyboard hints
	if localHints := a.renderHints(a.getContextualHints()); localHints != "" {
		lines = append(lines, a.styles.HintLabel.Render("Local  ")+localHints)
	}

	// Line 3: Global keyboard hints (only in normal mode - modals have their own flow)
	if a.mode == ModeNormal {
		if globalHints := a.renderHintSlice(a.getGlobalHints()); globalHints != "" {
			lines = append(lines, a.styles.HintLabel.Render("Global ")+globalHints)
		}
	}

	return strings.Join(lines, "\n")
}

// renderMessageLine renders the styled message with prefix icon based on type.
func (a App) renderMessageLine() string {
	switch a.messageType {
	case MessageError:
		return a.styles.MessageError.Render("✗ " + a.messageText)
	case MessageWarning:
		return a.styles.MessageWarn.Render("⚠ " + a.messageText)
	case MessageSuccess:
		return a.styles.MessageOK.Render("✓ " + a.messageText)
	default:
		return a.styles.MessageInfo.Render(a.messageText)
	}
}

// placeModal centers content in a bordered modal above the help bar.
func (a App) placeModal(content string, widthPercent int) string {
	modalWidth := layout.CalculateModalWidth(a.width, widthPercent, a.layoutConfig.Modal)

	modal := lipgloss.Place(
		a.width,
		a.height-3,
		lipgloss.Center,
		lipgloss.Center,
		a.styles.Modal.Width(modalWidth).Render(content),
	)

	return lipgloss.JoinVertical(lipgloss.Left, modal, a.renderHelpBar())
}

func (a App) renderForm() string {
	var content strings.Builder

	if a.mode == ModeEdit {
		content.WriteString(a.styles.Title.Render("Edit Bundle"))
	} else {
		content.WriteString(a.styles.Title.Render("Add Bundle"))
	}
	content.WriteString("\n\n")

	content.WriteString(a.renderField("Name", FieldName, model.FieldName, a.form.Name.View()))
	content.WriteString("\n\n")
	content.WriteString(a.renderField("Description", FieldDescription, model.FieldDescription, a.form.Description.View()))
	content.WriteString("\n\n")
	content.WriteString(a.renderField("URLs (one per line)", FieldURLs, model.FieldURLs, a.form.URLs.View()))

	return a.placeModal(content.String(), a.layoutConfig.Modal.LargeWidthPercent)
}

// renderField renders a labelled form input with its validation error below.
func (a App) renderField(label string, field FormField, errKey, input string) string {
	labelStyle := a.styles.Label
	if a.form.Focus == field {
		labelStyle = a.styles.LabelFocused
	}

	out := labelStyle.Render(label+":") + "\n" + input
	if msg, ok := a.form.Errors[errKey]; ok {
		out += "\n" + a.styles.FieldError.Render(msg)
	}
	return out
}

func (a App) renderConfirmDelete() string {
	var content strings.Builder
	content.WriteString(a.styles.Title.Render("Delete Bundle?"))
	content.WriteString("\n\n")
	content.WriteString(a.deleteName + "\n\n")
	content.WriteString(a.styles.Help.Render("This action cannot be undone.") + "\n\n")
	content.WriteString(a.renderHintsInline([]Hint{
		{Key: "Enter", Desc: "confirm"},
		{Key: "Esc", Desc: "cancel"},
	}))

	return a.placeModal(content.String(), a.layoutConfig.Modal.DefaultWidthPercent)
}

func (a App) renderCheckLoading() string {
	modalWidth := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.DefaultWidthPercent, a.layoutConfig.Modal)

	var content strings.Builder
	content.WriteString(a.styles.Title.Render("Check Links"))
	content.WriteString("\n\n")
	content.WriteString(fmt.Sprintf("Checking %s...\n\n", countURLs(a.check.Total)))

	// Progress bar
	if a.check.Total > 0 {
		progress := float64(a.check.Progress) / float64(a.check.Total)
		barWidth := max(modalWidth-10, 1)
		filled := int(progress * float64(barWidth))

		content.WriteString(strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled) + "\n\n")
		content.WriteString(fmt.Sprintf("[%d/%d]", a.check.Progress, a.check.Total))
	}

	return a.placeModal(content.String(), a.layoutConfig.Modal.DefaultWidthPercent)
}

func (a App) renderCheckResults() string {
	modalWidth := layout.CalculateModalWidth(a.width, a.layoutConfig.Modal.LargeWidthPercent, a.layoutConfig.Modal)
	lineWidth := max(modalWidth-8, 10)

	var content strings.Builder
	content.WriteString(a.styles.Title.Render("Check Results"))
	content.WriteString("\n\n")

	summary := a.check.Summary
	if len(a.check.Problems) == 0 {
		content.WriteString(a.styles.Empty.Render(fmt.Sprintf("All %s healthy!", countURLs(summary.Healthy))))
		return a.placeModal(content.String(), a.layoutConfig.Modal.LargeWidthPercent)
	}

	content.WriteString(a.styles.Help.Render(fmt.Sprintf(
		"Found %d dead, %d unreachable, %d healthy",
		summary.Dead, summary.Unreachable, summary.Healthy,
	)))
	content.WriteString("\n\n")

	start, end := layout.CalculateVisibleListItems(a.layoutConfig.Modal.CheckMaxVisible, a.check.Cursor, len(a.check.Problems))
	for i := start; i < end; i++ {
		r := a.check.Problems[i]
		label := problemLabel(r)
		line, _ := layout.TruncateText(fmt.Sprintf("%-12s %s  %s", label, r.Bundle, r.URL), lineWidth, a.layoutConfig.Text)

		if i == a.check.Cursor {
			line += strings.Repeat(" ", max(lineWidth-layout.VisibleLength(line), 0))
			content.WriteString(a.styles.ItemSelected.Render("▸ " + line))
		} else if r.Status == culler.Dead {
			content.WriteString("  " + a.styles.StatusDead.Render(line))
		} else {
			content.WriteString("  " + a.styles.StatusUnknown.Render(line))
		}
		content.WriteString("\n")
	}

	return a.placeModal(strings.TrimRight(content.String(), "\n"), a.layoutConfig.Modal.LargeWidthPercent)
}

// problemLabel names why a URL failed: DEAD with its status code, or the
// unreachable reason.
func problemLabel(r culler.Result) string {
	if r.Status == culler.Dead {
		return fmt.Sprintf("DEAD %d", r.StatusCode)
	}
	if r.Error != "" {
		return r.Error
	}
	return "UNREACHABLE"
}

// renderHelpOverlay renders the full-screen key reference.
func (a App) renderHelpOverlay() string {
	// Brutalist style: no border, just raw columns
	modalStyle := lipgloss.NewStyle().
		Padding(1, 2)

	var left strings.Builder
	left.WriteString(a.styles.Title.Render("nav") + "\n")
	left.WriteString("j/k  move\n")
	left.WriteString("gg   top\n")
	left.WriteString("G    bottom\n")
	left.WriteString("/    search\n")
	left.WriteString("Esc  clear search\n")
	left.WriteString("\n")
	left.WriteString(a.styles.Title.Render("act") + "\n")
	left.WriteString("o    open all urls\n")
	left.WriteString("y    copy urls\n")
	left.WriteString("C    check links\n")
	left.WriteString("r    reload\n")

	var right strings.Builder
	right.WriteString(a.styles.Title.Render("edit") + "\n")
	right.WriteString("a    add bundle\n")
	right.WriteString("e    edit\n")
	right.WriteString("d    delete\n")
	right.WriteString("*    pin/unpin\n")
	right.WriteString("t    move to top\n")
	right.WriteString("b    move to bottom\n")
	right.WriteString("\n")
	right.WriteString(a.styles.Title.Render("form") + "\n")
	right.WriteString("Tab     next field\n")
	right.WriteString("ctrl+s  save\n")
	right.WriteString("\n")
	right.WriteString(a.styles.Help.Render("[?/q/esc] close"))

	leftCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpLeftColumnWidth).Render(left.String())
	rightCol := lipgloss.NewStyle().Width(a.layoutConfig.Modal.HelpRightColumnWidth).Render(right.String())
	cols := lipgloss.JoinHorizontal(lipgloss.Top, leftCol, "  ", rightCol)

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Left,
		lipgloss.Top,
		modalStyle.Render(cols),
	)
}
