package picker

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/present"
)

var (
	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")).
			Bold(true)

	normalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("99")).
			Bold(true).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))
)

// Picker is a simple TUI for choosing one bundle from sectioned results.
type Picker struct {
	sections  present.Sections
	items     []model.Bundle // display order
	query     string
	cursor    int
	selected  bool
	cancelled bool
	width     int
	height    int
}

// New creates a new Picker over sections.
func New(sections present.Sections, query string) Picker {
	return Picker{
		sections: sections,
		items:    sections.Ordered(),
		query:    query,
		cursor:   0,
		width:    80,
		height:   24,
	}
}

// Init implements tea.Model.
func (p Picker) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			p.cancelled = true
			return p, tea.Quit

		case tea.KeyEnter:
			if len(p.items) == 0 {
				return p, nil
			}
			p.selected = true
			return p, tea.Quit

		case tea.KeyDown, tea.KeyCtrlN:
			p.moveDown()
			return p, nil

		case tea.KeyUp, tea.KeyCtrlP:
			p.moveUp()
			return p, nil
		}

		if msg.Type == tea.KeyRunes {
			switch string(msg.Runes) {
			case "j":
				p.moveDown()
				return p, nil
			case "k":
				p.moveUp()
				return p, nil
			case "g":
				p.cursor = 0
				return p, nil
			case "G":
				p.cursor = max(len(p.items)-1, 0)
				return p, nil
			case "q":
				p.cancelled = true
				return p, tea.Quit
			}
		}
	}

	return p, nil
}

func (p *Picker) moveDown() {
	if p.cursor < len(p.items)-1 {
		p.cursor++
	}
}

func (p *Picker) moveUp() {
	if p.cursor > 0 {
		p.cursor--
	}
}

// View implements tea.Model.
func (p Picker) View() string {
	var b strings.Builder

	// Header
	b.WriteString(headerStyle.Render(fmt.Sprintf("Search: %s (%d results)", p.query, len(p.items))))
	b.WriteString("\n\n")

	if len(p.items) == 0 {
		b.WriteString(urlStyle.Render("No bundles match."))
		b.WriteString("\n")
	}

	pinned := len(p.sections.Pinned)
	for i, bundle := range p.items {
		if !p.sections.Flat {
			switch {
			case i == 0 && pinned > 0:
				b.WriteString(sectionStyle.Render("── Pinned ──") + "\n")
			case i == pinned && len(p.sections.Unpinned) > 0:
				b.WriteString(sectionStyle.Render("── Bundles ──") + "\n")
			}
		}

		cursor := "  "
		style := normalStyle
		if i == p.cursor {
			cursor = "> "
			style = selectedStyle
		}

		name := style.Render(bundle.Name)
		accessory := urlStyle.Render(present.Accessory(bundle))
		first := ""
		if len(bundle.URLs) > 0 {
			first = urlStyle.Render(bundle.URLs[0])
		}

		b.WriteString(fmt.Sprintf("%s%s  %s\n", cursor, name, accessory))
		b.WriteString(fmt.Sprintf("   %s\n", first))
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Render("j/k: move  Enter: open  q/Esc: cancel"))

	return b.String()
}

// SelectedBundle returns the selected bundle, or nil if cancelled.
func (p Picker) SelectedBundle() *model.Bundle {
	if p.cancelled || !p.selected {
		return nil
	}
	if p.cursor < len(p.items) {
		b := p.items[p.cursor]
		return &b
	}
	return nil
}

// Cancelled returns true if the user cancelled the selection.
func (p Picker) Cancelled() bool {
	return p.cancelled
}
