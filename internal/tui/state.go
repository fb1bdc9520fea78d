package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/bundles/internal/culler"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/tui/layout"
)

// SearchState holds the live search query.
type SearchState struct {
	Input textinput.Model
	Query string // query the list is ranked by
}

// NewSearchState creates a new SearchState with an initialized input.
func NewSearchState(cfg layout.LayoutConfig) SearchState {
	input := textinput.New()
	input.Placeholder = "Search bundles..."
	input.Prompt = "/"
	input.CharLimit = cfg.Input.SearchCharLimit
	input.Width = cfg.Input.SearchWidth

	return SearchState{Input: input}
}

// Reset clears the query.
func (s *SearchState) Reset() {
	s.Input.Reset()
	s.Input.Blur()
	s.Query = ""
}

// FormField identifies a field of the bundle form.
type FormField int

const (
	FieldName FormField = iota
	FieldDescription
	FieldURLs
	fieldCount
)

// FormState holds state for the add/edit bundle modal.
type FormState struct {
	Name        textinput.Model
	Description textinput.Model
	URLs        textarea.Model // one URL per line
	Focus       FormField
	Errors      map[string]string // field errors keyed by model.Field*

	// EditName is the stored name of the bundle being edited, empty when adding.
	EditName string
	// Original is the bundle as loaded into the form, for edits.
	Original model.Bundle
}

// NewFormState creates a new FormState with initialized inputs.
func NewFormState(cfg layout.LayoutConfig) FormState {
	name := textinput.New()
	name.Placeholder = "Name"
	name.CharLimit = cfg.Input.NameCharLimit
	name.Width = cfg.Input.StandardWidth

	description := textinput.New()
	description.Placeholder = "Description (optional)"
	description.CharLimit = cfg.Input.DescriptionCharLimit
	description.Width = cfg.Input.StandardWidth

	urls := textarea.New()
	urls.Placeholder = "One URL per line"
	urls.CharLimit = cfg.Input.URLsCharLimit
	urls.ShowLineNumbers = false
	urls.SetWidth(cfg.Input.StandardWidth)
	urls.SetHeight(cfg.Input.URLsHeight)

	return FormState{
		Name:        name,
		Description: description,
		URLs:        urls,
	}
}

// Reset clears all inputs for a new form session.
func (f *FormState) Reset() {
	f.Name.Reset()
	f.Description.Reset()
	f.URLs.Reset()
	f.Errors = nil
	f.EditName = ""
	f.Original = model.Bundle{}
}

// Load fills the form with an existing bundle for editing.
func (f *FormState) Load(b model.Bundle) {
	form := model.ToForm(b)
	f.Name.SetValue(form.Name)
	f.Description.SetValue(form.Description)
	f.URLs.SetValue(form.URLs)
	f.EditName = b.Name
	f.Original = b
}

// Editing reports whether the form edits a stored bundle.
func (f *FormState) Editing() bool {
	return f.EditName != ""
}

// Value returns the form contents.
func (f *FormState) Value() model.FormBundle {
	form := model.FormBundle{
		Name:        f.Name.Value(),
		Description: f.Description.Value(),
		URLs:        f.URLs.Value(),
	}
	if f.Editing() {
		form.Pinned = f.Original.Pinned
		lastUpdated := f.Original.LastUpdated
		form.LastUpdated = &lastUpdated
	}
	return form
}

// FocusField moves the focus to field.
func (f *FormState) FocusField(field FormField) tea.Cmd {
	f.Focus = field
	f.Name.Blur()
	f.Description.Blur()
	f.URLs.Blur()

	switch field {
	case FieldDescription:
		return f.Description.Focus()
	case FieldURLs:
		return f.URLs.Focus()
	default:
		return f.Name.Focus()
	}
}

// Next focuses the following field, wrapping around.
func (f *FormState) Next() tea.Cmd {
	return f.FocusField((f.Focus + 1) % fieldCount)
}

// Prev focuses the preceding field, wrapping around.
func (f *FormState) Prev() tea.Cmd {
	return f.FocusField((f.Focus + fieldCount - 1) % fieldCount)
}

// CheckState holds state for the link check feature.
type CheckState struct {
	Problems []culler.Result // dead and unreachable URLs
	Summary  culler.Summary
	Cursor   int // selected problem
	Progress int // URLs checked so far
	Total    int // URLs being checked

	run      int
	progress <-chan checkProgressMsg
	cancel   context.CancelFunc
}

// Reset clears all check state, cancelling a running check.
func (c *CheckState) Reset() {
	if c.cancel != nil {
		c.cancel()
	}
	*c = CheckState{}
}

// Current returns the selected problem, or nil if none.
func (c *CheckState) Current() *culler.Result {
	if c.Cursor < 0 || c.Cursor >= len(c.Problems) {
		return nil
	}
	return &c.Problems[c.Cursor]
}

// DropBundle removes the problems of the named bundle, keeping the cursor in range.
func (c *CheckState) DropBundle(name string) {
	kept := c.Problems[:0]
	for _, r := range c.Problems {
		if r.Bundle != name {
			kept = append(kept, r)
		}
	}
	c.Problems = kept
	c.Cursor = min(c.Cursor, max(len(c.Problems)-1, 0))
}
