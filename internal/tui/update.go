package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// updateNormal handles keys while browsing the list.
func (a App) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle gg sequence
	if key.Matches(msg, a.keys.Top) {
		if a.lastKeyWasG {
			a.cursor = 0
			a.lastKeyWasG = false
			return a, nil
		}
		a.lastKeyWasG = true
		return a, nil
	}
	a.lastKeyWasG = false
	a.clearMessage()

	switch {
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, a.keys.Cancel):
		if a.search.Query != "" {
			keep := a.selectedName()
			a.search.Reset()
			a.rebuild(keep)
		}

	case key.Matches(msg, a.keys.Down):
		a.moveDown()

	case key.Matches(msg, a.keys.Up):
		a.moveUp()

	case key.Matches(msg, a.keys.Bottom):
		a.cursor = max(len(a.items)-1, 0)

	case key.Matches(msg, a.keys.Open):
		a.openSelected()

	case key.Matches(msg, a.keys.Copy):
		a.copySelected()

	case key.Matches(msg, a.keys.Add):
		return a.startAdd()

	case key.Matches(msg, a.keys.Edit):
		return a.startEdit()

	case key.Matches(msg, a.keys.Delete):
		if b := a.selected(); b != nil {
			a.confirmDelete(b.Name)
		}

	case key.Matches(msg, a.keys.Pin):
		a.togglePin()

	case key.Matches(msg, a.keys.MoveTop):
		a.moveToTop()

	case key.Matches(msg, a.keys.MoveBottom):
		a.moveToBottom()

	case key.Matches(msg, a.keys.Search):
		a.mode = ModeSearch
		return a, a.search.Input.Focus()

	case key.Matches(msg, a.keys.Check):
		return a.startCheck()

	case key.Matches(msg, a.keys.Reload):
		if err := a.reload(); err == nil {
			a.setMessage(MessageInfo, fmt.Sprintf("Reloaded %d bundles.", len(a.bundles)))
		}

	case key.Matches(msg, a.keys.Help):
		a.mode = ModeHelp
	}

	return a, nil
}

func (a *App) moveDown() {
	if a.cursor < len(a.items)-1 {
		a.cursor++
	}
}

func (a *App) moveUp() {
	if a.cursor > 0 {
		a.cursor--
	}
}

// updateSearch feeds keys into the search input and re-ranks on every change.
// j/k are typed, so only arrows and ctrl+n/p move the cursor.
func (a App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return a, tea.Quit

	case tea.KeyEsc:
		keep := a.selectedName()
		a.search.Reset()
		a.mode = ModeNormal
		a.rebuild(keep)
		return a, nil

	case tea.KeyEnter:
		a.search.Input.Blur()
		a.mode = ModeNormal
		return a, nil

	case tea.KeyDown, tea.KeyCtrlN:
		a.moveDown()
		return a, nil

	case tea.KeyUp, tea.KeyCtrlP:
		a.moveUp()
		return a, nil
	}

	var cmd tea.Cmd
	a.search.Input, cmd = a.search.Input.Update(msg)
	if q := a.search.Input.Value(); q != a.search.Query {
		a.search.Query = q
		a.cursor = 0
		a.rebuild("")
	}
	return a, cmd
}

// updateForm handles the add/edit modal. Enter saves from the single-line
// fields; inside the URL list it starts a new line, so ctrl+s saves there.
func (a App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return a, tea.Quit

	case key.Matches(msg, a.keys.Cancel):
		a.form.Reset()
		a.mode = ModeNormal
		a.clearMessage()
		return a, nil

	case key.Matches(msg, a.keys.Save):
		return a.submitForm()

	case key.Matches(msg, a.keys.NextField):
		return a, a.form.Next()

	case key.Matches(msg, a.keys.PrevField):
		return a, a.form.Prev()

	case msg.Type == tea.KeyEnter && a.form.Focus != FieldURLs:
		return a.submitForm()
	}

	var cmd tea.Cmd
	switch a.form.Focus {
	case FieldName:
		a.form.Name, cmd = a.form.Name.Update(msg)
	case FieldDescription:
		a.form.Description, cmd = a.form.Description.Update(msg)
	case FieldURLs:
		a.form.URLs, cmd = a.form.URLs.Update(msg)
	}
	return a, cmd
}

func (a App) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Confirm):
		a.deleteConfirmed()
	case key.Matches(msg, a.keys.Cancel):
		a.mode = a.deleteReturn
		a.deleteName = ""
	}
	return a, nil
}

func (a App) updateCheckLoading(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Cancel) || msg.Type == tea.KeyCtrlC {
		a.check.Reset()
		a.mode = ModeNormal
		a.setMessage(MessageWarning, "Link check cancelled.")
	}
	return a, nil
}

func (a App) updateCheckResults(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Cancel), key.Matches(msg, a.keys.Quit):
		a.mode = ModeNormal

	case key.Matches(msg, a.keys.Down):
		if a.check.Cursor < len(a.check.Problems)-1 {
			a.check.Cursor++
		}

	case key.Matches(msg, a.keys.Up):
		if a.check.Cursor > 0 {
			a.check.Cursor--
		}

	case key.Matches(msg, a.keys.Open):
		if r := a.check.Current(); r != nil {
			if err := a.openURL(r.URL); err != nil {
				a.setMessage(MessageError, err.Error())
			}
		}

	case key.Matches(msg, a.keys.Delete):
		if r := a.check.Current(); r != nil {
			a.confirmDelete(r.Bundle)
		}
	}
	return a, nil
}

func (a App) updateHelp(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Help) || key.Matches(msg, a.keys.Cancel) || key.Matches(msg, a.keys.Quit) {
		a.mode = ModeNormal
	}
	return a, nil
}
