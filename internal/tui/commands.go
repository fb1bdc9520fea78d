package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/bundles/internal/browser"
	"github.com/nikbrunner/bundles/internal/culler"
	bundleerrors "github.com/nikbrunner/bundles/internal/errors"
	"github.com/nikbrunner/bundles/internal/logger"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/present"
)

// refresh reloads the store and moves the cursor to the bundle called keep.
// On error the previous list stays on screen and the error is shown.
func (a *App) refresh(keep string) error {
	list, err := a.store.GetAll(a.ctx)
	if err != nil {
		a.log.Error("load bundles", logger.Error(err))
		a.setMessage(MessageError, err.Error())
		return err
	}
	a.bundles = list
	a.rebuild(keep)
	return nil
}

func countURLs(n int) string {
	if n == 1 {
		return "1 URL"
	}
	return fmt.Sprintf("%d URLs", n)
}

// openSelected opens every URL of the selected bundle.
func (a *App) openSelected() {
	b := a.selected()
	if b == nil {
		return
	}

	n, err := browser.OpenAll(a.openURL, b.URLs)
	if err != nil {
		a.log.Warn("open bundle", logger.String("name", b.Name), logger.Error(err))
		a.setMessage(MessageError, err.Error())
		return
	}
	a.setMessage(MessageSuccess, fmt.Sprintf("Opened %s of %s.", countURLs(n), b.Name))
}

// copySelected copies the URLs of the selected bundle, one per line.
func (a *App) copySelected() {
	b := a.selected()
	if b == nil {
		return
	}

	if err := a.copyText(strings.Join(b.URLs, model.URLSeparator)); err != nil {
		a.setMessage(MessageError, "Copy failed: "+err.Error())
		return
	}
	a.setMessage(MessageSuccess, fmt.Sprintf("Copied %s of %s.", countURLs(len(b.URLs)), b.Name))
}

func (a *App) togglePin() {
	b := a.selected()
	if b == nil {
		return
	}

	pinned, err := a.store.TogglePin(a.ctx, b.Name)
	if err != nil {
		a.setMessage(MessageError, err.Error())
		return
	}
	if a.refresh(b.Name) != nil {
		return
	}
	if pinned {
		a.setMessage(MessageSuccess, b.Name+" pinned.")
	} else {
		a.setMessage(MessageSuccess, b.Name+" unpinned.")
	}
}

func (a *App) moveToTop() {
	b := a.selected()
	if b == nil {
		return
	}

	if err := a.store.MoveToTop(a.ctx, b.Name); err != nil {
		a.setMessage(MessageError, err.Error())
		return
	}
	if a.refresh(b.Name) != nil {
		return
	}
	a.setMessage(MessageSuccess, b.Name+" moved to top.")
}

func (a *App) moveToBottom() {
	b := a.selected()
	if b == nil {
		return
	}

	if err := a.store.MoveToBottom(a.ctx, b.Name); err != nil {
		a.setMessage(MessageError, err.Error())
		return
	}
	if a.refresh(b.Name) != nil {
		return
	}
	a.setMessage(MessageSuccess, b.Name+" moved to bottom.")
}

func (a *App) confirmDelete(name string) {
	a.deleteName = name
	a.deleteReturn = a.mode
	a.mode = ModeConfirmDelete
}

func (a *App) deleteConfirmed() {
	name := a.deleteName
	a.mode = a.deleteReturn
	a.deleteName = ""

	if err := a.store.Delete(a.ctx, name); err != nil {
		a.setMessage(MessageError, err.Error())
		return
	}
	a.check.DropBundle(name)
	if a.refresh("") != nil {
		return
	}
	a.setMessage(MessageSuccess, name+" deleted.")
}

func (a App) startAdd() (tea.Model, tea.Cmd) {
	a.form.Reset()
	a.mode = ModeAdd
	return a, a.form.FocusField(FieldName)
}

func (a App) startEdit() (tea.Model, tea.Cmd) {
	b := a.selected()
	if b == nil {
		return a, nil
	}

	a.form.Reset()
	a.form.Load(*b)
	a.mode = ModeEdit
	return a, a.form.FocusField(FieldName)
}

// submitForm validates the form and adds or updates the bundle. Field errors
// keep the modal open with the messages shown under their fields.
func (a App) submitForm() (tea.Model, tea.Cmd) {
	b, err := model.ParseForm(a.form.Value())
	if err == nil {
		if a.form.Editing() {
			err = a.store.Update(a.ctx, a.form.EditName, model.Patch{
				Name:        &b.Name,
				Description: &b.Description,
				URLs:        b.URLs,
			})
		} else {
			err = a.store.Add(a.ctx, b)
		}
	}

	if err != nil {
		if fields := bundleerrors.FieldErrors(err); fields != nil {
			a.form.Errors = fields
			a.setMessage(MessageError, "Please fix the highlighted fields.")
			return a, nil
		}
		a.form.Errors = nil
		a.setMessage(MessageError, err.Error())
		return a, nil
	}

	verb := "added"
	if a.form.Editing() {
		verb = "edited"
	}
	a.form.Reset()
	a.mode = ModeNormal
	if a.refresh(b.Name) != nil {
		return a, nil
	}
	a.setMessage(MessageSuccess, fmt.Sprintf("%s %s with %s", b.Name, verb, present.ItemCount(b)))
	return a, nil
}

// checkProgressMsg reports progress of the running link check.
type checkProgressMsg struct {
	run       int
	completed int
	total     int
}

// checkDoneMsg carries the results of a finished link check.
type checkDoneMsg struct {
	run     int
	results []culler.Result
}

// startCheck checks every URL of every bundle in the background.
func (a App) startCheck() (tea.Model, tea.Cmd) {
	total := 0
	for _, b := range a.bundles {
		total += len(b.URLs)
	}
	if total == 0 {
		a.setMessage(MessageInfo, "No URLs to check.")
		return a, nil
	}

	a.checkRuns++
	run := a.checkRuns

	// Buffered for every URL so workers never block on a slow UI.
	progress := make(chan checkProgressMsg, total)
	ctx, cancel := context.WithCancel(a.ctx)

	opts := a.checkOpts
	opts.OnProgress = func(completed, n int) {
		progress <- checkProgressMsg{run: run, completed: completed, total: n}
	}

	a.check.Reset()
	a.check.run = run
	a.check.Total = total
	a.check.progress = progress
	a.check.cancel = cancel
	a.mode = ModeCheckLoading
	a.log.Info("link check started", logger.Int("urls", total))

	bundles := a.bundles
	check := func() tea.Msg {
		results := culler.CheckBundles(ctx, bundles, opts)
		close(progress)
		return checkDoneMsg{run: run, results: results}
	}
	return a, tea.Batch(check, waitForProgress(progress))
}

func waitForProgress(ch <-chan checkProgressMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return msg
	}
}

func (a App) handleCheckProgress(msg checkProgressMsg) (tea.Model, tea.Cmd) {
	if a.mode != ModeCheckLoading || msg.run != a.check.run {
		return a, nil
	}
	a.check.Progress = msg.completed
	return a, waitForProgress(a.check.progress)
}

func (a App) handleCheckDone(msg checkDoneMsg) (tea.Model, tea.Cmd) {
	if a.mode != ModeCheckLoading || msg.run != a.check.run {
		return a, nil
	}
	if a.check.cancel != nil {
		a.check.cancel()
		a.check.cancel = nil
	}

	a.check.Problems = culler.Problems(msg.results)
	a.check.Summary = culler.Summarize(msg.results)
	a.check.Progress = a.check.Total
	a.check.Cursor = 0
	a.mode = ModeCheckResults
	a.log.Info("link check finished",
		logger.Int("healthy", a.check.Summary.Healthy),
		logger.Int("dead", a.check.Summary.Dead),
		logger.Int("unreachable", a.check.Summary.Unreachable))
	return a, nil
}
