package tui_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bundles/internal/config"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/storage"
	"github.com/nikbrunner/bundles/internal/tui"
)

// recorder captures what the app hands to the browser and the clipboard.
type recorder struct {
	opened []string
	copied string
}

func testBundles() []model.Bundle {
	return []model.Bundle{
		{Name: "GitHub", Description: "code hosting", URLs: []string{"https://github.com", "https://github.com/notifications"}, LastUpdated: 3000},
		{Name: "Weather", URLs: []string{"https://weather.example"}, LastUpdated: 2000},
		{Name: "Work", Description: "daily tools", URLs: []string{"https://jira.example"}, Pinned: true, LastUpdated: 1000},
	}
}

func newTestStore(t *testing.T, bundles []model.Bundle) *storage.Store {
	t.Helper()
	ms := int64(10_000)
	store := storage.NewStore(storage.NewMemoryBackend(), storage.WithClock(func() time.Time {
		ms += 1000
		return time.UnixMilli(ms)
	}))
	if bundles != nil {
		assert.NilError(t, store.Save(context.Background(), bundles))
	}
	return store
}

func newTestApp(t *testing.T, bundles []model.Bundle) (tui.App, *storage.Store, *recorder) {
	t.Helper()
	store := newTestStore(t, bundles)
	rec := &recorder{}
	app := tui.NewApp(tui.AppParams{
		Store: store,
		OpenURL: func(u string) error {
			rec.opened = append(rec.opened, u)
			return nil
		},
		Clipboard: func(s string) error {
			rec.copied = s
			return nil
		},
	})
	return app, store, rec
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends each key to the app in turn.
func press(app tui.App, keys ...string) tui.App {
	for _, k := range keys {
		updated, _ := app.Update(keyMsg(k))
		app = updated.(tui.App)
	}
	return app
}

// typeText sends s one rune at a time, the way a terminal delivers it.
func typeText(app tui.App, s string) tui.App {
	for _, r := range s {
		updated, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		app = updated.(tui.App)
	}
	return app
}

func itemNames(app tui.App) []string {
	var names []string
	for _, item := range app.Items() {
		names = append(names, item.Bundle.Name)
	}
	return names
}

func itemSections(app tui.App) []tui.Section {
	var sections []tui.Section
	for _, item := range app.Items() {
		sections = append(sections, item.Section)
	}
	return sections
}

func message(app tui.App) string {
	text, _ := app.Message()
	return text
}

func TestApp_PinnedBundlesListedFirst(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	assert.DeepEqual(t, itemNames(app), []string{"Work", "GitHub", "Weather"})
	assert.DeepEqual(t, itemSections(app), []tui.Section{tui.SectionPinned, tui.SectionBundles, tui.SectionBundles})
	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, app.Cursor(), 0)
}

func TestApp_NavigationJK(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "j")
	assert.Equal(t, app.Cursor(), 1)

	app = press(app, "j", "j", "j")
	assert.Equal(t, app.Cursor(), 2, "cursor stops at the last item")

	app = press(app, "k")
	assert.Equal(t, app.Cursor(), 1)

	app = press(app, "k", "k", "k")
	assert.Equal(t, app.Cursor(), 0, "cursor stops at the first item")
}

func TestApp_NavigationGG(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "G")
	assert.Equal(t, app.Cursor(), 2)

	app = press(app, "g")
	assert.Equal(t, app.Cursor(), 2, "single g waits for the second")

	app = press(app, "g")
	assert.Equal(t, app.Cursor(), 0)
}

func TestApp_SearchShowsFlatResults(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "/")
	assert.Equal(t, app.Mode(), tui.ModeSearch)

	app = typeText(app, "weather")
	assert.Equal(t, app.Query(), "weather")
	assert.DeepEqual(t, itemNames(app), []string{"Weather"})
	assert.DeepEqual(t, itemSections(app), []tui.Section{tui.SectionResults})

	app = press(app, "enter")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, app.Query(), "weather", "enter keeps the query")

	app = press(app, "esc")
	assert.Equal(t, app.Query(), "")
	assert.Equal(t, len(app.Items()), 3)
	assert.Equal(t, app.Items()[app.Cursor()].Bundle.Name, "Weather", "cursor follows the selected bundle")
}

func TestApp_ShortQueryKeepsSections(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "/")
	app = typeText(app, "w")

	assert.DeepEqual(t, itemNames(app), []string{"Work", "Weather"})
	assert.DeepEqual(t, itemSections(app), []tui.Section{tui.SectionPinned, tui.SectionBundles})
}

func TestApp_ThresholdFromConfig(t *testing.T) {
	store := newTestStore(t, testBundles())
	cfg := config.Default(t.TempDir())
	cfg.IgnorePinThreshold = 0

	app := tui.NewApp(tui.AppParams{Store: store, Config: cfg})
	app = press(app, "/")
	app = typeText(app, "w")

	assert.DeepEqual(t, itemSections(app), []tui.Section{tui.SectionResults, tui.SectionResults})
}

func TestApp_SearchEscRestoresList(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "/")
	app = typeText(app, "zzzz")
	assert.Equal(t, len(app.Items()), 0)

	app = press(app, "esc")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, app.Query(), "")
	assert.Equal(t, len(app.Items()), 3)
}

func TestApp_OpenAllURLs(t *testing.T) {
	app, _, rec := newTestApp(t, testBundles())

	app = press(app, "j", "enter")

	assert.DeepEqual(t, rec.opened, []string{"https://github.com", "https://github.com/notifications"})
	assert.Equal(t, message(app), "Opened 2 URLs of GitHub.")
}

func TestApp_OpenReportsBrowserError(t *testing.T) {
	store := newTestStore(t, testBundles())
	app := tui.NewApp(tui.AppParams{
		Store:   store,
		OpenURL: func(string) error { return errors.New("no browser") },
	})

	app = press(app, "o")

	text, kind := app.Message()
	assert.Equal(t, kind, tui.MessageError)
	assert.Check(t, is.Contains(text, "no browser"))
}

func TestApp_CopyURLs(t *testing.T) {
	app, _, rec := newTestApp(t, testBundles())

	app = press(app, "j", "y")

	assert.Equal(t, rec.copied, "https://github.com\nhttps://github.com/notifications")
	assert.Equal(t, message(app), "Copied 2 URLs of GitHub.")
}

func TestApp_AddBundle(t *testing.T) {
	app, store, _ := newTestApp(t, testBundles())

	app = press(app, "a")
	assert.Equal(t, app.Mode(), tui.ModeAdd)

	app = typeText(app, "Docs")
	app = press(app, "tab")
	app = typeText(app, "reference")
	app = press(app, "tab")
	app = typeText(app, "https://go.dev")
	app = press(app, "enter")
	assert.Equal(t, app.Mode(), tui.ModeAdd, "enter in the URL list adds a line")
	app = typeText(app, "https://pkg.go.dev")
	app = press(app, "ctrl+s")

	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, message(app), "Docs added with 2 items")

	got, err := store.Get(context.Background(), "Docs")
	assert.NilError(t, err)
	assert.Equal(t, got.Description, "reference")
	assert.DeepEqual(t, got.URLs, []string{"https://go.dev", "https://pkg.go.dev"})

	assert.DeepEqual(t, itemNames(app), []string{"Work", "Docs", "GitHub", "Weather"})
	assert.Equal(t, app.Cursor(), 1, "cursor moves to the new bundle")
}

func TestApp_AddShowsFieldErrors(t *testing.T) {
	app, store, _ := newTestApp(t, testBundles())

	app = press(app, "a", "ctrl+s")

	assert.Equal(t, app.Mode(), tui.ModeAdd)
	assert.Equal(t, app.FormErrors()[model.FieldName], "Name is required.")
	assert.Equal(t, app.FormErrors()[model.FieldURLs], "Add at least one URL.")

	all, err := store.GetAll(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(all), 3)
}

func TestApp_AddDuplicateName(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "a")
	app = typeText(app, "GitHub")
	app = press(app, "tab", "tab")
	app = typeText(app, "https://example.com")
	app = press(app, "ctrl+s")

	assert.Equal(t, app.Mode(), tui.ModeAdd)
	assert.Equal(t, app.FormErrors()[model.FieldName], model.MsgNameTaken)
}

func TestApp_AddCancel(t *testing.T) {
	app, store, _ := newTestApp(t, testBundles())

	app = press(app, "a")
	app = typeText(app, "Draft")
	app = press(app, "esc")

	assert.Equal(t, app.Mode(), tui.ModeNormal)
	_, err := store.Get(context.Background(), "Draft")
	assert.Assert(t, err != nil)
}

func TestApp_EditBundle(t *testing.T) {
	app, store, _ := newTestApp(t, testBundles())

	app = press(app, "j", "j", "e")
	assert.Equal(t, app.Mode(), tui.ModeEdit)

	app = press(app, "tab")
	app = typeText(app, "forecast")
	app = press(app, "enter")

	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, message(app), "Weather edited with 1 item")

	got, err := store.Get(context.Background(), "Weather")
	assert.NilError(t, err)
	assert.Equal(t, got.Description, "forecast")

	assert.DeepEqual(t, itemNames(app), []string{"Work", "Weather", "GitHub"})
	assert.Equal(t, app.Cursor(), 1)
}

func TestApp_EditRename(t *testing.T) {
	app, store, _ := newTestApp(t, testBundles())

	app = press(app, "j", "e")
	app = typeText(app, " Pro")
	app = press(app, "enter")

	assert.Equal(t, app.Mode(), tui.ModeNormal)
	_, err := store.Get(context.Background(), "GitHub Pro")
	assert.NilError(t, err)
	_, err = store.Get(context.Background(), "GitHub")
	assert.Assert(t, err != nil, "old name is gone")
	assert.Equal(t, app.Items()[app.Cursor()].Bundle.Name, "GitHub Pro")
}

func TestApp_DeleteWithConfirmation(t *testing.T) {
	app, store, _ := newTestApp(t, testBundles())

	app = press(app, "d")
	assert.Equal(t, app.Mode(), tui.ModeConfirmDelete)

	app = press(app, "esc")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, len(app.Items()), 3, "cancel keeps the bundle")

	app = press(app, "d", "enter")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, message(app), "Work deleted.")
	assert.DeepEqual(t, itemNames(app), []string{"GitHub", "Weather"})

	all, err := store.GetAll(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, len(all), 2)
}

func TestApp_TogglePin(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "j", "*")
	assert.Equal(t, message(app), "GitHub pinned.")
	assert.DeepEqual(t, itemNames(app), []string{"GitHub", "Work", "Weather"})
	assert.DeepEqual(t, itemSections(app), []tui.Section{tui.SectionPinned, tui.SectionPinned, tui.SectionBundles})
	assert.Equal(t, app.Cursor(), 0, "cursor follows the bundle")

	app = press(app, "*")
	assert.Equal(t, message(app), "GitHub unpinned.")
	assert.DeepEqual(t, itemNames(app), []string{"Work", "GitHub", "Weather"})
}

func TestApp_MoveToBottomAndTop(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "j", "b")
	assert.Equal(t, message(app), "GitHub moved to bottom.")
	assert.DeepEqual(t, itemNames(app), []string{"Work", "Weather", "GitHub"})
	assert.Equal(t, app.Cursor(), 2)

	app = press(app, "t")
	assert.Equal(t, message(app), "GitHub moved to top.")
	assert.DeepEqual(t, itemNames(app), []string{"Work", "GitHub", "Weather"})
	assert.Equal(t, app.Cursor(), 1)
}

func TestApp_Reload(t *testing.T) {
	app, store, _ := newTestApp(t, testBundles())

	assert.NilError(t, store.Add(context.Background(), model.Bundle{Name: "News", URLs: []string{"https://news.example"}}))
	app = press(app, "r")

	assert.Equal(t, message(app), "Reloaded 4 bundles.")
	assert.Equal(t, len(app.Items()), 4)
}

func TestApp_HelpToggle(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	app = press(app, "?")
	assert.Equal(t, app.Mode(), tui.ModeHelp)

	app = press(app, "?")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
}

func TestApp_Quit(t *testing.T) {
	app, _, _ := newTestApp(t, testBundles())

	_, cmd := app.Update(keyMsg("q"))
	assert.Assert(t, cmd != nil)
	_, ok := cmd().(tea.QuitMsg)
	assert.Assert(t, ok, "q quits")
}

func TestApp_EmptyStore(t *testing.T) {
	app, _, rec := newTestApp(t, nil)

	assert.Equal(t, len(app.Items()), 0)
	app = press(app, "j", "enter", "y", "*", "d", "e")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, len(rec.opened), 0)
}

func TestApp_CorruptStoreShowsError(t *testing.T) {
	backend := storage.NewMemoryBackend()
	assert.NilError(t, backend.Set(context.Background(), storage.BundleKey, []byte("{not json")))

	app := tui.NewApp(tui.AppParams{Store: storage.NewStore(backend)})

	_, kind := app.Message()
	assert.Equal(t, kind, tui.MessageError)
	assert.Equal(t, len(app.Items()), 0)
}

func TestApp_ConfigErrorShownAsWarning(t *testing.T) {
	store := newTestStore(t, testBundles())

	app := tui.NewApp(tui.AppParams{Store: store, ConfigErr: errors.New("ignore_pin_threshold must be a number")})

	text, kind := app.Message()
	assert.Equal(t, kind, tui.MessageWarning)
	assert.Equal(t, text, "ignore_pin_threshold must be a number")
}

func newCheckServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// runCheck drives a link check to completion and feeds the result back.
func runCheck(t *testing.T, app tui.App, cmd tea.Cmd) tui.App {
	t.Helper()
	assert.Assert(t, cmd != nil)
	batch, ok := cmd().(tea.BatchMsg)
	assert.Assert(t, ok, "check runs alongside a progress listener")
	assert.Assert(t, is.Len(batch, 2))

	done := batch[0]()
	updated, _ := app.Update(done)
	return updated.(tui.App)
}

func TestApp_CheckLinks(t *testing.T) {
	srv := newCheckServer(t)
	app, store, _ := newTestApp(t, []model.Bundle{
		{Name: "Live", URLs: []string{srv.URL + "/ok"}, LastUpdated: 2000},
		{Name: "Stale", URLs: []string{srv.URL + "/gone"}, LastUpdated: 1000},
	})

	updated, cmd := app.Update(keyMsg("C"))
	app = updated.(tui.App)
	assert.Equal(t, app.Mode(), tui.ModeCheckLoading)

	app = runCheck(t, app, cmd)
	assert.Equal(t, app.Mode(), tui.ModeCheckResults)
	assert.Equal(t, len(app.CheckProblems()), 1)
	assert.Equal(t, app.CheckProblems()[0].Bundle, "Stale")
	assert.Equal(t, app.CheckProblems()[0].StatusCode, http.StatusNotFound)

	app = press(app, "d")
	assert.Equal(t, app.Mode(), tui.ModeConfirmDelete)
	app = press(app, "enter")
	assert.Equal(t, app.Mode(), tui.ModeCheckResults, "delete returns to the results")
	assert.Equal(t, len(app.CheckProblems()), 0)

	_, err := store.Get(context.Background(), "Stale")
	assert.Assert(t, err != nil)

	app = press(app, "esc")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
}

func TestApp_CheckCancelled(t *testing.T) {
	srv := newCheckServer(t)
	app, _, _ := newTestApp(t, []model.Bundle{
		{Name: "Live", URLs: []string{srv.URL + "/ok"}, LastUpdated: 1000},
	})

	updated, cmd := app.Update(keyMsg("C"))
	app = updated.(tui.App)
	app = press(app, "esc")
	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, message(app), "Link check cancelled.")

	app = runCheck(t, app, cmd)
	assert.Equal(t, app.Mode(), tui.ModeNormal, "results of a cancelled run are dropped")
}

func TestApp_CheckWithoutURLs(t *testing.T) {
	app, _, _ := newTestApp(t, nil)

	app = press(app, "C")

	assert.Equal(t, app.Mode(), tui.ModeNormal)
	assert.Equal(t, message(app), "No URLs to check.")
}
