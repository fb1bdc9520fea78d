package tui

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nikbrunner/bundles/internal/browser"
	"github.com/nikbrunner/bundles/internal/config"
	"github.com/nikbrunner/bundles/internal/culler"
	"github.com/nikbrunner/bundles/internal/logger"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/present"
	"github.com/nikbrunner/bundles/internal/search"
	"github.com/nikbrunner/bundles/internal/storage"
	"github.com/nikbrunner/bundles/internal/tui/layout"
)

// Mode is the interaction mode of the App.
type Mode int

const (
	ModeNormal Mode = iota
	ModeSearch
	ModeAdd
	ModeEdit
	ModeConfirmDelete
	ModeCheckLoading
	ModeCheckResults
	ModeHelp
)

// MessageType selects the styling of the status line message.
type MessageType int

const (
	MessageInfo MessageType = iota
	MessageSuccess
	MessageWarning
	MessageError
)

// App is the main bubbletea model for the bundle manager.
type App struct {
	store        *storage.Store
	ctx          context.Context
	log          logger.Logger
	keys         KeyMap
	styles       Styles
	layoutConfig layout.LayoutConfig

	threshold  int
	searchOpts search.Options
	checkOpts  culler.Options
	openURL    func(string) error
	copyText   func(string) error

	mode     Mode
	bundles  []model.Bundle // everything in the store, newest first
	sections present.Sections
	items    []Item // rows in display order
	cursor   int

	search    SearchState
	form      FormState
	check     CheckState
	checkRuns int // numbers link checks so messages of a cancelled run are ignored

	// Delete confirmation
	deleteName   string
	deleteReturn Mode

	messageText string
	messageType MessageType

	// For gg command
	lastKeyWasG bool

	// Window dimensions
	width  int
	height int
}

// AppParams holds parameters for creating a new App.
type AppParams struct {
	Store *storage.Store
	// Context bounds store calls. Defaults to context.Background().
	Context context.Context
	// Config supplies the pin threshold, case sensitivity and link check
	// settings. Defaults apply when nil.
	Config *config.Config
	// ConfigErr is shown on the status line at startup.
	ConfigErr    error
	Logger       logger.Logger
	OpenURL      func(string) error   // optional, defaults to browser.Open
	Clipboard    func(string) error   // optional, defaults to the system clipboard
	Keys         *KeyMap              // optional, uses default if nil
	Styles       *Styles              // optional, uses default if nil
	LayoutConfig *layout.LayoutConfig // optional, uses default if nil
}

// NewApp creates a new App with the given parameters and loads the bundles.
func NewApp(params AppParams) App {
	keys := DefaultKeyMap()
	if params.Keys != nil {
		keys = *params.Keys
	}

	styles := DefaultStyles()
	if params.Styles != nil {
		styles = *params.Styles
	}

	layoutCfg := layout.DefaultConfig()
	if params.LayoutConfig != nil {
		layoutCfg = *params.LayoutConfig
	}

	ctx := params.Context
	if ctx == nil {
		ctx = context.Background()
	}

	log := params.Logger
	if log == nil {
		log = logger.Nop()
	}

	openURL := params.OpenURL
	if openURL == nil {
		openURL = browser.Open
	}

	copyText := params.Clipboard
	if copyText == nil {
		copyText = clipboard.WriteAll
	}

	app := App{
		store:        params.Store,
		ctx:          ctx,
		log:          log,
		keys:         keys,
		styles:       styles,
		layoutConfig: layoutCfg,
		threshold:    present.DefaultIgnorePinThreshold,
		checkOpts: culler.Options{
			Concurrency:    config.DefaultCheckConcurrency,
			Timeout:        config.DefaultCheckTimeout,
			ExcludeDomains: []string{"github.com", "gitlab.com"},
		},
		openURL:  openURL,
		copyText: copyText,
		search:   NewSearchState(layoutCfg),
		form:     NewFormState(layoutCfg),
		width:    80,
		height:   24,
	}

	if cfg := params.Config; cfg != nil {
		app.threshold = cfg.IgnorePinThreshold
		app.searchOpts.CaseSensitive = cfg.CaseSensitive
		app.checkOpts.Concurrency = cfg.Check.Concurrency
		app.checkOpts.Timeout = cfg.Check.Timeout
		app.checkOpts.ExcludeDomains = cfg.Check.ExcludeDomains
	}

	if err := app.reload(); err == nil && params.ConfigErr != nil {
		app.setMessage(MessageWarning, params.ConfigErr.Error())
	}
	return app
}

// reload reads every bundle from the store, keeping the cursor on the
// selected bundle.
func (a *App) reload() error {
	return a.refresh(a.selectedName())
}

// rebuild ranks the bundles against the current query and lays them out.
// The cursor follows the bundle called keep when it is still listed.
func (a *App) rebuild(keep string) {
	a.sections = present.Build(a.search.Query, a.bundles, a.threshold, a.searchOpts)
	a.items = itemsFromSections(a.sections)

	if keep != "" {
		for i, item := range a.items {
			if item.Bundle.Name == keep {
				a.cursor = i
				return
			}
		}
	}
	a.cursor = min(a.cursor, max(len(a.items)-1, 0))
}

// selected returns the bundle under the cursor, or nil on an empty list.
func (a App) selected() *model.Bundle {
	if a.cursor < 0 || a.cursor >= len(a.items) {
		return nil
	}
	b := a.items[a.cursor].Bundle
	return &b
}

func (a App) selectedName() string {
	if b := a.selected(); b != nil {
		return b.Name
	}
	return ""
}

func (a *App) setMessage(t MessageType, text string) {
	a.messageType = t
	a.messageText = text
}

func (a *App) clearMessage() {
	a.messageText = ""
}

// WithDimensions returns a copy of the app sized to width x height.
func (a App) WithDimensions(width, height int) App {
	a.width = width
	a.height = height
	return a
}

// Mode returns the current interaction mode.
func (a App) Mode() Mode {
	return a.mode
}

// Cursor returns the current cursor position.
func (a App) Cursor() int {
	return a.cursor
}

// Items returns the rows currently listed.
func (a App) Items() []Item {
	return a.items
}

// Query returns the active search query.
func (a App) Query() string {
	return a.search.Query
}

// Message returns the status line message and its type.
func (a App) Message() (string, MessageType) {
	return a.messageText, a.messageType
}

// FormErrors returns the field errors of the open form.
func (a App) FormErrors() map[string]string {
	return a.form.Errors
}

// CheckProblems returns the dead and unreachable URLs of the last link check.
func (a App) CheckProblems() []culler.Result {
	return a.check.Problems
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case checkProgressMsg:
		return a.handleCheckProgress(msg)

	case checkDoneMsg:
		return a.handleCheckDone(msg)

	case tea.KeyMsg:
		switch a.mode {
		case ModeSearch:
			return a.updateSearch(msg)
		case ModeAdd, ModeEdit:
			return a.updateForm(msg)
		case ModeConfirmDelete:
			return a.updateConfirmDelete(msg)
		case ModeCheckLoading:
			return a.updateCheckLoading(msg)
		case ModeCheckResults:
			return a.updateCheckResults(msg)
		case ModeHelp:
			return a.updateHelp(msg)
		default:
			return a.updateNormal(msg)
		}
	}

	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	return a.renderView()
}
