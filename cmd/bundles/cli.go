package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/nikbrunner/bundles/internal/browser"
	"github.com/nikbrunner/bundles/internal/config"
	"github.com/nikbrunner/bundles/internal/culler"
	"github.com/nikbrunner/bundles/internal/exporter"
	"github.com/nikbrunner/bundles/internal/httpapi"
	"github.com/nikbrunner/bundles/internal/importer"
	"github.com/nikbrunner/bundles/internal/logger"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/picker"
	"github.com/nikbrunner/bundles/internal/present"
	"github.com/nikbrunner/bundles/internal/search"
	"github.com/nikbrunner/bundles/internal/storage"
	"github.com/nikbrunner/bundles/internal/tui"
)

// env carries what commands share. Tests fill store and cfg up front so
// nothing touches the user's config directory.
type env struct {
	stdout io.Writer
	stderr io.Writer
	stdin  io.Reader

	cfg    *config.Config
	cfgErr error
	log    logger.Logger
	// restoreLog undoes the global log redirect made in setup.
	restoreLog func()
	store      *storage.Store
	backend    storage.Backend

	openURL  func(string) error
	copyText func(string) error
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(e *env) *cli.App {
	app := &cli.App{
		Name:      "bundles",
		Usage:     "Named collections of links, searchable from the terminal",
		UsageText: "bundles [query]\n   bundles <command> [options]",
		Version:   Version,
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, EnvVars: []string{"BUNDLES_CONFIG"}, Usage: "Path to config.toml"},
		},
		Before: e.setup,
		After:  e.teardown,
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return e.pick(c, strings.Join(c.Args().Slice(), " "))
			}
			return e.runTUI(c)
		},
		Commands: []*cli.Command{
			searchCmd(e),
			pickCmd(e),
			listCmd(e),
			addCmd(e),
			editCmd(e),
			rmCmd(e),
			pinCmd(e, true),
			pinCmd(e, false),
			topCmd(e),
			bottomCmd(e),
			openCmd(e),
			copyCmd(e),
			importCmd(e),
			exportCmd(e),
			checkCmd(e),
			serveCmd(e),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// setup loads the config, the logger and the store.
func (e *env) setup(c *cli.Context) error {
	if e.log == nil {
		e.log = logger.Nop()
	}
	if e.store != nil {
		if e.cfg == nil {
			e.cfg = config.Default("")
		}
		return nil
	}

	path := c.String("config")
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if cfg == nil {
		return err
	}
	e.cfg, e.cfgErr = cfg, err

	// The TUI shows config problems on its status line.
	if e.cfgErr != nil && c.NArg() > 0 {
		fmt.Fprintf(e.stderr, "Warning: %v\n", e.cfgErr)
	}

	log, err := logger.New(logger.Options{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		File:   cfg.Log.File,
	})
	if err != nil {
		fmt.Fprintf(e.stderr, "Warning: logging disabled: %v\n", err)
		log = logger.Nop()
	}
	e.log = log
	e.restoreLog = logger.RedirectStdLog(log)

	backend, err := storage.Open(c.Context, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}
	e.backend = backend
	e.store = storage.NewStore(backend, storage.WithLogger(log))
	return nil
}

func (e *env) teardown(_ *cli.Context) error {
	if e.restoreLog != nil {
		e.restoreLog()
	}
	if e.log != nil {
		_ = e.log.Sync()
	}
	if e.backend != nil {
		return e.backend.Close()
	}
	return nil
}

func (e *env) searchOptions() search.Options {
	return search.Options{CaseSensitive: e.cfg.CaseSensitive}
}

// sections ranks the store's bundles against query.
func (e *env) sections(c *cli.Context, query string) (present.Sections, error) {
	all, err := e.store.GetAll(c.Context)
	if err != nil {
		return present.Sections{}, err
	}
	return present.Build(query, all, e.cfg.IgnorePinThreshold, e.searchOptions()), nil
}

func (e *env) runTUI(c *cli.Context) error {
	app := tui.NewApp(tui.AppParams{
		Store:     e.store,
		Context:   c.Context,
		Config:    e.cfg,
		ConfigErr: e.cfgErr,
		Logger:    e.log,
		OpenURL:   e.openURL,
		Clipboard: e.copyText,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(c.Context))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// pick ranks bundles against query and opens the chosen one. A single match
// opens without asking.
func (e *env) pick(c *cli.Context, query string) error {
	sections, err := e.sections(c, query)
	if err != nil {
		return err
	}

	var chosen *model.Bundle
	switch sections.Len() {
	case 0:
		fmt.Fprintf(e.stdout, "No bundles found for '%s'\n", query)
		return nil
	case 1:
		chosen = &sections.All[0]
	default:
		program := tea.NewProgram(picker.New(sections, query), tea.WithContext(c.Context))
		final, err := program.Run()
		if err != nil {
			return fmt.Errorf("run picker: %w", err)
		}
		chosen = final.(picker.Picker).SelectedBundle()
	}

	if chosen == nil {
		return nil
	}
	return e.open(*chosen)
}

func (e *env) open(b model.Bundle) error {
	fmt.Fprintf(e.stdout, "Opening: %s\n", b.Name)
	n, err := browser.OpenAll(e.openURL, b.URLs)
	if err != nil {
		return err
	}
	e.log.Info("bundle opened", logger.String("name", b.Name), logger.Int("urls", n))
	return nil
}

// bundleName joins the positional arguments, so quoting is optional.
func bundleName(c *cli.Context) (string, error) {
	name := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if name == "" {
		return "", errors.New("missing bundle name")
	}
	return name, nil
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBundle(w io.Writer, b model.Bundle) {
	fmt.Fprintf(w, "  %-32s %s\n", b.Name, present.Accessory(b))
}

// printSections writes the pinned and unpinned sections, or the flat list.
func printSections(w io.Writer, s present.Sections) {
	if s.Len() == 0 {
		fmt.Fprintln(w, "No bundles.")
		return
	}
	if s.Flat {
		for _, b := range s.All {
			printBundle(w, b)
		}
		return
	}
	if len(s.Pinned) > 0 {
		fmt.Fprintln(w, "Pinned")
		for _, b := range s.Pinned {
			printBundle(w, b)
		}
	}
	if len(s.Unpinned) > 0 {
		fmt.Fprintln(w, "Bundles")
		for _, b := range s.Unpinned {
			printBundle(w, b)
		}
	}
}

func searchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Aliases:   []string{"s"},
		Usage:     "Rank bundles against a query",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the sections as JSON"},
		},
		Action: func(c *cli.Context) error {
			sections, err := e.sections(c, strings.Join(c.Args().Slice(), " "))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return outputJSON(e.stdout, sections)
			}
			printSections(e.stdout, sections)
			return nil
		},
	}
}

func pickCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "pick",
		Usage:     "Search, choose one bundle and open all of its URLs",
		ArgsUsage: "<query>",
		Action: func(c *cli.Context) error {
			return e.pick(c, strings.Join(c.Args().Slice(), " "))
		},
	}
}

func listCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List every bundle, pinned first",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the bundles as JSON"},
		},
		Action: func(c *cli.Context) error {
			all, err := e.store.GetAll(c.Context)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return outputJSON(e.stdout, all)
			}
			printSections(e.stdout, present.Partition("", all, e.cfg.IgnorePinThreshold))
			return nil
		},
	}
}

func addCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a bundle",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "Bundle name"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Description"},
			&cli.StringSliceFlag{Name: "url", Aliases: []string{"u"}, Usage: "URL (repeatable)"},
			&cli.BoolFlag{Name: "pin", Usage: "Pin the bundle"},
		},
		Action: func(c *cli.Context) error {
			b, err := model.ParseForm(model.FormBundle{
				Name:        c.String("name"),
				Description: c.String("description"),
				URLs:        strings.Join(c.StringSlice("url"), model.URLSeparator),
				Pinned:      c.Bool("pin"),
			})
			if err != nil {
				return err
			}
			if err := e.store.Add(c.Context, b); err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "%s added with %s\n", b.Name, present.ItemCount(b))
			return nil
		},
	}
}

func editCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Change a bundle; omitted fields are kept",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Usage: "New name"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "New description"},
			&cli.StringSliceFlag{Name: "url", Aliases: []string{"u"}, Usage: "Replacement URL list (repeatable)"},
		},
		Action: func(c *cli.Context) error {
			name, err := bundleName(c)
			if err != nil {
				return err
			}

			var patch model.Patch
			newName := name
			if c.IsSet("name") {
				newName = strings.TrimSpace(c.String("name"))
				patch.Name = &newName
			}
			if c.IsSet("description") {
				desc := strings.TrimSpace(c.String("description"))
				patch.Description = &desc
			}
			if c.IsSet("url") {
				urls := []string{}
				for _, u := range c.StringSlice("url") {
					urls = append(urls, strings.TrimSpace(u))
				}
				patch.URLs = urls
			}

			if err := e.store.Update(c.Context, name, patch); err != nil {
				return err
			}
			b, err := e.store.Get(c.Context, newName)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "%s edited with %s\n", b.Name, present.ItemCount(b))
			return nil
		},
	}
}

func rmCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "rm",
		Aliases:   []string{"delete"},
		Usage:     "Delete a bundle",
		ArgsUsage: "<name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			name, err := bundleName(c)
			if err != nil {
				return err
			}
			// Fail early on a typo rather than asking about a bundle that is not there.
			if _, err := e.store.Get(c.Context, name); err != nil {
				return err
			}

			if !c.Bool("yes") && !e.confirm(fmt.Sprintf("Delete %s? This action cannot be undone. [y/N] ", name)) {
				fmt.Fprintln(e.stdout, "Cancelled.")
				return nil
			}
			if err := e.store.Delete(c.Context, name); err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "%s deleted.\n", name)
			return nil
		},
	}
}

func (e *env) confirm(prompt string) bool {
	fmt.Fprint(e.stdout, prompt)
	line, err := bufio.NewReader(e.stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func pinCmd(e *env, pinned bool) *cli.Command {
	name, usage, done := "pin", "Pin a bundle", "pinned"
	if !pinned {
		name, usage, done = "unpin", "Unpin a bundle", "unpinned"
	}
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			bundle, err := bundleName(c)
			if err != nil {
				return err
			}
			if err := e.store.SetPinned(c.Context, bundle, pinned); err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "%s %s.\n", bundle, done)
			return nil
		},
	}
}

func topCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "top",
		Usage:     "Move a bundle to the top of its section",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name, err := bundleName(c)
			if err != nil {
				return err
			}
			if err := e.store.MoveToTop(c.Context, name); err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "%s moved to top.\n", name)
			return nil
		},
	}
}

func bottomCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "bottom",
		Usage:     "Move a bundle to the bottom of its section",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name, err := bundleName(c)
			if err != nil {
				return err
			}
			if err := e.store.MoveToBottom(c.Context, name); err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "%s moved to bottom.\n", name)
			return nil
		},
	}
}

func openCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Aliases:   []string{"o"},
		Usage:     "Open every URL of a bundle in the browser",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name, err := bundleName(c)
			if err != nil {
				return err
			}
			b, err := e.store.Get(c.Context, name)
			if err != nil {
				return err
			}
			return e.open(b)
		},
	}
}

func copyCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy the URLs of a bundle to the clipboard, one per line",
		ArgsUsage: "<name>",
		Action: func(c *cli.Context) error {
			name, err := bundleName(c)
			if err != nil {
				return err
			}
			b, err := e.store.Get(c.Context, name)
			if err != nil {
				return err
			}
			if err := e.copyText(strings.Join(b.URLs, model.URLSeparator)); err != nil {
				return fmt.Errorf("copy: %w", err)
			}
			fmt.Fprintf(e.stdout, "Copied %s of %s.\n", present.ItemCount(b), b.Name)
			return nil
		},
	}
}

func importCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import bundles from a browser bookmark export (.html) or YAML file",
		ArgsUsage: "<file>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return errors.New("usage: bundles import <file.html|file.yaml>")
			}
			incoming, err := importer.ParseFile(c.Args().First())
			if err != nil {
				return err
			}
			added, skipped, err := e.store.Import(c.Context, incoming)
			if err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "Imported %d bundles", added)
			if skipped > 0 {
				fmt.Fprintf(e.stdout, " (%d with taken names skipped)", skipped)
			}
			fmt.Fprintln(e.stdout)
			return nil
		},
	}
}

func exportCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export bundles as bookmark HTML or YAML",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: exporter.FormatHTML, Usage: "html|yaml"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			if format != exporter.FormatHTML && format != exporter.FormatYAML {
				return fmt.Errorf("unsupported export format %q (expected html or yaml)", format)
			}

			path := c.Args().First()
			if path == "" {
				p, err := exporter.DefaultExportPath(format)
				if err != nil {
					return err
				}
				path = p
			}

			all, err := e.store.GetAll(c.Context)
			if err != nil {
				return err
			}
			if err := exporter.WriteFile(path, all, format); err != nil {
				return err
			}
			fmt.Fprintf(e.stdout, "Exported %d bundles to %s\n", len(all), path)
			return nil
		},
	}
}

func checkCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check every URL and report dead or unreachable ones",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the problems as JSON"},
		},
		Action: func(c *cli.Context) error {
			all, err := e.store.GetAll(c.Context)
			if err != nil {
				return err
			}

			results := culler.CheckBundles(c.Context, all, culler.Options{
				Concurrency:    e.cfg.Check.Concurrency,
				Timeout:        e.cfg.Check.Timeout,
				ExcludeDomains: e.cfg.Check.ExcludeDomains,
			})
			problems := culler.Problems(results)
			if c.Bool("json") {
				if problems == nil {
					problems = []culler.Result{}
				}
				return outputJSON(e.stdout, problems)
			}

			for _, r := range problems {
				label := strings.ToUpper(r.Status.String())
				if r.StatusCode != 0 {
					label = fmt.Sprintf("%s %d", label, r.StatusCode)
				}
				fmt.Fprintf(e.stdout, "%-16s %s  %s\n", label, r.Bundle, r.URL)
			}
			s := culler.Summarize(results)
			fmt.Fprintf(e.stdout, "Checked %d URLs: %d healthy, %d dead, %d unreachable\n",
				len(results), s.Healthy, s.Dead, s.Unreachable)
			return nil
		},
	}
}

func serveCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the bundle API on localhost",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (defaults to [server] addr)"},
		},
		Action: func(c *cli.Context) error {
			addr := c.String("addr")
			if addr == "" {
				addr = e.cfg.Server.Addr
			}

			// The server has the terminal to itself, so it logs there.
			log, err := logger.New(logger.Options{Level: e.cfg.Log.Level, Pretty: e.cfg.Log.Pretty})
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			srv := httpapi.New(addr, httpapi.Deps{
				Store:     e.store,
				Logger:    log,
				Threshold: e.cfg.IgnorePinThreshold,
				Search:    e.searchOptions(),
			})
			return srv.Run(c.Context)
		},
	}
}
