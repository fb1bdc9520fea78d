package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/nikbrunner/bundles/internal/config"
	bundleerrors "github.com/nikbrunner/bundles/internal/errors"
	"github.com/nikbrunner/bundles/internal/importer"
	"github.com/nikbrunner/bundles/internal/model"
	"github.com/nikbrunner/bundles/internal/present"
	"github.com/nikbrunner/bundles/internal/storage"
)

type testEnv struct {
	*env
	out    *bytes.Buffer
	opened []string
	copied string
}

func seedBundles() []model.Bundle {
	return []model.Bundle{
		{Name: "GitHub", Description: "code hosting", URLs: []string{"https://github.com", "https://github.com/notifications"}, LastUpdated: 3000},
		{Name: "Weather", URLs: []string{"https://weather.example"}, LastUpdated: 2000},
		{Name: "Work", Description: "daily tools", URLs: []string{"https://jira.example"}, Pinned: true, LastUpdated: 1000},
	}
}

// newTestEnv builds an env over an in-memory store seeded with bundles.
func newTestEnv(t *testing.T, bundles []model.Bundle) *testEnv {
	t.Helper()
	ms := int64(10_000)
	store := storage.NewStore(storage.NewMemoryBackend(), storage.WithClock(func() time.Time {
		ms += 1000
		return time.UnixMilli(ms)
	}))
	if bundles != nil {
		assert.NilError(t, store.Save(context.Background(), bundles))
	}

	te := &testEnv{out: &bytes.Buffer{}}
	te.env = &env{
		stdout: te.out,
		stderr: &bytes.Buffer{},
		stdin:  strings.NewReader(""),
		cfg:    config.Default(t.TempDir()),
		store:  store,
		openURL: func(u string) error {
			te.opened = append(te.opened, u)
			return nil
		},
		copyText: func(s string) error {
			te.copied = s
			return nil
		},
	}
	return te
}

func (te *testEnv) run(args ...string) error {
	te.out.Reset()
	return newCLIApp(te.env).Run(append([]string{"bundles"}, args...))
}

func (te *testEnv) get(t *testing.T, name string) (model.Bundle, error) {
	t.Helper()
	return te.store.Get(context.Background(), name)
}

func TestList(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("list"))

	out := te.out.String()
	assert.Check(t, is.Contains(out, "Pinned\n"))
	assert.Check(t, is.Contains(out, "Bundles\n"))
	assert.Check(t, strings.Index(out, "Work") < strings.Index(out, "GitHub"), "pinned first")
	assert.Check(t, is.Contains(out, "2 items"))
	assert.Check(t, is.Contains(out, "1 item *"))
}

func TestList_JSON(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("list", "--json"))

	var got []model.Bundle
	assert.NilError(t, json.Unmarshal(te.out.Bytes(), &got))
	assert.Equal(t, len(got), 3)
	assert.Equal(t, got[0].Name, "GitHub")
}

func TestList_Empty(t *testing.T) {
	te := newTestEnv(t, nil)

	assert.NilError(t, te.run("list"))
	assert.Equal(t, te.out.String(), "No bundles.\n")
}

func TestSearch_LongQueryIsFlat(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("search", "weather"))

	out := te.out.String()
	assert.Check(t, is.Contains(out, "Weather"))
	assert.Check(t, !strings.Contains(out, "Pinned"))
	assert.Check(t, !strings.Contains(out, "GitHub"))
}

func TestSearch_JSONSections(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("search", "--json", "w"))

	var got present.Sections
	assert.NilError(t, json.Unmarshal(te.out.Bytes(), &got))
	assert.Check(t, !got.Flat)
	assert.Equal(t, len(got.Pinned), 1)
	assert.Equal(t, got.Pinned[0].Name, "Work")
	assert.Equal(t, len(got.Unpinned), 1)
	assert.Equal(t, got.Unpinned[0].Name, "Weather")
}

func TestAdd(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("add", "--name", "Docs", "--description", "reference",
		"--url", "https://go.dev", "--url", " https://pkg.go.dev ", "--pin")
	assert.NilError(t, err)
	assert.Equal(t, te.out.String(), "Docs added with 2 items\n")

	got, err := te.get(t, "Docs")
	assert.NilError(t, err)
	assert.Check(t, got.Pinned)
	assert.DeepEqual(t, got.URLs, []string{"https://go.dev", "https://pkg.go.dev"})
}

func TestAdd_Invalid(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("add", "--name", "Docs")

	assert.Check(t, bundleerrors.Is(err, bundleerrors.ErrInvalidBundle))
	assert.Check(t, is.Contains(bundleerrors.FieldErrors(err), model.FieldURLs))
}

func TestAdd_DuplicateName(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("add", "--name", "GitHub", "--url", "https://example.com")

	assert.Equal(t, bundleerrors.FieldErrors(err)[model.FieldName], model.MsgNameTaken)
}

func TestEdit_KeepsOmittedFields(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("edit", "--description", "forecast", "Weather"))
	assert.Equal(t, te.out.String(), "Weather edited with 1 item\n")

	got, err := te.get(t, "Weather")
	assert.NilError(t, err)
	assert.Equal(t, got.Description, "forecast")
	assert.DeepEqual(t, got.URLs, []string{"https://weather.example"})
}

func TestEdit_Rename(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("edit", "--name", "Code", "GitHub"))

	_, err := te.get(t, "Code")
	assert.NilError(t, err)
	_, err = te.get(t, "GitHub")
	assert.Check(t, bundleerrors.Is(err, bundleerrors.ErrNotFound))
}

func TestEdit_Missing(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("edit", "--description", "x", "Nope")

	assert.Check(t, bundleerrors.Is(err, bundleerrors.ErrNotFound))
}

func TestRm(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		stdin   string
		deleted bool
	}{
		{name: "yes flag", args: []string{"rm", "--yes", "Weather"}, deleted: true},
		{name: "confirmed", args: []string{"rm", "Weather"}, stdin: "y\n", deleted: true},
		{name: "declined", args: []string{"rm", "Weather"}, stdin: "n\n", deleted: false},
		{name: "no answer", args: []string{"rm", "Weather"}, stdin: "", deleted: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(t, seedBundles())
			te.stdin = strings.NewReader(tt.stdin)

			assert.NilError(t, te.run(tt.args...))

			_, err := te.get(t, "Weather")
			if tt.deleted {
				assert.Check(t, bundleerrors.Is(err, bundleerrors.ErrNotFound))
				assert.Check(t, is.Contains(te.out.String(), "Weather deleted."))
			} else {
				assert.NilError(t, err)
				assert.Check(t, is.Contains(te.out.String(), "Cancelled."))
			}
		})
	}
}

func TestRm_Missing(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("rm", "--yes", "Nope")

	assert.Check(t, bundleerrors.Is(err, bundleerrors.ErrNotFound))
}

func TestPinUnpin(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("pin", "Weather"))
	assert.Equal(t, te.out.String(), "Weather pinned.\n")
	got, err := te.get(t, "Weather")
	assert.NilError(t, err)
	assert.Check(t, got.Pinned)

	assert.NilError(t, te.run("unpin", "Weather"))
	assert.Equal(t, te.out.String(), "Weather unpinned.\n")
	got, err = te.get(t, "Weather")
	assert.NilError(t, err)
	assert.Check(t, !got.Pinned)
}

func TestTopBottom(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("bottom", "GitHub"))
	assert.Equal(t, te.out.String(), "GitHub moved to bottom.\n")
	all, err := te.store.GetAll(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, all[len(all)-1].Name, "GitHub")

	assert.NilError(t, te.run("top", "GitHub"))
	all, err = te.store.GetAll(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, all[0].Name, "GitHub")
}

func TestMissingName(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("pin")

	assert.Error(t, err, "missing bundle name")
}

func TestOpen(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("open", "GitHub"))

	assert.DeepEqual(t, te.opened, []string{"https://github.com", "https://github.com/notifications"})
	assert.Equal(t, te.out.String(), "Opening: GitHub\n")
}

func TestOpen_BrowserError(t *testing.T) {
	te := newTestEnv(t, seedBundles())
	te.openURL = func(string) error { return errors.New("no browser") }

	err := te.run("open", "GitHub")

	assert.ErrorContains(t, err, "no browser")
}

func TestCopy(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("copy", "GitHub"))

	assert.Equal(t, te.copied, "https://github.com\nhttps://github.com/notifications")
	assert.Equal(t, te.out.String(), "Copied 2 items of GitHub.\n")
}

func TestPick_SingleMatchOpensDirectly(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("pick", "weather"))

	assert.DeepEqual(t, te.opened, []string{"https://weather.example"})
}

func TestPick_NoMatch(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("pick", "zzzz"))

	assert.Equal(t, te.out.String(), "No bundles found for 'zzzz'\n")
	assert.Equal(t, len(te.opened), 0)
}

func TestBareQueryPicks(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	assert.NilError(t, te.run("weather"))

	assert.DeepEqual(t, te.opened, []string{"https://weather.example"})
}

func TestImportYAML(t *testing.T) {
	te := newTestEnv(t, seedBundles())
	path := filepath.Join(t.TempDir(), "bundles.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(`bundles:
  - name: GitHub
    description: taken
    urls: [https://example.com]
  - name: News
    description: morning reads
    urls:
      - https://news.example
`), 0o644))

	assert.NilError(t, te.run("import", path))

	assert.Equal(t, te.out.String(), "Imported 1 bundles (1 with taken names skipped)\n")
	got, err := te.get(t, "News")
	assert.NilError(t, err)
	assert.Equal(t, got.Description, "morning reads")
	github, err := te.get(t, "GitHub")
	assert.NilError(t, err)
	assert.Equal(t, github.Description, "code hosting", "existing bundles are kept")
}

func TestImport_UnsupportedFile(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("import", filepath.Join(t.TempDir(), "bundles.csv"))

	assert.ErrorContains(t, err, "unsupported import file")
}

func TestExportYAMLRoundTrip(t *testing.T) {
	te := newTestEnv(t, seedBundles())
	path := filepath.Join(t.TempDir(), "out", "bundles.yaml")

	assert.NilError(t, te.run("export", "--format", "yaml", path))
	assert.Equal(t, te.out.String(), "Exported 3 bundles to "+path+"\n")

	got, err := importer.ParseFile(path)
	assert.NilError(t, err)
	assert.DeepEqual(t, got, seedBundles())
}

func TestExportHTML(t *testing.T) {
	te := newTestEnv(t, seedBundles())
	path := filepath.Join(t.TempDir(), "bundles.html")

	assert.NilError(t, te.run("export", path))

	data, err := os.ReadFile(path)
	assert.NilError(t, err)
	assert.Check(t, is.Contains(string(data), "https://github.com/notifications"))
}

func TestExport_BadFormat(t *testing.T) {
	te := newTestEnv(t, seedBundles())

	err := te.run("export", "--format", "csv", filepath.Join(t.TempDir(), "x.csv"))

	assert.ErrorContains(t, err, "unsupported export format")
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/gone" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	te := newTestEnv(t, []model.Bundle{
		{Name: "Live", URLs: []string{srv.URL + "/ok"}, LastUpdated: 2000},
		{Name: "Stale", URLs: []string{srv.URL + "/gone"}, LastUpdated: 1000},
	})

	assert.NilError(t, te.run("check"))

	out := te.out.String()
	assert.Check(t, is.Contains(out, "DEAD 404"))
	assert.Check(t, is.Contains(out, "Stale"))
	assert.Check(t, is.Contains(out, "Checked 2 URLs: 1 healthy, 1 dead, 0 unreachable"))
}

func TestCheck_JSONEmpty(t *testing.T) {
	te := newTestEnv(t, nil)

	assert.NilError(t, te.run("check", "--json"))

	assert.Equal(t, strings.TrimSpace(te.out.String()), "[]")
}
