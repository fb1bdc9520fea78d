package importer_test

import (
	"strings"
	"testing"

	"github.com/nikbrunner/bundles/internal/importer"
)

func TestParseHTML_RootLinks(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
    <DT><A HREF="https://example.com" ADD_DATE="1234567890">Example Site</A>
    <DT><A HREF="https://example.org">Example Org</A>
</DL><p>`

	bundles, err := importer.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}

	b := bundles[0]
	if b.Name != importer.RootBundleName {
		t.Errorf("expected name %q, got %q", importer.RootBundleName, b.Name)
	}
	if len(b.URLs) != 2 || b.URLs[0] != "https://example.com" || b.URLs[1] != "https://example.org" {
		t.Errorf("unexpected urls %v", b.URLs)
	}
	if b.LastUpdated != 0 {
		t.Errorf("expected no timestamp for root bundle, got %d", b.LastUpdated)
	}
}

func TestParseHTML_FolderPerBundle(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 ADD_DATE="1700000000">Development</H3>
    <DL><p>
        <DT><H3 ADD_DATE="1700000000" LAST_MODIFIED="1700000500">React</H3>
        <DL><p>
            <DT><A HREF="https://react.dev" ADD_DATE="1234567890">React Docs</A>
        </DL><p>
        <DT><A HREF="https://github.com" ADD_DATE="1234567890">GitHub</A>
        <DT><A HREF="https://go.dev">Go</A>
    </DL><p>
    <DT><A HREF="https://google.com" ADD_DATE="1234567890">Google</A>
</DL><p>`

	bundles, err := importer.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundles) != 3 {
		t.Fatalf("expected 3 bundles, got %d: %+v", len(bundles), bundles)
	}

	root, dev, react := bundles[0], bundles[1], bundles[2]

	if root.Name != importer.RootBundleName || len(root.URLs) != 1 || root.URLs[0] != "https://google.com" {
		t.Errorf("unexpected root bundle %+v", root)
	}

	if dev.Name != "Development" {
		t.Errorf("expected Development, got %q", dev.Name)
	}
	if len(dev.URLs) != 2 || dev.URLs[0] != "https://github.com" || dev.URLs[1] != "https://go.dev" {
		t.Errorf("expected only direct links in Development, got %v", dev.URLs)
	}
	if dev.LastUpdated != 1700000000*1000 {
		t.Errorf("expected ADD_DATE in milliseconds, got %d", dev.LastUpdated)
	}

	if react.Name != "Development / React" {
		t.Errorf("expected nested folder path, got %q", react.Name)
	}
	if len(react.URLs) != 1 || react.URLs[0] != "https://react.dev" {
		t.Errorf("unexpected react urls %v", react.URLs)
	}
	if react.LastUpdated != 1700000500*1000 {
		t.Errorf("expected LAST_MODIFIED to win, got %d", react.LastUpdated)
	}
}

func TestParseHTML_FolderDescription(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>Work</H3>
    <DD>Daily   <b>tools</b>
    <DL><p>
        <DT><A HREF="https://jira.example">Jira</A>
    </DL><p>
</DL><p>`

	bundles, err := importer.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	if bundles[0].Description != "Daily tools" {
		t.Errorf("expected description 'Daily tools', got %q", bundles[0].Description)
	}
	if len(bundles[0].URLs) != 1 {
		t.Errorf("expected 1 url, got %v", bundles[0].URLs)
	}
}

func TestParseHTML_ToolbarFolderPinned(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3 PERSONAL_TOOLBAR_FOLDER="true">Bookmarks bar</H3>
    <DL><p>
        <DT><A HREF="https://mail.example">Mail</A>
    </DL><p>
    <DT><H3>Other</H3>
    <DL><p>
        <DT><A HREF="https://other.example">Other</A>
    </DL><p>
</DL><p>`

	bundles, err := importer.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundles) != 2 {
		t.Fatalf("expected 2 bundles, got %d", len(bundles))
	}
	if !bundles[0].Pinned {
		t.Error("expected toolbar folder to be pinned")
	}
	if bundles[1].Pinned {
		t.Error("expected other folder to stay unpinned")
	}
}

func TestParseHTML_EmptyFoldersSkipped(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>Empty</H3>
    <DL><p>
    </DL><p>
    <DT><H3>Full</H3>
    <DL><p>
        <DT><A HREF="https://full.example">Full</A>
    </DL><p>
</DL><p>`

	bundles, err := importer.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundles) != 1 || bundles[0].Name != "Full" {
		t.Errorf("expected only the Full bundle, got %+v", bundles)
	}
}

func TestParseHTML_EmptyFile(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<TITLE>Bookmarks</TITLE>
<H1>Bookmarks</H1>
<DL><p>
</DL><p>`

	bundles, err := importer.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundles) != 0 {
		t.Errorf("expected 0 bundles, got %d", len(bundles))
	}
}

func TestParseHTML_MissingHref(t *testing.T) {
	html := `<!DOCTYPE NETSCAPE-Bookmark-file-1>
<DL><p>
    <DT><H3>Links</H3>
    <DL><p>
        <DT><A>No URL</A>
        <DT><A HREF="https://valid.com">Valid</A>
    </DL><p>
</DL><p>`

	bundles, err := importer.ParseHTML(strings.NewReader(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bundles) != 1 {
		t.Fatalf("expected 1 bundle, got %d", len(bundles))
	}
	if len(bundles[0].URLs) != 1 || bundles[0].URLs[0] != "https://valid.com" {
		t.Errorf("expected only the valid link, got %v", bundles[0].URLs)
	}
}
