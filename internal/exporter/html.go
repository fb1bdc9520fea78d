// Package exporter writes bundles as Netscape bookmark HTML or YAML.
package exporter

import (
	"bytes"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"

	"github.com/nikbrunner/bundles/internal/model"
)

// Supported export formats.
const (
	FormatHTML = "html"
	FormatYAML = "yaml"
)

// DefaultExportPath returns the default export file path for format.
// Format: ~/Downloads/bundles-export-YYYY-MM-DD.<format>
func DefaultExportPath(format string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("bundles-export-%s.%s", time.Now().Format("2006-01-02"), format)
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML renders bundles as Netscape bookmark HTML, one folder per
// bundle. Descriptions are Markdown and end up rendered in the folder's DD.
// Pinned bundles are marked as toolbar folders.
func ExportHTML(bundles []model.Bundle) (string, error) {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bundles</TITLE>\n")
	b.WriteString("<H1>Bundles</H1>\n")
	b.WriteString("<DL><p>\n")

	md := goldmark.New()
	prefix := "    "
	for _, bundle := range bundles {
		attrs := ""
		if bundle.LastUpdated > 0 {
			attrs += fmt.Sprintf(" LAST_MODIFIED=\"%d\"", bundle.LastUpdated/1000)
		}
		if bundle.Pinned {
			attrs += " PERSONAL_TOOLBAR_FOLDER=\"true\""
		}
		fmt.Fprintf(&b, "%s<DT><H3%s>%s</H3>\n", prefix, attrs, html.EscapeString(bundle.Name))

		if strings.TrimSpace(bundle.Description) != "" {
			desc, err := renderMarkdown(md, bundle.Description)
			if err != nil {
				return "", fmt.Errorf("render description of %q: %w", bundle.Name, err)
			}
			fmt.Fprintf(&b, "%s<DD>%s\n", prefix, desc)
		}

		fmt.Fprintf(&b, "%s<DL><p>\n", prefix)
		for _, u := range bundle.URLs {
			escaped := html.EscapeString(u)
			fmt.Fprintf(&b, "%s%s<DT><A HREF=\"%s\">%s</A>\n", prefix, prefix, escaped, escaped)
		}
		fmt.Fprintf(&b, "%s</DL><p>\n", prefix)
	}

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String(), nil
}

func renderMarkdown(md goldmark.Markdown, source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}
