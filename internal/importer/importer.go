// Package importer reads bundles from browser bookmark exports and YAML files.
package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/bundles/internal/model"
)

// Supported import formats.
const (
	FormatHTML = "html"
	FormatYAML = "yaml"
)

// FormatFromPath guesses the format from the file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return FormatHTML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported import file %q (expected .html or .yaml)", filepath.Base(path))
	}
}

// ParseFile reads bundles from path, picking the parser by extension.
func ParseFile(path string) ([]model.Bundle, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if format == FormatHTML {
		return ParseHTML(f)
	}
	return ParseYAML(f)
}
