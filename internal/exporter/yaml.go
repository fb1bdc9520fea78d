package exporter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/bundles/internal/model"
)

type yamlDocument struct {
	Bundles []model.Bundle `yaml:"bundles"`
}

// ExportYAML encodes bundles under a top-level "bundles" key.
func ExportYAML(bundles []model.Bundle) ([]byte, error) {
	if bundles == nil {
		bundles = []model.Bundle{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{Bundles: bundles}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export renders bundles in format.
func Export(bundles []model.Bundle, format string) ([]byte, error) {
	switch format {
	case FormatHTML:
		out, err := ExportHTML(bundles)
		return []byte(out), err
	case FormatYAML:
		return ExportYAML(bundles)
	default:
		return nil, fmt.Errorf("unsupported export format %q (expected html or yaml)", format)
	}
}

// WriteFile exports bundles to path, creating parent directories.
func WriteFile(path string, bundles []model.Bundle, format string) error {
	data, err := Export(bundles, format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
