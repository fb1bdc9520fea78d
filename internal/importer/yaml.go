package importer

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/bundles/internal/model"
)

// yamlDocument is the layout written by the YAML exporter.
type yamlDocument struct {
	Bundles []model.Bundle `yaml:"bundles"`
}

// ParseYAML reads bundles from either a document with a top-level "bundles"
// list or a bare list. Every bundle must pass model.ValidateBundle.
func ParseYAML(r io.Reader) ([]model.Bundle, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	var bundles []model.Bundle
	if len(node.Content) > 0 && node.Content[0].Kind == yaml.SequenceNode {
		if err := node.Decode(&bundles); err != nil {
			return nil, fmt.Errorf("decode bundles: %w", err)
		}
	} else {
		var doc yamlDocument
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode bundles: %w", err)
		}
		bundles = doc.Bundles
	}

	for i, b := range bundles {
		if err := model.ValidateBundle(b); err != nil {
			return nil, fmt.Errorf("bundle %d (%q): %w", i+1, b.Name, err)
		}
	}
	return bundles, nil
}
