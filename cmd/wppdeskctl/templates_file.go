package main

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/matheus3301/wppdesk/internal/store"
	"gopkg.in/yaml.v3"
)

type templateFile struct {
	Templates []store.Template `yaml:"templates"`
}

// parseTemplateFile accepts a YAML list of templates or a document with a
// top-level "templates" key.
func parseTemplateFile(data []byte) ([]store.Template, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, errors.New("file is empty")
	}

	var list []store.Template
	switch root := node.Content[0]; root.Kind {
	case yaml.SequenceNode:
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode templates: %w", err)
		}
	case yaml.MappingNode:
		var f templateFile
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode templates: %w", err)
		}
		list = f.Templates
	default:
		return nil, errors.New("expected a list of templates or a templates key")
	}

	if len(list) == 0 {
		return nil, errors.New("no templates found")
	}
	for i, t := range list {
		if t.Name == "" {
			return nil, fmt.Errorf("template %d has no name", i+1)
		}
	}
	return list, nil
}
