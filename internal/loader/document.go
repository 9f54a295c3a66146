package loader

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"envin/internal/refine"
)

// Document is the on-disk shape of a config file. Every format decodes into
// it before presets are built.
type Document struct {
	ID      string               `yaml:"id,omitempty" json:"id,omitempty"`
	Prefix  string               `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	Extends []PresetRef          `yaml:"extends,omitempty" json:"extends,omitempty"`
	Shared  map[string]FieldSpec `yaml:"shared,omitempty" json:"shared,omitempty"`
	Server  map[string]FieldSpec `yaml:"server,omitempty" json:"server,omitempty"`
	Client  map[string]FieldSpec `yaml:"client,omitempty" json:"client,omitempty"`
	Refine  []refine.Spec        `yaml:"refine,omitempty" json:"refine,omitempty"`
}

// PresetRef is either a catalog id or an inline preset.
type PresetRef struct {
	ID     string
	Inline *Document
}

func (r *PresetRef) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		r.ID = node.Value
		return nil
	}
	var doc Document
	if err := node.Decode(&doc); err != nil {
		return err
	}
	r.Inline = &doc
	return nil
}

func (r *PresetRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	r.Inline = &doc
	return nil
}

func (r PresetRef) MarshalYAML() (any, error) {
	if r.Inline != nil {
		return r.Inline, nil
	}
	return r.ID, nil
}

// FieldSpec declares one variable. A bare string is shorthand for the type.
// Min and Max bound numbers by value, strings by length and durations by
// seconds.
type FieldSpec struct {
	Type        string   `yaml:"type,omitempty" json:"type,omitempty"`
	Optional    bool     `yaml:"optional,omitempty" json:"optional,omitempty"`
	Default     any      `yaml:"default,omitempty" json:"default,omitempty"`
	Value       any      `yaml:"value,omitempty" json:"value,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Values      []string `yaml:"values,omitempty" json:"values,omitempty"`
	Min         *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max         *float64 `yaml:"max,omitempty" json:"max,omitempty"`
	Pattern     string   `yaml:"pattern,omitempty" json:"pattern,omitempty"`
	NonEmpty    bool     `yaml:"nonEmpty,omitempty" json:"nonEmpty,omitempty"`
	// Validate holds go-playground/validator tags, e.g. "email" or "hostname".
	Validate string `yaml:"validate,omitempty" json:"validate,omitempty"`
}

type fieldSpecAlias FieldSpec

func (f *FieldSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		*f = FieldSpec{Type: node.Value}
		return nil
	}
	var alias fieldSpecAlias
	if err := node.Decode(&alias); err != nil {
		return err
	}
	*f = FieldSpec(alias)
	return nil
}

func (f *FieldSpec) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var typ string
		if err := json.Unmarshal(data, &typ); err != nil {
			return err
		}
		*f = FieldSpec{Type: typ}
		return nil
	}
	var alias fieldSpecAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	*f = FieldSpec(alias)
	return nil
}

func decodeYAML(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid YAML: %w", err)
	}
	return doc, nil
}

func decodeJSON(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("invalid JSON: %w", err)
	}
	return doc, nil
}
