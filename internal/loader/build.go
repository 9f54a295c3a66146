package loader

import (
	"fmt"
	"regexp"
	"strings"

	"envin/internal/preset"
	"envin/internal/refine"
	"envin/internal/schema"
	"envin/internal/standard"
)

// Build converts a decoded document into a preset tree and compiled rules.
func Build(doc Document) (preset.Preset, []refine.Rule, error) {
	p, err := buildPreset(doc, true)
	if err != nil {
		return preset.Preset{}, nil, err
	}
	rules, err := refine.Compile(doc.Refine, preset.Compose(p, true).Keys())
	if err != nil {
		return preset.Preset{}, nil, err
	}
	return p, rules, nil
}

func buildPreset(doc Document, top bool) (preset.Preset, error) {
	if !top && len(doc.Refine) > 0 {
		return preset.Preset{}, fmt.Errorf("preset %q: refine is only allowed at the top level", doc.ID)
	}

	p := preset.Preset{ID: doc.ID, Prefix: doc.Prefix}
	for i, ref := range doc.Extends {
		switch {
		case ref.Inline != nil:
			child, err := buildPreset(*ref.Inline, false)
			if err != nil {
				return preset.Preset{}, err
			}
			p.Extends = append(p.Extends, child)
		case ref.ID != "":
			child, ok := preset.Lookup(ref.ID)
			if !ok {
				return preset.Preset{}, fmt.Errorf("unknown preset %q (available: %s)", ref.ID, strings.Join(preset.CatalogIDs(), ", "))
			}
			p.Extends = append(p.Extends, child)
		default:
			return preset.Preset{}, fmt.Errorf("extends entry %d is empty", i)
		}
	}

	var err error
	if p.Shared, err = buildBucket(doc.Shared); err != nil {
		return preset.Preset{}, err
	}
	if p.Server, err = buildBucket(doc.Server); err != nil {
		return preset.Preset{}, err
	}
	if p.Client, err = buildBucket(doc.Client); err != nil {
		return preset.Preset{}, err
	}
	return p, nil
}

func buildBucket(specs map[string]FieldSpec) (standard.Dictionary, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	d := make(standard.Dictionary, len(specs))
	for key, spec := range specs {
		f, err := spec.Field()
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", key, err)
		}
		d[key] = f
	}
	return d, nil
}

// Field builds the validator s describes.
func (s FieldSpec) Field() (*schema.Field, error) {
	name := s.Type
	if name == "" {
		name = string(schema.KindString)
	}
	kind, ok := schema.ParseKind(name)
	if !ok {
		return nil, fmt.Errorf("unknown type '%s'", s.Type)
	}

	var f *schema.Field
	switch kind {
	case schema.KindString:
		f = schema.String()
	case schema.KindNumber:
		f = schema.Number()
	case schema.KindInt:
		f = schema.Int()
	case schema.KindBool:
		f = schema.Bool()
	case schema.KindURL:
		f = schema.URL()
	case schema.KindPort:
		f = schema.Port()
	case schema.KindDuration:
		f = schema.Duration()
	case schema.KindEnum:
		if len(s.Values) == 0 {
			return nil, fmt.Errorf("enum type requires 'values'")
		}
		f = schema.Enum(s.Values...)
	case schema.KindLiteral:
		if s.Value == nil {
			return nil, fmt.Errorf("literal type requires 'value'")
		}
		f = schema.Literal(s.Value)
	}

	if s.Min != nil {
		f = f.Min(*s.Min)
	}
	if s.Max != nil {
		f = f.Max(*s.Max)
	}
	if s.Pattern != "" {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern: %w", err)
		}
		f = f.Pattern(re)
	}
	if s.NonEmpty {
		f = f.NonEmpty()
	}
	if s.Validate != "" {
		if err := schema.CheckTag(kind, s.Validate); err != nil {
			return nil, fmt.Errorf("invalid validate tag: %w", err)
		}
		f = f.Tag(s.Validate)
	}
	if s.Description != "" {
		f = f.Describe(s.Description)
	}
	if s.Optional {
		f = f.Optional()
	}
	if s.Default != nil {
		// Defaults go through the field so they carry its output type.
		res := f.Validate(s.Default)
		if !res.OK() {
			return nil, fmt.Errorf("invalid default: %s", res.Issues.Error())
		}
		f = f.Default(res.Value)
	}
	return f, nil
}
