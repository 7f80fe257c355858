// Package formdef loads declarative form definitions from YAML or JSON and
// builds them into field lists.
package formdef

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ErrInvalidDefinition is returned for definitions that cannot be built.
var ErrInvalidDefinition = errors.New("formdef: invalid definition")

// Definition describes one form.
type Definition struct {
	ID     string `json:"id" yaml:"id"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Action string `json:"action,omitempty" yaml:"action,omitempty"`
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
	Locale string `json:"locale,omitempty" yaml:"locale,omitempty"`
	Submit string `json:"submit,omitempty" yaml:"submit,omitempty"`

	// Token names the CSRF token of the form; empty disables it.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	Fields []FieldSpec `json:"fields" yaml:"fields"`
}

// FieldSpec describes one field. Settings that do not apply to Kind are
// ignored.
type FieldSpec struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Placeholder string `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`

	MinLength      int    `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength      int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern        string `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	PatternMessage string `json:"patternMessage,omitempty" yaml:"patternMessage,omitempty"`
	Rows           int    `json:"rows,omitempty" yaml:"rows,omitempty"`
	Cols           int    `json:"cols,omitempty" yaml:"cols,omitempty"`

	Min *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max *float64 `json:"max,omitempty" yaml:"max,omitempty"`

	Options OptionList `json:"options,omitempty" yaml:"options,omitempty"`
	Prompt  string     `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Inline  bool       `json:"inline,omitempty" yaml:"inline,omitempty"`

	CheckedValue string `json:"checkedValue,omitempty" yaml:"checkedValue,omitempty"`

	Layout   string `json:"layout,omitempty" yaml:"layout,omitempty"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
	MinYear  int    `json:"minYear,omitempty" yaml:"minYear,omitempty"`
	MaxYear  int    `json:"maxYear,omitempty" yaml:"maxYear,omitempty"`
	Order    string `json:"order,omitempty" yaml:"order,omitempty"`

	// Confirm names a field this one must repeat, as for password
	// confirmation.
	Confirm string `json:"confirm,omitempty" yaml:"confirm,omitempty"`

	Attrs map[string]string `json:"attrs,omitempty" yaml:"attrs,omitempty"`
}

// OptionSpec is one select or radio option.
type OptionSpec struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// OptionList keeps options in declaration order. In YAML it accepts a list
// of scalars, a list of {value, label} maps, or a value: label mapping.
type OptionList []OptionSpec

// UnmarshalYAML implements yaml.Unmarshaler.
func (l *OptionList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.MappingNode:
		out := make(OptionList, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if key.Kind != yaml.ScalarNode || value.Kind != yaml.ScalarNode {
				return fmt.Errorf("formdef: line %d: option labels must be scalars: %w", key.Line, ErrInvalidDefinition)
			}
			out = append(out, OptionSpec{Value: key.Value, Label: value.Value})
		}
		*l = out
		return nil
	case yaml.SequenceNode:
		out := make(OptionList, 0, len(node.Content))
		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				out = append(out, OptionSpec{Value: item.Value, Label: item.Value})
			case yaml.MappingNode:
				var spec OptionSpec
				if err := item.Decode(&spec); err != nil {
					return err
				}
				out = append(out, spec.normalized())
			default:
				return fmt.Errorf("formdef: line %d: unsupported option: %w", item.Line, ErrInvalidDefinition)
			}
		}
		*l = out
		return nil
	default:
		return fmt.Errorf("formdef: line %d: options must be a list or mapping: %w", node.Line, ErrInvalidDefinition)
	}
}

// UnmarshalJSON implements json.Unmarshaler. JSON objects do not keep key
// order, so only arrays are accepted.
func (l *OptionList) UnmarshalJSON(data []byte) error {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("formdef: options must be an array: %w", ErrInvalidDefinition)
	}
	out := make(OptionList, 0, len(items))
	for _, item := range items {
		var value string
		if err := json.Unmarshal(item, &value); err == nil {
			out = append(out, OptionSpec{Value: value, Label: value})
			continue
		}
		var spec OptionSpec
		if err := json.Unmarshal(item, &spec); err != nil {
			return fmt.Errorf("formdef: option %s: %w", item, ErrInvalidDefinition)
		}
		out = append(out, spec.normalized())
	}
	*l = out
	return nil
}

func (o OptionSpec) normalized() OptionSpec {
	if o.Label == "" {
		o.Label = o.Value
	}
	return o
}

// Parse decodes a definition. JSON is detected by a leading brace, anything
// else is read as YAML.
func Parse(data []byte, source string) (Definition, error) {
	var def Definition
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return def, fmt.Errorf("formdef: %s is empty: %w", source, ErrInvalidDefinition)
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &def); err != nil {
			return def, fmt.Errorf("formdef: parse %s: %w", source, err)
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(trimmed))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return def, fmt.Errorf("formdef: parse %s: %w", source, err)
		}
	}
	if def.ID == "" {
		def.ID = strings.TrimSuffix(path.Base(source), path.Ext(source))
	}
	return def, def.Check()
}

// Check reports structural problems: missing or duplicate names and unknown
// confirm targets.
func (d Definition) Check() error {
	seen := make(map[string]bool, len(d.Fields))
	for i, spec := range d.Fields {
		name := strings.TrimSpace(spec.Name)
		if name == "" {
			return fmt.Errorf("formdef: %s: field %d has no name: %w", d.ID, i, ErrInvalidDefinition)
		}
		if seen[name] {
			return fmt.Errorf("formdef: %s: duplicate field %q: %w", d.ID, name, ErrInvalidDefinition)
		}
		seen[name] = true
	}
	for _, spec := range d.Fields {
		if spec.Confirm != "" && !seen[spec.Confirm] {
			return fmt.Errorf("formdef: %s: field %q confirms unknown field %q: %w", d.ID, spec.Name, spec.Confirm, ErrInvalidDefinition)
		}
	}
	return nil
}
