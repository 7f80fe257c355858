// Package fields provides the field kinds a form is built from. Each kind
// converts between raw model input and a native Go value, derives its default
// validators and renders its HTML control.
package fields

import (
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/validation"
)

var (
	// ErrTypeConversion is returned when raw input cannot be converted to the
	// native type of a field.
	ErrTypeConversion = errors.New("fields: type conversion")
	// ErrInvalidArgument is returned when a native value of the wrong type is
	// assigned to a field.
	ErrInvalidArgument = errors.New("fields: invalid argument")
	// ErrUnknownKind is returned for kind names outside the supported set.
	ErrUnknownKind = errors.New("fields: unknown kind")
)

// Kind tags the variant of a field.
type Kind string

const (
	KindText          Kind = "text"
	KindTextArea      Kind = "textarea"
	KindPassword      Kind = "password"
	KindHidden        Kind = "hidden"
	KindEmail         Kind = "email"
	KindInt           Kind = "int"
	KindFloat         Kind = "float"
	KindCheckbox      Kind = "checkbox"
	KindSelect        Kind = "select"
	KindRadio         Kind = "radio"
	KindDateTime      Kind = "datetime"
	KindDateTimeLocal Kind = "datetime-local"
	KindDateSelect    Kind = "date-select"
	KindToken         Kind = "token"
	KindTimezone      Kind = "timezone"
)

var kinds = []Kind{
	KindText, KindTextArea, KindPassword, KindHidden, KindEmail,
	KindInt, KindFloat, KindCheckbox, KindSelect, KindRadio,
	KindDateTime, KindDateTimeLocal, KindDateSelect, KindToken, KindTimezone,
}

// Kinds returns every supported kind.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// ParseKind resolves a kind name, ignoring case and surrounding space.
func ParseKind(name string) (Kind, error) {
	candidate := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, kind := range kinds {
		if kind == candidate {
			return kind, nil
		}
	}
	return "", fmt.Errorf("fields: kind %q: %w", name, ErrUnknownKind)
}

// Field is the capability set shared by every kind.
type Field interface {
	input.Named
	Label() string
	Placeholder() string
	Required() bool
	Kind() Kind
	CreateValidators() []validation.Validator
	RenderInput(r *render.Renderer, attrs render.Attrs) string
}

// Valuer converts between raw model input and native values. GetValue
// returns nil for absent input.
type Valuer interface {
	GetValue(m *input.Model) (any, error)
	SetValue(m *input.Model, value any) error
}

// Option configures the metadata shared by every kind.
type Option func(*Base)

// WithLabel sets the label.
func WithLabel(label string) Option {
	return func(b *Base) {
		b.label = label
	}
}

// WithPlaceholder sets the placeholder.
func WithPlaceholder(placeholder string) Option {
	return func(b *Base) {
		b.placeholder = placeholder
	}
}

// WithRequired marks the field as required.
func WithRequired(required bool) Option {
	return func(b *Base) {
		b.required = required
	}
}

// Base holds the identity and metadata of a field. It is immutable once the
// field is built.
type Base struct {
	name        string
	label       string
	placeholder string
	required    bool
}

func newBase(name string, opts []Option) Base {
	b := Base{name: name}
	for _, opt := range opts {
		if opt != nil {
			opt(&b)
		}
	}
	return b
}

// Name returns the field name.
func (b *Base) Name() string { return b.name }

// Label returns the label, or "" when the field has none.
func (b *Base) Label() string { return b.label }

// Placeholder returns the placeholder, or "".
func (b *Base) Placeholder() string { return b.placeholder }

// Required reports whether input is mandatory.
func (b *Base) Required() bool { return b.required }

func (b *Base) requiredValidators() []validation.Validator {
	if !b.required {
		return nil
	}
	return []validation.Validator{&validation.Required{}}
}

// Ref returns a pointer to v, for optional bounds.
func Ref[T any](v T) *T {
	return &v
}

// Checkables adapts a field list for validation.InputValidation.Check.
func Checkables(list []Field) []validation.Checkable {
	out := make([]validation.Checkable, len(list))
	for i, f := range list {
		out[i] = f
	}
	return out
}

// Paths returns the names of list, for mapping server error payloads.
func Paths(list []Field) []string {
	out := make([]string, len(list))
	for i, f := range list {
		out[i] = f.Name()
	}
	return out
}

func lengthValidators(min, max int) []validation.Validator {
	switch {
	case min > 0 && max > 0:
		return []validation.Validator{&validation.Length{Min: min, Max: max}}
	case min > 0:
		return []validation.Validator{&validation.MinLength{Min: min}}
	case max > 0:
		return []validation.Validator{&validation.MaxLength{Max: max}}
	}
	return nil
}

func boundValidators(min, max *float64) []validation.Validator {
	switch {
	case min != nil && max != nil:
		return []validation.Validator{validation.NewRange(*min, *max)}
	case min != nil:
		return []validation.Validator{validation.NewMinValue(*min)}
	case max != nil:
		return []validation.Validator{validation.NewMaxValue(*max)}
	}
	return nil
}

// rawText reads scalar input. Composite input is a conversion error.
func rawText(m *input.Model, f input.Named) (string, bool, error) {
	switch v := m.Input(f).(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	default:
		return "", false, fmt.Errorf("fields: %q holds %T: %w", f.Name(), v, ErrTypeConversion)
	}
}

var (
	_ Field = (*Text)(nil)
	_ Field = (*TextArea)(nil)
	_ Field = (*Password)(nil)
	_ Field = (*Hidden)(nil)
	_ Field = (*Email)(nil)
	_ Field = (*Int)(nil)
	_ Field = (*Float)(nil)
	_ Field = (*Checkbox)(nil)
	_ Field = (*Select)(nil)
	_ Field = (*RadioGroup)(nil)
	_ Field = (*DateTime)(nil)
	_ Field = (*DateTimeLocal)(nil)
	_ Field = (*DateSelect)(nil)
	_ Field = (*Token)(nil)
	_ Field = (*Timezone)(nil)

	_ Valuer = (*Text)(nil)
	_ Valuer = (*Int)(nil)
	_ Valuer = (*Float)(nil)
	_ Valuer = (*Checkbox)(nil)
	_ Valuer = (*Select)(nil)
	_ Valuer = (*RadioGroup)(nil)
	_ Valuer = (*DateTime)(nil)
	_ Valuer = (*DateSelect)(nil)
	_ Valuer = (*Timezone)(nil)

	_ validation.Bounded = (*Int)(nil)
	_ validation.Parser  = (*DateTime)(nil)
	_ validation.Parser  = (*DateSelect)(nil)
	_ render.LabelOwner  = (*Checkbox)(nil)
)
