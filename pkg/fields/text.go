package fields

import (
	"fmt"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Text is a single line text input.
type Text struct {
	Base

	// MinLength and MaxLength bound the character count; zero disables a
	// bound.
	MinLength int
	MaxLength int

	// Pattern is a regular expression the input must match somewhere.
	// PatternMessage replaces the default pattern message and is rendered as
	// data-pattern-error.
	Pattern        string
	PatternMessage string

	// Attrs are extra attributes for the rendered control.
	Attrs render.Attrs
}

// NewText returns a text field.
func NewText(name string, opts ...Option) *Text {
	return &Text{Base: newBase(name, opts)}
}

func (f *Text) Kind() Kind { return KindText }

func (f *Text) CreateValidators() []validation.Validator {
	validators := f.requiredValidators()
	validators = append(validators, lengthValidators(f.MinLength, f.MaxLength)...)
	return append(validators, f.patternValidators()...)
}

func (f *Text) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	return r.InputFor(f, "text", render.Merge(f.defaultAttrs(), attrs))
}

func (f *Text) GetValue(m *input.Model) (any, error) {
	s, ok, err := rawText(m, f)
	if err != nil || !ok {
		return nil, err
	}
	return s, nil
}

func (f *Text) SetValue(m *input.Model, value any) error {
	return setString(m, f, value)
}

func (f *Text) defaultAttrs() render.Attrs {
	attrs := render.Attrs{}
	if f.MaxLength > 0 {
		attrs["maxlength"] = f.MaxLength
	}
	if f.Pattern != "" {
		attrs["pattern"] = f.Pattern
		if f.PatternMessage != "" {
			attrs["data-pattern-error"] = f.PatternMessage
		}
	}
	return render.Merge(attrs, f.Attrs)
}

func (f *Text) patternValidators() []validation.Validator {
	if f.Pattern == "" {
		return nil
	}
	pattern, err := validation.NewPattern(f.Pattern, f.PatternMessage)
	if err != nil {
		// Surfaces from InputValidation.Check as a configuration error.
		return []validation.Validator{validation.ValidatorFunc(
			func(validation.Field, *input.Model, *validation.InputValidation) error {
				return fmt.Errorf("fields: %q pattern: %w", f.Name(), err)
			},
		)}
	}
	return []validation.Validator{pattern}
}

// Email is a text input holding an e-mail address.
type Email struct {
	Text
}

// NewEmail returns an e-mail field.
func NewEmail(name string, opts ...Option) *Email {
	return &Email{Text: Text{Base: newBase(name, opts)}}
}

func (f *Email) Kind() Kind { return KindEmail }

func (f *Email) CreateValidators() []validation.Validator {
	validators := f.requiredValidators()
	validators = append(validators, &validation.Email{})
	validators = append(validators, lengthValidators(f.MinLength, f.MaxLength)...)
	return append(validators, f.patternValidators()...)
}

func (f *Email) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	return r.InputFor(f, "email", render.Merge(f.defaultAttrs(), attrs))
}

// Password is a text input that never echoes its value.
type Password struct {
	Text
}

// NewPassword returns a password field.
func NewPassword(name string, opts ...Option) *Password {
	return &Password{Text: Text{Base: newBase(name, opts)}}
}

func (f *Password) Kind() Kind { return KindPassword }

func (f *Password) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	return r.InputFor(f, "password", render.Merge(f.defaultAttrs(), attrs, render.Attrs{"value": ""}))
}

// Hidden is a hidden input. It renders without id, class or placeholder.
type Hidden struct {
	Text
}

// NewHidden returns a hidden field.
func NewHidden(name string, opts ...Option) *Hidden {
	return &Hidden{Text: Text{Base: newBase(name, opts)}}
}

func (f *Hidden) Kind() Kind { return KindHidden }

func (f *Hidden) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	return r.Tag("input", render.Merge(render.Attrs{
		"type":  "hidden",
		"name":  r.Name(f),
		"value": r.Value(f),
	}, f.Attrs, attrs))
}

// TextArea is a multi-line text input.
type TextArea struct {
	Text

	// Rows and Cols size the control; zero omits the attribute.
	Rows int
	Cols int
}

// NewTextArea returns a textarea field.
func NewTextArea(name string, opts ...Option) *TextArea {
	return &TextArea{Text: Text{Base: newBase(name, opts)}}
}

func (f *TextArea) Kind() Kind { return KindTextArea }

func (f *TextArea) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	defaults := render.Attrs{
		"name":     r.Name(f),
		"class":    r.InputClass,
		"required": r.IsRequired(f),
	}
	if id := r.ID(f); id != "" {
		defaults["id"] = id
	}
	if placeholder := r.Placeholder(f); placeholder != "" {
		defaults["placeholder"] = placeholder
	}
	if f.MaxLength > 0 {
		defaults["maxlength"] = f.MaxLength
	}
	if f.Rows > 0 {
		defaults["rows"] = f.Rows
	}
	if f.Cols > 0 {
		defaults["cols"] = f.Cols
	}
	value, _ := r.Model.Text(f)
	return r.OpenTag("textarea", render.Merge(defaults, f.Attrs, attrs)) + r.Escape(value) + "</textarea>"
}

func setString(m *input.Model, f input.Named, value any) error {
	switch v := value.(type) {
	case nil:
		return m.SetInput(f, nil)
	case string:
		return m.SetInput(f, v)
	default:
		return fmt.Errorf("fields: %q expects a string, got %T: %w", f.Name(), value, ErrInvalidArgument)
	}
}
