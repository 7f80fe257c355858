package fields

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Int is a whole number input.
type Int struct {
	Base

	MinLength int
	MaxLength int

	// Min and Max bound the value; nil disables a bound.
	Min *int
	Max *int

	Attrs render.Attrs
}

// NewInt returns an integer field.
func NewInt(name string, opts ...Option) *Int {
	return &Int{Base: newBase(name, opts)}
}

func (f *Int) Kind() Kind { return KindInt }

// NumericBounds exposes Min and Max to the range validators.
func (f *Int) NumericBounds() (min, max *float64) {
	if f.Min != nil {
		min = Ref(float64(*f.Min))
	}
	if f.Max != nil {
		max = Ref(float64(*f.Max))
	}
	return min, max
}

func (f *Int) CreateValidators() []validation.Validator {
	validators := f.requiredValidators()
	validators = append(validators, &validation.Int{})
	validators = append(validators, lengthValidators(f.MinLength, f.MaxLength)...)
	return append(validators, boundValidators(f.NumericBounds())...)
}

func (f *Int) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	pattern := `-?\d*`
	if f.Min != nil && *f.Min >= 0 {
		pattern = `\d*`
	}
	defaults := numberAttrs(f.MaxLength, pattern)
	if f.Min != nil {
		defaults["min"] = *f.Min
	}
	if f.Max != nil {
		defaults["max"] = *f.Max
	}
	return r.InputFor(f, "number", render.Merge(defaults, f.Attrs, attrs))
}

func (f *Int) GetValue(m *input.Model) (any, error) {
	v, ok, err := f.Int(m)
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

// Int returns the converted input. ok is false when nothing was submitted.
func (f *Int) Int(m *input.Model) (int, bool, error) {
	s, ok, err := rawText(m, f)
	if err != nil || !ok {
		return 0, false, err
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false, fmt.Errorf("fields: int %q: %w", f.Name(), ErrTypeConversion)
	}
	return v, true, nil
}

func (f *Int) SetValue(m *input.Model, value any) error {
	switch v := value.(type) {
	case nil:
		return m.SetInput(f, nil)
	case int:
		return m.SetInput(f, strconv.Itoa(v))
	case int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return m.SetInput(f, fmt.Sprint(v))
	default:
		return fmt.Errorf("fields: int %q expects an integer, got %T: %w", f.Name(), value, ErrInvalidArgument)
	}
}

// Float is a decimal number input.
type Float struct {
	Base

	MinLength int
	MaxLength int

	Min *float64
	Max *float64

	Attrs render.Attrs
}

// NewFloat returns a decimal field.
func NewFloat(name string, opts ...Option) *Float {
	return &Float{Base: newBase(name, opts)}
}

func (f *Float) Kind() Kind { return KindFloat }

// NumericBounds exposes Min and Max to the range validators.
func (f *Float) NumericBounds() (min, max *float64) {
	return f.Min, f.Max
}

func (f *Float) CreateValidators() []validation.Validator {
	validators := f.requiredValidators()
	validators = append(validators, &validation.Numeric{})
	validators = append(validators, lengthValidators(f.MinLength, f.MaxLength)...)
	return append(validators, boundValidators(f.Min, f.Max)...)
}

func (f *Float) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	pattern := `-?\d*(\.(?=\d))?\d*`
	if f.Min != nil && *f.Min >= 0 {
		pattern = `\d*(\.(?=\d))?\d*`
	}
	defaults := numberAttrs(f.MaxLength, pattern)
	defaults["min"] = f.Min
	defaults["max"] = f.Max
	return r.InputFor(f, "number", render.Merge(defaults, f.Attrs, attrs))
}

func (f *Float) GetValue(m *input.Model) (any, error) {
	v, ok, err := f.Float(m)
	if err != nil || !ok {
		return nil, err
	}
	return v, nil
}

// Float returns the converted input. ok is false when nothing was submitted.
func (f *Float) Float(m *input.Model) (float64, bool, error) {
	s, ok, err := rawText(m, f)
	if err != nil || !ok {
		return 0, false, err
	}
	if !validation.IsNumeric(s) {
		return 0, false, fmt.Errorf("fields: float %q: %w", f.Name(), ErrTypeConversion)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false, fmt.Errorf("fields: float %q: %w", f.Name(), ErrTypeConversion)
	}
	return v, true, nil
}

func (f *Float) SetValue(m *input.Model, value any) error {
	switch v := value.(type) {
	case nil:
		return m.SetInput(f, nil)
	case float64:
		return m.SetInput(f, strconv.FormatFloat(v, 'f', -1, 64))
	case float32:
		return m.SetInput(f, strconv.FormatFloat(float64(v), 'f', -1, 32))
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return m.SetInput(f, fmt.Sprint(v))
	default:
		return fmt.Errorf("fields: float %q expects a number, got %T: %w", f.Name(), value, ErrInvalidArgument)
	}
}

func numberAttrs(maxLength int, pattern string) render.Attrs {
	attrs := render.Attrs{"pattern": pattern}
	if maxLength > 0 {
		attrs["maxlength"] = maxLength
	}
	return attrs
}
