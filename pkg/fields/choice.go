package fields

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Choice is one selectable option.
type Choice struct {
	Value string
	Label string
}

// Options is an ordered list of choices.
type Options []Choice

// Choices builds options whose labels equal their values.
func Choices(values ...string) Options {
	out := make(Options, len(values))
	for i, v := range values {
		out[i] = Choice{Value: v, Label: v}
	}
	return out
}

// Pairs builds options from alternating value and label arguments. A trailing
// value without a label is labeled with itself.
func Pairs(pairs ...string) Options {
	out := make(Options, 0, (len(pairs)+1)/2)
	for i := 0; i < len(pairs); i += 2 {
		c := Choice{Value: pairs[i], Label: pairs[i]}
		if i+1 < len(pairs) {
			c.Label = pairs[i+1]
		}
		out = append(out, c)
	}
	return out
}

// Values returns the option values in order.
func (o Options) Values() []string {
	out := make([]string, len(o))
	for i, c := range o {
		out[i] = c.Value
	}
	return out
}

// Lookup returns the label of value.
func (o Options) Lookup(value string) (string, bool) {
	for _, c := range o {
		if c.Value == value {
			return c.Label, true
		}
	}
	return "", false
}

// match returns the option value equal to selected. Numeric input compares by
// value so "07" selects "7".
func (o Options) match(selected string) (string, bool) {
	if selected == "" {
		return "", false
	}
	if _, ok := o.Lookup(selected); ok {
		return selected, true
	}
	want, err := strconv.ParseFloat(strings.TrimSpace(selected), 64)
	if err != nil {
		return "", false
	}
	for _, c := range o {
		if got, err := strconv.ParseFloat(c.Value, 64); err == nil && got == want {
			return c.Value, true
		}
	}
	return "", false
}

// Select is a drop-down over a fixed option list.
type Select struct {
	Base

	Options Options

	// Prompt, when set, renders a leading disabled option with this text. It
	// is selected while nothing valid is.
	Prompt string

	Attrs render.Attrs
}

// NewSelect returns a select field.
func NewSelect(name string, options Options, opts ...Option) *Select {
	return &Select{Base: newBase(name, opts), Options: options}
}

func (f *Select) Kind() Kind { return KindSelect }

func (f *Select) CreateValidators() []validation.Validator {
	return append(f.requiredValidators(), &validation.Selected{Options: f.Options.Values()})
}

func (f *Select) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	raw, _ := r.Model.Text(f)
	selected, _ := f.Options.match(raw)

	var b strings.Builder
	if f.Prompt != "" {
		b.WriteString(r.Tag("option", render.Attrs{"disabled": true, "selected": selected == ""}, r.Escape(f.Prompt)))
	}
	for _, c := range f.Options {
		b.WriteString(r.Tag("option", render.Attrs{"value": c.Value, "selected": c.Value == selected}, r.Escape(c.Label)))
	}

	defaults := render.Attrs{
		"name":     r.Name(f),
		"class":    r.InputClass,
		"required": r.IsRequired(f),
	}
	if id := r.ID(f); id != "" {
		defaults["id"] = id
	}
	return r.Tag("select", render.Merge(defaults, f.Attrs, attrs), b.String())
}

func (f *Select) GetValue(m *input.Model) (any, error) {
	s, ok, err := rawText(m, f)
	if err != nil || !ok {
		return nil, err
	}
	value, ok := f.Options.match(s)
	if !ok {
		return nil, fmt.Errorf("fields: select %q: %q is not an option: %w", f.Name(), s, ErrTypeConversion)
	}
	return value, nil
}

func (f *Select) SetValue(m *input.Model, value any) error {
	return setOption(m, f, f.Options, value)
}

// RadioGroup renders one radio button per option.
type RadioGroup struct {
	Base

	Options Options

	// Inline renders the buttons without wrappers, using radio-inline
	// labels.
	Inline bool

	// InputAttrs apply to every radio input, LabelAttrs to every label.
	InputAttrs render.Attrs
	LabelAttrs render.Attrs

	// WrapperTag and WrapperAttrs describe the element around each button
	// when not inline.
	WrapperTag   string
	WrapperAttrs render.Attrs
}

// NewRadioGroup returns a radio group wrapping each button in a div.radio.
func NewRadioGroup(name string, options Options, opts ...Option) *RadioGroup {
	return &RadioGroup{
		Base:         newBase(name, opts),
		Options:      options,
		WrapperTag:   "div",
		WrapperAttrs: render.Attrs{"class": "radio"},
	}
}

// NewInlineRadioGroup returns a radio group laid out on one line.
func NewInlineRadioGroup(name string, options Options, opts ...Option) *RadioGroup {
	return &RadioGroup{
		Base:       newBase(name, opts),
		Options:    options,
		Inline:     true,
		LabelAttrs: render.Attrs{"class": "radio-inline"},
	}
}

func (f *RadioGroup) Kind() Kind { return KindRadio }

func (f *RadioGroup) CreateValidators() []validation.Validator {
	return append(f.requiredValidators(), &validation.Selected{Options: f.Options.Values()})
}

func (f *RadioGroup) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	raw, _ := r.Model.Text(f)
	selected, _ := f.Options.match(raw)
	id := r.ID(f)

	var b strings.Builder
	for _, c := range f.Options {
		defaults := render.Attrs{
			"type":    "radio",
			"name":    r.Name(f),
			"value":   c.Value,
			"checked": c.Value == selected,
		}
		if id != "" {
			defaults["id"] = id + "-" + c.Value
		}
		button := r.Tag("input", render.Merge(defaults, f.InputAttrs, attrs))
		tag := r.Tag("label", f.LabelAttrs, button+" "+r.Escape(c.Label))
		if !f.Inline && f.WrapperTag != "" {
			tag = r.Tag(f.WrapperTag, f.WrapperAttrs, tag)
		}
		b.WriteString(tag)
	}
	return b.String()
}

func (f *RadioGroup) GetValue(m *input.Model) (any, error) {
	s, ok, err := rawText(m, f)
	if err != nil || !ok {
		return nil, err
	}
	value, ok := f.Options.match(s)
	if !ok {
		return nil, fmt.Errorf("fields: radio %q: %q is not an option: %w", f.Name(), s, ErrTypeConversion)
	}
	return value, nil
}

func (f *RadioGroup) SetValue(m *input.Model, value any) error {
	return setOption(m, f, f.Options, value)
}

// Checkbox is a single checkbox submitting CheckedValue when ticked.
type Checkbox struct {
	Base

	// CheckedValue is the submitted value of a ticked box, "1" by default.
	CheckedValue string

	// WrapperClass is the class of the surrounding div; empty disables the
	// wrapper.
	WrapperClass string

	Attrs render.Attrs
}

// NewCheckbox returns a checkbox field.
func NewCheckbox(name string, opts ...Option) *Checkbox {
	return &Checkbox{
		Base:         newBase(name, opts),
		CheckedValue: "1",
		WrapperClass: "checkbox",
	}
}

func (f *Checkbox) Kind() Kind { return KindCheckbox }

// OwnsLabel reports that the checkbox renders its label next to the box.
func (f *Checkbox) OwnsLabel() bool { return true }

// CreateValidators requires the box to be ticked. The required flag is not
// consulted: a checkbox is validated only when it must be accepted.
func (f *Checkbox) CreateValidators() []validation.Validator {
	return []validation.Validator{&validation.Accept{Value: f.CheckedValue}}
}

func (f *Checkbox) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	id := r.ID(f)
	defaults := render.Attrs{
		"type":    "checkbox",
		"name":    r.Name(f),
		"value":   f.CheckedValue,
		"checked": f.Checked(r.Model),
	}
	if id != "" {
		defaults["id"] = id
	}
	html := r.Tag("input", render.Merge(defaults, f.Attrs, attrs))
	if label := r.Label(f); label != "" {
		labelAttrs := render.Attrs{}
		if id != "" {
			labelAttrs["for"] = id
		}
		html += r.Tag("label", labelAttrs, render.SoftEscape(label))
	}
	if f.WrapperClass != "" {
		html = r.Tag("div", render.Attrs{"class": f.WrapperClass}, html)
	}
	return html
}

// Checked reports whether the submitted value equals CheckedValue.
func (f *Checkbox) Checked(m *input.Model) bool {
	s, ok := m.Text(f)
	return ok && s == f.CheckedValue
}

func (f *Checkbox) GetValue(m *input.Model) (any, error) {
	return f.Checked(m), nil
}

func (f *Checkbox) SetValue(m *input.Model, value any) error {
	switch v := value.(type) {
	case nil:
		return m.SetInput(f, nil)
	case bool:
		if !v {
			return m.SetInput(f, nil)
		}
		return m.SetInput(f, f.CheckedValue)
	default:
		return fmt.Errorf("fields: checkbox %q expects a bool, got %T: %w", f.Name(), value, ErrInvalidArgument)
	}
}

func setOption(m *input.Model, f input.Named, options Options, value any) error {
	switch v := value.(type) {
	case nil:
		return m.SetInput(f, nil)
	case string:
		if _, ok := options.Lookup(v); !ok {
			return fmt.Errorf("fields: %q: %q is not an option: %w", f.Name(), v, ErrInvalidArgument)
		}
		return m.SetInput(f, v)
	default:
		return fmt.Errorf("fields: %q expects a string, got %T: %w", f.Name(), value, ErrInvalidArgument)
	}
}
