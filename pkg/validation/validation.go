package validation

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/lang"
)

var (
	// ErrMissingBounds is returned by range validators that have no bounds of
	// their own and were run against a field that does not declare any.
	ErrMissingBounds = errors.New("validation: missing bounds")
	// ErrMissingDependency is returned when a validator lacks a collaborator
	// such as a parser or token checker.
	ErrMissingDependency = errors.New("validation: missing dependency")
)

// Field is the part of a form field the validators need.
type Field interface {
	input.Named
	Label() string
	Required() bool
}

// Validator checks one constraint against one field. Failed constraints are
// recorded on the model; the returned error is reserved for misconfiguration.
type Validator interface {
	Validate(f Field, m *input.Model, v *InputValidation) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(f Field, m *input.Model, v *InputValidation) error

// Validate implements Validator.
func (fn ValidatorFunc) Validate(f Field, m *input.Model, v *InputValidation) error {
	return fn(f, m, v)
}

// Checkable is a field that derives its own validators.
type Checkable interface {
	Field
	CreateValidators() []Validator
}

// Texts resolves localized message templates.
type Texts interface {
	Text(locale, key string, params map[string]string) string
}

// Option configures an InputValidation.
type Option func(*InputValidation)

// WithTexts replaces the message catalog. Defaults to lang.Default().
func WithTexts(texts Texts) Option {
	return func(v *InputValidation) {
		if texts != nil {
			v.texts = texts
		}
	}
}

// WithLocale selects the locale used for messages.
func WithLocale(locale string) Option {
	return func(v *InputValidation) {
		v.locale = strings.TrimSpace(locale)
	}
}

// WithLogger sets the logger used to trace recorded failures.
func WithLogger(logger *zap.Logger) Option {
	return func(v *InputValidation) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// InputValidation runs validators against a model for one validation pass.
type InputValidation struct {
	model  *input.Model
	labels map[string]string
	texts  Texts
	locale string
	logger *zap.Logger
}

// New wraps m and starts a fresh validation pass: errors are cleared and the
// model is marked validated, so IsValid is meaningful immediately.
func New(m *input.Model, opts ...Option) *InputValidation {
	if m == nil {
		m = input.New()
	}
	v := &InputValidation{
		model:  m,
		labels: make(map[string]string),
		texts:  lang.Default(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	m.ClearErrors(true)
	return v
}

// Model returns the wrapped model.
func (v *InputValidation) Model() *input.Model {
	return v.model
}

// Locale returns the locale used for messages.
func (v *InputValidation) Locale() string {
	return v.locale
}

// SetLabel overrides the display title used for f in error messages.
func (v *InputValidation) SetLabel(f input.Named, title string) {
	v.labels[f.Name()] = title
}

// Label returns the display title for f: the override when set, otherwise the
// field label, otherwise its name.
func (v *InputValidation) Label(f Field) string {
	if title, ok := v.labels[f.Name()]; ok {
		return title
	}
	if label := f.Label(); label != "" {
		return label
	}
	return f.Name()
}

// Text resolves a message key with the validation's locale.
func (v *InputValidation) Text(key string, params map[string]string) string {
	return v.texts.Text(v.locale, key, params)
}

// Check runs the default validators of every field in order. It stops at the
// first misconfigured validator.
func (v *InputValidation) Check(fields ...Checkable) error {
	for _, f := range fields {
		if f == nil {
			continue
		}
		if err := v.Validate(f, f.CreateValidators()...); err != nil {
			return err
		}
	}
	return nil
}

// Validate runs the given validators against f, independent of the field's
// own defaults.
func (v *InputValidation) Validate(f Field, validators ...Validator) error {
	for _, validator := range validators {
		if validator == nil {
			continue
		}
		if err := validator.Validate(f, v.model, v); err != nil {
			return fmt.Errorf("validation: field %q: %w", f.Name(), err)
		}
	}
	return nil
}

// ValidateEach runs the given validators against each field in turn.
func (v *InputValidation) ValidateEach(fields []Field, validators ...Validator) error {
	for _, f := range fields {
		if err := v.Validate(f, validators...); err != nil {
			return err
		}
	}
	return nil
}

// Fail records a failure for f on m. A custom message wins over the catalog
// template for key; both have {field} and params substituted.
func (v *InputValidation) Fail(m *input.Model, f Field, custom, key string, params map[string]string) {
	if m.HasError(f) {
		return
	}
	vars := make(map[string]string, len(params)+1)
	for name, value := range params {
		vars[name] = value
	}
	vars["field"] = v.Label(f)

	var msg string
	if custom != "" {
		msg = lang.Format(custom, vars)
	} else {
		msg = v.Text(key, vars)
	}
	m.SetError(f, msg)
	v.logger.Debug("validation failed",
		zap.String("field", f.Name()),
		zap.String("rule", key),
		zap.String("message", msg),
	)
}
