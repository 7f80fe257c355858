package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/lang"
)

var (
	intPattern   = regexp.MustCompile(`^[+-]?(0|[1-9][0-9]*)$`)
	floatPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)

	formats = validator.New()
)

// Bounded is implemented by fields that declare numeric bounds.
type Bounded interface {
	NumericBounds() (min, max *float64)
}

// Parser converts raw input into a native value.
type Parser interface {
	Parse(raw any) (any, error)
}

// TokenChecker verifies a submitted CSRF token.
type TokenChecker interface {
	CheckToken(name, token string) bool
}

// Required fails when no input is present.
type Required struct {
	Message string
}

func (c *Required) Validate(f Field, m *input.Model, v *InputValidation) error {
	if !m.Has(f) {
		v.Fail(m, f, c.Message, lang.KeyRequired, nil)
	}
	return nil
}

// Length fails when the character count is outside [Min, Max].
type Length struct {
	Min, Max int
	Message  string
}

func (c *Length) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if n := utf8.RuneCountInString(s); !scalar || n < c.Min || n > c.Max {
		v.Fail(m, f, c.Message, lang.KeyLength, map[string]string{"min": strconv.Itoa(c.Min), "max": strconv.Itoa(c.Max)})
	}
	return nil
}

// MinLength fails when the character count is below Min.
type MinLength struct {
	Min     int
	Message string
}

func (c *MinLength) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if !scalar || utf8.RuneCountInString(s) < c.Min {
		v.Fail(m, f, c.Message, lang.KeyMinLength, map[string]string{"min": strconv.Itoa(c.Min)})
	}
	return nil
}

// MaxLength fails when the character count exceeds Max.
type MaxLength struct {
	Max     int
	Message string
}

func (c *MaxLength) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if !scalar || utf8.RuneCountInString(s) > c.Max {
		v.Fail(m, f, c.Message, lang.KeyMaxLength, map[string]string{"max": strconv.Itoa(c.Max)})
	}
	return nil
}

// Int fails unless the input is a whole number.
type Int struct {
	Message string
}

func (c *Int) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if !scalar || !IsInt(s) {
		v.Fail(m, f, c.Message, lang.KeyInt, nil)
	}
	return nil
}

// Numeric fails unless the input is an integer or decimal number.
type Numeric struct {
	Message string
}

func (c *Numeric) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if !scalar || !IsNumeric(s) {
		v.Fail(m, f, c.Message, lang.KeyFloat, nil)
	}
	return nil
}

// Range fails when the numeric input is outside [Min, Max]. Nil bounds are
// taken from the field when it implements Bounded.
type Range struct {
	Min, Max *float64
	Message  string
}

// NewRange returns a Range with explicit bounds.
func NewRange(min, max float64) *Range {
	return &Range{Min: &min, Max: &max}
}

func (c *Range) Validate(f Field, m *input.Model, v *InputValidation) error {
	min, max := c.Min, c.Max
	if min == nil || max == nil {
		fmin, fmax := fieldBounds(f)
		if min == nil {
			min = fmin
		}
		if max == nil {
			max = fmax
		}
	}
	if min == nil || max == nil {
		return fmt.Errorf("range: %w", ErrMissingBounds)
	}

	value, ok := number(f, m, v, c.Message)
	if !ok {
		return nil
	}
	if value < *min || value > *max {
		v.Fail(m, f, c.Message, lang.KeyRange, map[string]string{"min": formatFloat(*min), "max": formatFloat(*max)})
	}
	return nil
}

// MinValue fails when the numeric input is below Min.
type MinValue struct {
	Min     *float64
	Message string
}

// NewMinValue returns a MinValue with an explicit bound.
func NewMinValue(min float64) *MinValue {
	return &MinValue{Min: &min}
}

func (c *MinValue) Validate(f Field, m *input.Model, v *InputValidation) error {
	min := c.Min
	if min == nil {
		min, _ = fieldBounds(f)
	}
	if min == nil {
		return fmt.Errorf("min value: %w", ErrMissingBounds)
	}

	value, ok := number(f, m, v, c.Message)
	if !ok {
		return nil
	}
	if value < *min {
		v.Fail(m, f, c.Message, lang.KeyMinValue, map[string]string{"min": formatFloat(*min)})
	}
	return nil
}

// MaxValue fails when the numeric input exceeds Max.
type MaxValue struct {
	Max     *float64
	Message string
}

// NewMaxValue returns a MaxValue with an explicit bound.
func NewMaxValue(max float64) *MaxValue {
	return &MaxValue{Max: &max}
}

func (c *MaxValue) Validate(f Field, m *input.Model, v *InputValidation) error {
	max := c.Max
	if max == nil {
		_, max = fieldBounds(f)
	}
	if max == nil {
		return fmt.Errorf("max value: %w", ErrMissingBounds)
	}

	value, ok := number(f, m, v, c.Message)
	if !ok {
		return nil
	}
	if value > *max {
		v.Fail(m, f, c.Message, lang.KeyMaxValue, map[string]string{"max": formatFloat(*max)})
	}
	return nil
}

// Email fails unless the input is a bare e-mail address.
type Email struct {
	Message string
}

func (c *Email) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if !scalar || !IsEmail(s) {
		v.Fail(m, f, c.Message, lang.KeyEmail, nil)
	}
	return nil
}

// Pattern fails unless the input matches Regexp somewhere. Anchor the
// expression to require a full match.
type Pattern struct {
	Regexp  *regexp.Regexp
	Message string
}

// NewPattern compiles expr into a Pattern validator.
func NewPattern(expr, message string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("validation: pattern %q: %w", expr, err)
	}
	return &Pattern{Regexp: re, Message: message}, nil
}

func (c *Pattern) Validate(f Field, m *input.Model, v *InputValidation) error {
	if c.Regexp == nil {
		return fmt.Errorf("pattern: regexp: %w", ErrMissingDependency)
	}
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if !scalar || !c.Regexp.MatchString(s) {
		v.Fail(m, f, c.Message, lang.KeyPattern, nil)
	}
	return nil
}

// Selected fails unless the input is one of Options. Absent input is left to
// Required.
type Selected struct {
	Options []string
	Message string
}

func (c *Selected) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	if scalar {
		for _, option := range c.Options {
			if option == s {
				return nil
			}
		}
	}
	v.Fail(m, f, c.Message, lang.KeySelected, nil)
	return nil
}

// Accept fails unless the input equals Value. It runs regardless of the
// field's required flag, so an unticked checkbox always fails.
type Accept struct {
	Value   string
	Message string
}

func (c *Accept) Validate(f Field, m *input.Model, v *InputValidation) error {
	s, present, scalar := text(m, f)
	if !present || !scalar || s != c.Value {
		v.Fail(m, f, c.Message, lang.KeyChecked, nil)
	}
	return nil
}

// SameValue fails when the input differs from the input of Primary, as for
// confirm-password fields.
type SameValue struct {
	Primary input.Named
	Message string
}

func (c *SameValue) Validate(f Field, m *input.Model, v *InputValidation) error {
	if c.Primary == nil {
		return fmt.Errorf("same value: primary field: %w", ErrMissingDependency)
	}
	s, present, scalar := text(m, f)
	if !present {
		return nil
	}
	other, ok := m.Text(c.Primary)
	if !scalar || !ok || s != other {
		v.Fail(m, f, c.Message, lang.KeyConfirm, nil)
	}
	return nil
}

// Parsed fails when Parser rejects the input. Without a custom message the
// date/time template is used.
type Parsed struct {
	Parser  Parser
	Message string
}

// DateTime returns a Parsed validator reporting the date/time message.
func DateTime(p Parser) *Parsed {
	return &Parsed{Parser: p}
}

func (c *Parsed) Validate(f Field, m *input.Model, v *InputValidation) error {
	if c.Parser == nil {
		return fmt.Errorf("parsed: parser: %w", ErrMissingDependency)
	}
	raw := m.Input(f)
	if raw == nil {
		return nil
	}
	if _, err := c.Parser.Parse(raw); err != nil {
		v.Fail(m, f, c.Message, lang.KeyDateTime, nil)
	}
	return nil
}

// Token fails when the submitted CSRF token is missing or rejected.
type Token struct {
	Checker TokenChecker
	Message string
}

func (c *Token) Validate(f Field, m *input.Model, v *InputValidation) error {
	if c.Checker == nil {
		return fmt.Errorf("token: checker: %w", ErrMissingDependency)
	}
	s, present, scalar := text(m, f)
	if !present || !scalar {
		v.Fail(m, f, c.Message, lang.KeyNoToken, nil)
		return nil
	}
	if !c.Checker.CheckToken(f.Name(), s) {
		v.Fail(m, f, c.Message, lang.KeyToken, nil)
	}
	return nil
}

// IsInt reports whether s is a whole number without leading zeros that fits
// in an int.
func IsInt(s string) bool {
	s = strings.TrimSpace(s)
	if !intPattern.MatchString(s) {
		return false
	}
	_, err := strconv.ParseInt(s, 10, strconv.IntSize)
	return err == nil
}

// IsNumeric reports whether s is an integer or decimal number with a finite
// float64 value.
func IsNumeric(s string) bool {
	_, ok := parseNumber(s)
	return ok
}

// IsEmail reports whether s is a bare e-mail address.
func IsEmail(s string) bool {
	return s != "" && formats.Var(s, "email") == nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !floatPattern.MatchString(s) {
		return 0, false
	}
	value, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}

// text reads the input for f. present is false when nothing was submitted;
// scalar is false for composite input.
func text(m *input.Model, f Field) (s string, present, scalar bool) {
	switch value := m.Input(f).(type) {
	case nil:
		return "", false, false
	case string:
		return value, true, true
	default:
		return "", true, false
	}
}

// number runs the Numeric check and returns the parsed input. ok is false when
// the input is absent or failed (now or earlier in the pass).
func number(f Field, m *input.Model, v *InputValidation, message string) (float64, bool) {
	numeric := &Numeric{Message: message}
	if err := numeric.Validate(f, m, v); err != nil || m.HasError(f) {
		return 0, false
	}
	s, present, _ := text(m, f)
	if !present {
		return 0, false
	}
	value, ok := parseNumber(s)
	if !ok {
		v.Fail(m, f, message, lang.KeyFloat, nil)
		return 0, false
	}
	return value, true
}

func fieldBounds(f Field) (min, max *float64) {
	if bounded, ok := f.(Bounded); ok {
		return bounded.NumericBounds()
	}
	return nil, nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
