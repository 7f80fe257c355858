// Package prompt fills a form interactively, validating each answer with the
// field's own validators before moving on.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/fields"
	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/validation"
)

var (
	// ErrAborted signals the user interrupted the prompt.
	ErrAborted = errors.New("prompt: aborted")
	// ErrTooManyAttempts is returned when an answer stays invalid.
	ErrTooManyAttempts = errors.New("prompt: too many invalid answers")
)

// SkipLabel is the choice offered for optional selects.
const SkipLabel = "(none)"

// Form is the part of a built form the prompter needs.
type Form interface {
	All() []fields.Field
}

// Option configures a Prompter.
type Option func(*Prompter)

// WithDriver replaces the terminal driver.
func WithDriver(driver Driver) Option {
	return func(p *Prompter) {
		if driver != nil {
			p.driver = driver
		}
	}
}

// WithLogger sets the logger for retries.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Prompter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithValidation forwards options, such as the locale, to every
// per-answer validation.
func WithValidation(opts ...validation.Option) Option {
	return func(p *Prompter) {
		p.validation = append(p.validation, opts...)
	}
}

// WithMaxAttempts bounds how often one field is asked; zero means unbounded.
func WithMaxAttempts(n int) Option {
	return func(p *Prompter) {
		p.maxAttempts = n
	}
}

// Prompter asks for each field of a form in order.
type Prompter struct {
	driver      Driver
	logger      *zap.Logger
	validation  []validation.Option
	maxAttempts int
}

// New returns a prompter on the survey terminal driver.
func New(opts ...Option) *Prompter {
	p := &Prompter{
		driver:      NewSurveyDriver(),
		logger:      zap.NewNop(),
		maxAttempts: 5,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// Fill asks for every visible field of form and stores the answers in m.
// Hidden and token fields are left untouched. Values already in m are
// offered as defaults.
func (p *Prompter) Fill(ctx context.Context, form Form, m *input.Model) error {
	for _, f := range form.All() {
		switch f.Kind() {
		case fields.KindHidden, fields.KindToken:
			continue
		}
		if err := p.ask(ctx, f, m); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prompter) ask(ctx context.Context, f fields.Field, m *input.Model) error {
	for attempt := 1; p.maxAttempts <= 0 || attempt <= p.maxAttempts; attempt++ {
		answer, err := p.answer(ctx, f, m)
		if err != nil {
			return err
		}
		msg, err := p.check(f, answer)
		if err != nil {
			return err
		}
		if msg == "" {
			return m.SetInput(f, answer.Input(f))
		}
		p.logger.Debug("invalid answer", zap.String("field", f.Name()), zap.Int("attempt", attempt))
		if err := p.driver.Info(ctx, msg); err != nil {
			return err
		}
	}
	return fmt.Errorf("%w: %s", ErrTooManyAttempts, f.Name())
}

// check validates answer alone and returns the field's error message.
func (p *Prompter) check(f fields.Field, answer *input.Model) (string, error) {
	v := validation.New(answer, p.validation...)
	if err := v.Check(f); err != nil {
		return "", err
	}
	return answer.Error(f), nil
}

// answer asks once and returns a scratch model holding only the reply.
func (p *Prompter) answer(ctx context.Context, f fields.Field, m *input.Model) (*input.Model, error) {
	out := input.New()
	label := label(f)
	current, _ := m.Text(f)

	switch field := f.(type) {
	case *fields.Password:
		s, err := p.driver.Password(ctx, InputConfig{Message: label})
		if err != nil {
			return nil, err
		}
		return out, out.SetInput(f, s)
	case *fields.TextArea:
		s, err := p.driver.TextArea(ctx, InputConfig{Message: label, Default: current})
		if err != nil {
			return nil, err
		}
		return out, out.SetInput(f, s)
	case *fields.Checkbox:
		ok, err := p.driver.Confirm(ctx, ConfirmConfig{Message: label, Default: field.Checked(m)})
		if err != nil {
			return nil, err
		}
		return out, field.SetValue(out, ok)
	case *fields.Select:
		return out, p.choose(ctx, out, f, label, current, field.Options)
	case *fields.Timezone:
		return out, p.choose(ctx, out, f, label, current, field.Options)
	case *fields.RadioGroup:
		return out, p.choose(ctx, out, f, label, current, field.Options)
	case *fields.DateSelect:
		def := ""
		if t, ok, err := field.Time(m); err == nil && ok {
			def = t.Format(time.DateOnly)
		}
		s, err := p.driver.Input(ctx, InputConfig{Message: label, Default: def, Help: "YYYY-MM-DD"})
		if err != nil {
			return nil, err
		}
		return out, setDate(out, field, s)
	case *fields.DateTimeLocal:
		return p.line(ctx, out, f, label, current, fields.LocalLayout)
	case *fields.DateTime:
		return p.line(ctx, out, f, label, current, field.Layout)
	default:
		return p.line(ctx, out, f, label, current, f.Placeholder())
	}
}

func (p *Prompter) line(ctx context.Context, out *input.Model, f fields.Field, label, current, help string) (*input.Model, error) {
	s, err := p.driver.Input(ctx, InputConfig{Message: label, Default: current, Help: help})
	if err != nil {
		return nil, err
	}
	return out, out.SetInput(f, strings.TrimSpace(s))
}

func (p *Prompter) choose(ctx context.Context, out *input.Model, f fields.Field, label, current string, options fields.Options) error {
	labels := make([]string, 0, len(options)+1)
	values := make([]string, 0, len(options)+1)
	if !f.Required() {
		labels = append(labels, SkipLabel)
		values = append(values, "")
	}
	def := 0
	for _, c := range options {
		if c.Value == current {
			def = len(values)
		}
		labels = append(labels, c.Label)
		values = append(values, c.Value)
	}
	idx, err := p.driver.Select(ctx, SelectConfig{Message: label, Options: labels, DefaultIndex: def})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(values) {
		return nil
	}
	return out.SetInput(f, values[idx])
}

// setDate stores a YYYY-MM-DD reply as the year, month and day parts. A reply
// that is not a date is kept as the raw parts so validation reports it.
func setDate(out *input.Model, f *fields.DateSelect, reply string) error {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return nil
	}
	loc := f.Location
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(time.DateOnly, reply, loc)
	if err == nil {
		return f.SetValue(out, t)
	}
	parts := strings.SplitN(reply, "-", 3)
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return out.SetInput(f, map[string]any{
		fields.KeyYear:  parts[0],
		fields.KeyMonth: parts[1],
		fields.KeyDay:   parts[2],
	})
}

func label(f fields.Field) string {
	text := f.Label()
	if text == "" {
		text = f.Name()
	}
	if f.Required() {
		text += " *"
	}
	return text
}
