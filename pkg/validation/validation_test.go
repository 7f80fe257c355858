package validation_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/lang"
	"github.com/goliatone/go-formkit/pkg/validation"
)

type checkableField struct {
	stubField
	validators []validation.Validator
}

func (f checkableField) CreateValidators() []validation.Validator { return f.validators }

func TestNewStartsFreshPass(t *testing.T) {
	m := input.New()
	m.SetError(input.Key("stale"), "old error")

	validation.New(m)

	if m.HasErrors() {
		t.Fatalf("expected errors to be cleared, got %v", m.Errors())
	}
	if !m.IsValid() {
		t.Fatalf("expected model to be valid immediately after New")
	}
}

func TestCheckRunsDefaultsInOrder(t *testing.T) {
	name := checkableField{
		stubField: stubField{name: "name", label: "Name", required: true},
		validators: []validation.Validator{
			&validation.Required{},
			&validation.MinLength{Min: 3},
		},
	}
	age := checkableField{
		stubField: stubField{name: "age", label: "Age"},
		validators: []validation.Validator{
			&validation.Int{},
			validation.NewRange(18, 120),
		},
	}

	m, _ := input.Create(map[string]any{"age": "12"}, nil)
	v := validation.New(m)
	if err := v.Check(name, age); err != nil {
		t.Fatalf("check: %v", err)
	}

	want := map[string]string{
		"name": "Name is required",
		"age":  "Age must be between 18 and 120",
	}
	if diff := cmp.Diff(want, m.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if m.IsValid() {
		t.Fatalf("model with errors must not be valid")
	}
}

func TestFirstErrorWinsAcrossCalls(t *testing.T) {
	f := stubField{name: "value", label: "Value"}
	m, _ := input.Create(map[string]any{"value": "abc"}, nil)
	v := validation.New(m)

	_ = v.Validate(f, &validation.Int{})
	_ = v.Validate(f, &validation.MinLength{Min: 10}, &validation.Email{})

	if got := m.Error(f); got != "Value must be a whole number" {
		t.Fatalf("expected the first error to stick, got %q", got)
	}
}

func TestLabelOverride(t *testing.T) {
	f := stubField{name: "test", label: "Test"}
	m, _ := input.Create(map[string]any{"test": "not_a_number"}, nil)
	v := validation.New(m)

	if got := v.Label(f); got != "Test" {
		t.Fatalf("expected field label, got %q", got)
	}
	v.SetLabel(f, "Blub")
	if got := v.Label(f); got != "Blub" {
		t.Fatalf("expected override, got %q", got)
	}

	_ = v.Validate(f, &validation.Int{})
	if got := m.Error(f); got != "Blub must be a whole number" {
		t.Fatalf("unexpected message %q", got)
	}

	if got := v.Label(stubField{name: "unlabeled"}); got != "unlabeled" {
		t.Fatalf("expected name fallback, got %q", got)
	}
}

func TestCustomMessageAndLocale(t *testing.T) {
	f := stubField{name: "value", label: "Værdi"}
	m := input.New()
	v := validation.New(m, validation.WithLocale("da"), validation.WithTexts(lang.Default()))
	_ = v.Validate(f, &validation.Required{})
	if got := m.Error(f); got != "Værdi skal udfyldes" {
		t.Fatalf("expected danish message, got %q", got)
	}

	m = input.New()
	v = validation.New(m)
	_ = v.Validate(f, &validation.Required{Message: "Fill in {field}!"})
	if got := m.Error(f); got != "Fill in Værdi!" {
		t.Fatalf("expected custom message, got %q", got)
	}
}

func TestValidateStopsOnMisconfiguration(t *testing.T) {
	f := stubField{name: "value"}
	m, _ := input.Create(map[string]any{"value": "1"}, nil)
	v := validation.New(m)

	ran := false
	err := v.Validate(f, &validation.Range{}, validation.ValidatorFunc(func(validation.Field, *input.Model, *validation.InputValidation) error {
		ran = true
		return nil
	}))
	if !errors.Is(err, validation.ErrMissingBounds) {
		t.Fatalf("expected ErrMissingBounds, got %v", err)
	}
	if ran {
		t.Fatalf("validators after a misconfigured one must not run")
	}
}

func TestValidateEach(t *testing.T) {
	a := stubField{name: "a"}
	b := stubField{name: "b"}
	m, _ := input.Create(map[string]any{"a": "x"}, nil)
	v := validation.New(m)

	if err := v.ValidateEach([]validation.Field{a, b}, &validation.Required{}); err != nil {
		t.Fatalf("validate each: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, m.ErrorKeys()); diff != "" {
		t.Fatalf("error keys mismatch (-want +got):\n%s", diff)
	}
}

func TestFailuresAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := stubField{name: "value"}
	m := input.New()
	v := validation.New(m, validation.WithLogger(zap.New(core)))
	_ = v.Validate(f, &validation.Required{})

	entries := logs.FilterMessage("validation failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["rule"]; got != lang.KeyRequired {
		t.Fatalf("expected rule field, got %v", got)
	}
}

func TestChildModelValidation(t *testing.T) {
	m := input.New()
	child, err := m.Child(input.Key("address"))
	if err != nil {
		t.Fatalf("child: %v", err)
	}
	v := validation.New(m)
	city := stubField{name: "city", label: "City"}
	if err := (&validation.Required{}).Validate(city, child, v); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if diff := cmp.Diff(map[string]string{"address.city": "City is required"}, m.Errors()); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
}
