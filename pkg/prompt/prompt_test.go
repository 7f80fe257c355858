package prompt

import (
	"context"
	"errors"
	"testing"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formdef"
	"github.com/goliatone/go-formkit/pkg/input"
)

type stubDriver struct {
	inputs    []string
	passwords []string
	confirms  []bool
	selects   []int
	infos     []string
	selectCfg []SelectConfig
}

func (s *stubDriver) Input(_ context.Context, _ InputConfig) (string, error) {
	if len(s.inputs) == 0 {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[0]
	s.inputs = s.inputs[1:]
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if len(s.passwords) == 0 {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[0]
	s.passwords = s.passwords[1:]
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if len(s.confirms) == 0 {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirms[0]
	s.confirms = s.confirms[1:]
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selectCfg = append(s.selectCfg, cfg)
	if len(s.selects) == 0 {
		return -1, errors.New("no select scripted")
	}
	val := s.selects[0]
	s.selects = s.selects[1:]
	return val, nil
}

func (s *stubDriver) TextArea(ctx context.Context, cfg InputConfig) (string, error) {
	return s.Input(ctx, cfg)
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infos = append(s.infos, msg)
	return nil
}

func buildForm(t *testing.T) *formdef.Form {
	t.Helper()
	form, err := formdef.Build(formdef.Definition{
		ID: "signup",
		Fields: []formdef.FieldSpec{
			{Name: "name", Kind: "text", Label: "Name", Required: true, MinLength: 2},
			{Name: "secret", Kind: "password", Label: "Secret"},
			{Name: "ref", Kind: "hidden"},
			{Name: "plan", Kind: "select", Label: "Plan", Options: formdef.OptionList{
				{Value: "basic", Label: "Basic"},
				{Value: "pro", Label: "Pro"},
			}},
			{Name: "born", Kind: "date-select", Label: "Born", Timezone: "Europe/Copenhagen", MinYear: 1900, MaxYear: 2020},
			{Name: "terms", Kind: "checkbox", Label: "Terms"},
		},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return form
}

func TestFillRetriesInvalidAnswers(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"x", " Ada ", "1975-02-30", "1975-07-07"},
		passwords: []string{"hunter2"},
		selects:   []int{2},
		confirms:  []bool{false, true},
	}
	p := New(WithDriver(driver))
	m := input.New()

	if err := p.Fill(context.Background(), buildForm(t), m); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	want := map[string]any{
		"name":   "Ada",
		"secret": "hunter2",
		"plan":   "pro",
		"born":   map[string]any{"year": "1975", "month": "7", "day": "7"},
		"terms":  "1",
	}
	if diff := cmp.Diff(want, m.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if len(driver.infos) != 3 {
		t.Fatalf("expected three retry messages, got %q", driver.infos)
	}
	if driver.infos[0] != "Name must be at least 2 characters long" {
		t.Fatalf("first message = %q", driver.infos[0])
	}
	if got := driver.selectCfg[0].Options; !cmp.Equal(got, []string{SkipLabel, "Basic", "Pro"}) {
		t.Fatalf("select options = %q", got)
	}
}

func TestFillOffersCurrentValues(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada", ""},
		passwords: []string{""},
		selects:   []int{0},
		confirms:  []bool{true},
	}
	m, err := input.Create(map[string]any{"plan": "basic"}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := New(WithDriver(driver)).Fill(context.Background(), buildForm(t), m); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if got := driver.selectCfg[0].DefaultIndex; got != 1 {
		t.Fatalf("default index = %d, want 1", got)
	}
	if _, ok := m.Values()["plan"]; ok {
		t.Fatalf("skip choice should clear plan, got %v", m.Values())
	}
}

func TestFillGivesUpAfterMaxAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"x", "y"}}
	p := New(WithDriver(driver), WithMaxAttempts(2))

	err := p.Fill(context.Background(), buildForm(t), input.New())
	if !errors.Is(err, ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestFillStopsOnDriverError(t *testing.T) {
	p := New(WithDriver(&stubDriver{}))
	if err := p.Fill(context.Background(), buildForm(t), input.New()); err == nil {
		t.Fatal("expected driver error")
	}
}
