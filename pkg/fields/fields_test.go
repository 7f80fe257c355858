package fields_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/fields"
	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/validation"
)

func validatorTypes(f fields.Field) []string {
	var out []string
	for _, v := range f.CreateValidators() {
		out = append(out, fmt.Sprintf("%T", v))
	}
	return out
}

func check(t *testing.T, m *input.Model, list ...fields.Field) map[string]string {
	t.Helper()
	v := validation.New(m)
	if err := v.Check(fields.Checkables(list)...); err != nil {
		t.Fatalf("check: %v", err)
	}
	return m.Errors()
}

func TestParseKind(t *testing.T) {
	for _, kind := range fields.Kinds() {
		got, err := fields.ParseKind(" " + string(kind) + " ")
		if err != nil || got != kind {
			t.Errorf("ParseKind(%q) = %q, %v", kind, got, err)
		}
	}
	if _, err := fields.ParseKind("colour"); !errors.Is(err, fields.ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestDefaultValidatorSelection(t *testing.T) {
	text := fields.NewText("name", fields.WithRequired(true))
	text.MinLength = 2
	text.Pattern = "^[a-z]"

	minOnly := fields.NewText("nick")
	minOnly.MinLength = 3

	email := fields.NewEmail("email", fields.WithRequired(true))
	email.MaxLength = 100

	age := fields.NewInt("age")
	age.Min = fields.Ref(0)
	age.Max = fields.Ref(130)

	price := fields.NewFloat("price", fields.WithRequired(true))
	price.Min = fields.Ref(0.5)

	weight := fields.NewFloat("weight")
	weight.Max = fields.Ref(9.5)

	cases := []struct {
		field fields.Field
		want  []string
	}{
		{text, []string{"*validation.Required", "*validation.MinLength", "*validation.Pattern"}},
		{minOnly, []string{"*validation.MinLength"}},
		{email, []string{"*validation.Required", "*validation.Email", "*validation.MaxLength"}},
		{age, []string{"*validation.Int", "*validation.Range"}},
		{price, []string{"*validation.Required", "*validation.Numeric", "*validation.MinValue"}},
		{weight, []string{"*validation.Numeric", "*validation.MaxValue"}},
		{fields.NewCheckbox("terms", fields.WithRequired(true)), []string{"*validation.Accept"}},
		{fields.NewSelect("color", fields.Choices("r"), fields.WithRequired(true)), []string{"*validation.Required", "*validation.Selected"}},
		{fields.NewRadioGroup("size", fields.Choices("s")), []string{"*validation.Selected"}},
		{fields.NewDateTime("at", "2006-01-02", nil), []string{"*validation.Parsed"}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(tc.want, validatorTypes(tc.field)); diff != "" {
			t.Errorf("%s validators mismatch (-want +got):\n%s", tc.field.Name(), diff)
		}
	}
}

func TestIntConversion(t *testing.T) {
	f := fields.NewInt("qty")
	m := input.New()

	if v, err := f.GetValue(m); v != nil || err != nil {
		t.Fatalf("absent input = %v, %v", v, err)
	}
	for _, value := range []int{0, -7, 42, 1 << 40} {
		if err := f.SetValue(m, value); err != nil {
			t.Fatalf("set %d: %v", value, err)
		}
		got, ok, err := f.Int(m)
		if err != nil || !ok || got != value {
			t.Fatalf("round trip %d = %d, %v, %v", value, got, ok, err)
		}
	}

	if err := f.SetValue(m, "12"); !errors.Is(err, fields.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := m.SetInput(f, "12abc"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.GetValue(m); !errors.Is(err, fields.ErrTypeConversion) {
		t.Fatalf("expected ErrTypeConversion, got %v", err)
	}
	if err := f.SetValue(m, nil); err != nil || m.Has(f) {
		t.Fatalf("nil should clear input, err=%v", err)
	}
}

func TestFloatConversion(t *testing.T) {
	f := fields.NewFloat("ratio")
	m := input.New()
	for _, value := range []float64{0, -1.25, 3.5e-3, 1234567.5} {
		if err := f.SetValue(m, value); err != nil {
			t.Fatalf("set %v: %v", value, err)
		}
		got, ok, err := f.Float(m)
		if err != nil || !ok || got != value {
			t.Fatalf("round trip %v = %v, %v, %v", value, got, ok, err)
		}
	}
	if err := f.SetValue(m, 3); err != nil {
		t.Fatal(err)
	}
	if got, _, _ := f.Float(m); got != 3 {
		t.Fatalf("int input = %v", got)
	}
	if err := m.SetInput(f, "1,5"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.GetValue(m); !errors.Is(err, fields.ErrTypeConversion) {
		t.Fatalf("expected ErrTypeConversion, got %v", err)
	}
}

func TestOutOfRangeNumbersFailValidation(t *testing.T) {
	limit := 100.0
	amount := fields.NewFloat("amount")
	amount.Max = &limit
	count := fields.NewInt("count")

	m, err := input.Create(map[string]any{
		"amount": "1e999",
		"count":  "99999999999999999999",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	errs := check(t, m, amount, count)
	for _, name := range []string{"amount", "count"} {
		if errs[name] == "" {
			t.Errorf("expected %s to be invalid, errors = %v", name, errs)
		}
	}
	if m.IsValid() {
		t.Fatal("model reported valid")
	}
}

func TestTextConversion(t *testing.T) {
	f := fields.NewText("title")
	m := input.New()
	if err := f.SetValue(m, "Hello"); err != nil {
		t.Fatal(err)
	}
	if v, err := f.GetValue(m); v != "Hello" || err != nil {
		t.Fatalf("GetValue = %v, %v", v, err)
	}
	if err := f.SetValue(m, 12); !errors.Is(err, fields.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if err := m.SetInput(f, map[string]any{"a": "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.GetValue(m); !errors.Is(err, fields.ErrTypeConversion) {
		t.Fatalf("expected ErrTypeConversion for composite input, got %v", err)
	}
}

func TestSelectScenario(t *testing.T) {
	color := fields.NewSelect("color", fields.Pairs("r", "Red", "g", "Green"),
		fields.WithLabel("Color"), fields.WithRequired(true))

	got := check(t, input.New(), color)
	want := map[string]string{"color": "Color is required"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("absent input (-want +got):\n%s", diff)
	}

	m, _ := input.Create(map[string]any{"color": "b"}, nil)
	got = check(t, m, color)
	want = map[string]string{"color": "Please select Color from the list of available options"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unknown option (-want +got):\n%s", diff)
	}

	m, _ = input.Create(map[string]any{"color": "g"}, nil)
	if got := check(t, m, color); len(got) != 0 || !m.IsValid() {
		t.Fatalf("expected valid model, got %v", got)
	}
	if v, err := color.GetValue(m); v != "g" || err != nil {
		t.Fatalf("GetValue = %v, %v", v, err)
	}
	if err := color.SetValue(m, "x"); !errors.Is(err, fields.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}

	optional := fields.NewSelect("shade", fields.Choices("light", "dark"))
	if got := check(t, input.New(), optional); len(got) != 0 {
		t.Fatalf("optional select should accept absent input, got %v", got)
	}
}

func TestCheckbox(t *testing.T) {
	terms := fields.NewCheckbox("terms", fields.WithLabel("Terms"))

	got := check(t, input.New(), terms)
	want := map[string]string{"terms": "Please confirm by ticking the Terms checkbox"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unticked (-want +got):\n%s", diff)
	}

	m := input.New()
	if err := terms.SetValue(m, true); err != nil {
		t.Fatal(err)
	}
	if s, _ := m.Text(terms); s != "1" {
		t.Fatalf("raw checked value = %q", s)
	}
	if got := check(t, m, terms); len(got) != 0 {
		t.Fatalf("ticked checkbox failed: %v", got)
	}
	if v, _ := terms.GetValue(m); v != true {
		t.Fatalf("GetValue = %v", v)
	}
	if err := terms.SetValue(m, false); err != nil || m.Has(terms) {
		t.Fatalf("false should clear input, err=%v", err)
	}
	if err := terms.SetValue(m, "yes"); !errors.Is(err, fields.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestFirstErrorWinsAcrossDefaults(t *testing.T) {
	age := fields.NewInt("age", fields.WithLabel("Age"), fields.WithRequired(true))
	age.Min = fields.Ref(18)

	m, _ := input.Create(map[string]any{"age": "abc"}, nil)
	got := check(t, m, age)
	want := map[string]string{"age": "Age must be a whole number"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}

	m, _ = input.Create(map[string]any{"age": "12"}, nil)
	got = check(t, m, age)
	want = map[string]string{"age": "Age must be at least 18"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestInvalidPatternIsConfigurationError(t *testing.T) {
	f := fields.NewText("code")
	f.Pattern = "(["
	m, _ := input.Create(map[string]any{"code": "x"}, nil)
	if err := validation.New(m).Check(f); err == nil {
		t.Fatal("expected configuration error")
	}
}

func TestPaths(t *testing.T) {
	list := []fields.Field{fields.NewText("a"), fields.NewInt("b")}
	if diff := cmp.Diff([]string{"a", "b"}, fields.Paths(list)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}
