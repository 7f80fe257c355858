package render_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/render"
)

type textField struct {
	name        string
	label       string
	placeholder string
	required    bool
}

func (f textField) Name() string        { return f.name }
func (f textField) Label() string       { return f.label }
func (f textField) Placeholder() string { return f.placeholder }
func (f textField) Required() bool      { return f.required }

func (f textField) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	return r.InputFor(f, "text", attrs)
}

func newModel(t *testing.T, values map[string]any) *input.Model {
	t.Helper()
	m, err := input.Create(values, nil)
	if err != nil {
		t.Fatalf("create model: %v", err)
	}
	return m
}

func TestNameAndID(t *testing.T) {
	f := input.Key("field")

	r := render.New(nil)
	if got := r.Name(f); got != "field" {
		t.Errorf("Name = %q", got)
	}
	if got := r.ID(f); got != "" {
		t.Errorf("ID without prefix = %q", got)
	}

	r = render.New(nil, render.WithCollection("form", "sub"))
	if got := r.Name(f); got != "form[sub][field]" {
		t.Errorf("Name = %q", got)
	}
	if got := r.ID(f); got != "form-sub-field" {
		t.Errorf("ID = %q", got)
	}

	r = render.New(nil, render.WithIDPrefix("x"), render.WithCollection("form"))
	if got := r.ID(f); got != "x-field" {
		t.Errorf("ID with explicit prefix = %q", got)
	}
}

func TestInputFor(t *testing.T) {
	email := textField{name: "email", label: "Email", placeholder: "you@example.com", required: true}
	r := render.New(newModel(t, map[string]any{"email": "a&b"}), render.WithIDPrefix("form"))

	got := r.InputFor(email, "text", render.Attrs{"maxlength": 10, "class": "wide"})
	want := `<input class="form-control wide" id="form-email" maxlength="10" name="email" placeholder="you@example.com" required type="text" value="a&amp;b"/>`
	if got != want {
		t.Fatalf("InputFor mismatch\nwant %s\ngot  %s", want, got)
	}

	plain := textField{name: "nick"}
	got = r.InputFor(plain, "text", nil)
	want = `<input class="form-control" id="form-nick" name="nick" type="text"/>`
	if got != want {
		t.Fatalf("InputFor mismatch\nwant %s\ngot  %s", want, got)
	}

	xhtml := render.New(nil, render.WithXHTML(true))
	got = xhtml.InputFor(email, "text", nil)
	if !strings.Contains(got, ` required="required"`) {
		t.Fatalf("expected XHTML boolean attribute, got %s", got)
	}
}

func TestLabelFor(t *testing.T) {
	r := render.New(nil, render.WithIDPrefix("form"))

	got, err := r.LabelFor(textField{name: "email", label: "Your <em>email</em>"}, nil)
	if err != nil {
		t.Fatalf("LabelFor: %v", err)
	}
	want := `<label class="control-label" for="form-email">Your <em>email</em></label>`
	if got != want {
		t.Fatalf("LabelFor mismatch\nwant %s\ngot  %s", want, got)
	}

	got, err = r.LabelFor(textField{name: "name", label: "Name<script>alert(1)</script>"}, nil)
	if err != nil {
		t.Fatalf("LabelFor: %v", err)
	}
	if strings.Contains(got, "script") {
		t.Fatalf("script survived soft escape: %s", got)
	}

	if _, err := r.LabelFor(textField{name: "anon"}, nil); !errors.Is(err, render.ErrMissingLabel) {
		t.Fatalf("expected ErrMissingLabel, got %v", err)
	}
	if _, err := render.New(nil).LabelFor(textField{name: "email", label: "Email"}, nil); !errors.Is(err, render.ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}

	suffixed := render.New(nil, render.WithIDPrefix("form"), render.WithLabelSuffix(":"))
	got, _ = suffixed.LabelFor(textField{name: "email", label: "Email"}, nil)
	if want := `<label class="control-label" for="form-email">Email:</label>`; got != want {
		t.Fatalf("LabelFor mismatch\nwant %s\ngot  %s", want, got)
	}
}

func TestRenderGroup(t *testing.T) {
	email := textField{name: "email", label: "Email", required: true}
	m := newModel(t, nil)
	m.SetError(email, "Email is required")
	r := render.New(m, render.WithIDPrefix("form"))

	got := r.RenderGroup(email, nil)
	want := `<div class="form-group required has-error">` +
		`<label class="control-label" for="form-email">Email</label>` +
		`<input class="form-control" id="form-email" name="email" required type="text"/>` +
		`<p class="help-block">Email is required</p>` +
		`</div>`
	if got != want {
		t.Fatalf("RenderGroup mismatch\nwant %s\ngot  %s", want, got)
	}

	doc, err := html.Parse(strings.NewReader(got))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	attrs := findAttrs(doc, "input")
	wantAttrs := map[string]string{
		"class":    "form-control",
		"id":       "form-email",
		"name":     "email",
		"required": "",
		"type":     "text",
	}
	if diff := cmp.Diff(wantAttrs, attrs); diff != "" {
		t.Fatalf("parsed input attrs mismatch (-want +got):\n%s", diff)
	}
}

func TestOverrides(t *testing.T) {
	email := textField{name: "email", label: "Email", placeholder: "mail", required: true}
	r := render.New(nil, render.WithIDPrefix("f"))
	r.SetLabel(email, "E-mail address")
	r.SetPlaceholder(email, "")
	r.SetRequired(email, false)

	if got := r.Label(email); got != "E-mail address" {
		t.Errorf("Label = %q", got)
	}
	if r.IsRequired(email) {
		t.Error("expected required override")
	}
	got := r.RenderDiv(email, nil, render.Attrs{"class": "col"})
	want := `<div class="col"><input class="form-control" id="f-email" name="email" type="text"/></div>`
	if got != want {
		t.Fatalf("RenderDiv mismatch\nwant %s\ngot  %s", want, got)
	}
}

func TestVisit(t *testing.T) {
	city := textField{name: "city"}
	m := newModel(t, map[string]any{
		"address": map[string]any{"city": "Aarhus"},
	})
	m.SetError(input.Key("address.city"), "Unknown city")
	r := render.New(m, render.WithIDPrefix("form"))

	var inside string
	err := r.Visit(input.Key("address"), func(child *input.Model) error {
		if child.Error(city) != "Unknown city" {
			t.Errorf("child error = %q", child.Error(city))
		}
		inside = r.Render(city, nil)
		return nil
	})
	if err != nil {
		t.Fatalf("visit: %v", err)
	}
	want := `<input class="form-control" id="form-address-city" name="address[city]" type="text" value="Aarhus"/>`
	if inside != want {
		t.Fatalf("nested render mismatch\nwant %s\ngot  %s", want, inside)
	}

	if got := r.Name(city); got != "city" {
		t.Errorf("scope not restored, Name = %q", got)
	}
	if r.Model != m {
		t.Error("model not restored")
	}

	scalar := newModel(t, map[string]any{"address": "flat"})
	err = render.New(scalar).Visit(input.Key("address"), func(*input.Model) error { return nil })
	if !errors.Is(err, input.ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestTag(t *testing.T) {
	r := render.New(nil)
	if got := r.Tag("br", nil); got != "<br/>" {
		t.Errorf("Tag = %q", got)
	}
	got := r.Tag("span", render.Attrs{"hidden": true, "title": "", "data-x": nil, "disabled": false}, "<b>x</b>")
	if want := `<span hidden title=""><b>x</b></span>`; got != want {
		t.Errorf("Tag = %q, want %q", got, want)
	}
	got = r.Group(render.Attrs{"class": []string{"row", "form-group"}}) + r.EndGroup()
	if want := `<div class="form-group row"></div>`; got != want {
		t.Errorf("Group = %q, want %q", got, want)
	}
}

func findAttrs(n *html.Node, tag string) map[string]string {
	if n.Type == html.ElementNode && n.Data == tag {
		out := make(map[string]string, len(n.Attr))
		for _, attr := range n.Attr {
			out[attr.Key] = attr.Val
		}
		return out
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if attrs := findAttrs(c, tag); attrs != nil {
			return attrs
		}
	}
	return nil
}
