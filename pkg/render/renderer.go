package render

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/goliatone/go-formkit/pkg/input"
)

var (
	// ErrMissingID is returned when a label is requested while ids are
	// disabled.
	ErrMissingID = errors.New("render: id prefix is not set")
	// ErrMissingLabel is returned when a label is requested for a field
	// without one.
	ErrMissingLabel = errors.New("render: field has no label")
)

// Field is the metadata a renderer reads from a form field.
type Field interface {
	input.Named
	Label() string
	Placeholder() string
	Required() bool
}

// Input is a field that knows how to render its control.
type Input interface {
	Field
	RenderInput(r *Renderer, attrs Attrs) string
}

// LabelOwner is implemented by inputs that render their own label, such as
// checkboxes. RenderGroup leaves the label to them.
type LabelOwner interface {
	OwnsLabel() bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithCollection nests input names under the given segments, producing names
// such as form[sub][field]. Unless WithIDPrefix is also given, ids are
// prefixed with the segments joined by dashes.
func WithCollection(segments ...string) Option {
	return func(r *Renderer) {
		r.Collection = append([]string(nil), segments...)
		if r.IDPrefix == "" {
			r.IDPrefix = strings.Join(segments, "-")
		}
	}
}

// WithIDPrefix sets the id prefix. An empty prefix disables ids.
func WithIDPrefix(prefix string) Option {
	return func(r *Renderer) {
		r.IDPrefix = prefix
	}
}

// WithLabelSuffix appends suffix to rendered labels, e.g. ":".
func WithLabelSuffix(suffix string) Option {
	return func(r *Renderer) {
		r.LabelSuffix = suffix
	}
}

// WithXHTML renders value-less attributes as name="name".
func WithXHTML(enabled bool) Option {
	return func(r *Renderer) {
		r.XHTML = enabled
	}
}

// Renderer produces HTML controls for fields from the state of a model.
type Renderer struct {
	Model *input.Model

	Collection  []string
	IDPrefix    string
	LabelSuffix string
	XHTML       bool

	InputClass    string
	LabelClass    string
	GroupTag      string
	GroupClass    string
	RequiredClass string
	ErrorClass    string
	HelpClass     string

	labels       map[string]string
	placeholders map[string]string
	required     map[string]bool
}

// New returns a renderer over m with Bootstrap style class names.
func New(m *input.Model, opts ...Option) *Renderer {
	if m == nil {
		m = input.New()
	}
	r := &Renderer{
		Model:         m,
		InputClass:    "form-control",
		LabelClass:    "control-label",
		GroupTag:      "div",
		GroupClass:    "form-group",
		RequiredClass: "required",
		ErrorClass:    "has-error",
		HelpClass:     "help-block",
		labels:        make(map[string]string),
		placeholders:  make(map[string]string),
		required:      make(map[string]bool),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// SetLabel overrides the label of f for this renderer. An empty label
// suppresses it.
func (r *Renderer) SetLabel(f input.Named, label string) {
	r.labels[f.Name()] = label
}

// SetPlaceholder overrides the placeholder of f for this renderer.
func (r *Renderer) SetPlaceholder(f input.Named, placeholder string) {
	r.placeholders[f.Name()] = placeholder
}

// SetRequired overrides the required flag of f for this renderer.
func (r *Renderer) SetRequired(f input.Named, required bool) {
	r.required[f.Name()] = required
}

// Label returns the label of f, honoring overrides.
func (r *Renderer) Label(f Field) string {
	if label, ok := r.labels[f.Name()]; ok {
		return label
	}
	return f.Label()
}

// Placeholder returns the placeholder of f, honoring overrides.
func (r *Renderer) Placeholder(f Field) string {
	if placeholder, ok := r.placeholders[f.Name()]; ok {
		return placeholder
	}
	return f.Placeholder()
}

// IsRequired reports whether f renders as required, honoring overrides.
func (r *Renderer) IsRequired(f Field) bool {
	if required, ok := r.required[f.Name()]; ok {
		return required
	}
	return f.Required()
}

// HasError reports whether the model holds an error for f.
func (r *Renderer) HasError(f input.Named) bool {
	return r.Model.HasError(f)
}

// Value returns the raw scalar input for f, or nil.
func (r *Renderer) Value(f input.Named) any {
	if s, ok := r.Model.Text(f); ok {
		return s
	}
	return nil
}

// Name returns the name attribute for f.
func (r *Renderer) Name(f input.Named) string {
	if len(r.Collection) == 0 {
		return f.Name()
	}
	var b strings.Builder
	b.WriteString(r.Collection[0])
	for _, segment := range r.Collection[1:] {
		b.WriteString("[" + segment + "]")
	}
	b.WriteString("[" + f.Name() + "]")
	return b.String()
}

// ID returns the id attribute for f, or "" when ids are disabled.
func (r *Renderer) ID(f input.Named) string {
	if r.IDPrefix == "" {
		return ""
	}
	return r.IDPrefix + "-" + f.Name()
}

// Attrs serializes attrs with the renderer's XHTML setting.
func (r *Renderer) Attrs(attrs Attrs) string {
	return attrs.Format(r.XHTML)
}

// OpenTag builds an opening tag.
func (r *Renderer) OpenTag(name string, attrs Attrs) string {
	return "<" + name + r.Attrs(attrs) + ">"
}

// Tag builds an element. Without inner content the tag is self-closing;
// inner content is inserted verbatim.
func (r *Renderer) Tag(name string, attrs Attrs, inner ...string) string {
	if len(inner) == 0 {
		return "<" + name + r.Attrs(attrs) + "/>"
	}
	return r.OpenTag(name, attrs) + strings.Join(inner, "") + "</" + name + ">"
}

// Escape escapes text for HTML.
func (r *Renderer) Escape(s string) string {
	return html.EscapeString(s)
}

// Input builds a plain input element.
func (r *Renderer) Input(typ, name, value string, attrs Attrs) string {
	return r.Tag("input", Merge(Attrs{"type": typ, "name": name, "value": value}, attrs))
}

// InputFor builds an input element for f with the computed name, id, value,
// placeholder and required state. attrs win over the defaults.
func (r *Renderer) InputFor(f Field, typ string, attrs Attrs) string {
	defaults := Attrs{
		"name":     r.Name(f),
		"type":     typ,
		"value":    r.Value(f),
		"required": r.IsRequired(f),
	}
	if id := r.ID(f); id != "" {
		defaults["id"] = id
	}
	if placeholder := r.Placeholder(f); placeholder != "" {
		defaults["placeholder"] = placeholder
	}
	if r.InputClass != "" {
		defaults["class"] = r.InputClass
	}
	return r.Tag("input", Merge(defaults, attrs))
}

// Render renders the control of f.
func (r *Renderer) Render(f Input, attrs Attrs) string {
	return f.RenderInput(r, attrs)
}

// LabelTag builds a label element. The text is soft-escaped so inline markup
// such as <em> survives.
func (r *Renderer) LabelTag(forID, text string, attrs Attrs) string {
	defaults := Attrs{"for": forID}
	if r.LabelClass != "" {
		defaults["class"] = r.LabelClass
	}
	return r.Tag("label", Merge(defaults, attrs), SoftEscape(text)+r.LabelSuffix)
}

// LabelFor builds the label element of f.
func (r *Renderer) LabelFor(f Field, attrs Attrs) (string, error) {
	id := r.ID(f)
	if id == "" {
		return "", fmt.Errorf("render: label for %q: %w", f.Name(), ErrMissingID)
	}
	label := r.Label(f)
	if label == "" {
		return "", fmt.Errorf("render: label for %q: %w", f.Name(), ErrMissingLabel)
	}
	return r.LabelTag(id, label, attrs), nil
}

// Group opens a group element without field state.
func (r *Renderer) Group(attrs Attrs) string {
	return r.OpenTag(r.GroupTag, Merge(Attrs{"class": r.GroupClass}, attrs))
}

// GroupFor opens a group element carrying the required and error classes of f.
func (r *Renderer) GroupFor(f Field, attrs Attrs) string {
	return r.OpenTag(r.GroupTag, Merge(Attrs{"class": r.GroupClass}, r.stateClasses(f), attrs))
}

// EndGroup closes a group element.
func (r *Renderer) EndGroup() string {
	return "</" + r.GroupTag + ">"
}

// ErrorFor renders the error message of f, or "".
func (r *Renderer) ErrorFor(f input.Named) string {
	msg := r.Model.Error(f)
	if msg == "" {
		return ""
	}
	return r.Tag("p", Attrs{"class": r.HelpClass}, r.Escape(msg))
}

// RenderGroup renders f inside a group with its label and error message.
func (r *Renderer) RenderGroup(f Input, attrs Attrs) string {
	var b strings.Builder
	b.WriteString(r.GroupFor(f, nil))
	if owner, ok := f.(LabelOwner); !ok || !owner.OwnsLabel() {
		if label, err := r.LabelFor(f, nil); err == nil {
			b.WriteString(label)
		}
	}
	b.WriteString(r.Render(f, attrs))
	b.WriteString(r.ErrorFor(f))
	b.WriteString(r.EndGroup())
	return b.String()
}

// DivFor wraps inner in a div carrying the required and error classes of f.
func (r *Renderer) DivFor(f Field, inner string, attrs Attrs) string {
	return r.Tag("div", Merge(r.stateClasses(f), attrs), inner)
}

// RenderDiv renders f wrapped by DivFor.
func (r *Renderer) RenderDiv(f Input, inputAttrs, divAttrs Attrs) string {
	return r.DivFor(f, r.Render(f, inputAttrs), divAttrs)
}

// Visit runs fn with the renderer scoped to the nested model of f: names and
// ids gain the field as a segment and Model is the child view. The previous
// scope is restored afterwards.
func (r *Renderer) Visit(f input.Named, fn func(m *input.Model) error) error {
	child, err := r.Model.Child(f)
	if err != nil {
		return fmt.Errorf("render: visit %q: %w", f.Name(), err)
	}

	model, collection, idPrefix := r.Model, r.Collection, r.IDPrefix
	defer func() {
		r.Model, r.Collection, r.IDPrefix = model, collection, idPrefix
	}()

	r.Model = child
	r.Collection = append(append([]string(nil), collection...), f.Name())
	if idPrefix != "" {
		r.IDPrefix = idPrefix + "-" + f.Name()
	}
	return fn(child)
}

func (r *Renderer) stateClasses(f Field) Attrs {
	var classes []string
	if r.RequiredClass != "" && r.IsRequired(f) {
		classes = append(classes, r.RequiredClass)
	}
	if r.ErrorClass != "" && r.HasError(f) {
		classes = append(classes, r.ErrorClass)
	}
	return Attrs{"class": classes}
}
