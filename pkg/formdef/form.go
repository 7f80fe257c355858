package formdef

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-formkit/pkg/fields"
	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/lang"
	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/token"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// Option configures Build.
type Option func(*builder)

type builder struct {
	issuer   token.Issuer
	location *time.Location
	catalog  *lang.Catalog
}

// WithIssuer supplies the token service for token fields and the form token.
func WithIssuer(issuer token.Issuer) Option {
	return func(b *builder) {
		b.issuer = issuer
	}
}

// WithLocation sets the default time zone of date fields.
func WithLocation(loc *time.Location) Option {
	return func(b *builder) {
		b.location = loc
	}
}

// WithCatalog sets the catalog date selects read month names from.
func WithCatalog(catalog *lang.Catalog) Option {
	return func(b *builder) {
		b.catalog = catalog
	}
}

// Form is a built definition.
type Form struct {
	Definition Definition
	Fields     []fields.Field

	byName  map[string]fields.Field
	confirm map[string]string
	token   *fields.Token
}

// Build converts def into fields.
func Build(def Definition, opts ...Option) (*Form, error) {
	b := &builder{location: time.Local}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if err := def.Check(); err != nil {
		return nil, err
	}

	form := &Form{
		Definition: def,
		byName:     make(map[string]fields.Field, len(def.Fields)+1),
		confirm:    make(map[string]string),
	}
	for _, spec := range def.Fields {
		f, err := b.field(def, spec)
		if err != nil {
			return nil, fmt.Errorf("formdef: %s: field %q: %w", def.ID, spec.Name, err)
		}
		form.Fields = append(form.Fields, f)
		form.byName[f.Name()] = f
		if spec.Confirm != "" {
			form.confirm[f.Name()] = spec.Confirm
		}
	}
	if def.Token != "" {
		if b.issuer == nil {
			return nil, fmt.Errorf("formdef: %s: token %q needs an issuer: %w", def.ID, def.Token, ErrInvalidDefinition)
		}
		form.token = fields.NewToken(def.Token, b.issuer)
		form.byName[form.token.Name()] = form.token
	}
	return form, nil
}

// Load reads, parses and builds the definition at name in fsys.
func Load(fsys fs.FS, name string, opts ...Option) (*Form, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("formdef: read %s: %w", name, err)
	}
	def, err := Parse(data, name)
	if err != nil {
		return nil, err
	}
	return Build(def, opts...)
}

// LoadFile loads a definition from the local file system.
func LoadFile(name string, opts ...Option) (*Form, error) {
	dir, file := filepath.Split(name)
	if dir == "" {
		dir = "."
	}
	return Load(os.DirFS(dir), file, opts...)
}

// LoadAll parses every .yaml, .yml and .json definition in fsys, keyed by
// definition id.
func LoadAll(fsys fs.FS) (map[string]Definition, error) {
	defs := make(map[string]Definition)
	err := fs.WalkDir(fsys, ".", func(name string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDefinitionFile(name) {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("formdef: read %s: %w", name, err)
		}
		def, err := Parse(data, name)
		if err != nil {
			return err
		}
		if _, exists := defs[def.ID]; exists {
			return fmt.Errorf("formdef: duplicate form %q (file %s): %w", def.ID, name, ErrInvalidDefinition)
		}
		defs[def.ID] = def
		return nil
	})
	if err != nil {
		return nil, err
	}
	return defs, nil
}

// Field returns the field named name. The token field is addressed by its
// generated name.
func (f *Form) Field(name string) (fields.Field, bool) {
	field, ok := f.byName[name]
	return field, ok
}

// Token returns the CSRF token field, or nil.
func (f *Form) Token() *fields.Token {
	return f.token
}

// All returns the fields including the token field.
func (f *Form) All() []fields.Field {
	if f.token == nil {
		return f.Fields
	}
	return append(append([]fields.Field(nil), f.Fields...), f.token)
}

// Validate runs the default validators of every field, then the confirmation
// checks, and reports whether m is valid. The error return is reserved for
// configuration problems.
func (f *Form) Validate(m *input.Model, opts ...validation.Option) (bool, error) {
	if f.Definition.Locale != "" {
		opts = append([]validation.Option{validation.WithLocale(f.Definition.Locale)}, opts...)
	}
	v := validation.New(m, opts...)
	if err := v.Check(fields.Checkables(f.All())...); err != nil {
		return false, err
	}
	for _, field := range f.Fields {
		primary, ok := f.confirm[field.Name()]
		if !ok {
			continue
		}
		if err := v.Validate(field, &validation.SameValue{Primary: input.Key(primary)}); err != nil {
			return false, err
		}
	}
	return m.IsValid(), nil
}

// Values converts the input of every field with a native value. Fields
// without input are left out.
func (f *Form) Values(m *input.Model) (map[string]any, error) {
	out := make(map[string]any, len(f.Fields))
	for _, field := range f.Fields {
		valuer, ok := field.(fields.Valuer)
		if !ok {
			continue
		}
		value, err := valuer.GetValue(m)
		if err != nil {
			return nil, err
		}
		if value != nil {
			out[field.Name()] = value
		}
	}
	return out, nil
}

// SetValues assigns native values to the named fields.
func (f *Form) SetValues(m *input.Model, values map[string]any) error {
	for name, value := range values {
		field, ok := f.byName[name]
		if !ok {
			return fmt.Errorf("formdef: unknown field %q: %w", name, fields.ErrInvalidArgument)
		}
		valuer, ok := field.(fields.Valuer)
		if !ok {
			return fmt.Errorf("formdef: field %q holds no value: %w", name, fields.ErrInvalidArgument)
		}
		if err := valuer.SetValue(m, value); err != nil {
			return err
		}
	}
	return nil
}

// RenderFields renders every field in a group, followed by the token input.
func (f *Form) RenderFields(r *render.Renderer) string {
	var b strings.Builder
	for _, field := range f.Fields {
		if field.Kind() == fields.KindHidden {
			b.WriteString(r.Render(field, nil))
			continue
		}
		b.WriteString(r.RenderGroup(field, nil))
	}
	if f.token != nil {
		b.WriteString(r.Render(f.token, nil))
	}
	return b.String()
}

// Paths returns the field names for error payload mapping.
func (f *Form) Paths() []string {
	return fields.Paths(f.Fields)
}

func (b *builder) field(def Definition, spec FieldSpec) (fields.Field, error) {
	kind, err := fields.ParseKind(defaultKind(spec.Kind))
	if err != nil {
		return nil, err
	}
	opts := []fields.Option{
		fields.WithLabel(spec.Label),
		fields.WithPlaceholder(spec.Placeholder),
		fields.WithRequired(spec.Required),
	}
	attrs := renderAttrs(spec.Attrs)

	switch kind {
	case fields.KindText, fields.KindEmail, fields.KindPassword, fields.KindHidden, fields.KindTextArea:
		return textField(kind, spec, opts, attrs), nil
	case fields.KindInt:
		f := fields.NewInt(spec.Name, opts...)
		f.MinLength, f.MaxLength, f.Attrs = spec.MinLength, spec.MaxLength, attrs
		if spec.Min != nil {
			f.Min = fields.Ref(int(*spec.Min))
		}
		if spec.Max != nil {
			f.Max = fields.Ref(int(*spec.Max))
		}
		return f, nil
	case fields.KindFloat:
		f := fields.NewFloat(spec.Name, opts...)
		f.MinLength, f.MaxLength, f.Min, f.Max, f.Attrs = spec.MinLength, spec.MaxLength, spec.Min, spec.Max, attrs
		return f, nil
	case fields.KindCheckbox:
		f := fields.NewCheckbox(spec.Name, opts...)
		if spec.CheckedValue != "" {
			f.CheckedValue = spec.CheckedValue
		}
		f.Attrs = attrs
		return f, nil
	case fields.KindSelect:
		f := fields.NewSelect(spec.Name, options(spec.Options), opts...)
		f.Prompt, f.Attrs = spec.Prompt, attrs
		return f, nil
	case fields.KindRadio:
		if spec.Inline {
			return fields.NewInlineRadioGroup(spec.Name, options(spec.Options), opts...), nil
		}
		return fields.NewRadioGroup(spec.Name, options(spec.Options), opts...), nil
	case fields.KindTimezone:
		f, err := fields.NewTimezone(spec.Name, options(spec.Options).Values(), opts...)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidDefinition)
		}
		f.Prompt, f.Attrs = spec.Prompt, attrs
		return f, nil
	case fields.KindDateTime, fields.KindDateTimeLocal, fields.KindDateSelect:
		loc, err := b.zone(spec.Timezone)
		if err != nil {
			return nil, err
		}
		return b.dateField(kind, def, spec, loc, opts, attrs)
	case fields.KindToken:
		if b.issuer == nil {
			return nil, fmt.Errorf("token field needs an issuer: %w", ErrInvalidDefinition)
		}
		return fields.NewToken(spec.Name, b.issuer), nil
	}
	return nil, fmt.Errorf("kind %q: %w", kind, fields.ErrUnknownKind)
}

func textField(kind fields.Kind, spec FieldSpec, opts []fields.Option, attrs render.Attrs) fields.Field {
	configure := func(t *fields.Text) {
		t.MinLength, t.MaxLength = spec.MinLength, spec.MaxLength
		t.Pattern, t.PatternMessage = spec.Pattern, spec.PatternMessage
		t.Attrs = attrs
	}
	switch kind {
	case fields.KindEmail:
		f := fields.NewEmail(spec.Name, opts...)
		configure(&f.Text)
		return f
	case fields.KindPassword:
		f := fields.NewPassword(spec.Name, opts...)
		configure(&f.Text)
		return f
	case fields.KindHidden:
		f := fields.NewHidden(spec.Name, opts...)
		configure(&f.Text)
		return f
	case fields.KindTextArea:
		f := fields.NewTextArea(spec.Name, opts...)
		configure(&f.Text)
		f.Rows, f.Cols = spec.Rows, spec.Cols
		return f
	default:
		f := fields.NewText(spec.Name, opts...)
		configure(f)
		return f
	}
}

func (b *builder) dateField(kind fields.Kind, def Definition, spec FieldSpec, loc *time.Location, opts []fields.Option, attrs render.Attrs) (fields.Field, error) {
	switch kind {
	case fields.KindDateTimeLocal:
		f := fields.NewDateTimeLocal(spec.Name, loc, opts...)
		f.Attrs = attrs
		return f, nil
	case fields.KindDateSelect:
		f := fields.NewDateSelect(spec.Name, loc, opts...)
		if spec.MinYear != 0 {
			f.MinYear = spec.MinYear
		}
		if spec.MaxYear != 0 {
			f.MaxYear = spec.MaxYear
		}
		if spec.Order != "" {
			order, err := fields.ParseOrder(spec.Order)
			if err != nil {
				return nil, err
			}
			f.Order = order
		}
		f.Catalog, f.Locale = b.catalog, def.Locale
		return f, nil
	default:
		layout := spec.Layout
		if layout == "" {
			layout = time.DateOnly
		}
		f := fields.NewDateTime(spec.Name, layout, loc, opts...)
		f.Attrs = attrs
		return f, nil
	}
}

func (b *builder) zone(name string) (*time.Location, error) {
	if name == "" {
		return b.location, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", name, ErrInvalidDefinition)
	}
	return loc, nil
}

func defaultKind(kind string) string {
	if strings.TrimSpace(kind) == "" {
		return string(fields.KindText)
	}
	return kind
}

func options(list OptionList) fields.Options {
	out := make(fields.Options, len(list))
	for i, o := range list {
		out[i] = fields.Choice{Value: o.Value, Label: o.normalized().Label}
	}
	return out
}

func renderAttrs(in map[string]string) render.Attrs {
	if len(in) == 0 {
		return nil
	}
	out := make(render.Attrs, len(in))
	for name, value := range in {
		out[name] = value
	}
	return out
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
