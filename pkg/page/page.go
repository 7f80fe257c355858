// Package page renders complete form pages through pongo2 templates. The
// built-in "page" and "form" templates can be overridden by providing files
// with the same names.
package page

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"

	"github.com/goliatone/go-formkit/pkg/formdef"
	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/lang"
	"github.com/goliatone/go-formkit/pkg/render"
)

// DefaultLayout is the template used when a View names none.
const DefaultLayout = "page"

//go:embed templates/*.tpl
var builtin embed.FS

// ErrNilForm is returned when a View carries no form.
var ErrNilForm = errors.New("page: form is required")

// Option configures an Engine.
type Option func(*config)

type config struct {
	baseDir   string
	templates fs.FS
	extension string
	catalog   *lang.Catalog
	globals   map[string]any
}

// WithBaseDir loads templates from a directory before the built-ins.
func WithBaseDir(dir string) Option {
	return func(cfg *config) {
		cfg.baseDir = strings.TrimSpace(dir)
	}
}

// WithFS loads templates from fsys before the built-ins.
func WithFS(fsys fs.FS) Option {
	return func(cfg *config) {
		cfg.templates = fsys
	}
}

// WithExtension overrides the ".tpl" template extension.
func WithExtension(ext string) Option {
	return func(cfg *config) {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			return
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		cfg.extension = ext
	}
}

// WithCatalog sets the catalog behind the t() template function.
func WithCatalog(catalog *lang.Catalog) Option {
	return func(cfg *config) {
		if catalog != nil {
			cfg.catalog = catalog
		}
	}
}

// WithGlobals seeds values visible to every template.
func WithGlobals(data map[string]any) Option {
	return func(cfg *config) {
		if cfg.globals == nil {
			cfg.globals = make(map[string]any, len(data))
		}
		for key, value := range data {
			if key = strings.TrimSpace(key); key != "" {
				cfg.globals[key] = value
			}
		}
	}
}

// View is the data behind one rendered form page.
type View struct {
	Form  *formdef.Form
	Model *input.Model

	// FormErrors are messages not tied to a field.
	FormErrors []string

	// Hidden inputs rendered before the fields. The _method override is
	// added from the form method.
	Hidden map[string]string

	// Locale for t() and the submit label; empty uses the form's locale.
	Locale string

	// Layout names the template to execute; empty means DefaultLayout.
	Layout string

	// Renderer options, such as a collection name.
	Renderer []render.Option

	// Data is merged into the template context.
	Data map[string]any
}

// Engine executes form templates.
type Engine struct {
	mu sync.RWMutex

	set       *pongo2.TemplateSet
	templates map[string]*pongo2.Template
	ext       string
	catalog   *lang.Catalog
}

// New returns an engine over the configured loaders followed by the
// built-in templates.
func New(opts ...Option) (*Engine, error) {
	cfg := &config{
		extension: ".tpl",
		catalog:   lang.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	var loaders []pongo2.TemplateLoader
	if cfg.baseDir != "" {
		loader, err := pongo2.NewLocalFileSystemLoader(cfg.baseDir)
		if err != nil {
			return nil, fmt.Errorf("page: create local loader: %w", err)
		}
		loaders = append(loaders, loader)
	}
	if cfg.templates != nil {
		loaders = append(loaders, pongo2.NewFSLoader(cfg.templates))
	}
	sub, err := fs.Sub(builtin, "templates")
	if err != nil {
		return nil, fmt.Errorf("page: builtin templates: %w", err)
	}
	loaders = append(loaders, pongo2.NewFSLoader(sub))

	set := pongo2.NewSet("formkit", loaders...)
	set.Globals = pongo2.Context{}
	set.Globals.Update(pongo2.Context(cfg.globals))

	return &Engine{
		set:       set,
		templates: make(map[string]*pongo2.Template),
		ext:       cfg.extension,
		catalog:   cfg.catalog,
	}, nil
}

// Render executes the named template with data into w.
func (e *Engine) Render(w io.Writer, name string, data map[string]any) error {
	if !strings.HasSuffix(name, e.ext) {
		name += e.ext
	}
	tmpl, err := e.template(name)
	if err != nil {
		return err
	}
	if err := tmpl.ExecuteWriter(pongo2.Context(data), w); err != nil {
		return fmt.Errorf("page: execute template %q: %w", name, err)
	}
	return nil
}

// RenderString executes template source with data.
func (e *Engine) RenderString(source string, data map[string]any) (string, error) {
	tmpl, err := e.set.FromString(source)
	if err != nil {
		return "", fmt.Errorf("page: parse template string: %w", err)
	}
	out, err := tmpl.Execute(pongo2.Context(data))
	if err != nil {
		return "", fmt.Errorf("page: execute template string: %w", err)
	}
	return out, nil
}

// Page renders v with its layout into w.
func (e *Engine) Page(w io.Writer, v View) error {
	data, err := e.Context(v)
	if err != nil {
		return err
	}
	layout := v.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	return e.Render(w, layout, data)
}

// String renders v with its layout and returns the markup.
func (e *Engine) String(v View) (string, error) {
	var buf bytes.Buffer
	if err := e.Page(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Context builds the template data for v. Markup values (fields, hidden,
// errors) are already escaped and are emitted with the safe filter.
func (e *Engine) Context(v View) (map[string]any, error) {
	if v.Form == nil {
		return nil, ErrNilForm
	}
	def := v.Form.Definition
	locale := v.Locale
	if locale == "" {
		locale = def.Locale
	}

	r := render.New(v.Model, v.Renderer...)
	hidden := render.MergeHiddenFields(v.Hidden, render.MethodField(def.Method))
	translate := func(key string) string {
		return e.catalog.Text(locale, key, nil)
	}
	submit := def.Submit
	if submit == "" {
		submit = translate(lang.KeySubmit)
	}

	data := map[string]any{
		"form": map[string]any{
			"id":     def.ID,
			"title":  def.Title,
			"action": def.Action,
			"method": render.FormMethod(def.Method),
		},
		"locale": locale,
		"submit": submit,
		"errors": r.FormErrors(v.FormErrors),
		"hidden": r.HiddenInputs(hidden),
		"fields": v.Form.RenderFields(r),
		"valid":  r.Model.Validated() && r.Model.IsValid(),
		"t":      translate,
	}
	for key, value := range v.Data {
		if _, reserved := data[key]; !reserved {
			data[key] = value
		}
	}
	return data, nil
}

func (e *Engine) template(name string) (*pongo2.Template, error) {
	e.mu.RLock()
	tmpl, ok := e.templates[name]
	e.mu.RUnlock()
	if ok {
		return tmpl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if tmpl, ok := e.templates[name]; ok {
		return tmpl, nil
	}
	tmpl, err := e.set.FromFile(name)
	if err != nil {
		return nil, fmt.Errorf("page: load template %q: %w", name, err)
	}
	e.templates[name] = tmpl
	return tmpl, nil
}
