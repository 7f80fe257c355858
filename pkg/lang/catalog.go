package lang

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// ErrMissingKey is reported when no table holds the requested key.
var ErrMissingKey = errors.New("lang: missing translation")

// Message keys used by the validators, date selects and pages.
const (
	KeyRequired  = "required"
	KeyConfirm   = "confirm"
	KeyInt       = "int"
	KeyFloat     = "float"
	KeyEmail     = "email"
	KeyLength    = "length"
	KeyMinLength = "minLength"
	KeyMaxLength = "maxLength"
	KeyRange     = "range"
	KeyMinValue  = "minValue"
	KeyMaxValue  = "maxValue"
	KeyPassword  = "password"
	KeyChecked   = "checked"
	KeySelected  = "selected"
	KeyDateTime  = "datetime"
	KeyPattern   = "pattern"
	KeyToken     = "token"
	KeyNoToken   = "noToken"
	KeyMonths    = "months"
	KeyYear      = "year"
	KeyMonth     = "month"
	KeyDay       = "day"
	KeySubmit    = "submit"
)

//go:embed locales/*.yaml
var builtin embed.FS

// Translator resolves a message key for a locale.
type Translator interface {
	Translate(locale, key string) (string, error)
}

// MissingHandler is notified when a key cannot be resolved.
type MissingHandler func(locale, key string, err error)

// Option configures a Catalog.
type Option func(*Catalog)

// WithFallback sets the locale used when a requested locale has no table.
// Defaults to English.
func WithFallback(locale string) Option {
	return func(c *Catalog) {
		if tag, err := language.Parse(locale); err == nil {
			c.fallback = tag
		}
	}
}

// WithMissingHandler registers a callback for unresolved keys.
func WithMissingHandler(fn MissingHandler) Option {
	return func(c *Catalog) {
		c.onMissing = fn
	}
}

// Catalog holds message tables per locale. It is safe for concurrent use.
type Catalog struct {
	mu        sync.RWMutex
	tables    map[language.Tag]map[string]string
	tags      []language.Tag
	matcher   language.Matcher
	fallback  language.Tag
	onMissing MissingHandler
}

// New returns an empty catalog.
func New(opts ...Option) *Catalog {
	c := &Catalog{
		tables:   make(map[language.Tag]map[string]string),
		fallback: language.English,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the shared catalog holding the built-in tables.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = New()
		if err := defaultCatalog.LoadBuiltin(); err != nil {
			panic(err)
		}
	})
	return defaultCatalog
}

// LoadBuiltin adds the embedded English and Danish tables.
func (c *Catalog) LoadBuiltin() error {
	sub, err := fs.Sub(builtin, "locales")
	if err != nil {
		return fmt.Errorf("lang: builtin tables: %w", err)
	}
	return c.LoadFS(sub)
}

// LoadFS walks fsys and loads every YAML file as a table named after the file
// (da.yaml, en-GB.yml). Keys from later files override earlier ones.
func (c *Catalog) LoadFS(fsys fs.FS) error {
	if fsys == nil {
		return nil
	}
	return fs.WalkDir(fsys, ".", func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(path.Ext(p))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("lang: read %s: %w", p, err)
		}
		var messages map[string]string
		if err := yaml.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("lang: parse %s: %w", p, err)
		}
		return c.Add(strings.TrimSuffix(path.Base(p), path.Ext(p)), messages)
	})
}

// Add merges messages into the table for locale.
func (c *Catalog) Add(locale string, messages map[string]string) error {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return fmt.Errorf("lang: locale %q: %w", locale, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	table, ok := c.tables[tag]
	if !ok {
		table = make(map[string]string, len(messages))
		c.tables[tag] = table
	}
	for key, msg := range messages {
		table[key] = msg
	}
	c.rebuild()
	return nil
}

// Locales returns the loaded locales, sorted.
func (c *Catalog) Locales() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.tags))
	for _, tag := range c.tags {
		out = append(out, tag.String())
	}
	sort.Strings(out)
	return out
}

// Translate implements Translator. The requested locale is matched against the
// loaded tables, then the fallback table is consulted.
func (c *Catalog) Translate(locale, key string) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if tag, ok := c.match(locale); ok {
		if msg, found := c.tables[tag][key]; found {
			return msg, nil
		}
	}
	if msg, found := c.tables[c.fallback][key]; found {
		return msg, nil
	}
	return "", fmt.Errorf("%w: %q (%s)", ErrMissingKey, key, locale)
}

// Text translates key and substitutes {name} placeholders from params. Unknown
// keys resolve to the key itself.
func (c *Catalog) Text(locale, key string, params map[string]string) string {
	msg, err := c.Translate(locale, key)
	if err != nil {
		if c.onMissing != nil {
			c.onMissing(locale, key, err)
		}
		msg = key
	}
	return Format(msg, params)
}

// Months returns the twelve month names for locale.
func (c *Catalog) Months(locale string) []string {
	names := strings.Split(c.Text(locale, KeyMonths, nil), "|")
	if len(names) != 12 {
		names = strings.Split(c.Text(c.fallback.String(), KeyMonths, nil), "|")
	}
	return names
}

// Format replaces {name} placeholders in template.
func Format(template string, params map[string]string) string {
	if len(params) == 0 || !strings.Contains(template, "{") {
		return template
	}
	pairs := make([]string, 0, len(params)*2)
	for name, value := range params {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func (c *Catalog) match(locale string) (language.Tag, bool) {
	locale = strings.TrimSpace(locale)
	if locale == "" || c.matcher == nil {
		return c.fallback, true
	}
	requested, err := language.Parse(locale)
	if err != nil {
		return language.Tag{}, false
	}
	_, index, confidence := c.matcher.Match(requested)
	if confidence == language.No || index < 0 || index >= len(c.tags) {
		return language.Tag{}, false
	}
	return c.tags[index], true
}

// rebuild refreshes the matcher. Callers hold the write lock.
func (c *Catalog) rebuild() {
	tags := make([]language.Tag, 0, len(c.tables))
	if _, ok := c.tables[c.fallback]; ok {
		tags = append(tags, c.fallback)
	}
	rest := make([]language.Tag, 0, len(c.tables))
	for tag := range c.tables {
		if tag != c.fallback {
			rest = append(rest, tag)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	c.tags = append(tags, rest...)
	c.matcher = language.NewMatcher(c.tags)
}
