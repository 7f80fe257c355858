package input

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrTypeMismatch is returned when a child view is requested for a slot
	// that holds a scalar value.
	ErrTypeMismatch = errors.New("input: type mismatch")
	// ErrInvalidArgument is returned when a value cannot be stored in the
	// input tree.
	ErrInvalidArgument = errors.New("input: invalid argument")
)

// Named is implemented by anything that addresses a slot in the model,
// usually a field.
type Named interface {
	Name() string
}

// Key addresses a slot by its plain name.
type Key string

// Name implements Named.
func (k Key) Name() string { return string(k) }

type state struct {
	input     map[string]any
	errors    map[string]string
	validated bool
}

// Model holds raw input values and validation errors for one request.
//
// A Model is either a root or a child view created by Child. Child views share
// the root's storage and resolve their path on every access, so writes through
// either side are immediately visible to the other.
type Model struct {
	state *state
	path  []string
}

// New returns an empty root model.
func New() *Model {
	return &Model{state: &state{
		input:  map[string]any{},
		errors: map[string]string{},
	}}
}

// Create wraps raw input in a model. An existing *Model is returned unchanged,
// which lets call sites accept either raw data or a model.
//
// Supported raw types are nil, map[string]any, map[string]string and
// url.Values. Bracketed url.Values names (form[sub][field]) are expanded into
// nested maps. Error keys are dotted field paths.
func Create(raw any, errs map[string]string) (*Model, error) {
	if m, ok := raw.(*Model); ok {
		return m, nil
	}

	m := New()
	switch v := raw.(type) {
	case nil:
	case map[string]any:
		tree, err := normalizeTree(v)
		if err != nil {
			return nil, err
		}
		m.state.input = tree
	case map[string]string:
		for key, value := range v {
			if value != "" {
				m.state.input[key] = value
			}
		}
	case url.Values:
		if err := m.setForm(v); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("input: cannot create model from %T: %w", raw, ErrInvalidArgument)
	}

	for key, msg := range errs {
		if key = strings.TrimSpace(key); key != "" {
			m.state.errors[key] = msg
		}
	}
	return m, nil
}

// Path returns the segments from the root to this view.
func (m *Model) Path() []string {
	return append([]string(nil), m.path...)
}

// Input returns the raw value for f: a string, a map[string]any for composite
// slots, or nil when no input is present.
func (m *Model) Input(f Named) any {
	node, err := m.node(false)
	if err != nil || node == nil {
		return nil
	}
	return node[f.Name()]
}

// Text returns the raw string for f. The boolean reports whether a scalar
// value is present.
func (m *Model) Text(f Named) (string, bool) {
	s, ok := m.Input(f).(string)
	return s, ok
}

// Has reports whether any input is present for f.
func (m *Model) Has(f Named) bool {
	return m.Input(f) != nil
}

// SetInput writes a raw value. Scalars are stored as strings, maps pass
// through, and nil or empty values remove the slot.
func (m *Model) SetInput(f Named, value any) error {
	name := f.Name()
	normalized, err := normalizeValue(value)
	if err != nil {
		return fmt.Errorf("input: set %q: %w", name, err)
	}

	if normalized == nil {
		node, err := m.node(false)
		if err != nil {
			return err
		}
		if node != nil {
			delete(node, name)
		}
		return nil
	}

	node, err := m.node(true)
	if err != nil {
		return err
	}
	node[name] = normalized
	return nil
}

// Child returns a live view of the nested slot addressed by f, creating an
// empty map when the slot is absent.
func (m *Model) Child(f Named) (*Model, error) {
	name := f.Name()
	node, err := m.node(true)
	if err != nil {
		return nil, err
	}
	switch existing := node[name].(type) {
	case nil:
		node[name] = map[string]any{}
	case map[string]any:
	default:
		return nil, fmt.Errorf("input: child %q holds %T: %w", m.key(name), existing, ErrTypeMismatch)
	}

	path := make([]string, len(m.path), len(m.path)+1)
	copy(path, m.path)
	return &Model{state: m.state, path: append(path, name)}, nil
}

// Values returns a deep copy of the input visible through this view.
func (m *Model) Values() map[string]any {
	node, err := m.node(false)
	if err != nil || node == nil {
		return map[string]any{}
	}
	return copyTree(node)
}

// Error returns the error recorded for f, or "".
func (m *Model) Error(f Named) string {
	return m.state.errors[m.key(f.Name())]
}

// SetError records msg for f unless an error is already present.
func (m *Model) SetError(f Named, msg string) {
	key := m.key(f.Name())
	if _, exists := m.state.errors[key]; exists {
		return
	}
	m.state.errors[key] = msg
}

// HasError reports whether an error is recorded for f.
func (m *Model) HasError(f Named) bool {
	_, ok := m.state.errors[m.key(f.Name())]
	return ok
}

// ClearError removes the error recorded for f.
func (m *Model) ClearError(f Named) {
	delete(m.state.errors, m.key(f.Name()))
}

// Errors returns the errors visible through this view keyed by dotted path
// relative to the view.
func (m *Model) Errors() map[string]string {
	out := make(map[string]string)
	prefix := m.prefix()
	for key, msg := range m.state.errors {
		if rel, ok := strings.CutPrefix(key, prefix); ok {
			out[rel] = msg
		}
	}
	return out
}

// HasErrors reports whether any error is visible through this view.
func (m *Model) HasErrors() bool {
	prefix := m.prefix()
	for key := range m.state.errors {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// ClearErrors removes the errors visible through this view and sets the
// validated flag. ClearErrors(true) starts a fresh validation pass.
func (m *Model) ClearErrors(markValidated bool) {
	prefix := m.prefix()
	for key := range m.state.errors {
		if strings.HasPrefix(key, prefix) {
			delete(m.state.errors, key)
		}
	}
	m.state.validated = markValidated
}

// Validated reports whether a validation pass has started.
func (m *Model) Validated() bool {
	return m.state.validated
}

// IsValid reports whether the model was validated and holds no errors.
func (m *Model) IsValid() bool {
	return m.state.validated && !m.HasErrors()
}

// ErrorKeys returns the sorted dotted paths of recorded errors.
func (m *Model) ErrorKeys() []string {
	errs := m.Errors()
	keys := make([]string, 0, len(errs))
	for key := range errs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (m *Model) key(name string) string {
	return m.prefix() + name
}

func (m *Model) prefix() string {
	if len(m.path) == 0 {
		return ""
	}
	return strings.Join(m.path, ".") + "."
}

// node resolves the map addressed by the view path. When create is false a
// missing segment yields a nil map.
func (m *Model) node(create bool) (map[string]any, error) {
	node := m.state.input
	for i, segment := range m.path {
		switch next := node[segment].(type) {
		case map[string]any:
			node = next
		case nil:
			if !create {
				return nil, nil
			}
			child := map[string]any{}
			node[segment] = child
			node = child
		default:
			return nil, fmt.Errorf("input: child %q holds %T: %w", strings.Join(m.path[:i+1], "."), next, ErrTypeMismatch)
		}
	}
	return node, nil
}

func (m *Model) setForm(values url.Values) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		list := values[key]
		if len(list) == 0 {
			continue
		}
		segments := splitFormName(key)
		if len(segments) == 0 {
			continue
		}
		view := &Model{state: m.state, path: segments[:len(segments)-1]}
		if err := view.SetInput(Key(segments[len(segments)-1]), list[len(list)-1]); err != nil {
			return err
		}
	}
	return nil
}

// splitFormName turns "form[sub][field]" into [form sub field]. Empty bracket
// pairs (list suffixes) are dropped.
func splitFormName(name string) []string {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	head, rest, found := strings.Cut(name, "[")
	if !found {
		return []string{name}
	}
	segments := []string{head}
	for _, part := range strings.Split(rest, "[") {
		part = strings.TrimSuffix(part, "]")
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}

func normalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		if v == "" {
			return nil, nil
		}
		return v, nil
	case map[string]any:
		tree, err := normalizeTree(v)
		if err != nil || len(tree) == 0 {
			return nil, err
		}
		return tree, nil
	case map[string]string:
		tree := make(map[string]any, len(v))
		for key, item := range v {
			if item != "" {
				tree[key] = item
			}
		}
		if len(tree) == 0 {
			return nil, nil
		}
		return tree, nil
	case bool:
		if !v {
			return nil, nil
		}
		return "1", nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case fmt.Stringer:
		return normalizeValue(v.String())
	default:
		return nil, fmt.Errorf("unsupported value %T: %w", value, ErrInvalidArgument)
	}
}

func normalizeTree(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))
	for key, value := range in {
		normalized, err := normalizeValue(value)
		if err != nil {
			return nil, fmt.Errorf("input: %q: %w", key, err)
		}
		if normalized != nil {
			out[key] = normalized
		}
	}
	return out, nil
}

func copyTree(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for key, value := range in {
		if nested, ok := value.(map[string]any); ok {
			out[key] = copyTree(nested)
			continue
		}
		out[key] = value
	}
	return out
}
