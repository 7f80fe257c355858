package render

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// MethodFieldName is the hidden input carrying an overridden HTTP method.
const MethodFieldName = "_method"

// HiddenField is a hidden input emitted next to the visible fields.
type HiddenField struct {
	Name  string
	Value string
}

// Hidden returns a HiddenField for an arbitrary name/value pair.
func Hidden(name string, value any) HiddenField {
	return HiddenField{Name: strings.TrimSpace(name), Value: fmt.Sprint(value)}
}

// MethodField returns the hidden _method field for methods a browser form
// cannot submit. GET and POST return a field with an empty name, which
// rendering skips.
func MethodField(method string) HiddenField {
	method = strings.ToUpper(strings.TrimSpace(method))
	switch method {
	case "", http.MethodGet, http.MethodPost:
		return HiddenField{}
	}
	return Hidden(MethodFieldName, method)
}

// FormMethod returns the method attribute value for a form submitting with
// method.
func FormMethod(method string) string {
	if strings.EqualFold(strings.TrimSpace(method), http.MethodGet) {
		return "get"
	}
	return "post"
}

// MergeHiddenFields returns a copy of base with fields applied. Empty names
// are ignored and later fields win.
func MergeHiddenFields(base map[string]string, fields ...HiddenField) map[string]string {
	out := make(map[string]string, len(base)+len(fields))
	for name, value := range base {
		if name = strings.TrimSpace(name); name != "" {
			out[name] = value
		}
	}
	for _, field := range fields {
		if field.Name != "" {
			out[field.Name] = field.Value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// SortedHiddenFields returns fields ordered by name.
func SortedHiddenFields(fields map[string]string) []HiddenField {
	clean := MergeHiddenFields(fields)
	names := make([]string, 0, len(clean))
	for name := range clean {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]HiddenField, 0, len(names))
	for _, name := range names {
		out = append(out, HiddenField{Name: name, Value: clean[name]})
	}
	return out
}

// HiddenInputs renders fields as hidden inputs in name order.
func (r *Renderer) HiddenInputs(fields map[string]string) string {
	var b strings.Builder
	for _, field := range SortedHiddenFields(fields) {
		b.WriteString(r.Input("hidden", field.Name, field.Value, nil))
	}
	return b.String()
}
