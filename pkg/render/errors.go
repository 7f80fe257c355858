package render

import (
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-formkit/pkg/input"
)

// ErrorMapping holds server side error messages split into field messages,
// keyed by dotted field path, and form level messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// wrapperSegments are leading path segments API error payloads commonly nest
// request fields under.
var wrapperSegments = map[string]bool{
	"body":       true,
	"request":    true,
	"payload":    true,
	"data":       true,
	"attributes": true,
}

// MapErrors assigns each entry of payload to the longest known field path its
// key resolves to. Keys may be JSON pointers ("/body/owner/email"), dotted
// paths ("owner.email") or bracketed form names ("owner[email]"). Entries that
// do not resolve to a known path become form level messages.
func MapErrors(paths []string, payload map[string][]string) ErrorMapping {
	mapping := ErrorMapping{Fields: make(map[string][]string)}

	known := make(map[string]bool, len(paths))
	for _, path := range paths {
		if path = strings.TrimSpace(path); path != "" {
			known[path] = true
		}
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		messages := uniqueMessages(payload[key])
		if len(messages) == 0 {
			continue
		}
		if path := resolvePath(key, known); path != "" {
			mapping.Fields[path] = append(mapping.Fields[path], messages...)
			continue
		}
		mapping.Form = append(mapping.Form, messages...)
	}

	if len(mapping.Fields) == 0 {
		mapping.Fields = nil
	}
	mapping.Form = uniqueMessages(mapping.Form)
	return mapping
}

// Apply writes the first message of each field into m, leaving existing
// errors in place, and returns the form level messages.
func (e ErrorMapping) Apply(m *input.Model) []string {
	for path, messages := range e.Fields {
		if len(messages) > 0 {
			m.SetError(input.Key(path), messages[0])
		}
	}
	return e.Form
}

// MergeFormErrors appends extras to existing, trimming blanks and duplicates.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return uniqueMessages(combined)
}

// FormErrors renders form level messages as an alert list, or "" when there
// are none.
func (r *Renderer) FormErrors(messages []string) string {
	messages = uniqueMessages(messages)
	if len(messages) == 0 {
		return ""
	}
	var b strings.Builder
	for _, msg := range messages {
		b.WriteString(r.Tag("li", nil, r.Escape(msg)))
	}
	return r.Tag("ul", Attrs{"class": "alert alert-danger", "role": "alert"}, b.String())
}

func uniqueMessages(messages []string) []string {
	var out []string
	seen := make(map[string]bool, len(messages))
	for _, msg := range messages {
		msg = strings.TrimSpace(msg)
		if msg == "" || seen[msg] {
			continue
		}
		seen[msg] = true
		out = append(out, msg)
	}
	return out
}

func resolvePath(key string, known map[string]bool) string {
	if isFormKey(key) {
		return ""
	}
	segments := splitPath(key)
	if len(segments) == 0 {
		return ""
	}

	unwrapped := segments
	for len(unwrapped) > 0 && wrapperSegments[strings.ToLower(unwrapped[0])] {
		unwrapped = unwrapped[1:]
	}

	best := ""
	for _, candidate := range [][]string{segments, unwrapped, withoutIndexes(segments), withoutIndexes(unwrapped)} {
		path := longestKnownPrefix(candidate, known)
		if strings.Count(path, ".") > strings.Count(best, ".") || best == "" {
			best = path
		}
	}
	return best
}

func splitPath(key string) []string {
	key = strings.TrimSpace(key)
	key = strings.TrimLeft(key, "#$./")
	key = strings.NewReplacer("[", ".", "]", "").Replace(key)

	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := parts[:0]
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		// JSON pointer escapes.
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		out = append(out, part)
	}
	return out
}

func withoutIndexes(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func longestKnownPrefix(segments []string, known map[string]bool) string {
	for end := len(segments); end > 0; end-- {
		if candidate := strings.Join(segments[:end], "."); known[candidate] {
			return candidate
		}
	}
	return ""
}

func isFormKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	}
	return false
}
