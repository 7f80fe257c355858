package render

import (
	"fmt"
	"html"
	"sort"
	"strconv"
	"strings"
)

// Attrs maps HTML attribute names to values. Supported values are strings,
// numbers, booleans, string slices (joined with spaces) and nil. Nil, false
// and empty slices suppress the attribute; true renders it without a value.
type Attrs map[string]any

// Merge combines attribute maps left to right. Later values win, except for
// "class" whose entries accumulate without duplicates.
func Merge(maps ...Attrs) Attrs {
	out := Attrs{}
	var classes []string
	hasClass := false
	for _, attrs := range maps {
		for name, value := range attrs {
			if name == "class" {
				if value == nil {
					continue
				}
				hasClass = true
				classes = appendClasses(classes, value)
				continue
			}
			out[name] = value
		}
	}
	if hasClass {
		if len(classes) == 1 {
			out["class"] = classes[0]
		} else {
			out["class"] = classes
		}
	}
	return out
}

// Clone returns a shallow copy.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for name, value := range a {
		out[name] = value
	}
	return out
}

// Format serializes attributes in name order with a leading space before
// each one.
func (a Attrs) Format(xhtml bool) string {
	if len(a) == 0 {
		return ""
	}
	names := make([]string, 0, len(a))
	for name := range a {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		value, present := attrValue(a[name])
		if !present {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(name)
		if value == nil {
			if xhtml {
				b.WriteString(`="`)
				b.WriteString(html.EscapeString(name))
				b.WriteByte('"')
			}
			continue
		}
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(*value))
		b.WriteByte('"')
	}
	return b.String()
}

// attrValue returns the serialized value. A nil pointer with present=true
// marks a value-less attribute.
func attrValue(value any) (*string, bool) {
	var s string
	switch v := value.(type) {
	case nil:
		return nil, false
	case bool:
		if !v {
			return nil, false
		}
		return nil, true
	case string:
		s = v
	case []string:
		if len(v) == 0 {
			return nil, false
		}
		s = strings.Join(v, " ")
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case *float64:
		if v == nil {
			return nil, false
		}
		s = strconv.FormatFloat(*v, 'f', -1, 64)
	case *int:
		if v == nil {
			return nil, false
		}
		s = strconv.Itoa(*v)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	return &s, true
}

func appendClasses(classes []string, value any) []string {
	var items []string
	switch v := value.(type) {
	case string:
		items = strings.Fields(v)
	case []string:
		items = v
	default:
		items = strings.Fields(fmt.Sprint(v))
	}
	for _, item := range items {
		if item == "" || contains(classes, item) {
			continue
		}
		classes = append(classes, item)
	}
	return classes
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
