// Package openapi derives form definitions from the request bodies of
// OpenAPI 3 operations.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-formkit/pkg/fields"
	"github.com/goliatone/go-formkit/pkg/formdef"
)

// ExtensionKey is the schema extension that overrides derived field
// settings, e.g. {"kind": "textarea", "order": 2}.
const ExtensionKey = "x-formkit"

var (
	// ErrUnknownOperation is returned for operation ids the document lacks.
	ErrUnknownOperation = errors.New("openapi: unknown operation")
	// ErrNoRequestBody is returned when an operation has no object request body.
	ErrNoRequestBody = errors.New("openapi: operation has no object request body")
)

// Operation summarizes one operation of a document.
type Operation struct {
	ID      string
	Method  string
	Path    string
	Summary string

	op *openapi3.Operation
}

// Document is a loaded OpenAPI document.
type Document struct {
	spec       *openapi3.T
	operations map[string]Operation
}

// Load parses a JSON or YAML document. Local references are resolved;
// external ones are rejected.
func Load(ctx context.Context, data []byte) (*Document, error) {
	loader := &openapi3.Loader{Context: ctx}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: load document: %w", err)
	}
	return newDocument(ctx, spec)
}

// LoadFile parses the document at path, resolving references relative to it.
func LoadFile(ctx context.Context, path string) (*Document, error) {
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: true}
	spec, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: load %s: %w", path, err)
	}
	return newDocument(ctx, spec)
}

func newDocument(ctx context.Context, spec *openapi3.T) (*Document, error) {
	if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
		return nil, fmt.Errorf("openapi: validate: %w", err)
	}
	doc := &Document{spec: spec, operations: make(map[string]Operation)}
	if spec.Paths == nil {
		return doc, nil
	}
	for path, item := range spec.Paths.Map() {
		for method, op := range item.Operations() {
			id := op.OperationID
			if id == "" {
				id = strings.ToLower(method) + ":" + path
			}
			doc.operations[id] = Operation{ID: id, Method: method, Path: path, Summary: op.Summary, op: op}
		}
	}
	return doc, nil
}

// Operations lists the operations sorted by id.
func (d *Document) Operations() []Operation {
	out := make([]Operation, 0, len(d.operations))
	for _, op := range d.operations {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Definition derives a form definition from the request body of the
// operation. Scalar properties become fields; nested objects and arrays are
// skipped.
func (d *Document) Definition(operationID string) (formdef.Definition, error) {
	op, ok := d.operations[operationID]
	if !ok {
		return formdef.Definition{}, fmt.Errorf("openapi: %q: %w", operationID, ErrUnknownOperation)
	}
	schema := requestSchema(op.op)
	if schema == nil || len(schema.Properties) == 0 {
		return formdef.Definition{}, fmt.Errorf("openapi: %q: %w", operationID, ErrNoRequestBody)
	}

	title := op.Summary
	if title == "" {
		title = humanize(operationID)
	}
	def := formdef.Definition{
		ID:     operationID,
		Title:  title,
		Action: op.Path,
		Method: strings.ToLower(op.Method),
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}
	for _, name := range propertyOrder(schema) {
		prop := schema.Properties[name].Value
		spec, ok := fieldSpec(name, prop)
		if !ok {
			continue
		}
		spec.Required = spec.Required || required[name]
		def.Fields = append(def.Fields, spec)
	}
	return def, def.Check()
}

// Form derives and builds the form of an operation.
func (d *Document) Form(operationID string, opts ...formdef.Option) (*formdef.Form, error) {
	def, err := d.Definition(operationID)
	if err != nil {
		return nil, err
	}
	return formdef.Build(def, opts...)
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	content := op.RequestBody.Value.Content
	for _, mediaType := range []string{"application/x-www-form-urlencoded", "multipart/form-data", "application/json"} {
		if mt, ok := content[mediaType]; ok && mt.Schema != nil && mt.Schema.Value != nil {
			return mt.Schema.Value
		}
	}
	return nil
}

// propertyOrder sorts properties by their x-formkit order, then by name.
func propertyOrder(schema *openapi3.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref != nil && ref.Value != nil {
			names = append(names, name)
		}
	}
	order := func(name string) int {
		if n, ok := extension(schema.Properties[name].Value)["order"].(float64); ok {
			return int(n)
		}
		return 1 << 30
	}
	sort.SliceStable(names, func(i, j int) bool {
		oi, oj := order(names[i]), order(names[j])
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})
	return names
}

func fieldSpec(name string, prop *openapi3.Schema) (formdef.FieldSpec, bool) {
	spec := formdef.FieldSpec{
		Name:  name,
		Label: prop.Title,
	}
	if spec.Label == "" {
		spec.Label = humanize(name)
	}
	if s, ok := prop.Example.(string); ok {
		spec.Placeholder = s
	}

	switch schemaType(prop.Type) {
	case openapi3.TypeString:
		spec.Kind = stringKind(prop)
		spec.MinLength = int(prop.MinLength)
		if prop.MaxLength != nil {
			spec.MaxLength = int(*prop.MaxLength)
		}
		spec.Pattern = prop.Pattern
	case openapi3.TypeInteger:
		spec.Kind = string(fields.KindInt)
		spec.Min, spec.Max = prop.Min, prop.Max
	case openapi3.TypeNumber:
		spec.Kind = string(fields.KindFloat)
		spec.Min, spec.Max = prop.Min, prop.Max
	case openapi3.TypeBoolean:
		spec.Kind = string(fields.KindCheckbox)
	default:
		return spec, false
	}

	if len(prop.Enum) > 0 {
		spec.Kind = string(fields.KindSelect)
		for _, value := range prop.Enum {
			v := fmt.Sprint(value)
			spec.Options = append(spec.Options, formdef.OptionSpec{Value: v, Label: v})
		}
	}
	applyExtension(&spec, extension(prop))
	return spec, true
}

func schemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	if values := types.Slice(); len(values) > 0 {
		return values[0]
	}
	return ""
}

func stringKind(prop *openapi3.Schema) string {
	switch prop.Format {
	case "email":
		return string(fields.KindEmail)
	case "password":
		return string(fields.KindPassword)
	case "date":
		return string(fields.KindDateTime)
	case "date-time":
		return string(fields.KindDateTimeLocal)
	}
	if prop.MaxLength != nil && *prop.MaxLength > 255 {
		return string(fields.KindTextArea)
	}
	return string(fields.KindText)
}

func extension(prop *openapi3.Schema) map[string]any {
	if prop == nil {
		return nil
	}
	ext, _ := prop.Extensions[ExtensionKey].(map[string]any)
	return ext
}

func applyExtension(spec *formdef.FieldSpec, ext map[string]any) {
	str := func(key string) (string, bool) {
		s, ok := ext[key].(string)
		return s, ok && s != ""
	}
	if v, ok := str("kind"); ok {
		spec.Kind = v
	}
	if v, ok := str("label"); ok {
		spec.Label = v
	}
	if v, ok := str("placeholder"); ok {
		spec.Placeholder = v
	}
	if v, ok := str("prompt"); ok {
		spec.Prompt = v
	}
	if v, ok := str("patternMessage"); ok {
		spec.PatternMessage = v
	}
	if v, ok := str("confirm"); ok {
		spec.Confirm = v
	}
	if v, ok := ext["inline"].(bool); ok {
		spec.Inline = v
	}
	if v, ok := ext["required"].(bool); ok {
		spec.Required = v
	}
	if labels, ok := ext["labels"].(map[string]any); ok {
		for i, option := range spec.Options {
			if label, ok := labels[option.Value].(string); ok {
				spec.Options[i].Label = label
			}
		}
	}
}

// humanize turns "firstName" and "first_name" into "First name".
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			b.WriteRune(' ')
		case i > 0 && unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	if len(words) == 0 {
		return ""
	}
	out := strings.Join(words, " ")
	first := []rune(out)
	first[0] = unicode.ToUpper(first[0])
	return string(first)
}
