package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/formdef"
	"github.com/goliatone/go-formkit/pkg/input"
)

const petstore = `
openapi: 3.0.3
info:
  title: Pets
  version: 1.0.0
paths:
  /pets:
    post:
      operationId: createPet
      summary: Create pet
      requestBody:
        content:
          application/x-www-form-urlencoded:
            schema:
              $ref: '#/components/schemas/Pet'
      responses:
        '201':
          description: created
    get:
      summary: List pets
      responses:
        '200':
          description: ok
  /pets/{id}/notes:
    put:
      parameters:
        - name: id
          in: path
          required: true
          schema:
            type: string
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                body:
                  type: string
                  maxLength: 2000
      responses:
        '204':
          description: saved
components:
  schemas:
    Pet:
      type: object
      required: [name, species]
      properties:
        name:
          type: string
          title: Pet name
          minLength: 2
          maxLength: 40
          x-formkit:
            order: 1
        species:
          type: string
          enum: [cat, dog]
          x-formkit:
            order: 2
            prompt: Pick one
            labels:
              cat: Cat
              dog: Dog
        ownerEmail:
          type: string
          format: email
        age:
          type: integer
          minimum: 0
          maximum: 40
        vaccinated:
          type: boolean
        tags:
          type: array
          items:
            type: string
`

func loadPetstore(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(context.Background(), []byte(petstore))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc
}

func TestOperationsSortedWithDerivedIDs(t *testing.T) {
	doc := loadPetstore(t)

	var got []string
	for _, op := range doc.Operations() {
		got = append(got, op.ID+" "+op.Method+" "+op.Path)
	}
	want := []string{
		"createPet POST /pets",
		"get:/pets GET /pets",
		"put:/pets/{id}/notes PUT /pets/{id}/notes",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("operations mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionFromRequestBody(t *testing.T) {
	doc := loadPetstore(t)

	def, err := doc.Definition("createPet")
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if def.Title != "Create pet" || def.Action != "/pets" || def.Method != "post" {
		t.Fatalf("unexpected header %+v", def)
	}

	type summary struct {
		Name, Kind, Label string
		Required          bool
	}
	var got []summary
	for _, f := range def.Fields {
		got = append(got, summary{f.Name, f.Kind, f.Label, f.Required})
	}
	want := []summary{
		{"name", "text", "Pet name", true},
		{"species", "select", "Species", true},
		{"age", "int", "Age", false},
		{"ownerEmail", "email", "Owner email", false},
		{"vaccinated", "checkbox", "Vaccinated", false},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	species := def.Fields[1]
	if species.Prompt != "Pick one" {
		t.Fatalf("prompt = %q", species.Prompt)
	}
	wantOptions := formdef.OptionList{{Value: "cat", Label: "Cat"}, {Value: "dog", Label: "Dog"}}
	if diff := cmp.Diff(wantOptions, species.Options); diff != "" {
		t.Fatalf("options mismatch (-want +got):\n%s", diff)
	}
	if name := def.Fields[0]; name.MinLength != 2 || name.MaxLength != 40 {
		t.Fatalf("name lengths = %d..%d", name.MinLength, name.MaxLength)
	}
	if age := def.Fields[2]; age.Min == nil || *age.Min != 0 || age.Max == nil || *age.Max != 40 {
		t.Fatalf("age bounds = %v..%v", age.Min, age.Max)
	}
}

func TestDefinitionLongStringBecomesTextArea(t *testing.T) {
	doc := loadPetstore(t)

	def, err := doc.Definition("put:/pets/{id}/notes")
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if len(def.Fields) != 1 || def.Fields[0].Kind != "textarea" {
		t.Fatalf("unexpected fields %+v", def.Fields)
	}
	if def.Title != "Put pets id notes" {
		t.Fatalf("title = %q", def.Title)
	}
}

func TestDefinitionErrors(t *testing.T) {
	doc := loadPetstore(t)

	if _, err := doc.Definition("missing"); !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
	if _, err := doc.Definition("get:/pets"); !errors.Is(err, ErrNoRequestBody) {
		t.Fatalf("expected ErrNoRequestBody, got %v", err)
	}
}

func TestFormValidatesDerivedFields(t *testing.T) {
	doc := loadPetstore(t)

	form, err := doc.Form("createPet")
	if err != nil {
		t.Fatalf("Form: %v", err)
	}

	m, err := input.Create(map[string]any{
		"name":    "x",
		"species": "cow",
		"age":     "3",
	}, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ok, err := form.Validate(m)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if ok {
		t.Fatal("expected validation to fail")
	}
	if msg := m.Error(input.Key("name")); msg != "Pet name must be between 2 and 40 characters long" {
		t.Fatalf("name error = %q", msg)
	}
	if !m.HasError(input.Key("species")) {
		t.Fatal("expected species error")
	}
	if m.HasError(input.Key("age")) {
		t.Fatalf("unexpected age error %q", m.Error(input.Key("age")))
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	if _, err := Load(context.Background(), []byte("openapi: 3.0.3\n")); err == nil {
		t.Fatal("expected error for document without info")
	}
}

func TestHumanize(t *testing.T) {
	cases := map[string]string{
		"firstName":  "First name",
		"first_name": "First name",
		"post:/pets": "Post pets",
		"":           "",
	}
	for in, want := range cases {
		if got := humanize(in); got != want {
			t.Errorf("humanize(%q) = %q, want %q", in, got, want)
		}
	}
}
