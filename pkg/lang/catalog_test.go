package lang_test

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formkit/pkg/lang"
)

func TestDefaultCatalogEnglish(t *testing.T) {
	got := lang.Default().Text("en", lang.KeyRange, map[string]string{"field": "Age", "min": "1", "max": "99"})
	if want := "Age must be between 1 and 99"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCatalogMatchesRegionalLocales(t *testing.T) {
	c := lang.Default()

	if got := c.Text("da-DK", lang.KeyRequired, map[string]string{"field": "Navn"}); got != "Navn skal udfyldes" {
		t.Fatalf("expected danish text, got %q", got)
	}
	if got := c.Text("fr", lang.KeyRequired, map[string]string{"field": "Nom"}); got != "Nom is required" {
		t.Fatalf("expected english fallback, got %q", got)
	}
	if got := c.Text("", lang.KeyYear, nil); got != "Year" {
		t.Fatalf("expected english for empty locale, got %q", got)
	}
}

func TestCatalogMonths(t *testing.T) {
	months := lang.Default().Months("en")
	if len(months) != 12 || months[0] != "January" || months[11] != "December" {
		t.Fatalf("unexpected months: %v", months)
	}
}

func TestCatalogMissingKey(t *testing.T) {
	var missing []string
	c := lang.New(lang.WithMissingHandler(func(locale, key string, err error) {
		if !errors.Is(err, lang.ErrMissingKey) {
			t.Errorf("expected ErrMissingKey, got %v", err)
		}
		missing = append(missing, locale+":"+key)
	}))
	if err := c.Add("en", map[string]string{"hello": "Hello {name}"}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if got := c.Text("en", "hello", map[string]string{"name": "Ada"}); got != "Hello Ada" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := c.Text("en", "nope", nil); got != "nope" {
		t.Fatalf("missing key should resolve to itself, got %q", got)
	}
	if diff := cmp.Diff([]string{"en:nope"}, missing); diff != "" {
		t.Fatalf("missing handler calls (-want +got):\n%s", diff)
	}
}

func TestCatalogLoadFSOverrides(t *testing.T) {
	c := lang.New()
	if err := c.LoadBuiltin(); err != nil {
		t.Fatalf("builtin: %v", err)
	}
	fsys := fstest.MapFS{
		"custom/en.yaml": {Data: []byte("required: \"Please fill in {field}\"\n")},
		"custom/de.yml":  {Data: []byte("required: \"{field} ist erforderlich\"\n")},
		"README.md":      {Data: []byte("ignored")},
	}
	if err := c.LoadFS(fsys); err != nil {
		t.Fatalf("load: %v", err)
	}

	if diff := cmp.Diff([]string{"da", "de", "en"}, c.Locales()); diff != "" {
		t.Fatalf("locales mismatch (-want +got):\n%s", diff)
	}
	if got := c.Text("en", lang.KeyRequired, map[string]string{"field": "Name"}); got != "Please fill in Name" {
		t.Fatalf("override not applied, got %q", got)
	}
	if got := c.Text("de-AT", lang.KeyRequired, map[string]string{"field": "Name"}); got != "Name ist erforderlich" {
		t.Fatalf("expected german table, got %q", got)
	}
	if got := c.Text("de", lang.KeyEmail, map[string]string{"field": "E-Mail"}); got != "E-Mail must be a valid e-mail address" {
		t.Fatalf("expected fallback for key missing in german, got %q", got)
	}
}

func TestFormat(t *testing.T) {
	got := lang.Format("{field} between {min} and {max} ({other})", map[string]string{"field": "X", "min": "1", "max": "2"})
	if want := "X between 1 and 2 ({other})"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}
