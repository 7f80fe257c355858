package fields

import (
	"crypto/sha1"
	"encoding/hex"

	"github.com/goliatone/go-formkit/pkg/render"
	"github.com/goliatone/go-formkit/pkg/token"
	"github.com/goliatone/go-formkit/pkg/validation"
)

// TokenPrefix starts the input name of every token field so it cannot clash
// with application field names.
const TokenPrefix = "c020b766-cddd-4f7a-ba75-4da76f861a62-"

// Token is a hidden CSRF token input. Rendering issues a fresh token and
// validation checks the submitted one against the same issuer.
type Token struct {
	Base

	Issuer token.Issuer
}

// NewToken returns a token field for the logical form name.
func NewToken(name string, issuer token.Issuer) *Token {
	sum := sha1.Sum([]byte(name))
	return &Token{
		Base:   Base{name: TokenPrefix + hex.EncodeToString(sum[:])},
		Issuer: issuer,
	}
}

func (f *Token) Kind() Kind { return KindToken }

func (f *Token) CreateValidators() []validation.Validator {
	return []validation.Validator{&validation.Token{Checker: f.Issuer}}
}

// RenderInput renders a hidden input carrying a new token. When the issuer
// fails the value is left out and the submission will not validate.
func (f *Token) RenderInput(r *render.Renderer, attrs render.Attrs) string {
	defaults := render.Attrs{
		"type": "hidden",
		"name": r.Name(f),
	}
	if f.Issuer != nil {
		if value, err := f.Issuer.CreateToken(f.Name()); err == nil {
			defaults["value"] = value
		}
	}
	return r.Tag("input", render.Merge(defaults, attrs))
}
