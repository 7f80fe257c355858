// Package server serves form definitions as HTML pages, validates
// submissions and redisplays failures through a signed flash cookie.
package server

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/pkg/fields"
	"github.com/goliatone/go-formkit/pkg/formdef"
	"github.com/goliatone/go-formkit/pkg/input"
	"github.com/goliatone/go-formkit/pkg/page"
	"github.com/goliatone/go-formkit/pkg/timezones"
	"github.com/goliatone/go-formkit/pkg/token"
)

const (
	// SessionCookie carries the session id tokens are bound to.
	SessionCookie = "formkit_session"
	// FlashPrefix starts the per-form cookie holding a failed submission.
	FlashPrefix = "formkit_flash_"

	flashTTL = time.Minute
)

// IssuerFunc returns the token issuer for a session.
type IssuerFunc func(ctx context.Context, session, fingerprint string) (token.Issuer, error)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIssuers enables token fields.
func WithIssuers(fn IssuerFunc) Option {
	return func(s *Server) {
		s.issuers = fn
	}
}

// WithPages replaces the page engine.
func WithPages(engine *page.Engine) Option {
	return func(s *Server) {
		if engine != nil {
			s.pages = engine
		}
	}
}

// WithBuildOptions passes options to every formdef.Build call.
func WithBuildOptions(opts ...formdef.Option) Option {
	return func(s *Server) {
		s.build = append(s.build, opts...)
	}
}

// WithFlashKey sets the key signing flash cookies. Without one a random key
// is generated, so flashes do not survive a restart.
func WithFlashKey(key []byte) Option {
	return func(s *Server) {
		if len(key) > 0 {
			s.flashKey = append([]byte(nil), key...)
		}
	}
}

// WithSecureCookies marks cookies Secure.
func WithSecureCookies(secure bool) Option {
	return func(s *Server) {
		s.secure = secure
	}
}

// Server routes form requests.
type Server struct {
	router  *mux.Router
	defs    map[string]formdef.Definition
	issuers IssuerFunc
	pages   *page.Engine
	build   []formdef.Option
	logger  *zap.Logger
	secure  bool

	flashKey []byte
}

// flashClaims carries a failed submission for one form.
type flashClaims struct {
	Flash input.Snapshot `json:"flash"`
	jwt.RegisteredClaims
}

// New returns a server for defs keyed by form id.
func New(defs map[string]formdef.Definition, opts ...Option) (*Server, error) {
	s := &Server{
		router: mux.NewRouter(),
		defs:   defs,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if len(s.flashKey) == 0 {
		s.flashKey = make([]byte, 32)
		if _, err := rand.Read(s.flashKey); err != nil {
			return nil, fmt.Errorf("server: flash key: %w", err)
		}
	}
	if s.pages == nil {
		engine, err := page.New()
		if err != nil {
			return nil, err
		}
		s.pages = engine
	}

	s.router.Use(s.logRequests)
	s.router.HandleFunc("/", s.index).Methods(http.MethodGet)
	s.router.Handle("/timezones", timezones.Handler(nil, timezones.DefaultLimits())).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/forms/{id}", s.show).Methods(http.MethodGet)
	s.router.HandleFunc("/forms/{id}", s.submit).Methods(http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

const indexTemplate = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Forms</title></head>
<body><ul>{% for f in forms %}<li><a href="/forms/{{ f.id }}">{{ f.title }}</a></li>{% endfor %}</ul></body>
</html>`

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	ids := make([]string, 0, len(s.defs))
	for id := range s.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	list := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		title := s.defs[id].Title
		if title == "" {
			title = id
		}
		list = append(list, map[string]any{"id": id, "title": title})
	}
	out, err := s.pages.RenderString(indexTemplate, map[string]any{"forms": list})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, out)
}

func (s *Server) show(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	form, ok, err := s.form(w, r, id)
	if !ok {
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	m := input.New()
	if flash, found := s.takeFlash(w, r, id); found {
		m = flash
	}
	var formErrors []string
	if tok := form.Token(); tok != nil && m.HasError(tok) {
		formErrors = append(formErrors, m.Error(tok))
	}

	out, err := s.pages.String(page.View{Form: form, Model: m, FormErrors: formErrors})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, out)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	form, ok, err := s.form(w, r, id)
	if !ok {
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m, err := input.Create(r.PostForm, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	valid, err := form.Validate(m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !valid {
		s.logger.Debug("submission rejected", zap.String("form", id), zap.Strings("fields", m.ErrorKeys()))
		if err := s.setFlash(w, id, form, m); err != nil {
			s.fail(w, r, err)
			return
		}
		http.Redirect(w, r, r.URL.Path, http.StatusSeeOther)
		return
	}

	values, err := form.Values(m)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	for _, f := range form.All() {
		if secret(f) {
			delete(values, f.Name())
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"form": id, "values": values})
}

// form builds the definition id for the request session. ok is false when
// a response has already been written.
func (s *Server) form(w http.ResponseWriter, r *http.Request, id string) (*formdef.Form, bool, error) {
	def, found := s.defs[id]
	if !found {
		http.NotFound(w, r)
		return nil, false, nil
	}
	opts := append([]formdef.Option(nil), s.build...)
	if def.Token != "" {
		if s.issuers == nil {
			return nil, true, errors.New("server: form needs tokens but no issuer is configured")
		}
		issuer, err := s.issuers(r.Context(), s.session(w, r), r.UserAgent())
		if err != nil {
			return nil, true, err
		}
		opts = append(opts, formdef.WithIssuer(issuer))
	}
	form, err := formdef.Build(def, opts...)
	return form, true, err
}

// session returns the session id, issuing a cookie on first contact.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.AddCookie(&http.Cookie{Name: SessionCookie, Value: id})
	return id
}

// setFlash stores the failed submission without password values.
func (s *Server) setFlash(w http.ResponseWriter, id string, form *formdef.Form, m *input.Model) error {
	snap := m.Snapshot()
	for _, f := range form.All() {
		if secret(f) {
			delete(snap.Input, f.Name())
		}
	}
	now := time.Now()
	claims := flashClaims{
		Flash: snap,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(flashTTL)),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.flashKey)
	if err != nil {
		return fmt.Errorf("server: sign flash: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     FlashPrefix + id,
		Value:    value,
		Path:     "/forms/" + id,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(flashTTL / time.Second),
	})
	return nil
}

// takeFlash restores and clears a stored submission. Cookies that are not
// signed by this server for form id are ignored.
func (s *Server) takeFlash(w http.ResponseWriter, r *http.Request, id string) (*input.Model, bool) {
	c, err := r.Cookie(FlashPrefix + id)
	if err != nil || c.Value == "" {
		return nil, false
	}
	http.SetCookie(w, &http.Cookie{Name: FlashPrefix + id, Path: "/forms/" + id, MaxAge: -1})

	var claims flashClaims
	_, err = jwt.ParseWithClaims(c.Value, &claims, func(*jwt.Token) (any, error) {
		return s.flashKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithSubject(id), jwt.WithExpirationRequired())
	if err != nil {
		s.logger.Debug("flash cookie ignored", zap.Error(err))
		return nil, false
	}
	m, err := claims.Flash.Restore()
	if err != nil {
		s.logger.Debug("flash cookie ignored", zap.Error(err))
		return nil, false
	}
	return m, true
}

// secret reports whether the input of f must not leave the server.
func secret(f fields.Field) bool {
	return f.Kind() == fields.KindPassword || f.Kind() == fields.KindToken
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("took", time.Since(start)),
		)
	})
}

func writeHTML(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
