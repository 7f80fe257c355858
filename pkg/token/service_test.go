package token_test

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-formkit/pkg/token"
)

// replayStore accepts every registered token any number of times.
type replayStore struct {
	tokens map[string]bool
}

func newReplayStore() *replayStore { return &replayStore{tokens: map[string]bool{}} }

func (s *replayStore) Register(t string) error { s.tokens[t] = true; return nil }
func (s *replayStore) Verify(t string) (bool, error) { return s.tokens[t], nil }
func (s *replayStore) ClientSalt() string { return "abc123" }

type failingStore struct{ replayStore }

func (s *failingStore) Verify(string) (bool, error) { return false, errors.New("store down") }

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newService(t *testing.T, store token.Store, c *clock, opts ...token.Option) *token.Service {
	t.Helper()
	opts = append([]token.Option{token.WithClock(c.Now)}, opts...)
	svc, err := token.NewService([]byte("abc123"), store, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestTokenLifecycleWindow(t *testing.T) {
	c := &clock{now: time.Unix(1700000000, 0)}
	svc := newService(t, newReplayStore(), c)

	tok, err := svc.CreateToken("signup")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	steps := []struct {
		elapsed time.Duration
		want    bool
	}{
		{0, false},
		{5 * time.Second, true},
		{1200 * time.Second, true},
		{1201 * time.Second, false},
	}
	start := c.now
	for _, step := range steps {
		c.now = start.Add(step.elapsed)
		if got := svc.CheckToken("signup", tok); got != step.want {
			t.Errorf("elapsed %s: expected %v, got %v", step.elapsed, step.want, got)
		}
	}
}

func TestTokenIsSingleUse(t *testing.T) {
	c := &clock{now: time.Unix(1700000000, 0)}
	store := token.NewMemoryStore("fingerprint", 0)
	svc := newService(t, store, c)

	tok, err := svc.CreateToken("signup")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	c.Advance(10 * time.Second)

	if !svc.CheckToken("signup", tok) {
		t.Fatalf("expected first check to pass")
	}
	if svc.CheckToken("signup", tok) {
		t.Fatalf("expected second check to fail")
	}
}

func TestTokensAreUnique(t *testing.T) {
	c := &clock{now: time.Unix(1700000000, 0)}
	svc := newService(t, newReplayStore(), c)

	a, _ := svc.CreateToken("form")
	b, _ := svc.CreateToken("form")
	if a == "" || a == b {
		t.Fatalf("expected distinct non-empty tokens, got %q and %q", a, b)
	}
}

func TestTokenWireFormat(t *testing.T) {
	c := &clock{now: time.Unix(1700000000, 0)}
	svc := newService(t, newReplayStore(), c, token.WithSalt(func() (string, error) { return "pepper", nil }))

	tok, err := svc.CreateToken("form")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		t.Fatalf("decode base64: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if fields["T"] != float64(1700000000) || fields["S"] != "pepper" {
		t.Fatalf("unexpected payload %v", fields)
	}
	if hash, _ := fields["H"].(string); len(hash) != 128 {
		t.Fatalf("expected hex sha512 hash, got %q", hash)
	}

	claims, err := token.Decode(tok)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !claims.Issued.Equal(c.now) || claims.Salt != "pepper" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokenRejectsTamperingAndWrongSecret(t *testing.T) {
	c := &clock{now: time.Unix(1700000000, 0)}
	store := newReplayStore()
	svc := newService(t, store, c)
	tok, _ := svc.CreateToken("form")
	c.Advance(10 * time.Second)

	other, err := token.NewService([]byte("abc1231"), store, token.WithClock(c.Now))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if other.CheckToken("form", tok) {
		t.Fatalf("expected wrong secret to fail")
	}

	mangled := "1" + tok
	_ = store.Register(mangled)
	if svc.CheckToken("form", mangled) {
		t.Fatalf("expected tampered token to fail")
	}

	forged, _ := json.Marshal(map[string]any{"T": c.now.Add(-10 * time.Second).Unix(), "S": "x", "H": strings.Repeat("0", 128)})
	forgedToken := base64.StdEncoding.EncodeToString(forged)
	_ = store.Register(forgedToken)
	if svc.CheckToken("form", forgedToken) {
		t.Fatalf("expected forged hash to fail")
	}

	if !svc.CheckToken("form", tok) {
		t.Fatalf("expected original token to pass")
	}
}

func TestTokenRejectsUnknownToken(t *testing.T) {
	c := &clock{now: time.Unix(1700000000, 0)}
	svc := newService(t, token.NewMemoryStore("", 0), c)

	if svc.CheckToken("form", "never-issued") {
		t.Fatalf("expected unknown token to fail")
	}
}

func TestTokenStoreErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := &clock{now: time.Unix(1700000000, 0)}
	store := &failingStore{replayStore: *newReplayStore()}
	svc := newService(t, store, c, token.WithLogger(zap.New(core)))

	if svc.CheckToken("form", "anything") {
		t.Fatalf("expected store failure to reject")
	}
	if logs.FilterMessage("token store verify failed").Len() != 1 {
		t.Fatalf("expected a warning to be logged, got %v", logs.All())
	}
}

func TestNewServiceValidation(t *testing.T) {
	if _, err := token.NewService(nil, newReplayStore()); !errors.Is(err, token.ErrNoSecret) {
		t.Fatalf("expected ErrNoSecret, got %v", err)
	}
	if _, err := token.NewService([]byte("s"), nil); !errors.Is(err, token.ErrNoStore) {
		t.Fatalf("expected ErrNoStore, got %v", err)
	}
	if _, err := token.NewService([]byte("s"), newReplayStore(), token.WithWindow(10*time.Second, time.Second)); err == nil {
		t.Fatalf("expected inverted window to fail")
	}
	svc, err := token.NewService([]byte("s"), newReplayStore())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if from, to := svc.Window(); from != token.DefaultValidFrom || to != token.DefaultValidTo {
		t.Fatalf("unexpected default window %s..%s", from, to)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, raw := range []string{"%%%", base64.StdEncoding.EncodeToString([]byte("not json")), base64.StdEncoding.EncodeToString([]byte(`{"T":1}`))} {
		if _, err := token.Decode(raw); !errors.Is(err, token.ErrMalformed) {
			t.Errorf("%q: expected ErrMalformed, got %v", raw, err)
		}
	}
}
