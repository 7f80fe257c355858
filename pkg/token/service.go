package token

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// DefaultValidFrom is the minimum age of a token before it is accepted.
	DefaultValidFrom = 5 * time.Second
	// DefaultValidTo is the maximum age of an accepted token.
	DefaultValidTo = 1200 * time.Second
)

var (
	// ErrNoSecret is returned when the service is built without a secret.
	ErrNoSecret = errors.New("token: secret is required")
	// ErrNoStore is returned when the service is built without a store.
	ErrNoStore = errors.New("token: store is required")
	// ErrMalformed is returned when a token cannot be decoded.
	ErrMalformed = errors.New("token: malformed token")
)

// Issuer creates and checks CSRF tokens.
type Issuer interface {
	CreateToken(name string) (string, error)
	CheckToken(name, token string) bool
}

type payload struct {
	Timestamp int64  `json:"T"`
	Salt      string `json:"S"`
	Hash      string `json:"H"`
}

// Option configures a Service.
type Option func(*Service)

// WithWindow sets the accepted token age range.
func WithWindow(from, to time.Duration) Option {
	return func(s *Service) {
		s.validFrom = from
		s.validTo = to
	}
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithSalt replaces the salt generator.
func WithSalt(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.salt = fn
		}
	}
}

// WithLogger sets the logger used to trace rejected tokens.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service issues tokens bound to a timestamp, a random salt and the client
// fingerprint supplied by the store, and verifies them on submission.
type Service struct {
	secret    []byte
	store     Store
	validFrom time.Duration
	validTo   time.Duration
	now       func() time.Time
	salt      func() (string, error)
	logger    *zap.Logger
}

// NewService builds a token service.
func NewService(secret []byte, store Store, opts ...Option) (*Service, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if store == nil {
		return nil, ErrNoStore
	}
	s := &Service{
		secret:    append([]byte(nil), secret...),
		store:     store,
		validFrom: DefaultValidFrom,
		validTo:   DefaultValidTo,
		now:       time.Now,
		salt:      randomSalt,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.validFrom < 0 || s.validTo < s.validFrom {
		return nil, fmt.Errorf("token: invalid window [%s, %s]", s.validFrom, s.validTo)
	}
	return s, nil
}

// Window returns the accepted token age range.
func (s *Service) Window() (from, to time.Duration) {
	return s.validFrom, s.validTo
}

// CreateToken issues a token and registers it with the store.
func (s *Service) CreateToken(name string) (string, error) {
	salt, err := s.salt()
	if err != nil {
		return "", fmt.Errorf("token: salt: %w", err)
	}
	timestamp := s.now().Unix()

	raw, err := json.Marshal(payload{
		Timestamp: timestamp,
		Salt:      salt,
		Hash:      s.hash(salt, timestamp),
	})
	if err != nil {
		return "", fmt.Errorf("token: encode: %w", err)
	}
	token := base64.StdEncoding.EncodeToString(raw)

	if err := s.store.Register(token); err != nil {
		return "", fmt.Errorf("token: register %q: %w", name, err)
	}
	return token, nil
}

// CheckToken consumes token from the store and reports whether it is
// authentic and within the accepted age range.
func (s *Service) CheckToken(name, token string) bool {
	log := s.logger.With(zap.String("name", name))

	ok, err := s.store.Verify(token)
	if err != nil {
		log.Warn("token store verify failed", zap.Error(err))
		return false
	}
	if !ok {
		log.Debug("token not issued")
		return false
	}

	claims, err := Decode(token)
	if err != nil {
		log.Debug("token rejected", zap.Error(err))
		return false
	}

	issued := claims.Issued.Unix()
	if !hmac.Equal([]byte(s.hash(claims.Salt, issued)), []byte(claims.Hash)) {
		log.Debug("token hash mismatch")
		return false
	}

	elapsed := s.now().Unix() - issued
	if elapsed < int64(s.validFrom/time.Second) || elapsed > int64(s.validTo/time.Second) {
		log.Debug("token outside window", zap.Int64("elapsed", elapsed))
		return false
	}
	return true
}

// Claims is the decoded content of a token.
type Claims struct {
	Issued time.Time
	Salt   string
	Hash   string
}

// Decode parses a token without verifying it.
func Decode(token string) (Claims, error) {
	var data payload
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if data.Timestamp == 0 || data.Salt == "" || data.Hash == "" {
		return Claims{}, fmt.Errorf("%w: missing fields", ErrMalformed)
	}
	return Claims{Issued: time.Unix(data.Timestamp, 0), Salt: data.Salt, Hash: data.Hash}, nil
}

func (s *Service) hash(salt string, timestamp int64) string {
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(salt + strconv.FormatInt(timestamp, 10) + s.store.ClientSalt()))
	return hex.EncodeToString(mac.Sum(nil))
}

func randomSalt() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(id.String(), "-", ""), nil
}
