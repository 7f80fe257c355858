// Package redisstore keeps issued CSRF tokens in a Redis list per session.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formkit/pkg/token"
)

// DefaultPrefix namespaces the token lists.
const DefaultPrefix = "formkit:tokens:"

// Options configure a Store.
type Options struct {
	// Prefix is prepended to the session id to form the list key.
	Prefix string
	// Capacity bounds the number of outstanding tokens per session.
	Capacity int
	// TTL expires idle session lists. Zero keeps them forever.
	TTL time.Duration
}

// Store is a token.Store bound to one session and one request context.
type Store struct {
	ctx         context.Context
	client      redis.Cmdable
	key         string
	fingerprint string
	capacity    int
	ttl         time.Duration
}

var _ token.Store = (*Store)(nil)

// New returns a store for session. The context bounds every Redis call made
// through the store and is normally the request context.
func New(ctx context.Context, client redis.Cmdable, session, fingerprint string, opts Options) (*Store, error) {
	if client == nil {
		return nil, errors.New("redisstore: client is required")
	}
	if session == "" {
		return nil, errors.New("redisstore: session is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	capacity := opts.Capacity
	if capacity < 1 {
		capacity = token.DefaultCapacity
	}
	return &Store{
		ctx:         ctx,
		client:      client,
		key:         prefix + session,
		fingerprint: fingerprint + session,
		capacity:    capacity,
		ttl:         opts.TTL,
	}, nil
}

// Register pushes token to the head of the list and trims the tail.
func (s *Store) Register(tok string) error {
	pipe := s.client.TxPipeline()
	pipe.LPush(s.ctx, s.key, tok)
	pipe.LTrim(s.ctx, s.key, 0, int64(s.capacity-1))
	if s.ttl > 0 {
		pipe.Expire(s.ctx, s.key, s.ttl)
	}
	if _, err := pipe.Exec(s.ctx); err != nil {
		return fmt.Errorf("redisstore: register: %w", err)
	}
	return nil
}

// Verify removes token from the list and reports whether it was present.
func (s *Store) Verify(tok string) (bool, error) {
	removed, err := s.client.LRem(s.ctx, s.key, 1, tok).Result()
	if err != nil {
		return false, fmt.Errorf("redisstore: verify: %w", err)
	}
	return removed > 0, nil
}

// ClientSalt implements token.Store.
func (s *Store) ClientSalt() string {
	return s.fingerprint
}

// Len returns the number of outstanding tokens.
func (s *Store) Len() (int64, error) {
	n, err := s.client.LLen(s.ctx, s.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redisstore: len: %w", err)
	}
	return n, nil
}
