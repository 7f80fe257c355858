// Package tokens selects the token store backend from configuration and
// hands out per-session token services.
package tokens

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goliatone/go-formkit/internal/config"
	"github.com/goliatone/go-formkit/pkg/token"
	"github.com/goliatone/go-formkit/pkg/token/redisstore"
	"github.com/goliatone/go-formkit/pkg/token/sqlstore"
)

// ErrNoSecret is returned when tokens are requested without token.secret.
var ErrNoSecret = errors.New("tokens: token.secret is not configured")

// Factory builds token services bound to one session.
type Factory struct {
	cfg    config.Token
	logger *zap.Logger

	sessions *token.Sessions
	redis    *redis.Client
	sqlite   *sqlstore.DB
}

// New opens the configured backend.
func New(cfg *config.Config, logger *zap.Logger) (*Factory, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Factory{cfg: cfg.Token, logger: logger}

	switch cfg.Token.Store {
	case config.StoreRedis:
		f.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case config.StoreSQLite:
		db, err := sqlstore.Open(cfg.SQLite.Path, cfg.Token.Capacity)
		if err != nil {
			return nil, err
		}
		f.sqlite = db
	default:
		f.sessions = token.NewSessions(cfg.Token.Capacity)
	}
	logger.Debug("token store ready", zap.String("store", cfg.Token.Store))
	return f, nil
}

// Issuer returns a token service for session. I/O performed by the store is
// bound to ctx.
func (f *Factory) Issuer(ctx context.Context, session, fingerprint string) (*token.Service, error) {
	if f.cfg.Secret == "" {
		return nil, ErrNoSecret
	}
	store, err := f.store(ctx, session, fingerprint)
	if err != nil {
		return nil, err
	}
	return token.NewService([]byte(f.cfg.Secret), store,
		token.WithWindow(f.cfg.ValidFrom, f.cfg.ValidTo),
		token.WithLogger(f.logger.With(zap.String("session", session))),
	)
}

func (f *Factory) store(ctx context.Context, session, fingerprint string) (token.Store, error) {
	switch {
	case f.redis != nil:
		return redisstore.New(ctx, f.redis, session, fingerprint, redisstore.Options{
			Capacity: f.cfg.Capacity,
			TTL:      f.cfg.ValidTo,
		})
	case f.sqlite != nil:
		return f.sqlite.Store(ctx, session, fingerprint)
	default:
		if session == "" {
			return nil, fmt.Errorf("tokens: session is required")
		}
		return f.sessions.Store(session, fingerprint), nil
	}
}

// Close releases the backend connections.
func (f *Factory) Close() error {
	switch {
	case f.redis != nil:
		return f.redis.Close()
	case f.sqlite != nil:
		return f.sqlite.Close()
	}
	return nil
}
