// Package sqlstore keeps issued CSRF tokens in a SQL table through xorm.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"xorm.io/xorm"
	"xorm.io/xorm/log"
	"xorm.io/xorm/names"

	"github.com/goliatone/go-formkit/pkg/token"
)

// Row is one outstanding token.
type Row struct {
	ID      int64     `xorm:"pk autoincr"`
	Session string    `xorm:"varchar(64) index notnull"`
	Value   string    `xorm:"varchar(1024) notnull"`
	Created time.Time `xorm:"created"`
}

// TableName implements xorm's table naming hook.
func (Row) TableName() string {
	return "form_token"
}

// DB owns the engine shared by all session stores.
type DB struct {
	engine   *xorm.Engine
	capacity int
}

// Open returns a database for the sqlite file at path, creating the table
// when missing. A capacity below one selects token.DefaultCapacity.
func Open(path string, capacity int) (*DB, error) {
	engine, err := xorm.NewEngine("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open %s: %w", path, err)
	}
	engine.Logger().SetLevel(log.LOG_WARNING)
	engine.SetMapper(names.GonicMapper{})

	if err := engine.Sync2(new(Row)); err != nil {
		_ = engine.Close()
		return nil, fmt.Errorf("sqlstore: sync: %w", err)
	}
	if capacity < 1 {
		capacity = token.DefaultCapacity
	}
	return &DB{engine: engine, capacity: capacity}, nil
}

// Close the database.
func (db *DB) Close() error {
	return db.engine.Close()
}

// Store returns the token store for session bound to ctx.
func (db *DB) Store(ctx context.Context, session, fingerprint string) (*Store, error) {
	if session == "" {
		return nil, errors.New("sqlstore: session is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Store{db: db, ctx: ctx, session: session, fingerprint: fingerprint + session}, nil
}

// Store is a token.Store bound to one session.
type Store struct {
	db          *DB
	ctx         context.Context
	session     string
	fingerprint string
}

var _ token.Store = (*Store)(nil)

// Register inserts token and deletes the session's rows beyond capacity.
func (s *Store) Register(tok string) error {
	engine := s.db.engine
	if _, err := engine.Context(s.ctx).Insert(&Row{Session: s.session, Value: tok}); err != nil {
		return fmt.Errorf("sqlstore: register: %w", err)
	}

	var stale []Row
	err := engine.Context(s.ctx).
		Where("session = ?", s.session).
		Desc("id").
		Limit(1, s.db.capacity).
		Find(&stale)
	if err != nil {
		return fmt.Errorf("sqlstore: register: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	if _, err := engine.Context(s.ctx).Where("session = ? AND id <= ?", s.session, stale[0].ID).Delete(new(Row)); err != nil {
		return fmt.Errorf("sqlstore: evict: %w", err)
	}
	return nil
}

// Verify deletes token and reports whether it was present.
func (s *Store) Verify(tok string) (bool, error) {
	n, err := s.db.engine.Context(s.ctx).Where("session = ? AND value = ?", s.session, tok).Delete(new(Row))
	if err != nil {
		return false, fmt.Errorf("sqlstore: verify: %w", err)
	}
	return n > 0, nil
}

// ClientSalt implements token.Store.
func (s *Store) ClientSalt() string {
	return s.fingerprint
}

// Len returns the number of outstanding tokens.
func (s *Store) Len() (int64, error) {
	n, err := s.db.engine.Context(s.ctx).Where("session = ?", s.session).Count(new(Row))
	if err != nil {
		return 0, fmt.Errorf("sqlstore: len: %w", err)
	}
	return n, nil
}
