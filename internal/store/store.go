package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"mediahub/internal/config"
)

// DefaultFailedLookupWindow is used when no window is configured.
const DefaultFailedLookupWindow = 7 * 24 * time.Hour

// Store manages media persistence backed by SQLite.
type Store struct {
	queries
	db   *sql.DB
	path string
}

// Option customizes a Store.
type Option func(*Store)

// WithFailedLookupWindow sets how long a recorded failure counts as recent.
func WithFailedLookupWindow(window time.Duration) Option {
	return func(s *Store) {
		if window > 0 {
			s.window = window
		}
	}
}

// WithClock replaces the wall clock used for failure timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open initializes or connects to the media database configured in cfg.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("store: config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	all := append([]Option{WithFailedLookupWindow(cfg.FailedLookupWindow())}, opts...)
	return OpenPath(cfg.DatabasePath(), all...)
}

// OpenPath opens the database at dbPath.
func OpenPath(dbPath string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{
		queries: queries{db: db, now: time.Now, window: DefaultFailedLookupWindow},
		db:      db,
		path:    dbPath,
	}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ensureContext(ctx))
}

// FailedLookupWindow returns the recency window applied to lookup failures.
func (s *Store) FailedLookupWindow() time.Duration {
	return s.window
}

// Session is one transaction. It exposes the same operations as Store; all
// writes become visible together on Commit.
type Session struct {
	queries
	tx   *sql.Tx
	done bool
}

// Begin starts a session.
func (s *Store) Begin(ctx context.Context) (*Session, error) {
	ctx = ensureContext(ctx)
	var tx *sql.Tx
	if err := retryOnBusy(ctx, func() error {
		var beginErr error
		tx, beginErr = s.db.BeginTx(ctx, nil)
		return beginErr
	}); err != nil {
		return nil, fmt.Errorf("begin session: %w", err)
	}
	return &Session{
		queries: queries{db: tx, now: s.now, window: s.window},
		tx:      tx,
	}, nil
}

// Commit makes the session's writes durable.
func (s *Session) Commit() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}

// Rollback discards the session's writes. It is a no-op after Commit.
func (s *Session) Rollback() error {
	if s.done {
		return nil
	}
	s.done = true
	if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("rollback session: %w", err)
	}
	return nil
}
