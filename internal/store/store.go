// Package store implements the local schedule on an embedded SQLite database.
//
// The database holds two tables:
//
//   - events: one row per scheduled item. Recurring items carry an RRULE and
//     expand to one occurrence per date when searched.
//   - change_log: an append-only record of local mutations. Add, Update and
//     Delete write an entry in the same transaction as the mutation. Append,
//     used when importing from the remote calendar, does not.
//
// The database runs in WAL mode with a busy timeout so that a sync run and an
// interactive edit can overlap.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/agentstation/mhcgcal/pkg/constants"
	"github.com/agentstation/mhcgcal/pkg/errors"
)

const defaultMaxOccurrences = 5000

// Store is the SQLite-backed local schedule and change log.
type Store struct {
	conn           *sql.DB
	path           string
	now            func() time.Time
	maxOccurrences int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for change-log mtimes and row timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMaxOccurrences caps how many occurrences one recurring item expands to
// in a single search.
func WithMaxOccurrences(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxOccurrences = n
		}
	}
}

// Open opens or creates the database at path and ensures the schema exists.
// The caller must call Close when done.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("create", filepath.Dir(path), err)
	}

	busy := constants.StoreBusyTimeout.Milliseconds()
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(wal)&_pragma=foreign_keys(1)", path, busy)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, errors.WrapIO("open", path, err)
	}

	// A batch run never needs more than one connection, and a single
	// connection keeps the PRAGMAs above in effect for every statement.
	conn.SetMaxOpenConns(1)

	s := &Store{
		conn:           conn,
		path:           path,
		now:            time.Now,
		maxOccurrences: defaultMaxOccurrences,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints the WAL and closes the database.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	_, _ = s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	if err := s.conn.Close(); err != nil {
		return errors.WrapIO("close", s.path, err)
	}
	s.conn = nil
	return nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		record_id   TEXT PRIMARY KEY,
		subject     TEXT NOT NULL DEFAULT '',
		location    TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		categories  TEXT NOT NULL DEFAULT '',  -- space separated, lowercase
		day         TEXT NOT NULL,             -- yyyy-mm-dd, first occurrence
		start_time  TEXT,                      -- HH:MM, hour may exceed 23
		end_time    TEXT,
		rrule       TEXT NOT NULL DEFAULT '',
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS change_log (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		record_id TEXT NOT NULL,
		status    TEXT NOT NULL CHECK (status IN ('created', 'updated', 'deleted')),
		mtime     INTEGER NOT NULL  -- unix nanoseconds
	);

	CREATE INDEX IF NOT EXISTS idx_events_day ON events(day);
	CREATE INDEX IF NOT EXISTS idx_events_rrule ON events(rrule) WHERE rrule != '';
	CREATE INDEX IF NOT EXISTS idx_change_log_mtime ON change_log(mtime);
	CREATE INDEX IF NOT EXISTS idx_change_log_record ON change_log(record_id);
	`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return errors.WrapResource("initialize", "schema", "", err)
	}
	return nil
}
