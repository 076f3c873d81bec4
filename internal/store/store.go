// Package store persists preview scroll offsets per document in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/yaklabco/mdsync/internal/configloader"
)

// DefaultFileName is the database file inside the user state directory.
const DefaultFileName = "state.db"

// schemaVersion is bumped when the table layout changes. Older tables are
// dropped, since scroll positions are cheap to lose.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS scroll_state (
    doc        TEXT PRIMARY KEY,   -- absolute document path
    "offset"   REAL NOT NULL,      -- preview scrollTop in CSS pixels
    updated_at INTEGER NOT NULL    -- Unix seconds
);

CREATE INDEX IF NOT EXISTS idx_scroll_state_updated ON scroll_state(updated_at);
`

// ErrClosed is returned by operations on a closed Store.
var ErrClosed = errors.New("store is closed")

// Store is a SQLite-backed scroll offset table. Its methods may be called
// concurrently, except Close.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// DefaultPath returns the database path in the user state directory.
func DefaultPath() string {
	return filepath.Join(configloader.UserStateDir(), DefaultFileName)
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}

	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=busy_timeout(2000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer; WAL lets readers proceed.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s: %w", path, err)
	}

	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", path, err)
	}

	return &Store{db: db, path: path, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var current int
	err := db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current == schemaVersion {
		return nil
	}

	if current != 0 {
		if _, err := db.ExecContext(ctx, "DELETE FROM scroll_state"); err != nil {
			return fmt.Errorf("reset scroll state: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, "DELETE FROM schema_version"); err != nil {
		return fmt.Errorf("reset schema version: %w", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Offset returns the saved scroll offset for doc. ok is false when nothing
// was saved.
func (s *Store) Offset(ctx context.Context, doc string) (offset float64, ok bool, err error) {
	if s.db == nil {
		return 0, false, ErrClosed
	}

	err = s.db.QueryRowContext(ctx, `SELECT "offset" FROM scroll_state WHERE doc = ?`, doc).Scan(&offset)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read offset for %s: %w", doc, err)
	}
	return offset, true, nil
}

// SaveOffset records the scroll offset for doc, replacing any earlier value.
func (s *Store) SaveOffset(ctx context.Context, doc string, offset float64) error {
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO scroll_state (doc, "offset", updated_at) VALUES (?, ?, ?)
ON CONFLICT(doc) DO UPDATE SET "offset" = excluded."offset", updated_at = excluded.updated_at`,
		doc, offset, s.now().Unix())
	if err != nil {
		return fmt.Errorf("save offset for %s: %w", doc, err)
	}
	return nil
}

// Forget removes the saved offset for doc.
func (s *Store) Forget(ctx context.Context, doc string) error {
	if s.db == nil {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM scroll_state WHERE doc = ?", doc); err != nil {
		return fmt.Errorf("forget %s: %w", doc, err)
	}
	return nil
}

// Prune removes offsets not updated since before and returns how many were removed.
func (s *Store) Prune(ctx context.Context, before time.Time) (int64, error) {
	if s.db == nil {
		return 0, ErrClosed
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM scroll_state WHERE updated_at < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune scroll state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune scroll state: %w", err)
	}
	return n, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fmt.Errorf("close %s: %w", s.path, err)
	}
	return nil
}
