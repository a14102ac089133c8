// Package store is the local SQLite board store: boards, collections, items and sub-items, plus
// the small navigator state file that remembers the last location per board.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	// modernc.org/sqlite registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

const dbFileName = "boardnav.sqlite"

var (
	// ErrNotFound is returned when a board or entity id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid is wrapped by input validation failures (empty names, unknown kinds).
	ErrInvalid = errors.New("invalid input")
)

// InvalidError describes rejected input. It unwraps to ErrInvalid.
type InvalidError struct {
	Msg string
}

func (e *InvalidError) Error() string { return e.Msg }

func (e *InvalidError) Unwrap() error { return ErrInvalid }

func invalidf(format string, args ...any) error {
	return &InvalidError{Msg: fmt.Sprintf(format, args...)}
}

type Store struct {
	Dir string

	db  *sql.DB
	log zerolog.Logger
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// Open opens (creating if needed) the board store in dir.
func Open(ctx context.Context, dir string, opts ...Option) (*Store, error) {
	s := &Store{Dir: dir, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	db, err := openSQLite(ctx, s.sqlitePath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	s.db = db
	s.log.Debug().Str("path", s.sqlitePath()).Msg("store opened")
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Ensure() error {
	if strings.TrimSpace(s.Dir) == "" {
		return errors.New("store dir is empty")
	}
	return os.MkdirAll(s.Dir, 0o755)
}

func (s *Store) sqlitePath() string {
	return filepath.Join(s.Dir, dbFileName)
}

func openSQLite(ctx context.Context, path string) (*sql.DB, error) {
	// Pragmas go into the DSN so every pooled connection gets them.
	// WAL enables one writer + many readers; busy_timeout helps avoid "database is locked" flakiness.
	q := url.Values{}
	for _, p := range []string{
		"journal_mode(WAL)",
		"synchronous(NORMAL)",
		"foreign_keys(1)",
		"busy_timeout(5000)",
	} {
		q.Add("_pragma", p)
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", "file:"+path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS boards (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			created_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			board_id TEXT NOT NULL REFERENCES boards(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			name TEXT NOT NULL,
			completed INTEGER NOT NULL,
			priority TEXT NOT NULL,
			due_json TEXT NOT NULL,
			labels_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_collections_board ON collections(board_id, rank);`,
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			name TEXT NOT NULL,
			description TEXT NOT NULL,
			link TEXT NOT NULL,
			completed INTEGER NOT NULL,
			priority TEXT NOT NULL,
			due_json TEXT NOT NULL,
			labels_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_items_collection ON items(collection_id, rank);`,
		`CREATE TABLE IF NOT EXISTS sub_items (
			id TEXT PRIMARY KEY,
			item_id TEXT NOT NULL REFERENCES items(id) ON DELETE CASCADE,
			rank INTEGER NOT NULL,
			name TEXT NOT NULL,
			completed INTEGER NOT NULL,
			priority TEXT NOT NULL,
			due_json TEXT NOT NULL,
			labels_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sub_items_item ON sub_items(item_id, rank);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
