// Package sqlite implements [scribe.Store] on SQLite.
//
// The session graph is kept in two tables: nodes (id, kind, owning session,
// JSON properties) and edges (src, rel, dst). A partial unique index on
// CURRENT_PHASE edges guarantees a session never holds two current phases;
// every multi-write operation runs in a single transaction.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fwojciec/scribe"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Node kinds.
const (
	kindSession  = "Session"
	kindPhase    = "Phase"
	kindQuestion = "Question"
	kindInput    = "UserInput"
	kindSection  = "Section"
	kindPoint    = "Point"
	kindEvidence = "Evidence"
)

// Edge relations.
const (
	relCurrentPhase = "CURRENT_PHASE"
	relHasPhase     = "HAS_PHASE"
	relHasInput     = "HAS_INPUT"
	relResponseTo   = "RESPONSE_TO"
	relHasQuestion  = "HAS_QUESTION"
	relAsked        = "ASKED"
	relHasSection   = "HAS_SECTION"
	relContains     = "CONTAINS"
	relSupportedBy  = "SUPPORTED_BY"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT    NOT NULL UNIQUE,
	kind       TEXT    NOT NULL,
	session_id TEXT    NOT NULL,
	props      TEXT    NOT NULL DEFAULT '{}',
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_session_kind ON nodes(session_id, kind);
CREATE INDEX IF NOT EXISTS idx_nodes_point_text ON nodes(json_extract(props, '$.text')) WHERE kind = 'Point';

CREATE TABLE IF NOT EXISTS edges (
	src        TEXT    NOT NULL REFERENCES nodes(id),
	rel        TEXT    NOT NULL,
	dst        TEXT    NOT NULL REFERENCES nodes(id),
	created_at INTEGER NOT NULL,
	PRIMARY KEY (src, rel, dst)
);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst, rel);
CREATE UNIQUE INDEX IF NOT EXISTS idx_edges_current_phase ON edges(src) WHERE rel = 'CURRENT_PHASE';
`

var pragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
}

// DB owns the SQLite connection shared by all store handles.
type DB struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a [DB].
type Option func(*DB)

// WithLogger sets the logger used for warnings and repairs.
func WithLogger(l *zap.Logger) Option {
	return func(d *DB) { d.logger = l }
}

// WithClock sets the time source. Useful for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(d *DB) { d.now = now }
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string, opts ...Option) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// A single connection keeps per-connection pragmas in force and makes
	// ":memory:" databases behave as one database.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w: %w", scribe.ErrStoreUnavailable, err)
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	d := &DB{
		db:     db,
		logger: zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Ping verifies database connectivity.
func (d *DB) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: %w: %w", scribe.ErrStoreUnavailable, err)
	}
	return nil
}

// Close releases the connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// NewStore returns a store handle with no session bound. Handles share the
// connection but each tracks its own current session.
func (d *DB) NewStore() *Store {
	return &Store{d: d}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (d *DB) insertNode(ctx context.Context, q queryer, kind, sessionID string, props any) (string, error) {
	data, err := marshalProps(props)
	if err != nil {
		return "", err
	}
	id := d.newID()
	if sessionID == "" {
		sessionID = id
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO nodes (id, kind, session_id, props, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, kind, sessionID, data, d.now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", kind, err)
	}
	return id, nil
}

func (d *DB) insertEdge(ctx context.Context, q queryer, src, rel, dst string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO edges (src, rel, dst, created_at) VALUES (?, ?, ?, ?)`,
		src, rel, dst, d.now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert %s edge: %w", rel, err)
	}
	return nil
}

// inTx runs fn inside a transaction, committing on success.
func (d *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w: %w", scribe.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
