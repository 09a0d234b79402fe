package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	_ "modernc.org/sqlite"
)

// ErrNotConnected is returned by Handle.DB before Connect has succeeded.
var ErrNotConnected = errors.New("SQLite not connected")

// schema is applied on every Connect; statements must stay idempotent.
const schema = `
	CREATE TABLE IF NOT EXISTS enrollments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fullName TEXT NOT NULL,
		email TEXT NOT NULL,
		course TEXT NOT NULL,
		date DATETIME DEFAULT CURRENT_TIMESTAMP
	);
`

// InitDB creates the enrollments table if it does not exist.
// PRE: db is a valid database connection
// POST: enrollments table exists
func InitDB(ctx context.Context, db SQLDB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Handle owns the single SQLite connection pool used by the relational store.
// It starts disconnected; Connect performs the one-time open + schema step.
// INVARIANT: DB returns ErrNotConnected until Connect has returned nil.
type Handle struct {
	path string
	db   atomic.Pointer[TimedDB]
}

// NewHandle returns an unconnected Handle for the SQLite file at path.
func NewHandle(path string) *Handle {
	return &Handle{path: path}
}

// DSN returns the driver data source name with WAL mode and a busy timeout.
func (h *Handle) DSN() string {
	return h.path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
}

// Connect opens the database, verifies it and creates the schema.
// PRE: the parent directory of path exists
// POST: Connected() is true on success; the Handle is unchanged on failure
func (h *Handle) Connect(ctx context.Context) error {
	if h.Connected() {
		return nil
	}
	db, err := sql.Open("sqlite", h.DSN())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("database unreachable: %w", err)
	}

	timed := NewTimedDB(db)
	if err := InitDB(ctx, timed); err != nil {
		db.Close()
		return err
	}

	if !h.db.CompareAndSwap(nil, timed) {
		// lost a race with a concurrent Connect; keep the winner
		db.Close()
		return nil
	}
	slog.Info("sqlite_connected", "path", h.path)
	return nil
}

// Connected reports whether Connect has completed.
func (h *Handle) Connected() bool {
	return h.db.Load() != nil
}

// DB returns the connected database.
// PRE: none
// POST: returns ErrNotConnected if Connect has not succeeded
func (h *Handle) DB() (SQLDB, error) {
	db := h.db.Load()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db, nil
}

// Close releases the connection pool. The Handle reports disconnected afterwards.
func (h *Handle) Close() error {
	db := h.db.Swap(nil)
	if db == nil {
		return nil
	}
	return db.Close()
}
