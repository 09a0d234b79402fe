package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestHandle(t *testing.T) *Handle {
	t.Helper()
	h := NewHandle(filepath.Join(t.TempDir(), "enrollments.db"))
	t.Cleanup(func() { h.Close() })
	return h
}

// TestHandle_DisconnectedBeforeConnect verifies the handle refuses work until connected.
func TestHandle_DisconnectedBeforeConnect(t *testing.T) {
	h := newTestHandle(t)

	if h.Connected() {
		t.Fatal("Connected() = true before Connect")
	}
	if _, err := h.DB(); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("DB() error = %v, want ErrNotConnected", err)
	}
}

// TestHandle_ConnectCreatesTable verifies Connect applies the schema.
func TestHandle_ConnectCreatesTable(t *testing.T) {
	h := newTestHandle(t)
	ctx := context.Background()

	if err := h.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if !h.Connected() {
		t.Fatal("Connected() = false after Connect")
	}

	db, err := h.DB()
	if err != nil {
		t.Fatalf("DB: %v", err)
	}
	var name string
	err = db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name='enrollments'").Scan(&name)
	if err != nil {
		t.Fatalf("enrollments table missing: %v", err)
	}
}

// TestHandle_ConnectIdempotent verifies a second Connect keeps the existing pool and data.
func TestHandle_ConnectIdempotent(t *testing.T) {
	h := newTestHandle(t)
	ctx := context.Background()

	if err := h.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	db, _ := h.DB()
	if _, err := db.ExecContext(ctx, "INSERT INTO enrollments (fullName, email, course) VALUES ('a','b','c')"); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := h.Connect(ctx); err != nil {
		t.Fatalf("second Connect: %v", err)
	}
	db2, _ := h.DB()
	var n int
	if err := db2.QueryRowContext(ctx, "SELECT count(*) FROM enrollments").Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

// TestHandle_SchemaSurvivesReopen verifies CREATE TABLE IF NOT EXISTS on an existing file.
func TestHandle_SchemaSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrollments.db")
	ctx := context.Background()

	first := NewHandle(path)
	if err := first.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	db, _ := first.DB()
	db.ExecContext(ctx, "INSERT INTO enrollments (fullName, email, course) VALUES ('a','b','c')")
	first.Close()
	if first.Connected() {
		t.Fatal("Connected() = true after Close")
	}

	second := NewHandle(path)
	t.Cleanup(func() { second.Close() })
	if err := second.Connect(ctx); err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	db, _ = second.DB()
	var n int
	db.QueryRowContext(ctx, "SELECT count(*) FROM enrollments").Scan(&n)
	if n != 1 {
		t.Errorf("count after reopen = %d, want 1", n)
	}
}

// TestHandle_ConnectFailsForMissingDir verifies a bad path leaves the handle disconnected.
func TestHandle_ConnectFailsForMissingDir(t *testing.T) {
	h := NewHandle(filepath.Join(t.TempDir(), "no", "such", "dir", "x.db"))
	if err := h.Connect(context.Background()); err == nil {
		t.Fatal("Connect succeeded for missing directory")
	}
	if h.Connected() {
		t.Error("Connected() = true after failed Connect")
	}
}
