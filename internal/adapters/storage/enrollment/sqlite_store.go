package enrollment

import (
	"context"
	"fmt"

	storage "barreltech/internal/adapters/storage"
	domain "barreltech/internal/domain/enrollment"
)

type sqliteStore struct {
	handle *storage.Handle
}

// NewSQLiteStore returns a Store backed by the enrollments table behind handle.
// The handle may still be disconnected; Persist fails until it connects.
func NewSQLiteStore(handle *storage.Handle) Store {
	return &sqliteStore{handle: handle}
}

func (s *sqliteStore) Name() string { return domain.BackendSQLite }

// Persist inserts a row; id and date are assigned by SQLite.
// PRE: handle is connected
// POST: one row inserted into enrollments; Receipt.ID is the new rowid
func (s *sqliteStore) Persist(ctx context.Context, e domain.Enrollment) (domain.Receipt, error) {
	db, err := s.handle.DB()
	if err != nil {
		return domain.Receipt{}, err
	}
	res, err := db.ExecContext(ctx,
		"INSERT INTO enrollments (fullName, email, course) VALUES (?, ?, ?)",
		e.FullName, e.Email, e.Course,
	)
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("enrollment insert: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Receipt{}, fmt.Errorf("enrollment last insert id: %w", err)
	}
	return domain.Receipt{Backend: s.Name(), ID: id, HasID: true}, nil
}

func (s *sqliteStore) Status() string {
	if s.handle.Connected() {
		return StatusConnected
	}
	return StatusDisconnected
}
