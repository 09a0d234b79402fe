package enrollment

import (
	"context"

	domain "barreltech/internal/domain/enrollment"
)

// Status values reported by Store.Status.
const (
	StatusConnected      = "connected"
	StatusDisconnected   = "disconnected"
	StatusNotConfigured  = "not_configured"
	StatusReady          = "ready"
	StatusNotInitialized = "not_initialized"
)

// Store persists one Enrollment to a single backend medium.
type Store interface {
	// Name returns the backend name used in logs and the health report.
	Name() string

	// Persist writes e and returns the backend-assigned identifier.
	// PRE: e has been validated
	// POST: exactly one record written on success; nothing reported as written on error
	Persist(ctx context.Context, e domain.Enrollment) (domain.Receipt, error)

	// Status reports the backend's connectivity from local state only; it never pings.
	Status() string
}
