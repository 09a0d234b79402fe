package orchestrators

import (
	"context"
	"log/slog"

	enrollmentStore "barreltech/internal/adapters/storage/enrollment"
	"barreltech/internal/domain/enrollment"
)

// EnrollInput carries the raw form fields.
type EnrollInput struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Course   string `json:"course"`
}

// EnrollDeps binds the request to exactly one storage backend.
type EnrollDeps struct {
	Store    enrollmentStore.Store
	Notifier Notifier
}

// EnrollResult reports where the enrollment was stored.
type EnrollResult struct {
	Receipt enrollment.Receipt
}

// ExecuteEnroll validates, persists to deps.Store and triggers the notifier.
// PRE: deps.Store and deps.Notifier are non-nil
// POST: on success exactly one record is written and one notification started
// INVARIANT: a ValidationError means no write and no notification; a
// StorageError means no notification
func ExecuteEnroll(ctx context.Context, input EnrollInput, deps EnrollDeps) (EnrollResult, error) {
	e := enrollment.New(input.FullName, input.Email, input.Course)
	if err := e.Validate(); err != nil {
		return EnrollResult{}, err
	}

	backend := deps.Store.Name()
	receipt, err := deps.Store.Persist(ctx, e)
	if err != nil {
		slog.Error("enrollment_store_failed", "backend", backend, "error", err.Error())
		return EnrollResult{}, &enrollment.StorageError{Backend: backend, Err: err}
	}

	slog.Info("enrollment_persisted", "backend", backend, "id", receipt.ID, "course", e.Course)
	deps.Notifier.Notify(ctx, NotifyEnrollmentInput{
		FullName: e.FullName,
		Email:    e.Email,
		Course:   e.Course,
	})
	return EnrollResult{Receipt: receipt}, nil
}
