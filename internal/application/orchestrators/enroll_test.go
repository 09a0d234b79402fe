package orchestrators

import (
	"context"
	"errors"
	"sync"
	"testing"

	"barreltech/internal/domain/enrollment"
)

// --- Mock store ---

type mockEnrollmentStore struct {
	persisted []enrollment.Enrollment
	err       error
	nextID    int64
}

func (m *mockEnrollmentStore) Name() string { return "mock" }

// Persist records e or returns the configured error.
// PRE: none
// POST: e appended on success
func (m *mockEnrollmentStore) Persist(_ context.Context, e enrollment.Enrollment) (enrollment.Receipt, error) {
	if m.err != nil {
		return enrollment.Receipt{}, m.err
	}
	m.nextID++
	m.persisted = append(m.persisted, e)
	return enrollment.Receipt{Backend: "mock", ID: m.nextID, HasID: true}, nil
}

func (m *mockEnrollmentStore) Status() string { return "connected" }

// --- Mock notifier ---

type mockNotifier struct {
	mu    sync.Mutex
	calls []NotifyEnrollmentInput
}

// Notify records the call synchronously.
func (m *mockNotifier) Notify(_ context.Context, input NotifyEnrollmentInput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, input)
}

// TestExecuteEnroll_Success verifies a valid submission is stored then notified once.
func TestExecuteEnroll_Success(t *testing.T) {
	store := &mockEnrollmentStore{}
	notifier := &mockNotifier{}

	res, err := ExecuteEnroll(context.Background(), EnrollInput{
		FullName: " Ada Lovelace ",
		Email:    "ada@example.com",
		Course:   "Intro to Systems",
	}, EnrollDeps{Store: store, Notifier: notifier})
	if err != nil {
		t.Fatalf("ExecuteEnroll: %v", err)
	}
	if res.Receipt.ID != 1 {
		t.Errorf("receipt id = %d, want 1", res.Receipt.ID)
	}
	if len(store.persisted) != 1 || store.persisted[0].FullName != "Ada Lovelace" {
		t.Fatalf("persisted = %+v", store.persisted)
	}
	if len(notifier.calls) != 1 {
		t.Fatalf("notify calls = %d, want 1", len(notifier.calls))
	}
	if notifier.calls[0].Course != "Intro to Systems" {
		t.Errorf("notified course = %q", notifier.calls[0].Course)
	}
}

// TestExecuteEnroll_ValidationShortCircuits verifies missing fields touch nothing.
func TestExecuteEnroll_ValidationShortCircuits(t *testing.T) {
	inputs := []EnrollInput{
		{FullName: "", Email: "a@b.com", Course: "X"},
		{FullName: "Ada", Email: "", Course: "X"},
		{FullName: "Ada", Email: "a@b.com", Course: "   "},
		{},
	}
	for _, in := range inputs {
		store := &mockEnrollmentStore{}
		notifier := &mockNotifier{}

		_, err := ExecuteEnroll(context.Background(), in, EnrollDeps{Store: store, Notifier: notifier})

		var vErr *enrollment.ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("input %+v: error = %v, want ValidationError", in, err)
		}
		if len(store.persisted) != 0 {
			t.Errorf("input %+v: store written", in)
		}
		if len(notifier.calls) != 0 {
			t.Errorf("input %+v: notifier called", in)
		}
	}
}

// TestExecuteEnroll_StorageFailureSkipsNotify verifies a failed write is a StorageError and never notifies.
func TestExecuteEnroll_StorageFailureSkipsNotify(t *testing.T) {
	cause := errors.New("disk I/O error")
	store := &mockEnrollmentStore{err: cause}
	notifier := &mockNotifier{}

	_, err := ExecuteEnroll(context.Background(), EnrollInput{
		FullName: "Ada", Email: "a@b.com", Course: "X",
	}, EnrollDeps{Store: store, Notifier: notifier})

	var sErr *enrollment.StorageError
	if !errors.As(err, &sErr) {
		t.Fatalf("error = %v, want StorageError", err)
	}
	if sErr.Backend != "mock" {
		t.Errorf("backend = %q, want mock", sErr.Backend)
	}
	if !errors.Is(err, cause) {
		t.Error("cause not wrapped")
	}
	if len(notifier.calls) != 0 {
		t.Errorf("notifier called %d times after storage failure", len(notifier.calls))
	}
}
