package enrollment

import (
	"fmt"
	"strings"
)

// ValidationError reports missing or empty required fields. Always client-caused.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

// StorageError reports that a backend failed to persist an Enrollment.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s storage: %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NotifierError reports a failed notification. It is logged, never surfaced to the end user.
type NotifierError struct {
	Recipient string
	Err       error
}

func (e *NotifierError) Error() string {
	return fmt.Sprintf("notify %s: %v", e.Recipient, e.Err)
}

func (e *NotifierError) Unwrap() error {
	return e.Err
}
