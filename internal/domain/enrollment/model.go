package enrollment

import (
	"strings"
	"time"
)

// Backend names used in routes, logs and the health report.
const (
	BackendMongo  = "mongo"
	BackendSQLite = "sqlite"
	BackendExcel  = "excel"
)

// ISOTimeFormat matches the millisecond-precision UTC timestamps browsers emit.
const ISOTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Enrollment is a single course-registration submission. Backend-assigned
// identifiers are reported in a Receipt, not stored here.
// INVARIANT: FullName, Email and Course are non-empty once Validate returns nil.
type Enrollment struct {
	FullName string
	Email    string
	Course   string
	Date     time.Time // meaning depends on the backend that stored the record
}

// Receipt is what a storage backend reports after persisting an Enrollment.
type Receipt struct {
	Backend string
	ID      int64
	HasID   bool // false when the backend does not surface its identifier
}

// New builds an Enrollment from raw form input, trimming surrounding whitespace.
// PRE: none
// POST: returned Enrollment has trimmed fields; Date is zero
func New(fullName, email, course string) Enrollment {
	return Enrollment{
		FullName: strings.TrimSpace(fullName),
		Email:    strings.TrimSpace(email),
		Course:   strings.TrimSpace(course),
	}
}

// Validate checks that every required field is present.
// PRE: Enrollment struct is populated
// POST: Returns nil if valid, *ValidationError naming the missing fields otherwise
func (e *Enrollment) Validate() error {
	var missing []string
	if strings.TrimSpace(e.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if strings.TrimSpace(e.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(e.Course) == "" {
		missing = append(missing, "course")
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

// ISODate formats Date the way the spreadsheet stores it.
func (e *Enrollment) ISODate() string {
	return e.Date.UTC().Format(ISOTimeFormat)
}
