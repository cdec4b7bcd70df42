// Package kanban defines the Kanban board for job applications.
//
// Columns:
//
//	Applied ─ Interviewing ─ Offer ─ Rejected ─ Cancelled
//
// Every column is reachable from every other one: a card can be dragged
// anywhere, including back to Applied. Ordering inside a column is kept per
// owner by the order index (see ordering.go).
package kanban

import "fmt"

// Status values mirror the application_status enum in PostgreSQL.
type Status string

const (
	StatusApplied      Status = "Applied"
	StatusInterviewing Status = "Interviewing"
	StatusOffer        Status = "Offer"
	StatusRejected     Status = "Rejected"
	StatusCancelled    Status = "Cancelled"
)

// Statuses lists every column in board order.
func Statuses() []Status {
	return []Status{
		StatusApplied,
		StatusInterviewing,
		StatusOffer,
		StatusRejected,
		StatusCancelled,
	}
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusApplied, StatusInterviewing, StatusOffer, StatusRejected, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Valid reports whether s is one of the board columns.
func (s Status) Valid() bool {
	_, err := ParseStatus(string(s))
	return err == nil
}

func (s Status) String() string { return string(s) }
