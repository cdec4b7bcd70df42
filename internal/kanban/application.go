package kanban

import (
	"fmt"
	"time"
)

// Application is a job application card, as returned to the Gateway and the
// web client.
type Application struct {
	ID              string         `json:"id"`
	OwnerID         string         `json:"ownerId"`
	CompanyName     string         `json:"companyName"`
	PositionTitle   string         `json:"positionTitle"`
	Status          Status         `json:"status"`
	InterviewStage  *string        `json:"interviewStage"`
	RejectionStage  *string        `json:"rejectionStage"`
	ApplicationDate time.Time      `json:"applicationDate"`
	OrderIndex      int            `json:"orderIndex"`
	SalaryRange     *string        `json:"salaryRange"`
	Location        *string        `json:"location"`
	Notes           *string        `json:"notes"`
	HistoryLog      []StatusChange `json:"historyLog"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// StatusChange is one entry of an application's history log.
type StatusChange struct {
	From Status    `json:"from"`
	To   Status    `json:"to"`
	At   time.Time `json:"at"`
}

// Member returns the card's position in its column.
func (a *Application) Member() Member {
	return Member{ID: a.ID, OrderIndex: a.OrderIndex}
}

// ─── Requests ─────────────────────────────────────────────────────────────────

// MoveRequest is the body of PATCH /applications/{id}/move.
type MoveRequest struct {
	Status         Status  `json:"status" validate:"required,oneof=Applied Interviewing Offer Rejected Cancelled"`
	OrderIndex     *int    `json:"orderIndex" validate:"required,min=0,max=2147483647"`
	InterviewStage *string `json:"interviewStage" validate:"omitempty,max=100"`
	RejectionStage *string `json:"rejectionStage" validate:"omitempty,max=100"`
}

// CreateRequest is the body of POST /applications.
type CreateRequest struct {
	CompanyName     string    `json:"companyName" validate:"required,min=1,max=255"`
	PositionTitle   string    `json:"positionTitle" validate:"required,min=1,max=255"`
	Status          Status    `json:"status" validate:"omitempty,oneof=Applied Interviewing Offer Rejected Cancelled"`
	InterviewStage  *string   `json:"interviewStage" validate:"omitempty,max=100"`
	RejectionStage  *string   `json:"rejectionStage" validate:"omitempty,max=100"`
	ApplicationDate time.Time `json:"applicationDate" validate:"required"`
	SalaryRange     *string   `json:"salaryRange" validate:"omitempty,max=100"`
	Location        *string   `json:"location" validate:"omitempty,max=255"`
	Notes           *string   `json:"notes"`
}

// UpdateRequest is the body of PUT /applications/{id}. Nil fields are left
// untouched. The order index is not editable here; cards are repositioned
// with Move.
type UpdateRequest struct {
	CompanyName     *string    `json:"companyName" validate:"omitempty,min=1,max=255"`
	PositionTitle   *string    `json:"positionTitle" validate:"omitempty,min=1,max=255"`
	Status          *Status    `json:"status" validate:"omitempty,oneof=Applied Interviewing Offer Rejected Cancelled"`
	InterviewStage  *string    `json:"interviewStage" validate:"omitempty,max=100"`
	RejectionStage  *string    `json:"rejectionStage" validate:"omitempty,max=100"`
	ApplicationDate *time.Time `json:"applicationDate"`
	SalaryRange     *string    `json:"salaryRange" validate:"omitempty,max=100"`
	Location        *string    `json:"location" validate:"omitempty,max=255"`
	Notes           *string    `json:"notes"`
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when an application is missing or does not belong to the user.
var ErrNotFound = fmt.Errorf("application not found")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
