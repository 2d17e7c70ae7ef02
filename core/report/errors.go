package report

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("report not found")
	ErrForbidden         = errors.New("permission denied")
	ErrInvalidTransition = errors.New("report cannot make this transition from its current status")
	ErrInvalidAssignee   = errors.New("reports can only be assigned to department admins")
)

// RateLimitError is returned when a student submits more than one Report per SubmissionInterval.
type RateLimitError struct {
	NextEligibleAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("only one report per week is allowed, next submission possible at %s", e.NextEligibleAt.Format(time.RFC3339))
}
