package report

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sauti/core"
)

type (
	Status   string
	Priority string
	Category string
)

// Statuses
const (
	StatusSubmitted            Status = "SUBMITTED"
	StatusAssignedToDepartment Status = "ASSIGNED_TO_DEPARTMENT"
	StatusInProgress           Status = "IN_PROGRESS"
	StatusResolved             Status = "RESOLVED"
	StatusApproved             Status = "APPROVED" // legacy value, no transition leads to it
	StatusCompleted            Status = "COMPLETED"
)

// Priorities
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var (
	Statuses = []Status{
		StatusSubmitted, StatusAssignedToDepartment, StatusInProgress, StatusResolved, StatusApproved, StatusCompleted,
	}
	Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	Categories = []Category{
		"Academic Issues",
		"Facility Problems",
		"Hostel & Accommodation",
		"Canteen & Food",
		"Transport",
		"Library Services",
		"Examinations",
		"Fees & Scholarships",
		"Harassment & Safety",
		"Other",
	}
)

func (s Status) IsValid() bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusApproved
}

func (p Priority) IsValid() bool {
	for _, priority := range Priorities {
		if p == priority {
			return true
		}
	}
	return false
}

func (c Category) IsValid() bool {
	for _, category := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Report struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     Category  `json:"category"`
	Priority     Priority  `json:"priority"`
	Status       Status    `json:"status"`
	FileURL      string    `json:"file_url,omitempty"` // path only, the file itself lives elsewhere
	StudentID    string    `json:"student_id"`
	AssignedToID string    `json:"assigned_to_id,omitempty"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// Update is an entry of a Report's audit trail: one per status change. Updates are never modified.
type Update struct {
	ID        string    `json:"id"`
	ReportID  string    `json:"report_id"`
	Message   string    `json:"message"`
	Status    Status    `json:"status"` // the status the report moved to
	ActorID   string    `json:"actor_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Summary is a Report with its most recent Update.
type Summary struct {
	Report
	LatestUpdate *Update `json:"latest_update"`
}

// Detail is a Report with its whole audit trail, newest first.
type Detail struct {
	Report
	Updates []Update `json:"updates"`
	Actions []Action `json:"actions"` // what the viewer may do next
}

// FeedItem is the public, anonymous view of a Report.
type FeedItem struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Category     Category    `json:"category"`
	Priority     Priority    `json:"priority"`
	Status       Status      `json:"status"`
	FileURL      string      `json:"file_url,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	LatestUpdate *FeedUpdate `json:"latest_update"`
}

// FeedUpdate is an Update without its actor.
type FeedUpdate struct {
	Message   string    `json:"message"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newFeedItem(rpt Report, latest *Update) FeedItem {
	item := FeedItem{
		ID:          rpt.ID,
		Title:       rpt.Title,
		Description: rpt.Description,
		Category:    rpt.Category,
		Priority:    rpt.Priority,
		Status:      rpt.Status,
		FileURL:     rpt.FileURL,
		CreatedAt:   rpt.CreatedAt,
	}
	if latest != nil {
		item.LatestUpdate = &FeedUpdate{Message: latest.Message, Status: latest.Status, CreatedAt: latest.CreatedAt}
	}
	return item
}

// NewReport contains information needed to submit a new Report.
type NewReport struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=5000"`
	Category    Category `json:"category" validate:"required,category"`
	Priority    Priority `json:"priority" validate:"required,priority"`
	FileURL     string   `json:"file_url" validate:"omitempty,max=2048"`
}

func (nr *NewReport) Validate(validate *validator.Validate) error {
	nr.Title = core.CleanString(nr.Title)
	nr.Description = core.CleanString(nr.Description)
	nr.Category = Category(core.CleanString(string(nr.Category)))
	nr.Priority = Priority(strings.ToUpper(core.CleanString(string(nr.Priority))))
	nr.FileURL = core.CleanString(nr.FileURL)
	return validate.Struct(nr)
}

type AssignReport struct {
	AssignedToID string `json:"assigned_to_id" validate:"required"`
	Message      string `json:"message" validate:"required,max=2000"`
}

func (ar *AssignReport) Validate(validate *validator.Validate) error {
	ar.AssignedToID = core.CleanString(ar.AssignedToID)
	ar.Message = core.CleanString(ar.Message)
	return validate.Struct(ar)
}

type ResolveReport struct {
	Resolution string `json:"resolution" validate:"required,max=2000"`
}

func (rr *ResolveReport) Validate(validate *validator.Validate) error {
	rr.Resolution = core.CleanString(rr.Resolution)
	return validate.Struct(rr)
}

type RequestChanges struct {
	Message string `json:"message" validate:"required,max=2000"`
}

func (rc *RequestChanges) Validate(validate *validator.Validate) error {
	rc.Message = core.CleanString(rc.Message)
	return validate.Struct(rc)
}

// QueryFilter applies AND operation on its non-empty fields.
// Search does a case-insensitive substring match on one of Title, Description or Category.
type QueryFilter struct {
	Category     Category `query:"category"`
	Status       Status   `query:"status"`
	Priority     Priority `query:"priority"`
	Search       string   `query:"search"`
	StudentID    string   `query:"-"`
	AssignedToID string   `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Category = Category(core.CleanString(string(qf.Category)))
	qf.Status = Status(strings.ToUpper(core.CleanString(string(qf.Status))))
	qf.Priority = Priority(strings.ToUpper(core.CleanString(string(qf.Priority))))
	qf.Search = core.CleanString(qf.Search)
}

// Eligibility tells whether a student may submit a new Report.
type Eligibility struct {
	Eligible       bool       `json:"eligible"`
	LastReportAt   *time.Time `json:"last_report_at"`
	NextEligibleAt *time.Time `json:"next_eligible_at"`
}
