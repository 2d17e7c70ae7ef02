package report

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/user"
)

var NowFunc = time.Now // mockable

type (
	// Transition is applied as a single unit of work: the report moves From -> To only if it is
	// still in From at Version (and still assigned to RequireAssigneeID when set), its version is
	// incremented and Update is appended. Nothing is written otherwise.
	Transition struct {
		ReportID          string
		From              Status
		To                Status
		Version           int
		RequireAssigneeID string
		SetAssigneeID     string
		Update            Update
	}

	Repository interface {
		// CreateReport inserts rpt along with its first Update.
		CreateReport(ctx context.Context, rpt Report, upd Update) (Report, error)
		GetReport(ctx context.Context, id string) (Report, error)
		LatestReportByStudent(ctx context.Context, studentID string) (Report, error)
		// QueryReports returns the matching reports, newest first.
		QueryReports(ctx context.Context, filter *QueryFilter) ([]Report, error)
		// ApplyTransition returns ErrNotFound if the report does not exist
		// and ErrInvalidTransition if any of the Transition's conditions no longer holds.
		ApplyTransition(ctx context.Context, tr Transition) (Report, error)
		// QueryUpdates returns the audit trail of a report, newest first.
		QueryUpdates(ctx context.Context, reportID string) ([]Update, error)
		// LatestUpdates maps report IDs to their most recent Update.
		LatestUpdates(ctx context.Context, reportIDs []string) (map[string]Update, error)
	}

	// UserGetter finds the users reports refer to.
	UserGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	ServiceInterface interface {
		Eligibility(ctx context.Context, student user.User) (Eligibility, error)
		Submit(ctx context.Context, student user.User, nr NewReport) (Report, error)
		Assign(ctx context.Context, actor user.User, id string, data AssignReport) (Report, error)
		Accept(ctx context.Context, actor user.User, id string) (Report, error)
		Resolve(ctx context.Context, actor user.User, id string, data ResolveReport) (Report, error)
		Approve(ctx context.Context, actor user.User, id string) (Report, error)
		RequestChanges(ctx context.Context, actor user.User, id string, data RequestChanges) (Report, error)
		Get(ctx context.Context, viewer user.User, id string) (Detail, error)
		Query(ctx context.Context, viewer user.User, filter *QueryFilter) ([]Summary, error)
		Feed(ctx context.Context, filter *QueryFilter) ([]FeedItem, error)
	}

	Service struct {
		repo     Repository
		users    UserGetter
		mailSvc  core.EmailService
		validate *validator.Validate
		logger   core.Logger
		site     core.SiteData
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(
	repo Repository,
	users UserGetter,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
	site core.SiteData,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		mailSvc:  mailSvc,
		validate: validate,
		logger:   logger,
		site:     site,
	}
}

// Eligibility applies the submission guard to `student` without submitting anything.
func (svc *Service) Eligibility(ctx context.Context, student user.User) (Eligibility, error) {
	now := NowFunc().UTC()
	last, err := svc.repo.LatestReportByStudent(ctx, student.ID)
	if err != nil {
		if err == ErrNotFound {
			return checkEligibility(nil, now), nil
		}
		return Eligibility{}, errors.Wrap(err, "finding latest report")
	}
	return checkEligibility(&last, now), nil
}

// Submit creates a new Report for `student`.
// The guard and the insert are not serialized: two simultaneous submissions may both pass.
func (svc *Service) Submit(ctx context.Context, student user.User, nr NewReport) (Report, error) {
	if err := authorizeRole(student, ActionSubmit); err != nil {
		return Report{}, err
	}
	if err := nr.Validate(svc.validate); err != nil {
		return Report{}, err
	}

	elig, err := svc.Eligibility(ctx, student)
	if err != nil {
		return Report{}, err
	}
	if !elig.Eligible {
		return Report{}, &RateLimitError{NextEligibleAt: *elig.NextEligibleAt}
	}

	now := NowFunc().UTC()
	rpt := Report{
		Title:       nr.Title,
		Description: nr.Description,
		Category:    nr.Category,
		Priority:    nr.Priority,
		Status:      StatusSubmitted,
		FileURL:     nr.FileURL,
		StudentID:   student.ID,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	upd := Update{
		Message:   msgSubmitted,
		Status:    StatusSubmitted,
		ActorID:   student.ID,
		CreatedAt: now,
	}
	rpt, err = svc.repo.CreateReport(ctx, rpt, upd)
	return rpt, errors.Wrap(err, "creating report")
}

func (svc *Service) Assign(ctx context.Context, actor user.User, id string, data AssignReport) (Report, error) {
	if err := authorizeRole(actor, ActionAssign); err != nil {
		return Report{}, err
	}
	if err := data.Validate(svc.validate); err != nil {
		return Report{}, err
	}
	rpt, err := svc.getReport(ctx, id)
	if err != nil {
		return Report{}, err
	}

	invalidAssignee := core.NewValidationError(
		ErrInvalidAssignee, core.FieldError{Field: "assigned_to_id", Error: ErrInvalidAssignee.Error()})
	if _, err = uuid.Parse(data.AssignedToID); err != nil {
		return Report{}, invalidAssignee
	}
	assignee, err := svc.users.GetByID(ctx, data.AssignedToID)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return Report{}, invalidAssignee
		}
		return Report{}, errors.Wrap(err, "finding assignee")
	}
	if !assignee.IsDeptAdmin() {
		return Report{}, invalidAssignee
	}

	return svc.apply(ctx, actor, rpt, ActionAssign, data.Message, assignee.ID)
}

func (svc *Service) Accept(ctx context.Context, actor user.User, id string) (Report, error) {
	if err := authorizeRole(actor, ActionAccept); err != nil {
		return Report{}, err
	}
	rpt, err := svc.getReport(ctx, id)
	if err != nil {
		return Report{}, err
	}
	return svc.apply(ctx, actor, rpt, ActionAccept, msgAccepted, "")
}

func (svc *Service) Resolve(ctx context.Context, actor user.User, id string, data ResolveReport) (Report, error) {
	if err := authorizeRole(actor, ActionResolve); err != nil {
		return Report{}, err
	}
	if err := data.Validate(svc.validate); err != nil {
		return Report{}, err
	}
	rpt, err := svc.getReport(ctx, id)
	if err != nil {
		return Report{}, err
	}
	return svc.apply(ctx, actor, rpt, ActionResolve, msgResolutionPrefix+data.Resolution, "")
}

// Approve completes a resolved Report and notifies its student.
func (svc *Service) Approve(ctx context.Context, actor user.User, id string) (Report, error) {
	if err := authorizeRole(actor, ActionApprove); err != nil {
		return Report{}, err
	}
	rpt, err := svc.getReport(ctx, id)
	if err != nil {
		return Report{}, err
	}
	if rpt, err = svc.apply(ctx, actor, rpt, ActionApprove, msgApproved, ""); err != nil {
		return Report{}, err
	}
	svc.notifyCompleted(ctx, rpt)
	return rpt, nil
}

// RequestChanges sends a resolved Report back to its department.
func (svc *Service) RequestChanges(ctx context.Context, actor user.User, id string, data RequestChanges) (Report, error) {
	if err := authorizeRole(actor, ActionRequestChanges); err != nil {
		return Report{}, err
	}
	if err := data.Validate(svc.validate); err != nil {
		return Report{}, err
	}
	rpt, err := svc.getReport(ctx, id)
	if err != nil {
		return Report{}, err
	}
	return svc.apply(ctx, actor, rpt, ActionRequestChanges, msgChangesPrefix+data.Message, "")
}

// Get returns a Report and its audit trail.
// Reports the viewer may not see are reported as not found.
func (svc *Service) Get(ctx context.Context, viewer user.User, id string) (Detail, error) {
	rpt, err := svc.getReport(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	if !canView(viewer, rpt) {
		return Detail{}, ErrNotFound
	}
	updates, err := svc.repo.QueryUpdates(ctx, rpt.ID)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying report updates")
	}
	actions := Actions(viewer, rpt)
	if actions == nil {
		actions = []Action{}
	}
	return Detail{Report: rpt, Updates: updates, Actions: actions}, nil
}

// Query lists the reports on the viewer's dashboard:
// all of them for DSW admins, the assigned ones for department admins and their own for students.
func (svc *Service) Query(ctx context.Context, viewer user.User, filter *QueryFilter) ([]Summary, error) {
	f := cleanFilter(filter)
	switch viewer.Role {
	case user.RoleDSWAdmin:
	case user.RoleDeptAdmin:
		f.AssignedToID = viewer.ID
	case user.RoleStudent:
		f.StudentID = viewer.ID
	default:
		return nil, ErrForbidden
	}

	rpts, latest, err := svc.query(ctx, f)
	if err != nil {
		return nil, err
	}
	summaries := make([]Summary, 0, len(rpts))
	for _, rpt := range rpts {
		s := Summary{Report: rpt}
		if upd, ok := latest[rpt.ID]; ok {
			s.LatestUpdate = &upd
		}
		summaries = append(summaries, s)
	}
	return summaries, nil
}

// Feed is the public projection of all reports. Students are never part of it.
func (svc *Service) Feed(ctx context.Context, filter *QueryFilter) ([]FeedItem, error) {
	rpts, latest, err := svc.query(ctx, cleanFilter(filter))
	if err != nil {
		return nil, err
	}
	items := make([]FeedItem, 0, len(rpts))
	for _, rpt := range rpts {
		var upd *Update
		if u, ok := latest[rpt.ID]; ok {
			upd = &u
		}
		items = append(items, newFeedItem(rpt, upd))
	}
	return items, nil
}

func (svc *Service) query(ctx context.Context, filter QueryFilter) ([]Report, map[string]Update, error) {
	rpts, err := svc.repo.QueryReports(ctx, &filter)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying reports")
	}
	ids := make([]string, 0, len(rpts))
	for _, rpt := range rpts {
		ids = append(ids, rpt.ID)
	}
	latest, err := svc.repo.LatestUpdates(ctx, ids)
	if err != nil {
		return nil, nil, errors.Wrap(err, "querying latest updates")
	}
	return rpts, latest, nil
}

func (svc *Service) getReport(ctx context.Context, id string) (Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Report{}, ErrNotFound
	}
	rpt, err := svc.repo.GetReport(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Report{}, err
		}
		return Report{}, errors.Wrap(err, "finding report")
	}
	return rpt, nil
}

// apply moves `rpt` along `action` and records `message` in its audit trail.
func (svc *Service) apply(ctx context.Context, actor user.User, rpt Report, action Action, message, assigneeID string) (Report, error) {
	if err := authorizeActor(actor, action, rpt); err != nil {
		return Report{}, err
	}
	to, err := Next(rpt.Status, action)
	if err != nil {
		return Report{}, err
	}

	tr := Transition{
		ReportID:      rpt.ID,
		From:          rpt.Status,
		To:            to,
		Version:       rpt.Version,
		SetAssigneeID: assigneeID,
		Update: Update{
			ReportID:  rpt.ID,
			Message:   message,
			Status:    to,
			ActorID:   actor.ID,
			CreatedAt: NowFunc().UTC(),
		},
	}
	if rules[action].assigneeOnly {
		tr.RequireAssigneeID = actor.ID
	}

	rpt, err = svc.repo.ApplyTransition(ctx, tr)
	if err != nil {
		if err == ErrNotFound || err == ErrInvalidTransition {
			return Report{}, err
		}
		return Report{}, errors.Wrapf(err, "applying %s", action)
	}
	return rpt, nil
}

type completedMailData struct {
	Name      string
	Title     string
	ReportURL string
}

func (svc *Service) notifyCompleted(ctx context.Context, rpt Report) {
	student, err := svc.users.GetByID(ctx, rpt.StudentID)
	if err != nil {
		svc.logger.Error("finding report student", errors.Wrap(err, "notifying report completion"), map[string]interface{}{"report": rpt.ID})
		return
	}
	name := student.FullName()
	if name == "" {
		name = student.Email
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.FullName(), Address: student.Email}},
		Subject:      "Your report has been completed",
		TemplateName: "report_completed",
		TemplateData: completedMailData{
			Name:      name,
			Title:     rpt.Title,
			ReportURL: svc.site.FrontendBaseURL + "/reports/" + rpt.ID,
		},
	})
}

func canView(viewer user.User, rpt Report) bool {
	switch viewer.Role {
	case user.RoleDSWAdmin:
		return true
	case user.RoleDeptAdmin:
		return rpt.AssignedToID != "" && rpt.AssignedToID == viewer.ID
	case user.RoleStudent:
		return rpt.StudentID == viewer.ID
	}
	return false
}

func cleanFilter(filter *QueryFilter) QueryFilter {
	var f QueryFilter
	if filter != nil {
		f = *filter
	}
	f.Clean()
	f.StudentID = ""
	f.AssignedToID = ""
	return f
}
