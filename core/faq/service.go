package faq

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/report"
	"github.com/trezcool/sauti/core/user"
)

// FallbackAnswer is relayed whenever no answer could be produced.
const FallbackAnswer = "Sorry, I cannot answer right now. Please try again later or contact the Dean of Student Welfare office."

// maxContextReports caps the caller's reports included in the prompt.
const maxContextReports = 10

// Message roles
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

type (
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}

	// Completer is any chat completion provider.
	Completer interface {
		Complete(ctx context.Context, messages []Message) (string, error)
	}

	ReportQuerier interface {
		Query(ctx context.Context, viewer user.User, filter *report.QueryFilter) ([]report.Summary, error)
	}

	Question struct {
		Message string `json:"message" validate:"required,max=2000"`
	}

	Answer struct {
		Answer string `json:"answer"`
	}

	ServiceInterface interface {
		Ask(ctx context.Context, usr user.User, q Question) (Answer, error)
	}

	Service struct {
		completer Completer
		reports   ReportQuerier
		validate  *validator.Validate
		logger    core.Logger
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

// NewService returns a Service that always falls back when `completer` is nil.
func NewService(completer Completer, reports ReportQuerier, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{completer: completer, reports: reports, validate: validate, logger: logger}
}

func (q *Question) Validate(validate *validator.Validate) error {
	q.Message = core.CleanString(q.Message)
	return validate.Struct(q)
}

// Ask answers a question about the portal. Only an invalid Question is an error:
// every other failure is logged and answered with FallbackAnswer.
func (svc *Service) Ask(ctx context.Context, usr user.User, q Question) (Answer, error) {
	if err := q.Validate(svc.validate); err != nil {
		return Answer{}, err
	}
	if svc.completer == nil {
		return Answer{Answer: FallbackAnswer}, nil
	}

	prompt, err := svc.systemPrompt(ctx, usr)
	if err != nil {
		svc.logger.Error("building chat prompt", err, usr)
		return Answer{Answer: FallbackAnswer}, nil
	}
	text, err := svc.completer.Complete(ctx, []Message{
		{Role: RoleSystem, Content: prompt},
		{Role: RoleUser, Content: q.Message},
	})
	if err != nil {
		svc.logger.Error("completing chat", errors.Wrap(err, "faq"), usr)
		return Answer{Answer: FallbackAnswer}, nil
	}
	if text = strings.TrimSpace(text); text == "" {
		return Answer{Answer: FallbackAnswer}, nil
	}
	return Answer{Answer: text}, nil
}

func (svc *Service) systemPrompt(ctx context.Context, usr user.User) (string, error) {
	var b strings.Builder
	b.WriteString(knowledgeBase)

	// admins see far more than their own reports: only students get a summary
	if !usr.IsStudent() {
		return b.String(), nil
	}
	summaries, err := svc.reports.Query(ctx, usr, nil)
	if err != nil {
		return "", errors.Wrap(err, "querying user reports")
	}
	b.WriteString("\n\nThe student asking has ")
	if len(summaries) == 0 {
		b.WriteString("not submitted any report yet.")
		return b.String(), nil
	}
	fmt.Fprintf(&b, "submitted %d report(s). Most recent first:\n", len(summaries))
	for i, s := range summaries {
		if i == maxContextReports {
			break
		}
		fmt.Fprintf(&b, "- %q (%s): %s\n", s.Title, s.Category, s.Status)
	}
	return b.String(), nil
}

const knowledgeBase = `You are the help assistant of the university's student issue reporting portal.
Answer questions about the portal briefly and politely. You cannot change reports or take any action on them.

How the portal works:
- Students sign in with their institutional account and submit reports about campus issues.
- A student may submit only one report per week (7 days after their previous report).
- Every report has a title, a description, a category, a priority (LOW, MEDIUM, HIGH or URGENT) and an optional attachment.
- Categories: Academic Issues, Facility Problems, Hostel & Accommodation, Canteen & Food, Transport, Library Services, Examinations, Fees & Scholarships, Harassment & Safety, Other.
- Statuses: SUBMITTED (waiting for review), ASSIGNED_TO_DEPARTMENT (sent to the responsible department),
  IN_PROGRESS (the department is working on it), RESOLVED (the department proposed a resolution),
  COMPLETED (the Dean of Student Welfare office approved the resolution).
- The Dean of Student Welfare (DSW) office assigns reports to departments, approves resolutions or requests changes.
- Students receive an email when their report is completed.
- All reports appear anonymously in the public feed.`
