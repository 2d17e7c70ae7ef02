package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/report"
)

const (
	reportColumns = `id, title, description, category, priority, status, file_url, student_id, assigned_to_id, version, created_at, updated_at`
	updateColumns = `id, report_id, message, status, actor_id, created_at`
)

type (
	reportRow struct {
		ID           string      `db:"id"`
		Title        string      `db:"title"`
		Description  string      `db:"description"`
		Category     string      `db:"category"`
		Priority     string      `db:"priority"`
		Status       string      `db:"status"`
		FileURL      null.String `db:"file_url"`
		StudentID    string      `db:"student_id"`
		AssignedToID null.String `db:"assigned_to_id"`
		Version      int         `db:"version"`
		CreatedAt    time.Time   `db:"created_at"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}

	updateRow struct {
		ID        string    `db:"id"`
		ReportID  string    `db:"report_id"`
		Message   string    `db:"message"`
		Status    string    `db:"status"`
		ActorID   string    `db:"actor_id"`
		CreatedAt time.Time `db:"created_at"`
	}
)

type reportRepository struct {
	db core.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db core.DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo reportRepository) toRow(rpt report.Report) reportRow {
	return reportRow{
		ID:           rpt.ID,
		Title:        rpt.Title,
		Description:  rpt.Description,
		Category:     string(rpt.Category),
		Priority:     string(rpt.Priority),
		Status:       string(rpt.Status),
		FileURL:      null.NewString(rpt.FileURL, rpt.FileURL != ""),
		StudentID:    rpt.StudentID,
		AssignedToID: null.NewString(rpt.AssignedToID, rpt.AssignedToID != ""),
		Version:      rpt.Version,
		CreatedAt:    rpt.CreatedAt.UTC(),
		UpdatedAt:    rpt.UpdatedAt.UTC(),
	}
}

func (repo reportRepository) fromRow(row reportRow) report.Report {
	return report.Report{
		ID:           row.ID,
		Title:        row.Title,
		Description:  row.Description,
		Category:     report.Category(row.Category),
		Priority:     report.Priority(row.Priority),
		Status:       report.Status(row.Status),
		FileURL:      row.FileURL.String,
		StudentID:    row.StudentID,
		AssignedToID: row.AssignedToID.String,
		Version:      row.Version,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

func (repo reportRepository) toUpdateRow(upd report.Update) updateRow {
	return updateRow{
		ID:        upd.ID,
		ReportID:  upd.ReportID,
		Message:   upd.Message,
		Status:    string(upd.Status),
		ActorID:   upd.ActorID,
		CreatedAt: upd.CreatedAt.UTC(),
	}
}

func (repo reportRepository) fromUpdateRow(row updateRow) report.Update {
	return report.Update{
		ID:        row.ID,
		ReportID:  row.ReportID,
		Message:   row.Message,
		Status:    report.Status(row.Status),
		ActorID:   row.ActorID,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

// trapNoRowsErr maps psql "no rows" err to report.ErrNotFound
func (repo reportRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return report.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo reportRepository) insertUpdate(ctx context.Context, exec core.DBExecutor, upd report.Update) error {
	q := `INSERT INTO report_update (` + updateColumns + `) VALUES (:id, :report_id, :message, :status, :actor_id, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, exec, q, repo.toUpdateRow(upd))
	return errors.Wrap(err, "inserting report update")
}

func (repo reportRepository) CreateReport(ctx context.Context, rpt report.Report, upd report.Update) (report.Report, error) {
	rpt.ID = uuid.New().String()
	upd.ID = uuid.New().String()
	upd.ReportID = rpt.ID
	row := repo.toRow(rpt)

	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		q := `INSERT INTO report (` + reportColumns + `)
			VALUES (:id, :title, :description, :category, :priority, :status, :file_url, :student_id, :assigned_to_id,
			        :version, :created_at, :updated_at)`
		if _, err := sqlx.NamedExecContext(ctx, tx, q, row); err != nil {
			return errors.Wrap(err, "inserting report")
		}
		return repo.insertUpdate(ctx, tx, upd)
	})
	if err != nil {
		return report.Report{}, err
	}
	return repo.fromRow(row), nil
}

func (repo reportRepository) GetReport(ctx context.Context, id string) (report.Report, error) {
	if !isUUID(id) {
		return report.Report{}, report.ErrNotFound
	}
	var row reportRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+reportColumns+` FROM report WHERE id = $1`, id); err != nil {
		return report.Report{}, repo.trapNoRowsErr(err, "getting report")
	}
	return repo.fromRow(row), nil
}

func (repo reportRepository) LatestReportByStudent(ctx context.Context, studentID string) (report.Report, error) {
	var row reportRow
	q := `SELECT ` + reportColumns + ` FROM report WHERE student_id = $1 ORDER BY created_at DESC LIMIT 1`
	if err := repo.db.GetContext(ctx, &row, q, studentID); err != nil {
		return report.Report{}, repo.trapNoRowsErr(err, "getting latest report")
	}
	return repo.fromRow(row), nil
}

func (repo reportRepository) QueryReports(ctx context.Context, filter *report.QueryFilter) ([]report.Report, error) {
	var w where
	if filter != nil {
		if filter.StudentID != "" {
			w.add("student_id = ?", filter.StudentID)
		}
		if filter.AssignedToID != "" {
			w.add("assigned_to_id = ?", filter.AssignedToID)
		}
		if filter.Category != "" {
			w.add("category = ?", string(filter.Category))
		}
		if filter.Status != "" {
			w.add("status = ?", string(filter.Status))
		}
		if filter.Priority != "" {
			w.add("priority = ?", string(filter.Priority))
		}
		if filter.Search != "" {
			w.add("(title ILIKE ? OR description ILIKE ? OR category ILIKE ?)", containsPattern(filter.Search))
		}
	}

	var rows []reportRow
	q := `SELECT ` + reportColumns + ` FROM report` + w.String() + ` ORDER BY created_at DESC, id DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying reports")
	}
	rpts := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		rpts = append(rpts, repo.fromRow(row))
	}
	return rpts, nil
}

func (repo reportRepository) ApplyTransition(ctx context.Context, tr report.Transition) (report.Report, error) {
	if !isUUID(tr.ReportID) {
		return report.Report{}, report.ErrNotFound
	}

	var row reportRow
	err := withTx(ctx, repo.db, func(tx core.DBTransactor) error {
		q := `UPDATE report
			SET status = $1, version = version + 1, updated_at = $2, assigned_to_id = COALESCE($3::uuid, assigned_to_id)
			WHERE id = $4 AND status = $5 AND version = $6`
		args := []interface{}{
			string(tr.To),
			tr.Update.CreatedAt.UTC(),
			null.NewString(tr.SetAssigneeID, tr.SetAssigneeID != ""),
			tr.ReportID,
			string(tr.From),
			tr.Version,
		}
		if tr.RequireAssigneeID != "" {
			q += ` AND assigned_to_id = $7`
			args = append(args, tr.RequireAssigneeID)
		}

		if err := tx.GetContext(ctx, &row, q+` RETURNING `+reportColumns, args...); err != nil {
			if err != sql.ErrNoRows {
				return errors.Wrap(err, "updating report status")
			}
			// nothing matched: tell a missing report from a lost race
			var exists bool
			if err = tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM report WHERE id = $1)`, tr.ReportID); err != nil {
				return errors.Wrap(err, "checking report")
			}
			if !exists {
				return report.ErrNotFound
			}
			return report.ErrInvalidTransition
		}

		upd := tr.Update
		upd.ID = uuid.New().String()
		upd.ReportID = tr.ReportID
		return repo.insertUpdate(ctx, tx, upd)
	})
	if err != nil {
		return report.Report{}, err
	}
	return repo.fromRow(row), nil
}

func (repo reportRepository) QueryUpdates(ctx context.Context, reportID string) ([]report.Update, error) {
	if !isUUID(reportID) {
		return []report.Update{}, nil
	}
	var rows []updateRow
	q := `SELECT ` + updateColumns + ` FROM report_update WHERE report_id = $1 ORDER BY created_at DESC, seq DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, reportID); err != nil {
		return nil, errors.Wrap(err, "querying report updates")
	}
	updates := make([]report.Update, 0, len(rows))
	for _, row := range rows {
		updates = append(updates, repo.fromUpdateRow(row))
	}
	return updates, nil
}

func (repo reportRepository) LatestUpdates(ctx context.Context, reportIDs []string) (map[string]report.Update, error) {
	latest := make(map[string]report.Update, len(reportIDs))
	if len(reportIDs) == 0 {
		return latest, nil
	}

	var rows []updateRow
	q := `SELECT DISTINCT ON (report_id) ` + updateColumns + `
		FROM report_update
		WHERE report_id = ANY($1::uuid[])
		ORDER BY report_id, created_at DESC, seq DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, pq.Array(reportIDs)); err != nil {
		return nil, errors.Wrap(err, "querying latest report updates")
	}
	for _, row := range rows {
		latest[row.ReportID] = repo.fromUpdateRow(row)
	}
	return latest, nil
}
