package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/sauti/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db *DB) *reportRepository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) CreateReport(_ context.Context, rpt report.Report, upd report.Update) (report.Report, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	rpt.ID = uuid.New().String()
	upd.ID = uuid.New().String()
	upd.ReportID = rpt.ID
	repo.db.reports[rpt.ID] = &reportRow{Report: rpt, seq: repo.db.nextSeq()}
	repo.db.updates = append(repo.db.updates, upd)
	return rpt, nil
}

func (repo *reportRepository) GetReport(_ context.Context, id string) (report.Report, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if row, ok := repo.db.reports[id]; ok {
		return row.Report, nil
	}
	return report.Report{}, report.ErrNotFound
}

func (repo *reportRepository) LatestReportByStudent(ctx context.Context, studentID string) (report.Report, error) {
	rpts, err := repo.QueryReports(ctx, &report.QueryFilter{StudentID: studentID})
	if err != nil {
		return report.Report{}, err
	}
	if len(rpts) == 0 {
		return report.Report{}, report.ErrNotFound
	}
	return rpts[0], nil
}

func (repo *reportRepository) QueryReports(_ context.Context, filter *report.QueryFilter) ([]report.Report, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	rows := make([]*reportRow, 0, len(repo.db.reports))
	for _, row := range repo.db.reports {
		if filter != nil && !matchReport(row.Report, filter) {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].seq > rows[j].seq
		}
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	rpts := make([]report.Report, 0, len(rows))
	for _, row := range rows {
		rpts = append(rpts, row.Report)
	}
	return rpts, nil
}

func (repo *reportRepository) ApplyTransition(_ context.Context, tr report.Transition) (report.Report, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	row, ok := repo.db.reports[tr.ReportID]
	if !ok {
		return report.Report{}, report.ErrNotFound
	}
	if row.Status != tr.From || row.Version != tr.Version ||
		(tr.RequireAssigneeID != "" && row.AssignedToID != tr.RequireAssigneeID) {
		return report.Report{}, report.ErrInvalidTransition
	}

	row.Status = tr.To
	row.Version++
	row.UpdatedAt = tr.Update.CreatedAt
	if tr.SetAssigneeID != "" {
		row.AssignedToID = tr.SetAssigneeID
	}

	upd := tr.Update
	upd.ID = uuid.New().String()
	upd.ReportID = row.ID
	repo.db.updates = append(repo.db.updates, upd)
	return row.Report, nil
}

func (repo *reportRepository) QueryUpdates(_ context.Context, reportID string) ([]report.Update, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	updates := make([]report.Update, 0)
	for i := len(repo.db.updates) - 1; i >= 0; i-- {
		if upd := repo.db.updates[i]; upd.ReportID == reportID {
			updates = append(updates, upd)
		}
	}
	return updates, nil
}

func (repo *reportRepository) LatestUpdates(_ context.Context, reportIDs []string) (map[string]report.Update, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(reportIDs))
	for _, id := range reportIDs {
		wanted[id] = true
	}
	latest := make(map[string]report.Update, len(reportIDs))
	for i := len(repo.db.updates) - 1; i >= 0; i-- {
		upd := repo.db.updates[i]
		if _, seen := latest[upd.ReportID]; wanted[upd.ReportID] && !seen {
			latest[upd.ReportID] = upd
		}
	}
	return latest, nil
}

func matchReport(rpt report.Report, filter *report.QueryFilter) bool {
	switch {
	case filter.StudentID != "" && rpt.StudentID != filter.StudentID,
		filter.AssignedToID != "" && rpt.AssignedToID != filter.AssignedToID,
		filter.Category != "" && rpt.Category != filter.Category,
		filter.Status != "" && rpt.Status != filter.Status,
		filter.Priority != "" && rpt.Priority != filter.Priority:
		return false
	}
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		return strings.Contains(strings.ToLower(rpt.Title), s) ||
			strings.Contains(strings.ToLower(rpt.Description), s) ||
			strings.Contains(strings.ToLower(string(rpt.Category)), s)
	}
	return true
}
