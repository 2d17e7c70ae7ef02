package sqlxrepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sauti/core/report"
	"github.com/trezcool/sauti/core/user"
	"github.com/trezcool/sauti/storage/database"
	"github.com/trezcool/sauti/tests"
)

// prepareDB migrates the database at TEST_DATABASE_URL and empties it. Tests are skipped without it.
func prepareDB(t *testing.T) *sqlx.DB {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.OpenURL(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db, "up"))
	_, err = db.ExecContext(ctx, `TRUNCATE report_update, report, "user" CASCADE`)
	require.NoError(t, err)
	return db
}

func TestUserRepository(t *testing.T) {
	db := prepareDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "jane@uni.test", user.RoleStudent)
	_ = testutil.CreateUser(t, repo, "dept@uni.test", user.RoleDeptAdmin)

	_, err := repo.CreateUser(ctx, user.User{SubjectID: "other", Email: usr.Email, Role: user.RoleStudent})
	assert.Equal(t, user.ErrEmailExists, err)

	got, err := repo.GetUser(ctx, user.GetFilter{SubjectID: usr.SubjectID})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	_, err = repo.GetUser(ctx, user.GetFilter{ID: "not-a-uuid"})
	assert.Equal(t, user.ErrNotFound, err)

	usr.FirstName = "Janet"
	usr.Role = user.RoleDSWAdmin
	usr, err = repo.UpdateUser(ctx, usr)
	require.NoError(t, err)
	assert.Equal(t, "Janet", usr.FirstName)

	users, err := repo.QueryUsers(ctx, &user.QueryFilter{Search: "JAN", Role: user.RoleDSWAdmin})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, usr.ID, users[0].ID)
}

func TestReportRepository(t *testing.T) {
	db := prepareDB(t)
	usrRepo := NewUserRepository(db)
	repo := NewReportRepository(db)
	ctx := context.Background()

	student := testutil.CreateUser(t, usrRepo, "jane@uni.test", user.RoleStudent)
	dept := testutil.CreateUser(t, usrRepo, "dept@uni.test", user.RoleDeptAdmin)
	t0 := time.Now().UTC().Truncate(time.Microsecond)

	older := testutil.CreateReport(t, repo, student, "Cold showers", t0.Add(-time.Hour))
	rpt := testutil.CreateReport(t, repo, student, "Broken AC", t0)

	latest, err := repo.LatestReportByStudent(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, rpt.ID, latest.ID)

	tr := report.Transition{
		ReportID:      rpt.ID,
		From:          report.StatusSubmitted,
		To:            report.StatusAssignedToDepartment,
		Version:       1,
		SetAssigneeID: dept.ID,
		Update:        report.Update{Message: "Please fix", Status: report.StatusAssignedToDepartment, ActorID: student.ID, CreatedAt: t0.Add(time.Minute)},
	}
	rpt, err = repo.ApplyTransition(ctx, tr)
	require.NoError(t, err)
	assert.Equal(t, report.StatusAssignedToDepartment, rpt.Status)
	assert.Equal(t, dept.ID, rpt.AssignedToID)
	assert.Equal(t, 2, rpt.Version)

	// replaying the same transition loses the race
	_, err = repo.ApplyTransition(ctx, tr)
	assert.Equal(t, report.ErrInvalidTransition, err)
	tr.ReportID = "4a6e3f1c-5d4b-4e8f-9a4c-2f0d1e7b9c31"
	_, err = repo.ApplyTransition(ctx, tr)
	assert.Equal(t, report.ErrNotFound, err)

	// only the assignee may move it further
	_, err = repo.ApplyTransition(ctx, report.Transition{
		ReportID:          rpt.ID,
		From:              report.StatusAssignedToDepartment,
		To:                report.StatusInProgress,
		Version:           2,
		RequireAssigneeID: student.ID,
		Update:            report.Update{Message: "Report accepted by department", Status: report.StatusInProgress, ActorID: student.ID, CreatedAt: t0},
	})
	assert.Equal(t, report.ErrInvalidTransition, err)

	updates, err := repo.QueryUpdates(ctx, rpt.ID)
	require.NoError(t, err)
	require.Len(t, updates, 2)
	assert.Equal(t, "Please fix", updates[0].Message)
	assert.Equal(t, "Report submitted", updates[1].Message)

	rpts, err := repo.QueryReports(ctx, &report.QueryFilter{Search: "ac", AssignedToID: dept.ID})
	require.NoError(t, err)
	require.Len(t, rpts, 1)
	assert.Equal(t, rpt.ID, rpts[0].ID)

	rpts, err = repo.QueryReports(ctx, nil)
	require.NoError(t, err)
	require.Len(t, rpts, 2)
	assert.Equal(t, []string{rpt.ID, older.ID}, []string{rpts[0].ID, rpts[1].ID})

	byReport, err := repo.LatestUpdates(ctx, []string{rpt.ID, older.ID})
	require.NoError(t, err)
	assert.Equal(t, "Please fix", byReport[rpt.ID].Message)
	assert.Equal(t, report.StatusSubmitted, byReport[older.ID].Status)
}
