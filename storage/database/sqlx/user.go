package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/user"
)

const userColumns = `id, subject_id, email, first_name, last_name, role, created_at, updated_at`

type userRow struct {
	ID        string      `db:"id"`
	SubjectID string      `db:"subject_id"`
	Email     string      `db:"email"`
	FirstName null.String `db:"first_name"`
	LastName  null.String `db:"last_name"`
	Role      string      `db:"role"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) userRow {
	return userRow{
		ID:        usr.ID,
		SubjectID: usr.SubjectID,
		Email:     usr.Email,
		FirstName: null.NewString(usr.FirstName, usr.FirstName != ""),
		LastName:  null.NewString(usr.LastName, usr.LastName != ""),
		Role:      string(usr.Role),
		CreatedAt: usr.CreatedAt.UTC(),
		UpdatedAt: usr.UpdatedAt.UTC(),
	}
}

func (repo userRepository) fromRow(row userRow) user.User {
	return user.User{
		ID:        row.ID,
		SubjectID: row.SubjectID,
		Email:     row.Email,
		FirstName: row.FirstName.String,
		LastName:  row.LastName.String,
		Role:      user.Role(row.Role),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

// trapErr maps psql "no rows" err to user.ErrNotFound and unique violations to user.ErrEmailExists
func (repo userRepository) trapErr(err error, msg string) error {
	switch {
	case err == sql.ErrNoRows:
		return user.ErrNotFound
	case isUniqueViolation(err):
		return user.ErrEmailExists
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	q := `INSERT INTO "user" (` + userColumns + `)
		VALUES (:id, :subject_id, :email, :first_name, :last_name, :role, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, repo.toRow(usr)); err != nil {
		return user.User{}, repo.trapErr(err, "inserting user")
	}
	return repo.fromRow(repo.toRow(usr)), nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var w where
	switch {
	case filter.ID != "":
		if !isUUID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		w.add("id = ?", filter.ID)
	case filter.SubjectID != "":
		w.add("subject_id = ?", filter.SubjectID)
	case filter.Email != "":
		w.add("email = ?", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM "user"`+w.String(), w.args...); err != nil {
		return user.User{}, repo.trapErr(err, "getting user")
	}
	return repo.fromRow(row), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter) ([]user.User, error) {
	var w where
	if filter != nil {
		if filter.Role != "" {
			w.add("role = ?", string(filter.Role))
		}
		if filter.Search != "" {
			w.add("(email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?)", containsPattern(filter.Search))
		}
	}

	var rows []userRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM "user"`+w.String()+` ORDER BY email`, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, repo.fromRow(row))
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE "user"
		SET email = :email, first_name = :first_name, last_name = :last_name, role = :role, updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + userColumns
	q, args, err := sqlx.Named(q, repo.toRow(usr))
	if err != nil {
		return user.User{}, errors.Wrap(err, "binding user")
	}

	var row userRow
	if err = repo.db.GetContext(ctx, &row, repo.db.Rebind(q), args...); err != nil {
		return user.User{}, repo.trapErr(err, "updating user")
	}
	return repo.fromRow(row), nil
}
