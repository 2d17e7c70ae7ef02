package user

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/sauti/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound    = errors.New("user not found")
	ErrEmailExists = errors.New("a user with this email already exists")
	ErrInvalidRole = errors.New("invalid role")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Email, User.FirstName or User.LastName.
		QueryUsers(ctx context.Context, filter *QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	ServiceInterface interface {
		Sync(ctx context.Context, su SyncUser) (usr User, created bool, err error)
		GetByID(ctx context.Context, id string) (User, error)
		GetBySubject(ctx context.Context, subject string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter *QueryFilter) ([]User, error)
		SetRole(ctx context.Context, email string, role Role) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

var _ ServiceInterface = (*Service)(nil) // interface compliance check

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Sync upserts the User identified by su.ID (the identity provider's subject).
// New users are students; the role of an existing User is never touched.
func (svc *Service) Sync(ctx context.Context, su SyncUser) (User, bool, error) {
	if err := su.Validate(svc.validate); err != nil {
		return User{}, false, err
	}

	usr, err := svc.repo.GetUser(ctx, GetFilter{SubjectID: su.ID})
	if err != nil && err != ErrNotFound {
		return User{}, false, pkgerrors.Wrap(err, "finding user by subject")
	}
	created := err == ErrNotFound

	// email must stay unique across subjects
	other, err := svc.repo.GetUser(ctx, GetFilter{Email: su.Email})
	switch {
	case err == nil && other.SubjectID != su.ID:
		return User{}, false, core.NewValidationError(ErrEmailExists, core.FieldError{Field: "email", Error: ErrEmailExists.Error()})
	case err != nil && err != ErrNotFound:
		return User{}, false, pkgerrors.Wrap(err, "checking email uniqueness")
	}

	now := NowFunc().UTC()
	if created {
		usr, err = svc.repo.CreateUser(ctx, User{
			SubjectID: su.ID,
			Email:     su.Email,
			FirstName: su.FirstName,
			LastName:  su.LastName,
			Role:      RoleStudent,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return usr, true, pkgerrors.Wrap(err, "creating user")
	}

	usr.Email = su.Email
	usr.FirstName = su.FirstName
	usr.LastName = su.LastName
	usr.UpdatedAt = now
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, false, pkgerrors.Wrap(err, "updating user")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetBySubject(ctx context.Context, subject string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{SubjectID: core.CleanString(subject)})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]User, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryUsers(ctx, filter)
}

// SetRole changes the role of the User with the given email.
// Roles are never self-assigned: only the admin CLI calls this.
func (svc *Service) SetRole(ctx context.Context, email string, role Role) (User, error) {
	if !role.IsValid() {
		return User{}, ErrInvalidRole
	}
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	if usr.Role == role {
		return usr, nil
	}
	usr.Role = role
	usr.UpdatedAt = NowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, pkgerrors.Wrap(err, "updating user role")
}
