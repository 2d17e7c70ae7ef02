package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/sauti/core"
	"github.com/trezcool/sauti/core/user"
	"github.com/trezcool/sauti/storage/database/inmem"
	"github.com/trezcool/sauti/tests"
)

func setup(t *testing.T) (*user.Service, user.Repository) {
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewUserRepository(db)
	return user.NewService(repo, testutil.NewValidator()), repo
}

func TestService_Sync(t *testing.T) {
	svc, _ := setup(t)
	ctx := context.Background()

	usr, created, err := svc.Sync(ctx, user.SyncUser{ID: "idp|42", Email: " Jane.Doe@UNI.test ", FirstName: "Jane", LastName: "Doe"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "idp|42", usr.SubjectID)
	assert.Equal(t, "jane.doe@uni.test", usr.Email)
	assert.Equal(t, user.RoleStudent, usr.Role)

	// promoted out of band, then synced again
	_, err = svc.SetRole(ctx, usr.Email, user.RoleDSWAdmin)
	require.NoError(t, err)
	again, created, err := svc.Sync(ctx, user.SyncUser{ID: "idp|42", Email: "jane.doe@uni.test", FirstName: "Janet", LastName: "Doe"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, usr.ID, again.ID)
	assert.Equal(t, "Janet Doe", again.FullName())
	assert.Equal(t, user.RoleDSWAdmin, again.Role)

	t.Run("institutional emails only", func(t *testing.T) {
		for _, email := range []string{"jane@gmail.com", "jane@notuni.test", "lol"} {
			_, _, err := svc.Sync(ctx, user.SyncUser{ID: "idp|43", Email: email})
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), email)
			assert.Equal(t, "email", verrs[0].Field())
		}
		_, _, err := svc.Sync(ctx, user.SyncUser{ID: "idp|43", Email: "john@cs.uni.test"})
		assert.NoError(t, err)
	})

	t.Run("email taken by another subject", func(t *testing.T) {
		_, _, err := svc.Sync(ctx, user.SyncUser{ID: "idp|44", Email: "jane.doe@uni.test"})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr), err)
		assert.Equal(t, user.ErrEmailExists, verr.Err)
	})
}

func TestService_SetRole(t *testing.T) {
	svc, repo := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "staff@uni.test", user.RoleStudent)

	_, err := svc.SetRole(ctx, usr.Email, "JANITOR")
	assert.Equal(t, user.ErrInvalidRole, err)
	_, err = svc.SetRole(ctx, "nobody@uni.test", user.RoleDeptAdmin)
	assert.Equal(t, user.ErrNotFound, err)

	usr, err = svc.SetRole(ctx, " STAFF@uni.test", user.RoleDeptAdmin)
	require.NoError(t, err)
	assert.True(t, usr.IsDeptAdmin())

	admins, err := svc.Query(ctx, &user.QueryFilter{Role: "dept_admin"})
	require.NoError(t, err)
	assert.Equal(t, []user.User{usr}, admins)
}

func TestParseRole(t *testing.T) {
	r, err := user.ParseRole(" dsw_admin ")
	assert.NoError(t, err)
	assert.Equal(t, user.RoleDSWAdmin, r)

	_, err = user.ParseRole("admin")
	assert.Equal(t, user.ErrInvalidRole, err)
}
