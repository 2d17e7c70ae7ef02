package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/sauti/core"
)

// Role is the single role a User holds. Roles are flat: no role includes another.
type Role string

// Roles
const (
	RoleStudent   Role = "STUDENT"
	RoleDSWAdmin  Role = "DSW_ADMIN"  // Dean of Student Welfare office
	RoleDeptAdmin Role = "DEPT_ADMIN" // departmental staff
)

var AllRoles = []Role{RoleStudent, RoleDSWAdmin, RoleDeptAdmin}

func (r Role) IsValid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRole parses s case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(core.CleanString(s)))
	if !r.IsValid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

type User struct {
	ID        string    `json:"id"`
	SubjectID string    `json:"subject_id"` // identity provider's user id
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) HasRole(roles ...Role) bool {
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

func (u User) IsStudent() bool   { return u.Role == RoleStudent }
func (u User) IsDSWAdmin() bool  { return u.Role == RoleDSWAdmin }
func (u User) IsDeptAdmin() bool { return u.Role == RoleDeptAdmin }

// SyncUser contains the identity provider's profile of the User being synced.
type SyncUser struct {
	ID        string `json:"id" validate:"required"`
	Email     string `json:"email" validate:"required,email,institution_email"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
}

func (su *SyncUser) Validate(validate *validator.Validate) error {
	su.ID = core.CleanString(su.ID)
	su.Email = core.CleanString(su.Email, true /* lower */)
	su.FirstName = core.CleanString(su.FirstName)
	su.LastName = core.CleanString(su.LastName)
	return validate.Struct(su)
}

// GetFilter selects a single User; the first non-empty field is used.
type GetFilter struct {
	ID        string
	SubjectID string
	Email     string
}

type QueryFilter struct {
	Search string `query:"search"`
	Role   Role   `query:"role"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = Role(strings.ToUpper(core.CleanString(string(qf.Role))))
}
