package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/vaisagh-mp/clinic-project/internal/platform/auth"
)

// User maps to the users table.
type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	IsStaff      bool      `db:"is_staff" json:"is_staff"`
	IsSuperuser  bool      `db:"is_superuser" json:"is_superuser"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name, falling back to the username.
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

var validRoles = map[string]bool{
	auth.RoleSuperAdmin: true,
	auth.RoleAdmin:      true,
	auth.RoleClinic:     true,
	auth.RoleDoctor:     true,
}

// ValidRole reports whether role is one of the recognised account roles.
func ValidRole(role string) bool {
	return validRoles[role]
}

// RedirectPath returns the frontend panel a role lands on after login.
func RedirectPath(role string) string {
	switch role {
	case auth.RoleSuperAdmin, auth.RoleAdmin:
		return "/admin-panel/dashboard"
	case auth.RoleClinic:
		return "/clinic-panel/dashboard"
	case auth.RoleDoctor:
		return "/doctor-panel/dashboard"
	default:
		return "/"
	}
}
