package models

import "time"

// Role is the global role of a user account.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleProjectManager Role = "project_manager"
	RoleSupervisor     Role = "supervisor"
	RoleOperario       Role = "operario"
)

// ValidRole reports whether r is one of the known global roles.
func ValidRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleProjectManager, RoleSupervisor, RoleOperario:
		return true
	}
	return false
}

// User represents a user account. Password carries the bcrypt hash and is
// never serialized.
type User struct {
	ID        int       `json:"id" db:"id"`
	Nombre    string    `json:"nombre" db:"nombre"`
	Email     string    `json:"email" db:"email"`
	Password  string    `json:"-" db:"password"`
	Rol       Role      `json:"rol" db:"rol"`
	Activo    bool      `json:"activo,omitempty" db:"activo"`
	CreatedAt time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// AuthUser is the identity attached to the request context after the
// authentication gate resolves a token against the users table.
type AuthUser struct {
	ID     int    `json:"id"`
	Nombre string `json:"nombre"`
	Email  string `json:"email"`
	Rol    Role   `json:"rol"`
}

// RegisterRequest is the payload for POST /api/auth/register.
type RegisterRequest struct {
	Nombre   string `json:"nombre"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Rol      Role   `json:"rol"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
