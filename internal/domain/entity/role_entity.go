package entity

import "time"

// Role represents an authorization role
// Many-to-many with User via user_roles
// kept minimal for domain use
type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserRole is the single role assignment shown on a user's profile.
type UserRole struct {
	UserID   string
	RoleID   string
	RoleName string
}

const RoleAdmin = "admin"
