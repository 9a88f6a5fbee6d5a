package entity

import (
	"strings"
	"time"
)

// User is the aggregate root for user domain
// Passwords are stored as bcrypt hashes in Password field
//
// ProfileImage holds the stored object name, not a URL; the dashboard
// renders it under /images/users/.
type User struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	ContactNo    string
	Password     string
	ProfileImage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name, skipping empty parts.
func (u *User) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}
