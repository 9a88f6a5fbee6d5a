package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
)

// ErrNotFound is returned by repositories when no row matches.
var ErrNotFound = errors.New("not found")

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	UpdatePassword(ctx context.Context, id, hash string) error
}

// RoleRepository covers the role catalogue and the per-user assignment.
type RoleRepository interface {
	List(ctx context.Context) ([]entity.Role, error)
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	GetUserRole(ctx context.Context, userID string) (*entity.UserRole, error)
	// AssignUserRole replaces any existing assignment for the user.
	AssignUserRole(ctx context.Context, userID, roleID string) error
}

// TxManager runs fn inside a single database transaction. Repositories
// called with the ctx passed to fn participate in that transaction.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
