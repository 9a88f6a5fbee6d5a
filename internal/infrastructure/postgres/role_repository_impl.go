package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	"github.com/oksasatya/admin-user-profile/internal/domain/repository"
)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) List(ctx context.Context) ([]entity.Role, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `SELECT id, name, created_at, updated_at FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]entity.Role, 0)
	for rows.Next() {
		var role entity.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *RoleRepository) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	role := &entity.Role{}
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM roles WHERE name = $1
	`, name).Scan(&role.ID, &role.Name, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return role, nil
}

func (r *RoleRepository) GetUserRole(ctx context.Context, userID string) (*entity.UserRole, error) {
	ur := &entity.UserRole{}
	err := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT ur.user_id, ur.role_id, r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
	`, userID).Scan(&ur.UserID, &ur.RoleID, &ur.RoleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return ur, nil
}

func (r *RoleRepository) AssignUserRole(ctx context.Context, userID, roleID string) error {
	_, err := conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role_id = EXCLUDED.role_id, assigned_at = now()
	`, userID, roleID)
	if err != nil {
		return fmt.Errorf("assign role %s to %s: %w", roleID, userID, err)
	}
	return nil
}

var _ repository.RoleRepository = (*RoleRepository)(nil)
