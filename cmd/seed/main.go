package main

import (
	"context"
	"errors"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/admin-user-profile/config"
	"github.com/oksasatya/admin-user-profile/internal/domain/entity"
	repo "github.com/oksasatya/admin-user-profile/internal/domain/repository"
	pginfra "github.com/oksasatya/admin-user-profile/internal/infrastructure/postgres"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

var seedRoles = []string{"admin", "editor", "user"}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), pginfra.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.WithError(err).Fatal("failed to connect to postgres")
	}
	defer pool.Close()

	if err := ensureRoles(ctx, pool); err != nil {
		logger.WithError(err).Fatal("failed to upsert roles")
	}
	logger.WithField("roles", seedRoles).Info("roles ensured")

	email := getenv("SEED_ADMIN_EMAIL", "admin@example.com")
	hash, err := helpers.HashPassword(getenv("SEED_ADMIN_PASSWORD", "password123"))
	if err != nil {
		logger.WithError(err).Fatal("failed to hash password")
	}

	tx := pginfra.NewTxManager(pool)
	var u *entity.User
	var created bool
	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		u, created, err = ensureAdmin(ctx, pginfra.NewUserRepository(pool), pginfra.NewRoleRepository(pool), email, hash)
		return err
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to seed admin user")
	}
	logger.WithFields(logrus.Fields{"id": u.ID, "email": u.Email, "created": created}).Info("seeded admin user")
}

func ensureRoles(ctx context.Context, pool *pgxpool.Pool) error {
	for _, name := range seedRoles {
		if _, err := pool.Exec(ctx, `
			INSERT INTO roles (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, name); err != nil {
			return err
		}
	}
	return nil
}

// ensureAdmin creates the demo admin, or resets its name on an existing row,
// and assigns it the admin role. The password of an existing admin is kept.
func ensureAdmin(ctx context.Context, users repo.UserRepository, roles repo.RoleRepository, email, hash string) (*entity.User, bool, error) {
	admin, err := roles.GetByName(ctx, "admin")
	if err != nil {
		return nil, false, err
	}

	u, err := users.GetByEmail(ctx, email)
	created := false
	switch {
	case errors.Is(err, repo.ErrNotFound):
		u = &entity.User{FirstName: "Demo", LastName: "Admin", Email: email, Password: hash}
		if err := users.Create(ctx, u); err != nil {
			return nil, false, err
		}
		created = true
	case err != nil:
		return nil, false, err
	default:
		u.FirstName, u.LastName = "Demo", "Admin"
		if err := users.Update(ctx, u); err != nil {
			return nil, false, err
		}
	}

	if err := roles.AssignUserRole(ctx, u.ID, admin.ID); err != nil {
		return nil, false, err
	}
	return u, created, nil
}
