package router

import (
	"context"

	appuser "github.com/oksasatya/admin-user-profile/internal/application"
	"github.com/oksasatya/admin-user-profile/internal/container"
	pginfra "github.com/oksasatya/admin-user-profile/internal/infrastructure/postgres"
	handlers "github.com/oksasatya/admin-user-profile/internal/interface/http"
	"github.com/oksasatya/admin-user-profile/internal/interface/web"
	"github.com/oksasatya/admin-user-profile/internal/router/modules"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

type ProfileDeps struct {
	Service     *appuser.Service
	Auth        *appuser.AuthService
	UserHandler *handlers.UserHandler
	AuthHandler *handlers.AuthHandler
	Dashboard   *web.Dashboard
}

func buildProfileDeps() ProfileDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()
	rdb := container.GetRedis()
	jwt := container.GetJWT()

	users := pginfra.NewUserRepository(pool)
	roles := pginfra.NewRoleRepository(pool)

	service := appuser.NewService(users, roles, pginfra.NewTxManager(pool), container.GetImageStore(), rdb, cfg.ProfileCacheTTL, logger)
	service.MaxImageBytes = cfg.MaxImageBytes
	if es := container.GetES(); es != nil {
		service.WithSearch(es, cfg.ESUsersIndex)
	}
	if pub := container.GetRabbitPub(); pub != nil {
		service.WithNotifications(pub, cfg)
	}

	auth := appuser.NewAuthService(users, roles, jwt, rdb, logger)

	return ProfileDeps{
		Service:     service,
		Auth:        auth,
		UserHandler: handlers.NewUserHandler(service, container.GetImageStore(), cfg.MaxImageBytes, logger),
		AuthHandler: handlers.NewAuthHandler(auth, jwt, logger, cfg.CookieDomain, cfg.CookieSecure),
		Dashboard:   web.NewDashboard(service, auth, jwt, helpers.NewSessionCookies(cfg.CookieDomain, cfg.CookieSecure), cfg.MaxImageBytes, logger),
	}
}

// healthChecks pings the dependencies every request needs. Search and mail
// are optional and left out.
func healthChecks() map[string]modules.Check {
	checks := map[string]modules.Check{}
	if pool := container.GetPGPool(); pool != nil {
		checks["postgres"] = pool.Ping
	}
	if rdb := container.GetRedis(); rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	return checks
}

// InitModules wires the profile services from the container and registers
// every module. Call it once at startup, before RegisterAll.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	jwt := container.GetJWT()
	deps := buildProfileDeps()

	r.Add(modules.NewAuthModule(deps.AuthHandler))
	r.Add(modules.NewUserSearchModule(deps.UserHandler, jwt, deps.Auth))

	r.AddRoot(modules.NewUserModule(deps.UserHandler, jwt, deps.Auth, cfg.AdminAuthEnabled))
	r.AddRoot(modules.NewDashboardModule(deps.Dashboard, jwt, deps.Auth, cfg.AdminAuthEnabled))

	r.AddRoot(modules.NewHealthModule(healthChecks()))

	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
		r.AddRoot(modules.NewMetricsModule())
	}
}
