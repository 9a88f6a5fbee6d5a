package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/admin-user-profile/internal/container"
	handlers "github.com/oksasatya/admin-user-profile/internal/interface/http"
	"github.com/oksasatya/admin-user-profile/internal/interface/middleware"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

// UserModule serves the REST surface the profile form talks to, mounted at
// the root so the original paths keep working:
//
//	GET /GetUserData/:userId
//	GET /GetUserRole/:userId
//	GET /Roles
//	PUT /UpdateUserData/:userId
//	GET /images/users/:name
type UserModule struct {
	Handler     *handlers.UserHandler
	JWT         *helpers.JWTManager
	Admins      middleware.AdminChecker
	AuthEnabled bool
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, admins middleware.AdminChecker, authEnabled bool) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Admins: admins, AuthEnabled: authEnabled}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	perIP := middleware.RateLimit(rdb, middleware.Limit{
		Name:   "profile-ip",
		Max:    300,
		Window: time.Minute,
		Key:    middleware.KeyByIP(),
		Allow:  middleware.AnyAllow(middleware.AllowPrivateIP(), middleware.AllowPathPrefix("/images/")),
		Fail:   middleware.LegacyFail,
	})

	rg.GET("/images/users/:name", perIP, m.Handler.ProfileImage)

	legacy := rg.Group("/")
	legacy.Use(
		middleware.Optional(m.AuthEnabled, middleware.Auth(rdb, m.JWT, m.Admins, middleware.LegacyFail)),
		perIP,
	)
	{
		legacy.GET("/GetUserData/:userId", m.Handler.GetUserData)
		legacy.GET("/GetUserRole/:userId", m.Handler.GetUserRole)
		legacy.GET("/Roles", m.Handler.Roles)
		legacy.PUT("/UpdateUserData/:userId",
			middleware.RateLimit(rdb, middleware.Limit{
				Name:   "profile-update",
				Max:    30,
				Window: time.Minute,
				Key:    middleware.KeyByUserID(),
				Fail:   middleware.LegacyFail,
			}),
			m.Handler.UpdateUserData)
	}
}

// UserSearchModule exposes the Elasticsearch backed user search under /api.
type UserSearchModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Admins  middleware.AdminChecker
}

func NewUserSearchModule(h *handlers.UserHandler, jwt *helpers.JWTManager, admins middleware.AdminChecker) *UserSearchModule {
	return &UserSearchModule{Handler: h, JWT: jwt, Admins: admins}
}

func (m *UserSearchModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	auth := rg.Group("/")
	auth.Use(
		middleware.Auth(rdb, m.JWT, m.Admins, middleware.JSONFail),
		middleware.RateLimit(rdb, middleware.Limit{Name: "user-search", Max: 120, Window: time.Minute, Key: middleware.KeyByUserID()}),
	)
	{
		auth.GET("/users/search", m.Handler.SearchUsers)
	}
}
