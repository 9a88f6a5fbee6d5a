package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/admin-user-profile/internal/container"
	"github.com/oksasatya/admin-user-profile/internal/interface/middleware"
	"github.com/oksasatya/admin-user-profile/internal/interface/web"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

const loginPath = "/login"

// DashboardModule serves the server-rendered profile form and its login page.
type DashboardModule struct {
	Dashboard   *web.Dashboard
	JWT         *helpers.JWTManager
	Admins      middleware.AdminChecker
	AuthEnabled bool
}

func NewDashboardModule(d *web.Dashboard, jwt *helpers.JWTManager, admins middleware.AdminChecker, authEnabled bool) *DashboardModule {
	return &DashboardModule{Dashboard: d, JWT: jwt, Admins: admins, AuthEnabled: authEnabled}
}

func (m *DashboardModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	loginLimiter := middleware.RateLimit(rdb, middleware.Limit{Name: "login", Max: 10, Window: time.Minute, Key: middleware.KeyByIP()})

	rg.GET(loginPath, m.Dashboard.LoginForm)
	rg.POST(loginPath, loginLimiter, m.Dashboard.Login)
	rg.POST("/logout", m.Dashboard.Logout)

	pages := rg.Group("/")
	pages.Use(middleware.Optional(m.AuthEnabled, middleware.Auth(rdb, m.JWT, m.Admins, middleware.RedirectToLogin(loginPath))))
	{
		pages.GET("/", m.Dashboard.Home)
		pages.GET(web.ProfilePath+":userId", m.Dashboard.ShowProfile)
		pages.POST(web.ProfilePath+":userId",
			middleware.RateLimit(rdb, middleware.Limit{Name: "profile-update", Max: 30, Window: time.Minute, Key: middleware.KeyByUserID()}),
			m.Dashboard.SaveProfile)
	}
}
