package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/admin-user-profile/internal/container"
	handlers "github.com/oksasatya/admin-user-profile/internal/interface/http"
	"github.com/oksasatya/admin-user-profile/internal/interface/middleware"
)

// AuthModule registers the admin session endpoints under /api.
// Logout stays public so an expired access token can still end the session.
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	loginLimiter := middleware.RateLimit(rdb, middleware.Limit{Name: "login", Max: 10, Window: time.Minute, Key: middleware.KeyByIP()})
	refreshLimiter := middleware.RateLimit(rdb, middleware.Limit{Name: "session", Max: 60, Window: time.Minute, Key: middleware.KeyByIP()})

	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.POST("/logout", refreshLimiter, m.Handler.Logout)
}
