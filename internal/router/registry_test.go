package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handlers "github.com/oksasatya/admin-user-profile/internal/interface/http"
	"github.com/oksasatya/admin-user-profile/internal/interface/web"
	"github.com/oksasatya/admin-user-profile/internal/router/modules"
	"github.com/oksasatya/admin-user-profile/pkg/helpers"
)

type pingModule struct{}

func (pingModule) Register(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
}

func TestRegistryMiddlewareScopedToAPI(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	r := NewRegistry(e)
	r.Use(func(c *gin.Context) { c.Header("X-API", "1"); c.Next() })
	r.Add(pingModule{})
	r.AddRoot(pingModule{})
	r.RegisterAll()

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-API"))

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-API"))
}

func TestModulesRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	r := NewRegistry(e)
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	uh := handlers.NewUserHandler(nil, nil, 1<<20, nil)
	ah := handlers.NewAuthHandler(nil, jwt, nil, "", false)
	dash := web.NewDashboard(nil, nil, jwt, helpers.NewSessionCookies("", false), 1<<20, nil)

	r.Add(modules.NewAuthModule(ah))
	r.Add(modules.NewUserSearchModule(uh, jwt, nil))
	r.Add(modules.NewDebugModule())
	r.AddRoot(modules.NewUserModule(uh, jwt, nil, true))
	r.AddRoot(modules.NewDashboardModule(dash, jwt, nil, true))
	r.AddRoot(modules.NewMetricsModule())
	r.AddRoot(modules.NewHealthModule(nil))
	r.RegisterAll()

	got := map[string]bool{}
	for _, ri := range e.Routes() {
		got[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"GET /GetUserData/:userId",
		"GET /GetUserRole/:userId",
		"GET /Roles",
		"PUT /UpdateUserData/:userId",
		"GET /images/users/:name",
		"GET /UserManagement/UserProfile/:userId",
		"POST /UserManagement/UserProfile/:userId",
		"GET /",
		"GET /login",
		"POST /login",
		"POST /logout",
		"GET /metrics",
		"POST /api/login",
		"POST /api/refresh",
		"POST /api/logout",
		"GET /api/users/search",
		"GET /api/debug/vars",
		"GET /healthz",
	} {
		assert.True(t, got[want], want)
	}
}

func TestLegacyRoutesRequireSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	r := NewRegistry(e)
	jwt := helpers.NewJWTManager("a", "r", time.Minute, time.Hour)
	uh := handlers.NewUserHandler(nil, nil, 1<<20, nil)
	dash := web.NewDashboard(nil, nil, jwt, helpers.NewSessionCookies("", false), 1<<20, nil)
	r.AddRoot(modules.NewUserModule(uh, jwt, nil, true))
	r.AddRoot(modules.NewDashboardModule(dash, jwt, nil, true))
	r.RegisterAll()

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/Roles", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"missing access token"}`, w.Body.String())

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/UserManagement/UserProfile/u1", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login?next=%2FUserManagement%2FUserProfile%2Fu1", w.Header().Get("Location"))
}

func TestHealthModule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	r := NewRegistry(e)
	redisDown := errors.New("dial tcp: connection refused")
	r.AddRoot(modules.NewHealthModule(map[string]modules.Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return redisDown },
	}))
	r.RegisterAll()

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Success bool              `json:"success"`
		Error   map[string]string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, map[string]string{"postgres": "ok", "redis": redisDown.Error()}, body.Error)
}
