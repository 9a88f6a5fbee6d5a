package modules

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/admin-user-profile/pkg/response"
)

// Check pings one dependency.
type Check func(ctx context.Context) error

// HealthModule serves GET /healthz. Any failing check turns the answer into a
// 503 so load balancers stop routing to the instance.
type HealthModule struct {
	Checks  map[string]Check
	Timeout time.Duration
}

func NewHealthModule(checks map[string]Check) *HealthModule {
	return &HealthModule{Checks: checks, Timeout: 2 * time.Second}
}

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/healthz", m.health)
}

func (m *HealthModule) health(c *gin.Context) {
	names := make([]string, 0, len(m.Checks))
	for name := range m.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request.Context(), m.Timeout)
		err := m.Checks[name](ctx)
		cancel()
		if err != nil {
			healthy = false
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	if !healthy {
		response.Error[any](c, http.StatusServiceUnavailable, "unhealthy", results)
		return
	}
	response.Success(c, http.StatusOK, results, "ok", nil)
}
