package modules

import (
	"expvar"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oksasatya/admin-user-profile/internal/container"
	"github.com/oksasatya/admin-user-profile/internal/interface/middleware"
)

// debugLimit throttles scrapes from outside the private network.
var debugLimit = middleware.Limit{
	Name:   "debug",
	Max:    120,
	Window: time.Minute,
	Key:    middleware.KeyByIP(),
	Allow:  middleware.AllowPrivateIP(),
}

// DebugModule serves expvar under /api/debug/vars.
type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), debugLimit)
	rg.GET("/debug/vars", rl, gin.WrapH(expvar.Handler()))
}

// MetricsModule serves the Prometheus registry at /metrics.
type MetricsModule struct{}

func NewMetricsModule() *MetricsModule { return &MetricsModule{} }

func (m *MetricsModule) Register(rg *gin.RouterGroup) {
	rl := middleware.RateLimit(container.GetRedis(), debugLimit)
	rg.GET("/metrics", rl, gin.WrapH(promhttp.Handler()))
}
