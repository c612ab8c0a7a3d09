package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/revoicehq/revoice/internal/engine"
	"github.com/revoicehq/revoice/internal/orchestrator"
)

// HandleHealth reports readiness of the two external dependencies: the
// ffmpeg toolchain and the speech backend. Degraded dependencies yield 503
// with per-check detail so operators can tell which side is down.
// GET /healthz
func HandleHealth(orch *orchestrator.Orchestrator, tools *engine.Toolchain) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}
		healthy := true

		if err := tools.Check(); err != nil {
			checks["ffmpeg"] = err.Error()
			healthy = false
		} else {
			checks["ffmpeg"] = "ok"
		}

		provider := orch.Provider()
		if err := provider.Health(c.Request.Context()); err != nil {
			checks[provider.Name()] = err.Error()
			healthy = false
		} else {
			checks[provider.Name()] = "ok"
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"healthy": healthy,
			"checks":  checks,
		})
	}
}
