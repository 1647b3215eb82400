package api

import (
	"context"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/seoulstay/concierge/pkg/version"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
)

const healthProbeTimeout = 2 * time.Second

// healthHandler handles GET /health. Dependency failures (LLM backend,
// vector index) report degraded rather than unhealthy: the service keeps
// answering with deterministic fallbacks when a backend is down, so the
// orchestrator must not restart it for an external outage.
func (s *Server) healthHandler(c *echo.Context) error {
	status := healthStatusOK
	var checks map[string]HealthCheck

	if len(s.checkNames) > 0 {
		checks = make(map[string]HealthCheck, len(s.checkNames))
		for _, name := range s.checkNames {
			probeCtx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
			err := s.checks[name](probeCtx)
			cancel()
			if err != nil {
				status = healthStatusDegraded
				checks[name] = HealthCheck{Status: healthStatusDegraded, Message: err.Error()}
				continue
			}
			checks[name] = HealthCheck{Status: healthStatusOK}
		}
	}

	return c.JSON(http.StatusOK, &HealthResponse{
		Status:  status,
		Version: version.GitCommit,
		Checks:  checks,
	})
}
