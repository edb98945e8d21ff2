package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/GunarsK-portfolio/user-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Health statuses.
const (
	StatusUp   = "up"
	StatusDown = "down"
)

// HealthCheck is one named dependency probe.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// CheckResult is the outcome of one probe.
type CheckResult struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthReport is the body of every health endpoint.
type HealthReport struct {
	Status string                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// HealthHandler serves liveness, readiness and full dependency checks.
type HealthHandler struct {
	full    []HealthCheck
	ready   []HealthCheck
	timeout time.Duration
}

// NewHealthHandler creates a HealthHandler. full backs /health, ready
// backs /health/ready.
func NewHealthHandler(full, ready []HealthCheck, timeout time.Duration) *HealthHandler {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HealthHandler{full: full, ready: ready, timeout: timeout}
}

// Check runs every dependency and resource check.
func (h *HealthHandler) Check(c *gin.Context) {
	h.respond(c, h.full)
}

// Live reports that the process is serving requests.
func (h *HealthHandler) Live(c *gin.Context) {
	RespondSuccess(c, http.StatusOK, HealthReport{
		Status: StatusUp,
		Checks: map[string]CheckResult{"liveness": {Status: StatusUp}},
	}, "Service is alive")
}

// Ready reports whether the service can take traffic.
func (h *HealthHandler) Ready(c *gin.Context) {
	h.respond(c, h.ready)
}

func (h *HealthHandler) respond(c *gin.Context, checks []HealthCheck) {
	report := h.run(c.Request.Context(), checks)
	if report.Status != StatusUp {
		logger.FromContext(c.Request.Context()).Warn("health check failed", zap.Any("checks", report.Checks))
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, Response{
			Success: false,
			Data:    report,
			Error:   "service unhealthy",
			Message: "service unhealthy",
		})
		return
	}
	RespondSuccess(c, http.StatusOK, report, "Service is healthy")
}

func (h *HealthHandler) run(ctx context.Context, checks []HealthCheck) HealthReport {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	report := HealthReport{Status: StatusUp, Checks: make(map[string]CheckResult, len(checks))}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, check := range checks {
		wg.Add(1)
		go func(check HealthCheck) {
			defer wg.Done()
			result := CheckResult{Status: StatusUp}
			if err := check.Probe(ctx); err != nil {
				result = CheckResult{Status: StatusDown, Error: err.Error()}
			}

			mu.Lock()
			defer mu.Unlock()
			report.Checks[check.Name] = result
			if result.Status == StatusDown {
				report.Status = StatusDown
			}
		}(check)
	}
	wg.Wait()
	return report
}
