package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/moleculab/sarscope/pkg/types/common"
)

// HealthChecker probes one dependency.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	checkers []HealthChecker
}

// NewHealthHandler builds the handler over the given dependency probes.
func NewHealthHandler(checkers ...HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Live always reports up while the process is serving.
func (h *HealthHandler) Live(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{"status": common.HealthUp})
}

// Ready probes every dependency and reports per-component health.  Any down
// component makes the whole response a 503.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	overall := common.HealthUp
	components := make([]common.ComponentHealth, 0, len(h.checkers))
	for _, checker := range h.checkers {
		start := time.Now()
		err := checker.Check(ctx)
		component := common.ComponentHealth{
			Name:    checker.Name(),
			Status:  common.HealthUp,
			Latency: time.Since(start),
		}
		if err != nil {
			component.Status = common.HealthDown
			component.Message = err.Error()
			overall = common.HealthDown
		}
		components = append(components, component)
	}

	status := http.StatusOK
	if overall == common.HealthDown {
		status = http.StatusServiceUnavailable
	}
	respondOK(c, status, gin.H{"status": overall, "components": components})
}

// CheckFunc adapts a function to the HealthChecker interface.
type CheckFunc struct {
	CheckName string
	Fn        func(ctx context.Context) error
}

func (f CheckFunc) Name() string                    { return f.CheckName }
func (f CheckFunc) Check(ctx context.Context) error { return f.Fn(ctx) }
