package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/subtrack/subtrack/internal/api/dto"
	"github.com/subtrack/subtrack/internal/logger"
)

const (
	healthStatusOK       = "ok"
	healthStatusDegraded = "degraded"
	healthStatusDown     = "down"

	healthCheckTimeout = 3 * time.Second
)

// Pinger reports whether the document store answers
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthChecker reports whether the workflow engine is reachable
type HealthChecker interface {
	IsHealthy(ctx context.Context) bool
}

type HealthHandler struct {
	store    Pinger
	temporal HealthChecker
	log      *logger.Logger
}

func NewHealthHandler(store Pinger, temporal HealthChecker, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		store:    store,
		temporal: temporal,
		log:      log,
	}
}

// @Summary Health check
// @Description 200 while the store answers; a Temporal outage only degrades the status because reminder triggers fail soft
// @Tags Health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	resp := dto.HealthResponse{
		Status:   healthStatusOK,
		Mongo:    healthStatusOK,
		Temporal: healthStatusOK,
	}
	status := http.StatusOK

	if err := h.store.Ping(ctx); err != nil {
		h.log.Errorw("health check: mongo ping failed", "error", err)
		resp.Mongo = healthStatusDown
		resp.Status = healthStatusDown
		status = http.StatusServiceUnavailable
	}

	if !h.temporal.IsHealthy(ctx) {
		resp.Temporal = healthStatusDown
		if resp.Status == healthStatusOK {
			resp.Status = healthStatusDegraded
		}
	}

	c.JSON(status, resp)
}
