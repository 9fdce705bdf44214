package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xhrome/foodbot/internal/service"
)

// OpsHandler exposes observability endpoints for operators.
type OpsHandler struct {
	metrics *service.MetricsService
}

// NewOpsHandler constructs an ops handler.
func NewOpsHandler(metrics *service.MetricsService) *OpsHandler {
	return &OpsHandler{metrics: metrics}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *OpsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *OpsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
