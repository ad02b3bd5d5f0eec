package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/soe-platform/workload-api/internal/service"
	"github.com/soe-platform/workload-api/pkg/response"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(metrics *service.MetricsService) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Runtime godoc
// @Summary Runtime metrics snapshot
// @Description Aggregated counters since process start, for operational dashboards
// @Tags Metrics
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /metrics/runtime [get]
func (h *MetricsHandler) Runtime(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
