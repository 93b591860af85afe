package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/okian/dealdesk/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

// handleHealth handles GET /healthz.
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
}

// handleMetrics serves the custom Prometheus registry.
func handleMetrics() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}
