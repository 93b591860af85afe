package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StatsProvider defines the interface for getting service statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// handleStats handles GET /api/stats.
func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.GetStats())
}
