package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// timeline handles GET /api/timeline/:year.
func (s *Server) timeline(c *gin.Context) {
	const op = "api.timeline"
	year, err := pathInt(c, op, "year")
	if err != nil {
		s.writeError(c, err)
		return
	}
	out, err := s.deps.Timeline(c.Request.Context(), year)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, out)
}

// pipeline handles GET /api/pipeline.
func (s *Server) pipeline(c *gin.Context) {
	out, err := s.deps.Pipeline(c.Request.Context())
	if err != nil {
		s.writeError(c, Wrap("api.pipeline", err))
		return
	}
	c.JSON(http.StatusOK, out)
}

// dashboard handles GET /api/dashboard.
func (s *Server) dashboard(c *gin.Context) {
	out, err := s.deps.Dashboard(c.Request.Context())
	if err != nil {
		s.writeError(c, Wrap("api.dashboard", err))
		return
	}
	c.JSON(http.StatusOK, out)
}
