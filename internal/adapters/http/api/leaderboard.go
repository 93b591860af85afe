package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// leaderboard handles GET /api/leaderboard?limit=.
func (s *Server) leaderboard(c *gin.Context) {
	const op = "api.leaderboard"
	limit, err := queryInt(c, op, "limit")
	if err != nil {
		s.writeError(c, err)
		return
	}
	out, err := s.deps.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, out)
}

// topPerformer handles GET /api/leaderboard/top. An empty team is a 404.
func (s *Server) topPerformer(c *gin.Context) {
	const op = "api.topPerformer"
	rep, ok, err := s.deps.TopPerformer(c.Request.Context())
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Code: CodeNotFound, Message: "no sales reps"})
		return
	}
	c.JSON(http.StatusOK, rep)
}
