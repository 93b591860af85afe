package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/okian/dealdesk/internal/domain/model"
)

func (s *Server) listReps(c *gin.Context) {
	out, err := s.deps.ListReps(c.Request.Context())
	if err != nil {
		s.writeError(c, Wrap("api.listReps", err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getRep(c *gin.Context) {
	const op = "api.getRep"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	out, err := s.deps.GetRep(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, out)
}

// createRep handles POST /api/reps. Counters in the body are ignored.
func (s *Server) createRep(c *gin.Context) {
	const op = "api.createRep"
	var in model.SalesRep
	if err := bindJSON(c, op, &in); err != nil {
		s.writeError(c, err)
		return
	}
	out, dup, err := s.deps.CreateRep(c.Request.Context(), idempotencyKey(c), in)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, true, out, dup)
}

func (s *Server) updateRep(c *gin.Context) {
	const op = "api.updateRep"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	var p model.SalesRepPatch
	if err := bindJSON(c, op, &p); err != nil {
		s.writeError(c, err)
		return
	}
	out, dup, err := s.deps.UpdateRep(c.Request.Context(), idempotencyKey(c), id, p)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, false, out, dup)
}

func (s *Server) deleteRep(c *gin.Context) {
	const op = "api.deleteRep"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	dup, err := s.deps.DeleteRep(c.Request.Context(), idempotencyKey(c), id)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, ackResponse{Status: "deleted", Duplicate: dup})
}
