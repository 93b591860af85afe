package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/domain/model"
)

// listContacts handles GET /api/contacts?q=&status=&rep=.
func (s *Server) listContacts(c *gin.Context) {
	const op = "api.listContacts"
	out, err := s.deps.ListContacts(c.Request.Context(), service.ContactQuery{
		Q:      c.Query("q"),
		Status: c.Query("status"),
		Rep:    c.Query("rep"),
	})
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getContact(c *gin.Context) {
	const op = "api.getContact"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	out, err := s.deps.GetContact(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createContact(c *gin.Context) {
	const op = "api.createContact"
	var in model.Contact
	if err := bindJSON(c, op, &in); err != nil {
		s.writeError(c, err)
		return
	}
	out, dup, err := s.deps.CreateContact(c.Request.Context(), idempotencyKey(c), in)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, true, out, dup)
}

func (s *Server) updateContact(c *gin.Context) {
	const op = "api.updateContact"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	var p model.ContactPatch
	if err := bindJSON(c, op, &p); err != nil {
		s.writeError(c, err)
		return
	}
	out, dup, err := s.deps.UpdateContact(c.Request.Context(), idempotencyKey(c), id, p)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, false, out, dup)
}

func (s *Server) deleteContact(c *gin.Context) {
	const op = "api.deleteContact"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	dup, err := s.deps.DeleteContact(c.Request.Context(), idempotencyKey(c), id)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, ackResponse{Status: "deleted", Duplicate: dup})
}
