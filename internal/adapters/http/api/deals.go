package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/domain/model"
)

type stageRequest struct {
	Stage string `json:"stage"`
}

type moveRequest struct {
	StartMonth *int `json:"start_month"`
}

type resizeRequest struct {
	EndMonth *int `json:"end_month"`
}

// listDeals handles GET /api/deals?stage=&year=.
func (s *Server) listDeals(c *gin.Context) {
	const op = "api.listDeals"
	year, err := queryInt(c, op, "year")
	if err != nil {
		s.writeError(c, err)
		return
	}
	out, err := s.deps.ListDeals(c.Request.Context(), service.DealQuery{Stage: c.Query("stage"), Year: year})
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getDeal(c *gin.Context) {
	const op = "api.getDeal"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	out, err := s.deps.GetDeal(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createDeal(c *gin.Context) {
	const op = "api.createDeal"
	var in model.Deal
	if err := bindJSON(c, op, &in); err != nil {
		s.writeError(c, err)
		return
	}
	out, dup, err := s.deps.CreateDeal(c.Request.Context(), idempotencyKey(c), in)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, true, out, dup)
}

func (s *Server) updateDeal(c *gin.Context) {
	const op = "api.updateDeal"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	var p model.DealPatch
	if err := bindJSON(c, op, &p); err != nil {
		s.writeError(c, err)
		return
	}
	out, dup, err := s.deps.UpdateDeal(c.Request.Context(), idempotencyKey(c), id, p)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, false, out, dup)
}

func (s *Server) deleteDeal(c *gin.Context) {
	const op = "api.deleteDeal"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	dup, err := s.deps.DeleteDeal(c.Request.Context(), idempotencyKey(c), id)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	c.JSON(http.StatusOK, ackResponse{Status: "deleted", Duplicate: dup})
}

// changeStage handles PUT /api/deals/:id/stage.
func (s *Server) changeStage(c *gin.Context) {
	const op = "api.changeStage"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	var req stageRequest
	if err := bindJSON(c, op, &req); err != nil {
		s.writeError(c, err)
		return
	}
	if req.Stage == "" {
		s.writeError(c, WrapKind(op, ErrBadRequest, errInvalidParam("stage", "")))
		return
	}
	out, dup, err := s.deps.ChangeStage(c.Request.Context(), idempotencyKey(c), id, req.Stage)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, false, out, dup)
}

// moveDeal handles POST /api/deals/:id/move.
func (s *Server) moveDeal(c *gin.Context) {
	const op = "api.moveDeal"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	var req moveRequest
	if err := bindJSON(c, op, &req); err != nil {
		s.writeError(c, err)
		return
	}
	if req.StartMonth == nil {
		s.writeError(c, NewKind(op, ErrBadRequest))
		return
	}
	out, dup, err := s.deps.MoveDeal(c.Request.Context(), idempotencyKey(c), id, *req.StartMonth)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, false, out, dup)
}

// resizeDeal handles POST /api/deals/:id/resize.
func (s *Server) resizeDeal(c *gin.Context) {
	const op = "api.resizeDeal"
	id, err := pathInt(c, op, "id")
	if err != nil {
		s.writeError(c, err)
		return
	}
	var req resizeRequest
	if err := bindJSON(c, op, &req); err != nil {
		s.writeError(c, err)
		return
	}
	if req.EndMonth == nil {
		s.writeError(c, NewKind(op, ErrBadRequest))
		return
	}
	out, dup, err := s.deps.ResizeDeal(c.Request.Context(), idempotencyKey(c), id, *req.EndMonth)
	if err != nil {
		s.writeError(c, Wrap(op, err))
		return
	}
	writeMutation(c, false, out, dup)
}
