// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/pkg/logger"
)

// ContactService covers the contact endpoints.
type ContactService interface {
	ListContacts(ctx context.Context, q service.ContactQuery) ([]model.Contact, error)
	GetContact(ctx context.Context, id int) (model.Contact, error)
	CreateContact(ctx context.Context, key string, c model.Contact) (model.Contact, bool, error)
	UpdateContact(ctx context.Context, key string, id int, p model.ContactPatch) (model.Contact, bool, error)
	DeleteContact(ctx context.Context, key string, id int) (bool, error)
}

// DealService covers the deal and timeline gesture endpoints.
type DealService interface {
	ListDeals(ctx context.Context, q service.DealQuery) ([]model.Deal, error)
	GetDeal(ctx context.Context, id int) (model.Deal, error)
	CreateDeal(ctx context.Context, key string, d model.Deal) (model.Deal, bool, error)
	UpdateDeal(ctx context.Context, key string, id int, p model.DealPatch) (model.Deal, bool, error)
	DeleteDeal(ctx context.Context, key string, id int) (bool, error)
	ChangeStage(ctx context.Context, key string, id int, stage string) (model.Deal, bool, error)
	MoveDeal(ctx context.Context, key string, id, startMonth int) (model.Deal, bool, error)
	ResizeDeal(ctx context.Context, key string, id, endMonth int) (model.Deal, bool, error)
}

// RepService covers the sales rep endpoints.
type RepService interface {
	ListReps(ctx context.Context) ([]model.SalesRep, error)
	GetRep(ctx context.Context, id int) (model.SalesRep, error)
	CreateRep(ctx context.Context, key string, r model.SalesRep) (model.SalesRep, bool, error)
	UpdateRep(ctx context.Context, key string, id int, p model.SalesRepPatch) (model.SalesRep, bool, error)
	DeleteRep(ctx context.Context, key string, id int) (bool, error)
}

// ViewService covers the read-only aggregate views.
type ViewService interface {
	Timeline(ctx context.Context, year int) (service.TimelineView, error)
	Pipeline(ctx context.Context) (service.PipelineView, error)
	Leaderboard(ctx context.Context, limit int) (service.LeaderboardView, error)
	TopPerformer(ctx context.Context) (model.SalesRep, bool, error)
	Dashboard(ctx context.Context) (service.DashboardView, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	ContactService
	DealService
	RepService
	ViewService
	StatsProvider
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.origins = origins
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps    Dependencies
	logger  logger.Logger
	origins []string
}

// NewServer creates a new API server.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:    deps,
		logger:  logger.Nop(),
		origins: []string{"*"},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns a gin engine with the middleware chain and every route.
func (s *Server) Handler(ctx context.Context) *gin.Engine {
	r := gin.New()
	s.Register(ctx, r)
	return r
}

// Register attaches the middleware chain and all routes to r.
func (s *Server) Register(ctx context.Context, r *gin.Engine) {
	r.Use(
		recoveryMiddleware(s.logger),
		requestIDMiddleware(),
		corsMiddleware(s.origins),
		metricsMiddleware(),
		accessLogMiddleware(s.logger),
	)

	r.GET("/healthz", handleHealth)
	r.GET("/metrics", handleMetrics())

	api := r.Group("/api")
	api.GET("/stats", s.handleStats)

	contacts := api.Group("/contacts")
	contacts.GET("", s.listContacts)
	contacts.POST("", s.createContact)
	contacts.GET("/:id", s.getContact)
	contacts.PATCH("/:id", s.updateContact)
	contacts.DELETE("/:id", s.deleteContact)

	deals := api.Group("/deals")
	deals.GET("", s.listDeals)
	deals.POST("", s.createDeal)
	deals.GET("/:id", s.getDeal)
	deals.PATCH("/:id", s.updateDeal)
	deals.DELETE("/:id", s.deleteDeal)
	deals.PUT("/:id/stage", s.changeStage)
	deals.POST("/:id/move", s.moveDeal)
	deals.POST("/:id/resize", s.resizeDeal)

	reps := api.Group("/reps")
	reps.GET("", s.listReps)
	reps.POST("", s.createRep)
	reps.GET("/:id", s.getRep)
	reps.PATCH("/:id", s.updateRep)
	reps.DELETE("/:id", s.deleteRep)

	api.GET("/timeline/:year", s.timeline)
	api.GET("/pipeline", s.pipeline)
	api.GET("/leaderboard", s.leaderboard)
	api.GET("/leaderboard/top", s.topPerformer)
	api.GET("/dashboard", s.dashboard)

	s.logger.Debug(ctx, "api routes registered", logger.Int("routes", len(r.Routes())))
}

// mutationResponse wraps the record a mutation produced. Duplicate is true
// when the Idempotency-Key had already been applied.
type mutationResponse[T any] struct {
	Data      T    `json:"data"`
	Duplicate bool `json:"duplicate"`
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

func (s *Server) writeError(c *gin.Context, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed",
			logger.String("path", c.Request.URL.Path),
			logger.String("request_id", c.GetString(requestIDKey)),
			logger.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Code: code, Message: err.Error()})
}

// writeMutation answers a create with 201 and any other mutation or replay
// with 200.
func writeMutation[T any](c *gin.Context, created bool, v T, duplicate bool) {
	status := http.StatusOK
	if created && !duplicate {
		status = http.StatusCreated
	}
	c.JSON(status, mutationResponse[T]{Data: v, Duplicate: duplicate})
}

func idempotencyKey(c *gin.Context) string {
	return c.GetHeader(HeaderIdempotencyKey)
}

// pathInt parses a positive integer path parameter.
func pathInt(c *gin.Context, op, name string) (int, error) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v <= 0 {
		return 0, WrapKind(op, ErrBadRequest, errInvalidParam(name, c.Param(name)))
	}
	return v, nil
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(c *gin.Context, op, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, WrapKind(op, ErrBadRequest, errInvalidParam(name, raw))
	}
	return v, nil
}

func bindJSON(c *gin.Context, op string, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
