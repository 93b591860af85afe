package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/okian/dealdesk/internal/adapters/http/api"
	"github.com/okian/dealdesk/internal/adapters/mq/worker"
	"github.com/okian/dealdesk/internal/adapters/repository"
	service "github.com/okian/dealdesk/internal/app"
	"github.com/okian/dealdesk/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var _ api.Dependencies = (*service.Service)(nil)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	handler http.Handler
	store   *repository.Memory
	svc     *service.Service
}

func newHarness() *harness {
	store := repository.NewMemory()
	svc := service.New(store)
	So(svc.Start(context.Background()), ShouldBeNil)
	return &harness{
		handler: api.NewServer(svc).Handler(context.Background()),
		store:   store,
		svc:     svc,
	}
}

func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader = http.NoBody
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type envelope[T any] struct {
	Data      T    `json:"data"`
	Duplicate bool `json:"duplicate"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func TestHealthAndMetrics(t *testing.T) {
	Convey("Given the API handler", t, func() {
		h := newHarness()
		defer func() { _ = h.svc.Stop(context.Background()) }()

		Convey("Then /healthz reports ok with a request id", func() {
			w := h.do(http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			So(w.Header().Get(api.HeaderRequestID), ShouldNotBeEmpty)
		})

		Convey("Then a caller request id is echoed", func() {
			w := h.do(http.MethodGet, "/healthz", "", api.HeaderRequestID, "abc-123")
			So(w.Header().Get(api.HeaderRequestID), ShouldEqual, "abc-123")
		})

		Convey("Then /metrics exposes the http counters", func() {
			h.do(http.MethodGet, "/api/reps", "")
			w := h.do(http.MethodGet, "/metrics", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "dealdesk_crm_http_requests_total")
		})

		Convey("Then /api/stats returns service stats", func() {
			w := h.do(http.MethodGet, "/api/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			stats := decode[map[string]any](w)
			So(stats["started"], ShouldEqual, true)
		})

		Convey("Then CORS preflight is answered", func() {
			w := h.do(http.MethodOptions, "/api/deals", "",
				"Origin", "http://localhost:3000",
				"Access-Control-Request-Method", http.MethodPost)
			So(w.Code, ShouldEqual, http.StatusNoContent)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestDealEndpoints(t *testing.T) {
	Convey("Given a created deal", t, func() {
		h := newHarness()
		defer func() { _ = h.svc.Stop(context.Background()) }()

		w := h.do(http.MethodPost, "/api/deals", `{"name":"Pilot","value":2500,"year":2025,"start_month":2,"end_month":4}`)
		So(w.Code, ShouldEqual, http.StatusCreated)
		created := decode[envelope[model.Deal]](w)
		So(created.Data.ID, ShouldEqual, 1)
		So(created.Data.Stage, ShouldEqual, model.StageConnected)
		path := fmt.Sprintf("/api/deals/%d", created.Data.ID)

		Convey("When it is moved", func() {
			w := h.do(http.MethodPost, path+"/move", `{"start_month":10}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			moved := decode[envelope[model.Deal]](w)
			So(moved.Data.StartMonth, ShouldEqual, 10)
			So(moved.Data.EndMonth, ShouldEqual, 12)
		})

		Convey("When another deal is posted with an empty stage", func() {
			w := h.do(http.MethodPost, "/api/deals", `{"name":"Blank","value":10,"year":2025,"stage":""}`)

			Convey("Then it is created in the first stage", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(decode[envelope[model.Deal]](w).Data.Stage, ShouldEqual, model.StageConnected)
			})
		})

		Convey("When it is resized before its start", func() {
			w := h.do(http.MethodPost, path+"/resize", `{"end_month":1}`)

			Convey("Then the API answers 422 invalid_span", func() {
				So(w.Code, ShouldEqual, http.StatusUnprocessableEntity)
				So(decode[apiError](w).Code, ShouldEqual, api.CodeInvalidSpan)
			})
		})

		Convey("When the stage changes", func() {
			w := h.do(http.MethodPut, path+"/stage", `{"stage":"Negotiation"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[envelope[model.Deal]](w).Data.Stage, ShouldEqual, model.StageNegotiation)

			w = h.do(http.MethodGet, "/api/deals?stage=negotiation&year=2025", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(decode[[]model.Deal](w)), ShouldEqual, 1)

			w = h.do(http.MethodPut, path+"/stage", `{"stage":"won"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a move repeats its Idempotency-Key", func() {
			first := h.do(http.MethodPost, path+"/move", `{"start_month":3}`, api.HeaderIdempotencyKey, "m-1")
			second := h.do(http.MethodPost, path+"/move", `{"start_month":3}`, api.HeaderIdempotencyKey, "m-1")

			Convey("Then the replay is flagged", func() {
				So(first.Code, ShouldEqual, http.StatusOK)
				So(decode[envelope[model.Deal]](first).Duplicate, ShouldBeFalse)
				So(second.Code, ShouldEqual, http.StatusOK)
				So(decode[envelope[model.Deal]](second).Duplicate, ShouldBeTrue)
			})
		})

		Convey("When the request is malformed", func() {
			So(h.do(http.MethodPost, path+"/move", `{}`).Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodPost, path+"/move", `{"start_month":`).Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodGet, "/api/deals/abc", "").Code, ShouldEqual, http.StatusBadRequest)
			So(h.do(http.MethodGet, "/api/deals?year=soon", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When it is deleted", func() {
			w := h.do(http.MethodDelete, path, "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(h.do(http.MethodGet, path, "").Code, ShouldEqual, http.StatusNotFound)
			So(h.do(http.MethodDelete, path, "").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the store is down", func() {
			h.store.SetAvailable(false)
			w := h.do(http.MethodGet, "/api/deals", "")
			So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			So(decode[apiError](w).Code, ShouldEqual, api.CodeUnavailable)
		})
	})
}

func TestContactAndRepEndpoints(t *testing.T) {
	Convey("Given an empty store", t, func() {
		h := newHarness()
		defer func() { _ = h.svc.Stop(context.Background()) }()

		Convey("When contacts are created and searched", func() {
			So(h.do(http.MethodPost, "/api/contacts", `{"name":"Ada","company":"Engines","assigned_rep":"Sarah"}`).Code, ShouldEqual, http.StatusCreated)
			So(h.do(http.MethodPost, "/api/contacts", `{"name":"Alan","company":"Bletchley","status":"qualified"}`).Code, ShouldEqual, http.StatusCreated)

			w := h.do(http.MethodGet, "/api/contacts?q=engines", "")
			So(len(decode[[]model.Contact](w)), ShouldEqual, 1)

			w = h.do(http.MethodGet, "/api/contacts?status=qualified", "")
			So(len(decode[[]model.Contact](w)), ShouldEqual, 1)

			w = h.do(http.MethodPatch, "/api/contacts/1", `{"tags":["vip"," vip ",""]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decode[envelope[model.Contact]](w).Data.Tags, ShouldResemble, []string{"vip"})

			So(h.do(http.MethodPost, "/api/contacts", `{"name":"Bad","status":"sleeping"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a rep is created with counters", func() {
			w := h.do(http.MethodPost, "/api/reps", `{"name":"Kim","deals_closed":40}`)
			So(w.Code, ShouldEqual, http.StatusCreated)
			So(decode[envelope[model.SalesRep]](w).Data.DealsClosed, ShouldEqual, 0)

			Convey("Then updates feed the leaderboard", func() {
				So(h.do(http.MethodPatch, "/api/reps/1", `{"deals_closed":4,"meetings_booked":2}`).Code, ShouldEqual, http.StatusOK)
				h.do(http.MethodPost, "/api/reps", `{"name":"Lee"}`)

				w := h.do(http.MethodGet, "/api/leaderboard?limit=5", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				body := decode[service.LeaderboardView](w)
				So(len(body.Standings), ShouldEqual, 2)
				So(body.Standings[0].Score, ShouldEqual, 16)
				So(body.Standings[0].Medal, ShouldEqual, "gold")

				w = h.do(http.MethodGet, "/api/leaderboard/top", "")
				So(decode[model.SalesRep](w).Name, ShouldEqual, "Kim")

				So(h.do(http.MethodGet, "/api/leaderboard?limit=-1", "").Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When no reps exist", func() {
			w := h.do(http.MethodGet, "/api/leaderboard/top", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestViewEndpoints(t *testing.T) {
	Convey("Given deals in 2025", t, func() {
		h := newHarness()
		defer func() { _ = h.svc.Stop(context.Background()) }()

		h.do(http.MethodPost, "/api/deals", `{"name":"A","value":1000,"year":2025,"start_month":1,"end_month":3}`)
		h.do(http.MethodPost, "/api/deals", `{"name":"B","value":1500,"year":2025,"start_month":3,"end_month":5,"stage":"closed"}`)

		Convey("Then the timeline view is served", func() {
			w := h.do(http.MethodGet, "/api/timeline/2025", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			v := decode[service.TimelineView](w)
			So(len(v.Lanes), ShouldEqual, 2)
			So(v.FormattedTotal, ShouldEqual, "$2,500")
			So(v.PeakMonthName, ShouldEqual, "March")
			So(v.Lanes[0].Placement.Left.Num, ShouldEqual, 0)

			So(h.do(http.MethodGet, "/api/timeline/zero", "").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Then the pipeline and dashboard are served", func() {
			w := h.do(http.MethodGet, "/api/pipeline", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(decode[service.PipelineView](w).Columns), ShouldEqual, len(model.Stages()))

			w = h.do(http.MethodGet, "/api/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			d := decode[map[string]any](w)
			So(d["deals_closed"], ShouldEqual, float64(1))
			So(d["pipeline_value"], ShouldEqual, "$2,500")
		})
	})
}

// stubDeps fails deal moves with a fixed error.
type stubDeps struct {
	api.Dependencies
	err error
}

func (s stubDeps) MoveDeal(context.Context, string, int, int) (model.Deal, bool, error) {
	return model.Deal{}, false, s.err
}

func TestErrorMapping(t *testing.T) {
	Convey("Given a dependency that fails moves", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("lane 3: %w", worker.ErrBackpressure), http.StatusTooManyRequests, api.CodeBackpressure},
			{service.ErrInFlight, http.StatusConflict, api.CodeConflict},
			{worker.ErrStopped, http.StatusServiceUnavailable, api.CodeUnavailable},
			{repository.ErrNotFound, http.StatusNotFound, api.CodeNotFound},
			{fmt.Errorf("boom"), http.StatusInternalServerError, api.CodeInternal},
		}
		for _, tc := range cases {
			handler := api.NewServer(stubDeps{err: tc.err}).Handler(context.Background())
			req := httptest.NewRequest(http.MethodPost, "/api/deals/1/move", strings.NewReader(`{"start_month":2}`))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			So(w.Code, ShouldEqual, tc.status)
			So(decode[apiError](w).Code, ShouldEqual, tc.code)
		}
	})
}

func TestErrorWrapping(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		err := api.WrapKind("api.x", api.ErrBadRequest, repository.ErrInvalidFilter)

		So(err.Error(), ShouldEqual, "api.x: bad request: invalid filter")
		So(api.Wrap("api.x", nil), ShouldBeNil)
		So(api.NewKind("api.y", api.ErrBadRequest).Error(), ShouldEqual, "api.y: bad request")
		So(errors.Is(api.Wrap("api.z", fmt.Errorf("lane 1: %w", worker.ErrBackpressure)), worker.ErrBackpressure), ShouldBeTrue)
	})
}
