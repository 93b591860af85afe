package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/okian/dealdesk/internal/domain/model"
	"github.com/okian/dealdesk/pkg/metrics"
)

// compiledFilter is a ContactFilter with the status parsed.
type compiledFilter struct {
	status model.ContactStatus
	rep    string
}

func compileFilter(f ContactFilter) (compiledFilter, error) {
	var cf compiledFilter
	if s := strings.TrimSpace(f.Status); s != "" && !strings.EqualFold(s, FilterAll) {
		st, err := model.ParseContactStatus(s)
		if err != nil {
			return cf, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		cf.status = st
	}
	if r := strings.TrimSpace(f.Rep); r != "" && !strings.EqualFold(r, FilterAll) {
		cf.rep = r
	}
	return cf, nil
}

func (f compiledFilter) match(c model.Contact) bool {
	if f.status != "" && c.Status != f.status {
		return false
	}
	if f.rep != "" && c.AssignedRep != f.rep {
		return false
	}
	return true
}

func matchSearch(c model.Contact, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), term) ||
		strings.Contains(strings.ToLower(c.Email), term) ||
		strings.Contains(strings.ToLower(c.Company), term)
}

// newSalesRep zeroes the counters of a rep being created.
func newSalesRep(r model.SalesRep) model.SalesRep {
	r.LeadsContacted, r.MeetingsBooked, r.DealsClosed, r.Revenue = 0, 0, 0, 0
	return r
}

// observe records one store call. Pass the call's error.
func observe(entity, op string, start time.Time, err error) {
	metrics.RecordStoreOperation(entity, op, float64(time.Since(start).Microseconds())/1000)
	if err != nil {
		metrics.RecordStoreError(entity, op, errorKind(err))
	}
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotAvailable):
		return "not_available"
	case errors.Is(err, model.ErrInvalidRecord), errors.Is(err, model.ErrInvalidStage),
		errors.Is(err, model.ErrInvalidStatus), errors.Is(err, ErrInvalidFilter):
		return "invalid"
	default:
		return "internal"
	}
}
