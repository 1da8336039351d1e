// Package dashboard aggregates platform statistics for administrators.
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/pathwise/core"
	"github.com/trezcool/pathwise/core/origin"
)

var sectionFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "pathwise_dashboard_section_failures_total",
		Help: "Dashboard sections that could not be counted.",
	}, []string{"section"})

// ReasonUnreachable is reported for sections whose origin call did not complete.
const ReasonUnreachable = "origin unreachable"

// sectionError keeps the short reason shown to admins apart from the logged cause.
type sectionError struct {
	reason string
	cause  error
}

func (e *sectionError) Error() string { return e.reason + ": " + e.cause.Error() }
func (e *sectionError) Cause() error  { return e.cause }

func reason(err error) string {
	if se, ok := err.(*sectionError); ok {
		return se.reason
	}
	return err.Error()
}

// countFields are looked up, in order, on object responses.
var countFields = []string{"totalElements", "total", "count"}

// Stats is the dashboard payload. Every section is present, failed ones count 0.
type Stats struct {
	Counts      map[string]int
	Errors      map[string]string
	GeneratedAt time.Time
}

func (s Stats) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(s.Counts)+2)
	for name, n := range s.Counts {
		out[name] = n
	}
	errs := s.Errors
	if errs == nil {
		errs = map[string]string{}
	}
	out["errors"] = errs
	out["generatedAt"] = s.GeneratedAt.UTC().Format(time.RFC3339)
	return json.Marshal(out)
}

type Service struct {
	origin   origin.Doer
	sections map[string]string
	logger   core.Logger
	now      func() time.Time
}

// NewService counts each section from the origin path mapped to it.
func NewService(o origin.Doer, sections map[string]string, logger core.Logger) *Service {
	return &Service{origin: o, sections: sections, logger: logger, now: time.Now}
}

// Sections returns the section names in a stable order.
func (svc *Service) Sections() []string {
	names := make([]string, 0, len(svc.sections))
	for name := range svc.sections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats queries every section concurrently with the caller's token.
// A failing section never fails the whole payload.
func (svc *Service) Stats(ctx context.Context, token string) (Stats, error) {
	stats := Stats{
		Counts: make(map[string]int, len(svc.sections)),
		Errors: make(map[string]string),
	}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, name := range svc.Sections() {
		name, path := name, svc.sections[name]
		g.Go(func() error {
			n, err := svc.count(gctx, token, path)
			mu.Lock()
			defer mu.Unlock()
			stats.Counts[name] = n
			if err != nil {
				stats.Errors[name] = reason(err)
				sectionFailures.WithLabelValues(name).Inc()
				if svc.logger != nil {
					svc.logger.Warn("dashboard section failed", err, map[string]interface{}{"section": name})
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}
	if err := ctx.Err(); err != nil {
		return stats, errors.Wrap(err, "computing dashboard")
	}
	stats.GeneratedAt = svc.now()
	return stats, nil
}

func (svc *Service) count(ctx context.Context, token, path string) (int, error) {
	res, err := svc.origin.Do(ctx, origin.Request{Method: http.MethodGet, Path: path, Token: token})
	if err != nil {
		return 0, &sectionError{reason: ReasonUnreachable, cause: err}
	}
	if !res.OK() {
		return 0, errors.Errorf("origin answered %d %s", res.StatusCode, http.StatusText(res.StatusCode))
	}
	return Count(res.Body)
}

// Count extracts the number of items from an origin listing: the length of
// an array, or a total field of a paginated object.
func Count(body []byte) (int, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err == nil {
		return len(items), nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return 0, errors.New("unexpected response shape")
	}
	for _, field := range countFields {
		raw, ok := obj[field]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, errors.Errorf("%s is not a number", field)
		}
		return int(n), nil
	}
	for _, field := range []string{"content", "items", "data"} {
		if raw, ok := obj[field]; ok {
			if err := json.Unmarshal(raw, &items); err == nil {
				return len(items), nil
			}
		}
	}
	return 0, errors.New("no count in response")
}
