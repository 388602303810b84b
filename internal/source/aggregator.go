package source

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"jobscout/internal/job"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Status records the outcome of one connector call.
type Status struct {
	Source   string
	Postings int
	Failure  string
}

// Failed reports whether the connector call produced no usable result.
func (s Status) Failed() bool {
	return s.Failure != ""
}

// Result is the aggregation outcome: the concatenated postings plus a
// per-source status in the enabled-source order.
type Result struct {
	Postings          []*job.Posting
	Statuses          []Status
	DroppedIncomplete int
}

// SourcesFailed counts connectors that did not succeed.
func (r *Result) SourcesFailed() int {
	n := 0
	for _, s := range r.Statuses {
		if s.Failed() {
			n++
		}
	}
	return n
}

// Aggregator fans out one search to the enabled connectors in parallel.
// A single connector failure never aborts the others; each outcome is
// recorded independently.
type Aggregator struct {
	connectors map[string]Connector
	timeout    time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// NewAggregator builds an aggregator over the given connectors. A zero
// timeout falls back to the default overall deadline.
func NewAggregator(connectors []Connector, timeout time.Duration, logger *zap.Logger) *Aggregator {
	byName := make(map[string]Connector, len(connectors))
	for _, c := range connectors {
		byName[c.Name()] = c
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Aggregator{
		connectors: byName,
		timeout:    timeout,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// Collect invokes each enabled connector concurrently and returns the
// concatenation of their postings in enabled-source order, never in
// completion order. Cancellation is all-or-nothing: when the caller's
// context is cancelled, partial results are discarded.
func (a *Aggregator) Collect(ctx context.Context, spec *SearchSpec) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type slot struct {
		postings []*job.Posting
		status   Status
	}
	slots := make([]slot, len(spec.Sources))

	var wg sync.WaitGroup
	for i, name := range spec.Sources {
		connector, ok := a.connectors[name]
		if !ok {
			slots[i].status = Status{Source: name, Failure: "unknown source"}
			a.logger.Warn("skipping unknown source", zap.String("source", name))
			continue
		}

		wg.Add(1)
		go func(i int, connector Connector) {
			defer wg.Done()
			name := connector.Name()

			postings, err := connector.Search(ctx, spec)
			if err != nil {
				slots[i].status = Status{Source: name, Failure: classifyFailure(err)}
				a.logger.Warn("source failed",
					zap.String("source", name),
					zap.Error(err),
				)
				return
			}

			slots[i].postings = postings
			slots[i].status = Status{Source: name, Postings: len(postings)}
		}(i, connector)
	}
	wg.Wait()

	// Caller cancellation is all-or-nothing; a hit overall deadline only
	// fails the connectors still in flight.
	if err := ctx.Err(); errors.Is(err, context.Canceled) {
		return nil, err
	}

	result := &Result{Statuses: make([]Status, 0, len(slots))}
	now := a.now()
	for _, s := range slots {
		kept := 0
		for _, posting := range s.postings {
			if strings.TrimSpace(posting.Title) == "" || strings.TrimSpace(posting.Company) == "" {
				result.DroppedIncomplete++
				a.logger.Info("dropping incomplete posting",
					zap.String("source", s.status.Source),
					zap.String("reason", "missing title or company"),
					zap.String("title", posting.Title),
					zap.String("company", posting.Company),
				)
				continue
			}
			if posting.Source == "" {
				posting.Source = s.status.Source
			}
			if posting.Key == "" {
				posting.Normalize(now)
			}
			result.Postings = append(result.Postings, posting)
			kept++
		}
		status := s.status
		status.Postings = kept
		result.Statuses = append(result.Statuses, status)
	}

	a.logger.Info("aggregation complete",
		zap.Int("postings", len(result.Postings)),
		zap.Int("sources_failed", result.SourcesFailed()),
		zap.Int("dropped_incomplete", result.DroppedIncomplete),
	)

	return result, nil
}

func classifyFailure(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrQuotaExceeded):
		return "quota exceeded"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return err.Error()
	}
}
