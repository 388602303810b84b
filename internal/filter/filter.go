// Package filter applies user-declared predicates to a deduplicated
// posting set. Predicates combine with logical AND; the keyword
// predicate matches when at least one keyword is present.
package filter

import (
	"strings"
	"time"

	"jobscout/internal/job"

	"go.uber.org/zap"
)

// Spec declares the predicates of one filtering request. Zero-valued
// fields disable the corresponding predicate.
type Spec struct {
	Keywords   []string `mapstructure:"keywords"`
	Location   string   `mapstructure:"location"`
	JobTypes   []string `mapstructure:"job-types"`
	MaxAgeDays int      `mapstructure:"max-age-days"`
	Language   string   `mapstructure:"language"`
}

// Step describes the result of executing a filtering step.
type Step struct {
	Name    string
	Initial int
	Dropped int
	Left    int
}

// Filter is a single filtering step.
type Filter interface {
	Name() string
	Apply(postings []*job.Posting) []*job.Posting
}

// Engine runs the steps derived from a Spec sequentially.
type Engine struct {
	steps  []Filter
	logger *zap.Logger
}

// NewEngine builds the filtering steps for the spec. The age cutoff is
// computed from now at run time, not at scrape time.
func NewEngine(spec Spec, now func() time.Time, logger *zap.Logger) *Engine {
	if now == nil {
		now = time.Now
	}

	var steps []Filter
	if len(spec.Keywords) > 0 {
		steps = append(steps, &keywordFilter{keywords: lowerAll(spec.Keywords)})
	}
	if strings.TrimSpace(spec.Location) != "" {
		steps = append(steps, &locationFilter{location: strings.ToLower(strings.TrimSpace(spec.Location))})
	}
	if len(spec.JobTypes) > 0 {
		steps = append(steps, &jobTypeFilter{jobTypes: lowerAll(spec.JobTypes)})
	}
	if spec.MaxAgeDays > 0 {
		steps = append(steps, &ageFilter{maxAgeDays: spec.MaxAgeDays, now: now})
	}
	if strings.TrimSpace(spec.Language) != "" {
		steps = append(steps, &languageFilter{language: strings.ToLower(strings.TrimSpace(spec.Language))})
	}

	return &Engine{steps: steps, logger: logger}
}

// Run applies every step and returns the surviving postings plus
// per-step statistics.
func (e *Engine) Run(postings []*job.Posting) ([]*job.Posting, []Step) {
	stats := make([]Step, 0, len(e.steps))
	for _, step := range e.steps {
		initial := len(postings)
		postings = step.Apply(postings)

		info := Step{
			Name:    step.Name(),
			Initial: initial,
			Dropped: initial - len(postings),
			Left:    len(postings),
		}
		stats = append(stats, info)

		if e.logger != nil {
			e.logger.Info("filter step",
				zap.String("name", info.Name),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}
	}
	return postings, stats
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func keep(postings []*job.Posting, pred func(*job.Posting) bool) []*job.Posting {
	out := postings[:0:0]
	for _, p := range postings {
		if pred(p) {
			out = append(out, p)
		}
	}
	return out
}

type keywordFilter struct {
	keywords []string
}

func (f *keywordFilter) Name() string { return "keywords" }

// Apply keeps postings whose title or description contains at least one
// keyword, case-insensitively.
func (f *keywordFilter) Apply(postings []*job.Posting) []*job.Posting {
	return keep(postings, func(p *job.Posting) bool {
		text := strings.ToLower(p.Title + " " + p.Description)
		for _, kw := range f.keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
		return false
	})
}

type locationFilter struct {
	location string
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Apply(postings []*job.Posting) []*job.Posting {
	return keep(postings, func(p *job.Posting) bool {
		return strings.Contains(strings.ToLower(p.Location), f.location)
	})
}

type jobTypeFilter struct {
	jobTypes []string
}

func (f *jobTypeFilter) Name() string { return "job_type" }

func (f *jobTypeFilter) Apply(postings []*job.Posting) []*job.Posting {
	return keep(postings, func(p *job.Posting) bool {
		jobType := strings.ToLower(p.JobType)
		for _, accepted := range f.jobTypes {
			if jobType == accepted {
				return true
			}
		}
		return false
	})
}

type ageFilter struct {
	maxAgeDays int
	now        func() time.Time
}

func (f *ageFilter) Name() string { return "age" }

// Apply excludes postings older than now minus the maximum age. The
// cutoff moves with the clock, so the same stored postings filtered at
// two different times may yield different results. Postings without a
// date are kept.
func (f *ageFilter) Apply(postings []*job.Posting) []*job.Posting {
	cutoff := f.now().AddDate(0, 0, -f.maxAgeDays)
	return keep(postings, func(p *job.Posting) bool {
		if p.PostedAt.IsZero() {
			return true
		}
		return !p.PostedAt.Before(cutoff)
	})
}

type languageFilter struct {
	language string
}

func (f *languageFilter) Name() string { return "language" }

func (f *languageFilter) Apply(postings []*job.Posting) []*job.Posting {
	return keep(postings, func(p *job.Posting) bool {
		return strings.EqualFold(p.Language, f.language)
	})
}
