package source

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobscout/internal/job"
)

// Sentinel failure conditions connectors report instead of unstructured
// errors, so the aggregator can classify per-source status.
var (
	// ErrUnavailable marks a connector that is down, timing out or
	// returning malformed responses.
	ErrUnavailable = errors.New("source unavailable")
	// ErrQuotaExceeded marks a connector that rejected the request due
	// to rate or quota limits.
	ErrQuotaExceeded = errors.New("source quota exceeded")
	// ErrInvalidSearchSpec marks a caller error. The pipeline rejects
	// the request before any aggregation begins.
	ErrInvalidSearchSpec = errors.New("invalid search spec")
)

// SearchSpec describes one aggregation request.
type SearchSpec struct {
	Keywords     []string `mapstructure:"keywords"`
	Location     string   `mapstructure:"location"`
	Sources      []string `mapstructure:"sources"`
	MaxPerSource int      `mapstructure:"max-per-source"`
	MaxAgeDays   int      `mapstructure:"max-age-days"`
}

// Validate rejects specs the pipeline cannot serve. All violations are
// reported at once, wrapped in ErrInvalidSearchSpec.
func (s *SearchSpec) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: spec is required", ErrInvalidSearchSpec)
	}

	var problems []string
	if len(s.Keywords) == 0 {
		problems = append(problems, "at least one keyword is required")
	}
	if len(s.Sources) == 0 {
		problems = append(problems, "at least one source is required")
	}
	if s.MaxPerSource < 0 {
		problems = append(problems, "max-per-source must not be negative")
	}
	if s.MaxAgeDays <= 0 {
		problems = append(problems, "max-age-days must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSearchSpec, strings.Join(problems, "; "))
	}
	return nil
}

// Connector produces raw postings from one remote job board. Adapters
// translate their wire format into the canonical Posting shape at the
// boundary and fail with ErrUnavailable or ErrQuotaExceeded.
type Connector interface {
	Name() string
	Search(ctx context.Context, spec *SearchSpec) ([]*job.Posting, error)
}
