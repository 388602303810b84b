// Package pipeline wires the aggregation, dedup, filter, rank and
// selection stages behind the two entry points consumed by the CLI and
// dashboard layers.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"jobscout/internal/dedup"
	"jobscout/internal/filter"
	"jobscout/internal/index"
	"jobscout/internal/job"
	"jobscout/internal/rank"
	"jobscout/internal/repository"
	"jobscout/internal/selector"
	"jobscout/internal/source"

	"go.uber.org/zap"
)

// Reasons distinguishing valid empty results in the diagnostics summary.
const (
	ReasonAllSourcesFailed = "all sources failed"
	ReasonNoPostingsFound  = "no postings found"
	ReasonNothingMatched   = "no postings matched filters"
)

// embedWorkers bounds concurrent embedding upserts per batch.
const embedWorkers = 4

// Diagnostics summarizes the recoverable failures absorbed during one
// ranking request. An empty ranked list plus diagnostics is a valid,
// non-error outcome.
type Diagnostics struct {
	SourceStatuses           []source.Status
	SourcesFailed            int
	DroppedIncomplete        int
	Duplicates               int
	FilterSteps              []filter.Step
	EmbeddingFailures        int
	PostingsWithoutEmbedding int
	ProfileEmbeddingMissing  bool
	EmptyReason              string
}

// Request is one aggregate-and-rank invocation.
type Request struct {
	ProfileID string
	Search    *source.SearchSpec
	Filter    filter.Spec
	TopN      int
}

// Pipeline is the ranking pipeline with its external collaborators
// injected explicitly.
type Pipeline struct {
	repo       repository.Repository
	index      *index.Index
	aggregator *source.Aggregator
	weights    rank.Weights
	logger     *zap.Logger
	now        func() time.Time
}

// New builds a pipeline. Weights must already be validated.
func New(repo repository.Repository, idx *index.Index, aggregator *source.Aggregator, weights rank.Weights, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		repo:       repo,
		index:      idx,
		aggregator: aggregator,
		weights:    weights,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// AggregateAndRank runs the full pipeline: aggregate, dedup, persist,
// filter, embed, rank. Stage-local failures degrade the result and are
// recorded in the diagnostics; only spec errors, repository errors and
// cancellation propagate.
func (p *Pipeline) AggregateAndRank(ctx context.Context, req Request) ([]rank.RankedPosting, *Diagnostics, error) {
	if err := req.Search.Validate(); err != nil {
		return nil, nil, err
	}

	profile, err := p.repo.GetProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, nil, fmt.Errorf("get profile: %w", err)
	}

	diags := &Diagnostics{}

	collected, err := p.aggregator.Collect(ctx, req.Search)
	if err != nil {
		return nil, nil, err
	}
	diags.SourceStatuses = collected.Statuses
	diags.SourcesFailed = collected.SourcesFailed()
	diags.DroppedIncomplete = collected.DroppedIncomplete

	if len(collected.Postings) == 0 {
		if diags.SourcesFailed == len(collected.Statuses) && len(collected.Statuses) > 0 {
			diags.EmptyReason = ReasonAllSourcesFailed
		} else {
			diags.EmptyReason = ReasonNoPostingsFound
		}
		return nil, diags, nil
	}

	unique := dedup.Deduplicate(collected.Postings, req.Search.Sources)
	diags.Duplicates = len(collected.Postings) - len(unique)

	if err := p.repo.UpsertPostings(ctx, unique); err != nil {
		return nil, nil, fmt.Errorf("upsert postings: %w", err)
	}

	engine := filter.NewEngine(req.Filter, p.now, p.logger)
	filtered, steps := engine.Run(unique)
	diags.FilterSteps = steps

	if len(filtered) == 0 {
		diags.EmptyReason = ReasonNothingMatched
		return nil, diags, nil
	}

	diags.EmbeddingFailures = p.embedBatch(ctx, profile, filtered)

	ranker := rank.New(p.index, p.weights, req.Filter.MaxAgeDays, p.now)
	outcome := ranker.Rank(profile, filtered, req.TopN)
	diags.PostingsWithoutEmbedding = outcome.PostingsWithoutEmbedding
	diags.ProfileEmbeddingMissing = outcome.ProfileEmbeddingMissing

	p.logger.Info("ranking complete",
		zap.String("profile_id", req.ProfileID),
		zap.Int("candidates", len(filtered)),
		zap.Int("ranked", len(outcome.Ranked)),
		zap.Int("embedding_failures", diags.EmbeddingFailures),
	)

	return outcome.Ranked, diags, nil
}

// embedBatch upserts the profile embedding and the posting embeddings
// for the batch. Posting upserts run concurrently; ranking reads only
// after the wait barrier. Failures are counted, not propagated: ranking
// degrades to the attribute terms for the affected postings.
func (p *Pipeline) embedBatch(ctx context.Context, profile *job.Profile, postings []*job.Posting) int {
	var failures atomic.Int64

	if err := p.index.Upsert(ctx, profile.ID, index.KindProfile, profile.EmbeddingText()); err != nil {
		failures.Add(1)
		p.logger.Warn("profile embedding failed",
			zap.String("profile_id", profile.ID),
			zap.Error(err),
		)
	}

	work := make(chan *job.Posting)
	var wg sync.WaitGroup
	for i := 0; i < embedWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for posting := range work {
				if err := p.index.Upsert(ctx, posting.Key, index.KindPosting, posting.EmbeddingText()); err != nil {
					failures.Add(1)
					p.logger.Warn("posting embedding failed",
						zap.String("posting_key", posting.Key),
						zap.Error(err),
					)
				}
			}
		}()
	}
	for _, posting := range postings {
		work <- posting
	}
	close(work)
	wg.Wait()

	return int(failures.Load())
}

// SelectProjects picks the most relevant projects of the profile for one
// stored posting.
func (p *Pipeline) SelectProjects(ctx context.Context, profileID, postingKey string, maxProjects int) (*selector.Selection, error) {
	if _, err := p.repo.GetProfile(ctx, profileID); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	posting, err := p.repo.GetPosting(ctx, postingKey)
	if err != nil {
		return nil, fmt.Errorf("get posting: %w", err)
	}

	projects, err := p.repo.ListProjects(ctx, profileID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return selector.Select(profileID, projects, posting, maxProjects), nil
}
