// Package repository defines the narrow persistence interface the
// pipeline reads and writes through. Schema and transaction management
// belong to the implementations.
package repository

import (
	"context"
	"errors"

	"jobscout/internal/job"
)

// ErrNotFound is returned when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Query narrows a posting listing.
type Query struct {
	Source string
	Keys   []string
}

// Repository is the persistent store seen by the pipeline.
type Repository interface {
	GetProfile(ctx context.Context, id string) (*job.Profile, error)
	ListProjects(ctx context.Context, profileID string) ([]*job.Project, error)
	GetPosting(ctx context.Context, key string) (*job.Posting, error)
	ListPostings(ctx context.Context, q Query) ([]*job.Posting, error)
	// UpsertPostings stores new postings and refreshes LastSeenAt on
	// re-discovered ones; stored postings are otherwise immutable.
	UpsertPostings(ctx context.Context, postings []*job.Posting) error
}
