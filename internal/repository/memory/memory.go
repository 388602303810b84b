// Package memory is the in-memory Repository used by default and in
// tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"jobscout/internal/job"
	"jobscout/internal/repository"
)

// Store is an in-memory repository.
type Store struct {
	mu       sync.RWMutex
	profiles map[string]*job.Profile
	projects map[string][]*job.Project
	postings map[string]*job.Posting
}

// New creates an empty store.
func New() *Store {
	return &Store{
		profiles: make(map[string]*job.Profile),
		projects: make(map[string][]*job.Project),
		postings: make(map[string]*job.Posting),
	}
}

// PutProfile stores a profile and its projects. Loader-side helper, not
// part of the Repository interface.
func (s *Store) PutProfile(profile *job.Profile, projects []*job.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.ID] = profile
	s.projects[profile.ID] = projects
}

func (s *Store) GetProfile(_ context.Context, id string) (*job.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[id]
	if !ok {
		return nil, fmt.Errorf("profile %s: %w", id, repository.ErrNotFound)
	}
	return profile, nil
}

func (s *Store) ListProjects(_ context.Context, profileID string) ([]*job.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projects[profileID], nil
}

func (s *Store) GetPosting(_ context.Context, key string) (*job.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posting, ok := s.postings[key]
	if !ok {
		return nil, fmt.Errorf("posting %s: %w", key, repository.ErrNotFound)
	}
	return posting, nil
}

func (s *Store) ListPostings(_ context.Context, q repository.Query) ([]*job.Posting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[string]struct{}, len(q.Keys))
	for _, key := range q.Keys {
		wanted[key] = struct{}{}
	}

	out := make([]*job.Posting, 0, len(s.postings))
	for _, posting := range s.postings {
		if q.Source != "" && posting.Source != q.Source {
			continue
		}
		if len(wanted) > 0 {
			if _, ok := wanted[posting.Key]; !ok {
				continue
			}
		}
		out = append(out, posting)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Key < out[b].Key })
	return out, nil
}

func (s *Store) UpsertPostings(_ context.Context, postings []*job.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, posting := range postings {
		if existing, ok := s.postings[posting.Key]; ok {
			existing.LastSeenAt = posting.LastSeenAt
			continue
		}
		s.postings[posting.Key] = posting
	}
	return nil
}
