// Package redis is a Repository backed by redis. Postings, profiles and
// projects are stored as JSON values under a common key prefix.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"jobscout/internal/job"
	"jobscout/internal/repository"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "jobscout"

// Config holds the redis connection settings.
type Config struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key-prefix"`
}

// Store is a redis-backed repository.
type Store struct {
	client *redis.Client
	prefix string
}

// New connects to redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = defaultPrefix
	}

	return &Store{client: client, prefix: prefix}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) profileKey(id string) string  { return s.prefix + ":profile:" + id }
func (s *Store) projectsKey(id string) string { return s.prefix + ":projects:" + id }
func (s *Store) postingKey(key string) string { return s.prefix + ":posting:" + key }
func (s *Store) postingSetKey() string        { return s.prefix + ":postings" }

// PutProfile stores a profile and its projects.
func (s *Store) PutProfile(ctx context.Context, profile *job.Profile, projects []*job.Project) error {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	projectsJSON, err := json.Marshal(projects)
	if err != nil {
		return fmt.Errorf("marshal projects: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.profileKey(profile.ID), profileJSON, 0)
	pipe.Set(ctx, s.projectsKey(profile.ID), projectsJSON, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store profile %s: %w", profile.ID, err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (*job.Profile, error) {
	data, err := s.client.Get(ctx, s.profileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("profile %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}

	var profile job.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", id, err)
	}
	return &profile, nil
}

func (s *Store) ListProjects(ctx context.Context, profileID string) ([]*job.Project, error) {
	data, err := s.client.Get(ctx, s.projectsKey(profileID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list projects %s: %w", profileID, err)
	}

	var projects []*job.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("decode projects %s: %w", profileID, err)
	}
	return projects, nil
}

func (s *Store) GetPosting(ctx context.Context, key string) (*job.Posting, error) {
	data, err := s.client.Get(ctx, s.postingKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("posting %s: %w", key, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get posting %s: %w", key, err)
	}

	var posting job.Posting
	if err := json.Unmarshal(data, &posting); err != nil {
		return nil, fmt.Errorf("decode posting %s: %w", key, err)
	}
	return &posting, nil
}

func (s *Store) ListPostings(ctx context.Context, q repository.Query) ([]*job.Posting, error) {
	keys := q.Keys
	if len(keys) == 0 {
		var err error
		keys, err = s.client.SMembers(ctx, s.postingSetKey()).Result()
		if err != nil {
			return nil, fmt.Errorf("list posting keys: %w", err)
		}
	}

	out := make([]*job.Posting, 0, len(keys))
	for _, key := range keys {
		posting, err := s.GetPosting(ctx, key)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if q.Source != "" && posting.Source != q.Source {
			continue
		}
		out = append(out, posting)
	}
	return out, nil
}

// UpsertPostings stores new postings and refreshes LastSeenAt on ones
// already present.
func (s *Store) UpsertPostings(ctx context.Context, postings []*job.Posting) error {
	for _, posting := range postings {
		existing, err := s.GetPosting(ctx, posting.Key)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// new posting, store as-is
		case err != nil:
			return err
		default:
			refreshed := *existing
			refreshed.LastSeenAt = posting.LastSeenAt
			posting = &refreshed
		}

		data, err := json.Marshal(posting)
		if err != nil {
			return fmt.Errorf("marshal posting %s: %w", posting.Key, err)
		}

		pipe := s.client.TxPipeline()
		pipe.Set(ctx, s.postingKey(posting.Key), data, 0)
		pipe.SAdd(ctx, s.postingSetKey(), posting.Key)
		if _, err := pipe.Exec(ctx); err != nil {
			return fmt.Errorf("store posting %s: %w", posting.Key, err)
		}
	}
	return nil
}
