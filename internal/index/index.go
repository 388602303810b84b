// Package index is an in-memory embedding index over opaque vectors.
// It owns no business semantics: upsert, cosine similarity and
// nearest-neighbor retrieval only.
package index

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"jobscout/internal/embedding"
)

// Kind is the entity kind a vector belongs to.
type Kind string

const (
	KindPosting Kind = "posting"
	KindProfile Kind = "profile"
	KindProject Kind = "project"
)

// Record is the current vector of one entity. At most one record exists
// per (entity id, kind); stale vectors are overwritten, never
// accumulated.
type Record struct {
	EntityID  string
	Kind      Kind
	Vector    []float32
	UpdatedAt time.Time
}

// Match is one nearest-neighbor result.
type Match struct {
	EntityID   string
	Similarity float64
}

// Index stores vector representations of postings, profiles and
// projects. Safe for concurrent callers; last writer wins per entity id.
type Index struct {
	mu       sync.RWMutex
	embedder embedding.Embedder
	records  map[Kind]map[string]Record
	now      func() time.Time
}

// New creates an index backed by the given embedding provider.
func New(embedder embedding.Embedder) *Index {
	return &Index{
		embedder: embedder,
		records:  make(map[Kind]map[string]Record),
		now:      time.Now,
	}
}

// WithClock overrides the time source. Used by tests.
func (i *Index) WithClock(now func() time.Time) *Index {
	i.now = now
	return i
}

// Upsert computes a vector for the text and stores it, replacing any
// existing vector for the (entityID, kind) pair.
func (i *Index) Upsert(ctx context.Context, entityID string, kind Kind, text string) error {
	vector, err := i.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed %s %s: %w", kind, entityID, err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.records[kind] == nil {
		i.records[kind] = make(map[string]Record)
	}
	i.records[kind][entityID] = Record{
		EntityID:  entityID,
		Kind:      kind,
		Vector:    vector,
		UpdatedAt: i.now(),
	}
	return nil
}

// Vector returns the current vector for the entity, if any.
func (i *Index) Vector(entityID string, kind Kind) ([]float32, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	rec, ok := i.records[kind][entityID]
	if !ok {
		return nil, false
	}
	return rec.Vector, true
}

// Nearest returns up to k entities of the given kind sorted by
// descending cosine similarity to the query vector, ties broken by
// entity id ascending.
func (i *Index) Nearest(kind Kind, query []float32, k int) []Match {
	i.mu.RLock()
	defer i.mu.RUnlock()

	matches := make([]Match, 0, len(i.records[kind]))
	for id, rec := range i.records[kind] {
		matches = append(matches, Match{EntityID: id, Similarity: Cosine(query, rec.Vector)})
	}

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Similarity != matches[b].Similarity {
			return matches[a].Similarity > matches[b].Similarity
		}
		return matches[a].EntityID < matches[b].EntityID
	})

	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// Cosine returns the cosine similarity of two vectors in [-1, 1]. A zero
// or empty vector yields 0.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, v := range a {
		normA += float64(v) * float64(v)
	}
	for _, v := range b {
		normB += float64(v) * float64(v)
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
