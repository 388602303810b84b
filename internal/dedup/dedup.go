// Package dedup collapses postings that represent the same real-world
// listing using the normalized identity key.
package dedup

import (
	"jobscout/internal/job"
)

// Deduplicate returns one representative per identity key, in the order
// each key first appears in the input. The representative choice is
// deterministic: most complete attribute bag, then most recent posting
// date, then source priority (earlier in sourcePriority wins), then
// source name ascending. Running it twice yields the same set.
func Deduplicate(postings []*job.Posting, sourcePriority []string) []*job.Posting {
	priority := make(map[string]int, len(sourcePriority))
	for i, name := range sourcePriority {
		priority[name] = i
	}

	best := make(map[string]*job.Posting, len(postings))
	order := make([]string, 0, len(postings))

	for _, candidate := range postings {
		key := candidate.Key
		if key == "" {
			key = job.IdentityKey(candidate.Title, candidate.Company, candidate.Location)
			candidate.Key = key
		}

		current, ok := best[key]
		if !ok {
			best[key] = candidate
			order = append(order, key)
			continue
		}
		if prefer(candidate, current, priority) {
			best[key] = candidate
		}
	}

	out := make([]*job.Posting, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// prefer reports whether a should replace b as the representative of
// their duplicate group.
func prefer(a, b *job.Posting, priority map[string]int) bool {
	if ca, cb := a.Completeness(), b.Completeness(); ca != cb {
		return ca > cb
	}
	if !a.PostedAt.Equal(b.PostedAt) {
		return a.PostedAt.After(b.PostedAt)
	}
	if pa, pb := sourceRank(a.Source, priority), sourceRank(b.Source, priority); pa != pb {
		return pa < pb
	}
	return a.Source < b.Source
}

func sourceRank(source string, priority map[string]int) int {
	if rank, ok := priority[source]; ok {
		return rank
	}
	return len(priority)
}
