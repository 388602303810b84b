// Package rank computes composite match scores for postings against a
// profile and returns the top-N sorted list. The ranker is pure with
// respect to its inputs: same profile, candidates and embeddings always
// produce the same ordered output.
package rank

import (
	"sort"
	"strings"
	"time"

	"jobscout/internal/index"
	"jobscout/internal/job"
)

// Components is the per-term breakdown of a match score. Each component
// is independently in [0, 100] before weighting.
type Components struct {
	Semantic     float64 `json:"semantic"`
	SkillOverlap float64 `json:"skill_overlap"`
	Recency      float64 `json:"recency"`
	Location     float64 `json:"location"`
}

// MatchScore annotates one posting with its composite score in [0, 100]
// and 1-based rank position. Ephemeral: computed per ranking request,
// never persisted as system of record.
type MatchScore struct {
	PostingKey string     `json:"posting_key"`
	ProfileID  string     `json:"profile_id"`
	Composite  float64    `json:"composite"`
	Components Components `json:"components"`
	Rank       int        `json:"rank"`
}

// RankedPosting pairs a posting with its match score.
type RankedPosting struct {
	Posting *job.Posting `json:"posting"`
	Score   MatchScore   `json:"score"`
}

// Outcome carries ranking diagnostics alongside the ordered result.
type Outcome struct {
	Ranked                   []RankedPosting
	PostingsWithoutEmbedding int
	ProfileEmbeddingMissing  bool
}

// Ranker scores candidate postings against a profile.
type Ranker struct {
	index      *index.Index
	weights    Weights
	maxAgeDays int
	now        func() time.Time
}

// New creates a ranker. maxAgeDays is the same boundary the filter
// engine uses; recency decays linearly from 1.0 today to 0.0 there.
func New(idx *index.Index, weights Weights, maxAgeDays int, now func() time.Time) *Ranker {
	if now == nil {
		now = time.Now
	}
	return &Ranker{index: idx, weights: weights, maxAgeDays: maxAgeDays, now: now}
}

// Rank returns the top-N postings sorted descending by composite score.
// Postings lacking an embedding are not skipped: their semantic term
// degrades to 0 and the attribute terms carry the score.
func (r *Ranker) Rank(profile *job.Profile, postings []*job.Posting, topN int) *Outcome {
	outcome := &Outcome{Ranked: make([]RankedPosting, 0, len(postings))}
	now := r.now()

	profileVec, haveProfile := r.index.Vector(profile.ID, index.KindProfile)
	outcome.ProfileEmbeddingMissing = !haveProfile

	profileSkills := profile.SkillSet()

	for _, posting := range postings {
		semantic := 0.0
		postingVec, havePosting := r.index.Vector(posting.Key, index.KindPosting)
		if !havePosting {
			outcome.PostingsWithoutEmbedding++
		}
		if haveProfile && havePosting {
			// Rescale cosine from [-1, 1] to [0, 1].
			semantic = (index.Cosine(profileVec, postingVec) + 1) / 2
		}

		skillOverlap := skillOverlapTerm(profileSkills, posting.RequiredSkills)
		recency := r.recencyTerm(posting.PostedAt, now)
		location := locationTerm(profile.LocationPreference, posting.Location)

		components := Components{
			Semantic:     semantic * 100,
			SkillOverlap: skillOverlap * 100,
			Recency:      recency * 100,
			Location:     location * 100,
		}
		composite := semantic*r.weights.Semantic +
			skillOverlap*r.weights.SkillOverlap +
			recency*r.weights.Recency +
			location*r.weights.Location

		outcome.Ranked = append(outcome.Ranked, RankedPosting{
			Posting: posting,
			Score: MatchScore{
				PostingKey: posting.Key,
				ProfileID:  profile.ID,
				Composite:  composite,
				Components: components,
			},
		})
	}

	ranked := outcome.Ranked
	sort.Slice(ranked, func(a, b int) bool {
		sa, sb := ranked[a].Score, ranked[b].Score
		if sa.Composite != sb.Composite {
			return sa.Composite > sb.Composite
		}
		if sa.Components.Semantic != sb.Components.Semantic {
			return sa.Components.Semantic > sb.Components.Semantic
		}
		return sa.PostingKey < sb.PostingKey
	})

	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	for i := range ranked {
		ranked[i].Score.Rank = i + 1
	}
	outcome.Ranked = ranked

	return outcome
}

// skillOverlapTerm is the fraction of the posting's required skills the
// profile satisfies. Dividing by the posting's skill count can inflate
// single-skill postings; kept as observed pending product review.
func skillOverlapTerm(profileSkills map[string]struct{}, required []string) float64 {
	if len(required) == 0 {
		return 0
	}
	matched := 0
	for _, skill := range required {
		if _, ok := profileSkills[strings.ToLower(strings.TrimSpace(skill))]; ok {
			matched++
		}
	}
	return float64(matched) / float64(max(1, len(required)))
}

// recencyTerm decays linearly from 1.0 (posted today) to 0.0 at the
// maximum-age boundary. Older postings floor at 0.
func (r *Ranker) recencyTerm(postedAt, now time.Time) float64 {
	if postedAt.IsZero() || r.maxAgeDays <= 0 {
		return 0
	}
	ageDays := now.Sub(postedAt).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	term := 1 - ageDays/float64(r.maxAgeDays)
	if term < 0 {
		return 0
	}
	return term
}

// locationTerm scores 1.0 on exact case-insensitive match or when either
// side indicates remote, 0.5 on partial substring match, 0 otherwise.
// Missing data on either side scores 0 so that postings without a
// location never outrank ones that state a real mismatch.
func locationTerm(preference, location string) float64 {
	pref := strings.ToLower(strings.TrimSpace(preference))
	loc := strings.ToLower(strings.TrimSpace(location))

	if pref == "" || loc == "" {
		return 0
	}
	if pref == loc {
		return 1
	}
	if strings.Contains(pref, "remote") || strings.Contains(loc, "remote") {
		return 1
	}
	if strings.Contains(pref, loc) || strings.Contains(loc, pref) {
		return 0.5
	}
	return 0
}
