package dedup

import (
	"testing"
	"time"

	"jobscout/internal/job"
)

func posting(source string, mutate ...func(*job.Posting)) *job.Posting {
	p := &job.Posting{
		Title:    "Go Engineer",
		Company:  "Acme",
		Location: "Paris",
		Source:   source,
	}
	for _, m := range mutate {
		m(p)
	}
	p.DeriveKey()
	return p
}

func TestDeduplicateKeepsMostComplete(t *testing.T) {
	bare := posting("adzuna")
	rich := posting("remotive", func(p *job.Posting) {
		p.Description = "Build services"
		p.URL = "https://example.com/1"
	})

	out := Deduplicate([]*job.Posting{bare, rich}, nil)
	if len(out) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(out))
	}
	if out[0] != rich {
		t.Fatalf("expected the more complete posting to survive, got source %s", out[0].Source)
	}
}

func TestDeduplicatePrefersNewerOnEqualCompleteness(t *testing.T) {
	older := posting("adzuna", func(p *job.Posting) {
		p.PostedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	})
	newer := posting("remotive", func(p *job.Posting) {
		p.PostedAt = time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	})

	out := Deduplicate([]*job.Posting{older, newer}, nil)
	if len(out) != 1 || out[0] != newer {
		t.Fatalf("expected the newer posting to survive, got %+v", out)
	}
}

func TestDeduplicateUsesSourcePriorityOnFullTie(t *testing.T) {
	when := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	a := posting("remotive", func(p *job.Posting) { p.PostedAt = when })
	b := posting("adzuna", func(p *job.Posting) { p.PostedAt = when })

	out := Deduplicate([]*job.Posting{a, b}, []string{"adzuna", "remotive"})
	if len(out) != 1 || out[0].Source != "adzuna" {
		t.Fatalf("expected adzuna to win by priority, got %s", out[0].Source)
	}

	// Without a priority list the source name decides.
	out = Deduplicate([]*job.Posting{a, b}, nil)
	if len(out) != 1 || out[0].Source != "adzuna" {
		t.Fatalf("expected adzuna to win alphabetically, got %s", out[0].Source)
	}
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	postings := []*job.Posting{
		posting("adzuna"),
		posting("remotive", func(p *job.Posting) { p.URL = "https://example.com/1" }),
		posting("headhunter", func(p *job.Posting) { p.Title = "Data Engineer" }),
	}

	once := Deduplicate(postings, nil)
	twice := Deduplicate(once, nil)

	if len(once) != 2 || len(twice) != len(once) {
		t.Fatalf("expected idempotent result of 2 postings, got %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("expected stable representatives at position %d", i)
		}
	}
}

func TestDeduplicatePreservesFirstOccurrenceOrder(t *testing.T) {
	first := posting("adzuna", func(p *job.Posting) { p.Title = "Backend Engineer" })
	second := posting("adzuna")
	duplicate := posting("remotive", func(p *job.Posting) { p.URL = "https://example.com/2" })

	out := Deduplicate([]*job.Posting{first, second, duplicate}, nil)
	if len(out) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(out))
	}
	if out[0].Key != first.Key {
		t.Fatalf("expected first-seen key to stay first, got %q", out[0].Key)
	}
	if out[1] != duplicate {
		t.Fatalf("expected the richer duplicate to represent the second group")
	}
}

func TestDeduplicateDerivesMissingKeys(t *testing.T) {
	p := &job.Posting{Title: "Go Engineer", Company: "Acme", Location: "Paris", Source: "adzuna"}

	out := Deduplicate([]*job.Posting{p}, nil)
	if len(out) != 1 || out[0].Key == "" {
		t.Fatalf("expected key to be derived, got %q", out[0].Key)
	}
}
