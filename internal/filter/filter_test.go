package filter

import (
	"testing"
	"time"

	"jobscout/internal/job"

	"go.uber.org/zap"
)

var testNow = time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func run(t *testing.T, spec Spec, postings []*job.Posting) ([]*job.Posting, []Step) {
	t.Helper()
	engine := NewEngine(spec, fixedClock, zap.NewNop())
	return engine.Run(postings)
}

func TestKeywordFilterMatchesAnyKeyword(t *testing.T) {
	postings := []*job.Posting{
		{Key: "1", Title: "Go Engineer"},
		{Key: "2", Title: "Accountant", Description: "Some Python scripting"},
		{Key: "3", Title: "Accountant"},
	}

	out, _ := run(t, Spec{Keywords: []string{"go", "python"}}, postings)
	if len(out) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(out))
	}
	if out[0].Key != "1" || out[1].Key != "2" {
		t.Fatalf("unexpected survivors: %v, %v", out[0].Key, out[1].Key)
	}
}

func TestFiltersCombineWithAnd(t *testing.T) {
	postings := []*job.Posting{
		{Key: "1", Title: "Go Engineer", Location: "Paris", JobType: "Full-time", Language: "en"},
		{Key: "2", Title: "Go Engineer", Location: "Lyon", JobType: "Full-time", Language: "en"},
		{Key: "3", Title: "Go Engineer", Location: "Paris", JobType: "Internship", Language: "en"},
		{Key: "4", Title: "Go Engineer", Location: "Paris", JobType: "Full-time", Language: "ru"},
	}

	spec := Spec{
		Keywords: []string{"go"},
		Location: "paris",
		JobTypes: []string{"Full-time"},
		Language: "en",
	}

	out, steps := run(t, spec, postings)
	if len(out) != 1 || out[0].Key != "1" {
		t.Fatalf("expected only posting 1 to survive, got %+v", out)
	}
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
}

func TestAgeFilterBoundary(t *testing.T) {
	cutoff := testNow.AddDate(0, 0, -30)
	postings := []*job.Posting{
		{Key: "at-cutoff", PostedAt: cutoff},
		{Key: "inside", PostedAt: cutoff.Add(time.Hour)},
		{Key: "outside", PostedAt: cutoff.Add(-time.Hour)},
		{Key: "undated"},
	}

	out, _ := run(t, Spec{MaxAgeDays: 30}, postings)
	if len(out) != 3 {
		t.Fatalf("expected 3 postings, got %d", len(out))
	}
	for _, p := range out {
		if p.Key == "outside" {
			t.Fatalf("expected posting older than the cutoff to be dropped")
		}
	}
}

func TestLanguageFilterIsCaseInsensitiveEquality(t *testing.T) {
	postings := []*job.Posting{
		{Key: "1", Language: "EN"},
		{Key: "2", Language: "en-GB"},
		{Key: "3", Language: "ru"},
	}

	out, _ := run(t, Spec{Language: "en"}, postings)
	if len(out) != 1 || out[0].Key != "1" {
		t.Fatalf("expected exact language match only, got %+v", out)
	}
}

func TestEmptySpecPassesEverythingThrough(t *testing.T) {
	postings := []*job.Posting{{Key: "1"}, {Key: "2"}}

	out, steps := run(t, Spec{}, postings)
	if len(out) != 2 {
		t.Fatalf("expected all postings to pass, got %d", len(out))
	}
	if len(steps) != 0 {
		t.Fatalf("expected no steps for an empty spec, got %d", len(steps))
	}
}

func TestStepStatisticsAccounting(t *testing.T) {
	postings := []*job.Posting{
		{Key: "1", Title: "Go Engineer"},
		{Key: "2", Title: "Accountant"},
		{Key: "3", Title: "Go Developer"},
	}

	_, steps := run(t, Spec{Keywords: []string{"go"}}, postings)
	if len(steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(steps))
	}
	step := steps[0]
	if step.Name != "keywords" || step.Initial != 3 || step.Dropped != 1 || step.Left != 2 {
		t.Fatalf("unexpected step stats: %+v", step)
	}
}
