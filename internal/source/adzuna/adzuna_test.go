package adzuna

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jobscout/internal/source"

	"go.uber.org/zap"
)

const adzunaResponse = `{
  "results": [
    {
      "title": "Go Engineer",
      "description": "Build Go services with Docker",
      "created": "2026-01-10T08:30:00Z",
      "salary_min": 50000,
      "salary_max": 70000,
      "redirect_url": "https://adzuna.com/details/1",
      "company": {"display_name": "Acme"},
      "location": {"display_name": "Paris, Ile-de-France"},
      "contract_time": "full_time"
    },
    {
      "title": "Data Engineer",
      "description": "Python pipelines",
      "company": {"display_name": "Globex"},
      "location": {"display_name": "Lyon"},
      "contract_type": "contract"
    }
  ]
}`

func testConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New("app-id", "app-key", "fr", zap.NewNop())
	c.APIURL = server.URL
	return c
}

func TestSearchParsesResults(t *testing.T) {
	var gotPath, gotQuery string
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(adzunaResponse))
	})

	postings, err := c.Search(context.Background(), &source.SearchSpec{
		Keywords:     []string{"go", "backend"},
		Location:     "Paris",
		MaxPerSource: 25,
		MaxAgeDays:   30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/fr/search/1" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	for _, want := range []string{"app_id=app-id", "app_key=app-key", "max_days_old=30", "results_per_page=25", "where=Paris"} {
		if !strings.Contains(gotQuery, want) {
			t.Fatalf("expected %q in query %q", want, gotQuery)
		}
	}

	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.Title != "Go Engineer" || p.Company != "Acme" {
		t.Fatalf("unexpected posting: %+v", p)
	}
	if p.Location != "Paris" {
		t.Fatalf("expected normalized location, got %q", p.Location)
	}
	if p.JobType != "Full-time" {
		t.Fatalf("expected normalized job type, got %q", p.JobType)
	}
	if p.Salary == nil || p.Salary.From != 50000 {
		t.Fatalf("unexpected salary: %+v", p.Salary)
	}
	if p.PostedAt.IsZero() {
		t.Fatalf("expected created date to be parsed")
	}

	// contract_type backfills a missing contract_time.
	if postings[1].JobType != "Contract" {
		t.Fatalf("expected contract type fallback, got %q", postings[1].JobType)
	}
}

func TestSearchQuotaExceeded(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), &source.SearchSpec{Keywords: []string{"go"}, MaxAgeDays: 30})
	if !errors.Is(err, source.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestSearchUnavailable(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Search(context.Background(), &source.SearchSpec{Keywords: []string{"go"}, MaxAgeDays: 30})
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
