package remotive

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"jobscout/internal/source"

	"go.uber.org/zap"
)

const remotiveResponse = `{
  "jobs": [
    {
      "title": "Senior Go Engineer",
      "company_name": "Acme",
      "candidate_required_location": "Worldwide",
      "job_type": "full_time",
      "publication_date": "2026-01-10T08:30:00",
      "description": "<p>Build Go services with PostgreSQL</p>",
      "url": "https://remotive.com/jobs/1",
      "tags": ["go", "postgresql"]
    },
    {
      "title": "Data Analyst",
      "company_name": "Globex",
      "job_type": "contract",
      "description": "SQL reporting",
      "url": "https://remotive.com/jobs/2"
    }
  ]
}`

func testConnector(t *testing.T, handler http.HandlerFunc) *Connector {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New(zap.NewNop())
	c.APIURL = server.URL
	return c
}

func TestSearchParsesListings(t *testing.T) {
	var gotQuery string
	c := testConnector(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(remotiveResponse))
	})

	postings, err := c.Search(context.Background(), &source.SearchSpec{
		Keywords:     []string{"go"},
		MaxPerSource: 10,
		MaxAgeDays:   30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotQuery != "limit=10&search=go" {
		t.Fatalf("unexpected query: %q", gotQuery)
	}
	if len(postings) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(postings))
	}

	p := postings[0]
	if p.Title != "Senior Go Engineer" || p.Company != "Acme" {
		t.Fatalf("unexpected posting: %+v", p)
	}
	if p.Location != "Remote" {
		t.Fatalf("expected remote location, got %q", p.Location)
	}
	if p.JobType != "Full-time" {
		t.Fatalf("expected normalized job type, got %q", p.JobType)
	}
	if p.PostedAt.IsZero() {
		t.Fatalf("expected publication date to be parsed")
	}
	if len(p.RequiredSkills) != 2 {
		t.Fatalf("expected tags as skills, got %v", p.RequiredSkills)
	}
	if p.Key == "" {
		t.Fatalf("expected derived key")
	}

	// No tags on the second listing: skills are mined from the text.
	if len(postings[1].RequiredSkills) == 0 {
		t.Fatalf("expected extracted skills, got none")
	}
}

func TestSearchQuotaExceeded(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.Search(context.Background(), &source.SearchSpec{Keywords: []string{"go"}})
	if !errors.Is(err, source.ErrQuotaExceeded) {
		t.Fatalf("expected quota error, got %v", err)
	}
}

func TestSearchUnavailable(t *testing.T) {
	c := testConnector(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Search(context.Background(), &source.SearchSpec{Keywords: []string{"go"}})
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
