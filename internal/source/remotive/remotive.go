// Package remotive adapts the Remotive remote-jobs API to the connector
// contract. Every posting it yields is remote by definition.
package remotive

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"jobscout/internal/job"
	"jobscout/internal/source"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const apiURL = "https://remotive.com/api/remote-jobs"

// Connector is the Remotive source connector.
type Connector struct {
	APIURL     string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// New creates a Remotive connector. The API needs no credentials.
func New(logger *zap.Logger) *Connector {
	return &Connector{
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (c *Connector) Name() string { return "remotive" }

type listing struct {
	Title           string   `json:"title"`
	CompanyName     string   `json:"company_name"`
	Location        string   `json:"candidate_required_location"`
	JobType         string   `json:"job_type"`
	PublicationDate string   `json:"publication_date"`
	Salary          string   `json:"salary"`
	Description     string   `json:"description"`
	URL             string   `json:"url"`
	Tags            []string `json:"tags"`
}

// Search implements source.Connector.
func (c *Connector) Search(ctx context.Context, spec *source.SearchSpec) ([]*job.Posting, error) {
	q := url.Values{}
	q.Set("search", strings.Join(spec.Keywords, " "))
	if spec.MaxPerSource > 0 {
		q.Set("limit", strconv.Itoa(spec.MaxPerSource))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remotive request: %v: %w", err, source.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("remotive: %w", source.ErrQuotaExceeded)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("remotive: bad status %s: %w", resp.Status, source.ErrUnavailable)
	}

	var payload struct {
		Jobs []map[string]any `json:"jobs"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("remotive: decode response: %v: %w", err, source.ErrUnavailable)
	}

	now := time.Now()
	postings := make([]*job.Posting, 0, len(payload.Jobs))
	for _, item := range payload.Jobs {
		posting, err := c.parse(item, now)
		if err != nil {
			c.logger.Debug("skipping unparseable remotive job", zap.Error(err))
			continue
		}
		postings = append(postings, posting)
	}

	c.logger.Debug("remotive search complete", zap.Int("postings", len(postings)))
	return postings, nil
}

func (c *Connector) parse(item map[string]any, now time.Time) (*job.Posting, error) {
	var l listing
	cfg := &mapstructure.DecoderConfig{
		Result:  &l,
		TagName: "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(item); err != nil {
		return nil, err
	}

	skills := l.Tags
	if len(skills) == 0 {
		skills = job.ExtractSkills(l.Title + " " + l.Description)
	}

	posting := &job.Posting{
		Title:          l.Title,
		Company:        l.CompanyName,
		Location:       "Remote",
		Description:    l.Description,
		JobType:        l.JobType,
		URL:            l.URL,
		Source:         c.Name(),
		RequiredSkills: skills,
		Attributes:     item,
	}
	if l.PublicationDate != "" {
		if published, err := time.Parse("2006-01-02T15:04:05", l.PublicationDate); err == nil {
			posting.PostedAt = published
		}
	}

	posting.Normalize(now)
	return posting, nil
}
