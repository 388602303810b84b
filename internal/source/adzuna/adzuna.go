// Package adzuna adapts the Adzuna REST API to the connector contract.
package adzuna

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

const (
	apiURL         = "https://api.adzuna.com/v1/api/jobs"
	defaultCountry = "fr"
	maxPerPage     = 50
)

// Connector is the Adzuna source connector.
type Connector struct {
	AppID      string
	AppKey     string
	Country    string
	APIURL     string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// New creates an Adzuna connector.
func New(appID, appKey, country string, logger *zap.Logger) *Connector {
	if country == "" {
		country = defaultCountry
	}
	return &Connector{
		AppID:   appID,
		AppKey:  appKey,
		Country: country,
		APIURL:  apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

func (c *Connector) Name() string { return "adzuna" }

// result mirrors the fields of one Adzuna search result we consume. The
// full item stays attached to the posting as the raw attribute bag.
type result struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Created     string  `json:"created"`
	SalaryMin   float64 `json:"salary_min"`
	SalaryMax   float64 `json:"salary_max"`
	RedirectURL string  `json:"redirect_url"`
	Company     struct {
		DisplayName string `json:"display_name"`
	} `json:"company"`
	Location struct {
		DisplayName string `json:"display_name"`
	} `json:"location"`
	ContractTime string `json:"contract_time"`
	ContractType string `json:"contract_type"`
}

// Search implements source.Connector.
func (c *Connector) Search(ctx context.Context, spec *source.SearchSpec) ([]*job.Posting, error) {
	perPage := spec.MaxPerSource
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}

	q := url.Values{}
	q.Set("app_id", c.AppID)
	q.Set("app_key", c.AppKey)
	q.Set("what_or", strings.Join(spec.Keywords, " "))
	q.Set("max_days_old", strconv.Itoa(spec.MaxAgeDays))
	q.Set("results_per_page", strconv.Itoa(perPage))
	q.Set("content-type", "application/json")
	if spec.Location != "" {
		q.Set("where", spec.Location)
	}

	endpoint := fmt.Sprintf("%s/%s/search/1", c.APIURL, c.Country)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.URL.RawQuery = q.Encode()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("adzuna request: %v: %w", err, source.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("adzuna: %w", source.ErrQuotaExceeded)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("adzuna: bad status %s: %w", resp.Status, source.ErrUnavailable)
	}

	var payload struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("adzuna: decode response: %v: %w", err, source.ErrUnavailable)
	}

	now := time.Now()
	postings := make([]*job.Posting, 0, len(payload.Results))
	for _, item := range payload.Results {
		posting, err := c.parse(item, now)
		if err != nil {
			c.logger.Debug("skipping unparseable adzuna result", zap.Error(err))
			continue
		}
		postings = append(postings, posting)
	}

	c.logger.Debug("adzuna search complete", zap.Int("postings", len(postings)))
	return postings, nil
}

func (c *Connector) parse(item map[string]any, now time.Time) (*job.Posting, error) {
	var r result
	cfg := &mapstructure.DecoderConfig{
		Result:  &r,
		TagName: "json",
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(item); err != nil {
		return nil, err
	}

	posting := &job.Posting{
		Title:          r.Title,
		Company:        r.Company.DisplayName,
		Location:       r.Location.DisplayName,
		Description:    r.Description,
		JobType:        r.ContractTime,
		URL:            r.RedirectURL,
		Source:         c.Name(),
		RequiredSkills: job.ExtractSkills(r.Title + " " + r.Description),
		Attributes:     item,
	}
	if posting.JobType == "" {
		posting.JobType = r.ContractType
	}
	if r.SalaryMin > 0 || r.SalaryMax > 0 {
		posting.Salary = &job.SalaryRange{From: r.SalaryMin, To: r.SalaryMax}
	}
	if r.Created != "" {
		if created, err := time.Parse(time.RFC3339, r.Created); err == nil {
			posting.PostedAt = created
		}
	}

	posting.Normalize(now)
	return posting, nil
}
