// Package headhunter adapts the HeadHunter API to the connector
// contract.
package headhunter

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
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
	apiURL     = "https://api.hh.ru"
	searchPath = "/vacancies"
	userAgent  = "jobscout"
	// Max value for search per page.
	perPage = 100
)

// Connector is the HeadHunter source connector.
type Connector struct {
	token      string
	APIURL     string
	UserAgent  string
	HTTPClient *http.Client
	logger     *zap.Logger
}

// New creates a HeadHunter connector. The token may be empty for
// anonymous search.
func New(token string, logger *zap.Logger) *Connector {
	return &Connector{
		token:  token,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		UserAgent: userAgent,
		logger:    logger,
	}
}

func (c *Connector) Name() string { return "headhunter" }

type vacancy struct {
	Name string `json:"name"`
	Area struct {
		Name string `json:"name"`
	} `json:"area"`
	Employer struct {
		Name string `json:"name"`
	} `json:"employer"`
	Salary struct {
		From     float64 `json:"from"`
		To       float64 `json:"to"`
		Currency string  `json:"currency"`
	} `json:"salary"`
	Schedule struct {
		ID string `json:"id"`
	} `json:"schedule"`
	Employment struct {
		Name string `json:"name"`
	} `json:"employment"`
	Snippet struct {
		Requirement    string `json:"requirement"`
		Responsibility string `json:"responsibility"`
	} `json:"snippet"`
	PublishedAt  string `json:"published_at"`
	AlternateURL string `json:"alternate_url"`
}

type itemResponse struct {
	Items   []map[string]any `json:"items"`
	Found   int              `json:"found"`
	Pages   int              `json:"pages"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// Search implements source.Connector. Results are collected from all
// pages up to the per-source cap.
func (c *Connector) Search(ctx context.Context, spec *source.SearchSpec) ([]*job.Posting, error) {
	limit := spec.MaxPerSource
	pageSize := perPage
	if limit > 0 && limit < pageSize {
		pageSize = limit
	}

	q := url.Values{}
	q.Set("text", strings.Join(spec.Keywords, " OR "))
	q.Set("period", strconv.Itoa(spec.MaxAgeDays))
	q.Set("per_page", strconv.Itoa(pageSize))

	items, err := c.getItems(ctx, c.APIURL+searchPath, q, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	postings := make([]*job.Posting, 0, len(items))
	for _, item := range items {
		posting, err := c.parse(item, now)
		if err != nil {
			c.logger.Debug("skipping unparseable vacancy", zap.Error(err))
			continue
		}
		postings = append(postings, posting)
	}

	c.logger.Debug("headhunter search complete", zap.Int("postings", len(postings)))
	return postings, nil
}

// getItems requests all pages until the limit is reached.
func (c *Connector) getItems(ctx context.Context, endpoint string, q url.Values, limit int) ([]map[string]any, error) {
	var items []map[string]any

	page := 0
	for {
		q.Set("page", strconv.Itoa(page))

		response, err := c.getPage(ctx, endpoint, q)
		if err != nil {
			return nil, err
		}

		items = append(items, response.Items...)

		if limit > 0 && len(items) >= limit {
			return items[:limit], nil
		}
		if response.Page >= response.Pages-1 {
			return items, nil
		}
		page = response.Page + 1
	}
}

func (c *Connector) getPage(ctx context.Context, endpoint string, q url.Values) (*itemResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.URL.RawQuery = q.Encode()

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("headhunter request: %v: %w", err, source.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("headhunter: %w", source.ErrQuotaExceeded)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("headhunter: bad status %s: %w", resp.Status, source.ErrUnavailable)
	}

	var body io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("headhunter: gzip: %v: %w", err, source.ErrUnavailable)
		}
		defer gzipReader.Close()
		body = gzipReader
	}

	var response itemResponse
	if err := json.NewDecoder(body).Decode(&response); err != nil {
		return nil, fmt.Errorf("headhunter: decode response: %v: %w", err, source.ErrUnavailable)
	}
	return &response, nil
}

func (c *Connector) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Content-Type", "application/json")
}

func (c *Connector) parse(item map[string]any, now time.Time) (*job.Posting, error) {
	var v vacancy
	cfg := &mapstructure.DecoderConfig{
		Result:           &v,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, _ := mapstructure.NewDecoder(cfg)
	if err := decoder.Decode(item); err != nil {
		return nil, err
	}

	description := strings.TrimSpace(v.Snippet.Requirement + " " + v.Snippet.Responsibility)

	posting := &job.Posting{
		Title:          v.Name,
		Company:        v.Employer.Name,
		Location:       v.Area.Name,
		Description:    description,
		JobType:        v.Employment.Name,
		URL:            v.AlternateURL,
		Source:         c.Name(),
		Language:       "ru",
		RequiredSkills: job.ExtractSkills(v.Name + " " + description),
		Attributes:     item,
	}
	if v.Schedule.ID == "remote" {
		posting.Location = "Remote"
	}
	if v.Salary.From > 0 || v.Salary.To > 0 {
		posting.Salary = &job.SalaryRange{From: v.Salary.From, To: v.Salary.To, Currency: v.Salary.Currency}
	}
	if v.PublishedAt != "" {
		if published, err := time.Parse("2006-01-02T15:04:05-0700", v.PublishedAt); err == nil {
			posting.PostedAt = published
		}
	}

	posting.Normalize(now)
	return posting, nil
}
