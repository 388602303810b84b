package job

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// SalaryRange is an optional salary annotation on a posting.
type SalaryRange struct {
	From     float64 `json:"from,omitempty" yaml:"from"`
	To       float64 `json:"to,omitempty" yaml:"to"`
	Currency string  `json:"currency,omitempty" yaml:"currency"`
}

// Posting is the canonical job posting shape. Connectors translate their
// wire formats into this at the boundary; once stored a posting is
// immutable except for LastSeenAt, refreshed on re-discovery.
type Posting struct {
	Key            string         `json:"key"`
	Title          string         `json:"title"`
	Company        string         `json:"company"`
	Location       string         `json:"location,omitempty"`
	Description    string         `json:"description,omitempty"`
	JobType        string         `json:"job_type,omitempty"`
	Salary         *SalaryRange   `json:"salary,omitempty"`
	PostedAt       time.Time      `json:"posted_at,omitempty"`
	LastSeenAt     time.Time      `json:"last_seen_at,omitempty"`
	Source         string         `json:"source"`
	Language       string         `json:"language,omitempty"`
	RequiredSkills []string       `json:"required_skills,omitempty"`
	URL            string         `json:"url,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// IdentityKey derives the posting identity from normalized title, company
// and location. Two postings with the same key are the same listing
// regardless of source.
func IdentityKey(title, company, location string) string {
	return strings.Join([]string{
		collapse(title),
		collapse(company),
		collapse(location),
	}, "|")
}

func collapse(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// DeriveKey fills in the identity key from the posting's own fields.
func (p *Posting) DeriveKey() {
	p.Key = IdentityKey(p.Title, p.Company, p.Location)
}

// Completeness counts the non-empty fields of the posting, attribute bag
// included. The deduplicator keeps the most complete representative of a
// duplicate group.
func (p *Posting) Completeness() int {
	n := 0
	for _, s := range []string{p.Title, p.Company, p.Location, p.Description, p.JobType, p.Language, p.URL} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	if p.Salary != nil {
		n++
	}
	if !p.PostedAt.IsZero() {
		n++
	}
	if len(p.RequiredSkills) > 0 {
		n++
	}
	for _, v := range p.Attributes {
		if v != nil {
			n++
		}
	}
	return n
}

// EmbeddingText renders the posting into the text fed to the embedding
// provider. Long descriptions are truncated to keep requests bounded.
func (p *Posting) EmbeddingText() string {
	parts := make([]string, 0, 6)
	if p.Title != "" {
		parts = append(parts, "Job Title: "+p.Title)
	}
	if p.Company != "" {
		parts = append(parts, "Company: "+p.Company)
	}
	if p.Location != "" {
		parts = append(parts, "Location: "+p.Location)
	}
	if p.JobType != "" {
		parts = append(parts, "Type: "+p.JobType)
	}
	if p.Description != "" {
		desc := p.Description
		if len(desc) > 500 {
			desc = desc[:500]
		}
		parts = append(parts, "Description: "+desc)
	}
	if len(p.RequiredSkills) > 0 {
		parts = append(parts, "Required Skills: "+strings.Join(p.RequiredSkills, ", "))
	}
	return strings.Join(parts, ". ")
}

// Postings is a collection of postings with reporting helpers.
type Postings struct {
	Items []*Posting
}

func (ps *Postings) Len() int {
	return len(ps.Items)
}

func (ps *Postings) FindByKey(key string) *Posting {
	for _, p := range ps.Items {
		if p.Key == key {
			return p
		}
	}
	return nil
}

// ReportByCompany groups brief posting summaries by company name.
func (ps *Postings) ReportByCompany() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, p := range ps.Items {
		entry := map[string]string{
			"title":    p.Title,
			"location": p.Location,
			"type":     p.JobType,
			"source":   p.Source,
			"url":      p.URL,
		}
		if p.Salary != nil {
			entry["salary"] = fmt.Sprintf("%.0f-%.0f %s", p.Salary.From, p.Salary.To, p.Salary.Currency)
		}
		report[p.Company] = append(report[p.Company], entry)
	}
	return report
}

// DumpToTmpFile writes the collection as indented JSON to a temp file and
// returns the file name.
func (ps *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ps); err != nil {
		return "", err
	}
	return file.Name(), nil
}
