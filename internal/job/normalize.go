package job

import (
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	htmlTagRe = regexp.MustCompile(`<[^>]+>`)
	urlRe     = regexp.MustCompile(`http[s]?://\S+`)
)

const maxDescriptionLen = 2000

// Normalize cleans up a connector-produced posting in place and derives
// its identity key. Connectors call it once, right after translating
// their wire format.
func (p *Posting) Normalize(now time.Time) {
	p.Title = cleanText(p.Title)
	p.Company = cleanText(p.Company)
	p.Location = normalizeLocation(p.Location)
	p.JobType = NormalizeJobType(p.JobType)
	p.Description = cleanDescription(p.Description)
	p.RequiredSkills = normalizeSkills(p.RequiredSkills)
	if p.Language == "" {
		p.Language = "en"
	}
	p.Language = strings.ToLower(strings.TrimSpace(p.Language))
	p.LastSeenAt = now
	p.DeriveKey()
}

func cleanText(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

func cleanDescription(s string) string {
	if s == "" {
		return ""
	}
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = urlRe.ReplaceAllString(s, "")
	s = cleanText(s)
	if len(s) > maxDescriptionLen {
		s = s[:maxDescriptionLen] + "..."
	}
	return s
}

var locationAliases = map[string]string{
	"ile-de-france": "Paris",
	"télétravail":   "Remote",
	"full remote":   "Remote",
	"100% remote":   "Remote",
	"remote":        "Remote",
}

func normalizeLocation(location string) string {
	location = cleanText(location)
	if location == "" {
		return ""
	}
	lower := strings.ToLower(location)
	for alias, canonical := range locationAliases {
		if strings.Contains(lower, alias) {
			return canonical
		}
	}
	return location
}

// NormalizeJobType maps free-form contract descriptions to the canonical
// job types used by the filter engine.
func NormalizeJobType(jobType string) string {
	jobType = cleanText(jobType)
	if jobType == "" {
		return ""
	}
	lower := strings.ToLower(jobType)
	switch {
	case containsAny(lower, "full", "cdi", "permanent", "temps plein"):
		return "Full-time"
	case containsAny(lower, "part", "temps partiel"):
		return "Part-time"
	case containsAny(lower, "intern", "stage", "stagiaire"):
		return "Internship"
	case containsAny(lower, "contract", "cdd", "fixed", "freelance"):
		return "Contract"
	case containsAny(lower, "apprentice", "alternance", "apprentissage"):
		return "Apprenticeship"
	}
	return jobType
}

func containsAny(s string, terms ...string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

func normalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		skill = strings.ToLower(cleanText(skill))
		if skill == "" {
			continue
		}
		if _, ok := seen[skill]; ok {
			continue
		}
		seen[skill] = struct{}{}
		out = append(out, skill)
	}
	sort.Strings(out)
	return out
}

// knownSkills is the lookup table used to mine skills out of free-text
// descriptions when a source does not list them explicitly.
var knownSkills = []string{
	"python", "javascript", "typescript", "java", "c++", "c#", "ruby", "go", "rust", "php",
	"react", "vue", "angular", "svelte", "next.js",
	"node.js", "express", "django", "flask", "fastapi", "spring", "rails", "laravel",
	"sql", "postgresql", "mysql", "mongodb", "redis", "elasticsearch",
	"docker", "kubernetes", "terraform", "ansible",
	"aws", "gcp", "azure",
	"kafka", "rabbitmq", "grpc", "graphql", "rest",
	"git", "linux", "ci/cd",
	"machine learning", "deep learning", "nlp", "pandas", "numpy", "pytorch", "tensorflow",
}

// ExtractSkills scans text for occurrences of known skills and returns
// them normalized and sorted.
func ExtractSkills(text string) []string {
	if text == "" {
		return nil
	}
	lower := strings.ToLower(text)
	var found []string
	for _, skill := range knownSkills {
		if strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	return normalizeSkills(found)
}
