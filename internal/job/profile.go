package job

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExperienceEntry is a single role in a profile's work history.
type ExperienceEntry struct {
	Title   string `yaml:"title"`
	Company string `yaml:"company"`
}

// EducationEntry is a single degree in a profile's education history.
type EducationEntry struct {
	Degree string `yaml:"degree"`
	Field  string `yaml:"field"`
}

// Profile is a user profile. It is owned by the user and read-only to the
// pipeline.
type Profile struct {
	ID                 string            `yaml:"id"`
	Skills             []string          `yaml:"skills"`
	Experience         []ExperienceEntry `yaml:"experience"`
	Education          []EducationEntry  `yaml:"education"`
	Languages          []string          `yaml:"languages"`
	LocationPreference string            `yaml:"location"`
}

// EmbeddingText renders the profile into text for the embedding provider.
func (p *Profile) EmbeddingText() string {
	parts := make([]string, 0, 4)
	if len(p.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(p.Skills, ", "))
	}
	for _, role := range p.Experience {
		parts = append(parts, fmt.Sprintf("Experience: %s at %s", role.Title, role.Company))
	}
	for _, degree := range p.Education {
		parts = append(parts, fmt.Sprintf("Education: %s in %s", degree.Degree, degree.Field))
	}
	if len(p.Languages) > 0 {
		parts = append(parts, "Languages: "+strings.Join(p.Languages, ", "))
	}
	return strings.Join(parts, ". ")
}

// SkillSet returns the profile skills as a lower-cased lookup set.
func (p *Profile) SkillSet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Skills))
	for _, s := range p.Skills {
		set[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return set
}

// Project is a portfolio project owned by a profile, read-only to the
// pipeline.
type Project struct {
	ID           string   `yaml:"id"`
	ProfileID    string   `yaml:"profile_id"`
	Title        string   `yaml:"title"`
	Description  string   `yaml:"description"`
	Technologies []string `yaml:"technologies"`
	Highlights   []string `yaml:"highlights"`
}

// EmbeddingText renders the project into text for the embedding provider.
func (p *Project) EmbeddingText() string {
	parts := make([]string, 0, 4)
	if p.Title != "" {
		parts = append(parts, "Project: "+p.Title)
	}
	if p.Description != "" {
		parts = append(parts, "Description: "+p.Description)
	}
	if len(p.Technologies) > 0 {
		parts = append(parts, "Technologies: "+strings.Join(p.Technologies, ", "))
	}
	if len(p.Highlights) > 0 {
		parts = append(parts, "Highlights: "+strings.Join(p.Highlights, ". "))
	}
	return strings.Join(parts, ". ")
}

// TechnologySet returns the project technologies as a lower-cased set.
func (p *Project) TechnologySet() map[string]struct{} {
	set := make(map[string]struct{}, len(p.Technologies))
	for _, t := range p.Technologies {
		set[strings.ToLower(strings.TrimSpace(t))] = struct{}{}
	}
	return set
}

type profileFile struct {
	Profile  *Profile   `yaml:"profile"`
	Projects []*Project `yaml:"projects"`
}

// LoadProfileFile reads a profile and its projects from a YAML file.
func LoadProfileFile(path string) (*Profile, []*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading profile file: %w", err)
	}

	var pf profileFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, nil, fmt.Errorf("parsing profile file: %w", err)
	}

	if pf.Profile == nil || strings.TrimSpace(pf.Profile.ID) == "" {
		return nil, nil, fmt.Errorf("profile file %q: profile id is required", path)
	}

	for _, project := range pf.Projects {
		if project.ProfileID == "" {
			project.ProfileID = pf.Profile.ID
		}
	}

	return pf.Profile, pf.Projects, nil
}
