// Package selector picks the subset of a profile's projects most
// relevant to one posting, under a maximum-count constraint.
package selector

import (
	"sort"
	"strings"

	"jobscout/internal/job"
)

// SelectedProject is one chosen project with its relevance evidence.
type SelectedProject struct {
	ProjectID           string   `json:"project_id"`
	Title               string   `json:"title"`
	Relevance           float64  `json:"relevance"`
	MatchedTechnologies []string `json:"matched_technologies"`
}

// Selection is the ordered project subset for a (profile, posting) pair.
type Selection struct {
	PostingKey string            `json:"posting_key"`
	ProfileID  string            `json:"profile_id"`
	Projects   []SelectedProject `json:"projects"`
}

// Select ranks the profile's projects by relevance to the posting and
// returns at most maxProjects of them. Relevance is the fraction of the
// posting's required skills found in the project's technology set; ties
// prefer the project matching more technologies in absolute count, then
// project id ascending. Projects matching nothing are excluded — the
// selection is never padded with irrelevant projects.
func Select(profileID string, projects []*job.Project, posting *job.Posting, maxProjects int) *Selection {
	selection := &Selection{
		PostingKey: posting.Key,
		ProfileID:  profileID,
	}

	required := make([]string, 0, len(posting.RequiredSkills))
	for _, skill := range posting.RequiredSkills {
		skill = strings.ToLower(strings.TrimSpace(skill))
		if skill != "" {
			required = append(required, skill)
		}
	}
	if len(required) == 0 {
		return selection
	}

	scored := make([]SelectedProject, 0, len(projects))
	for _, project := range projects {
		techs := project.TechnologySet()
		var matched []string
		for _, skill := range required {
			if _, ok := techs[skill]; ok {
				matched = append(matched, skill)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.Strings(matched)

		scored = append(scored, SelectedProject{
			ProjectID:           project.ID,
			Title:               project.Title,
			Relevance:           float64(len(matched)) / float64(len(required)),
			MatchedTechnologies: matched,
		})
	}

	sort.Slice(scored, func(a, b int) bool {
		if scored[a].Relevance != scored[b].Relevance {
			return scored[a].Relevance > scored[b].Relevance
		}
		if la, lb := len(scored[a].MatchedTechnologies), len(scored[b].MatchedTechnologies); la != lb {
			return la > lb
		}
		return scored[a].ProjectID < scored[b].ProjectID
	})

	if maxProjects > 0 && maxProjects < len(scored) {
		scored = scored[:maxProjects]
	}
	selection.Projects = scored

	return selection
}
