package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const profileYAML = `
profile:
  id: u1
  skills: [go, postgresql]
  location: Remote
  experience:
    - title: Backend Engineer
      company: Acme
  education:
    - degree: MSc
      field: Computer Science
  languages: [english, french]

projects:
  - id: p1
    title: Search Service
    technologies: [go, postgresql]
  - id: p2
    profile_id: other
    title: ML Pipeline
    technologies: [python]
`

func writeProfileFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing profile file: %v", err)
	}
	return path
}

func TestLoadProfileFile(t *testing.T) {
	profile, projects, err := LoadProfileFile(writeProfileFile(t, profileYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.ID != "u1" || profile.LocationPreference != "Remote" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if len(profile.Skills) != 2 || len(profile.Experience) != 1 {
		t.Fatalf("unexpected profile contents: %+v", profile)
	}

	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	// Projects without an owner default to the file's profile.
	if projects[0].ProfileID != "u1" {
		t.Fatalf("expected defaulted profile id, got %q", projects[0].ProfileID)
	}
	if projects[1].ProfileID != "other" {
		t.Fatalf("expected explicit profile id to stay, got %q", projects[1].ProfileID)
	}
}

func TestLoadProfileFileRequiresID(t *testing.T) {
	_, _, err := LoadProfileFile(writeProfileFile(t, "profile:\n  skills: [go]\n"))
	if err == nil || !strings.Contains(err.Error(), "profile id is required") {
		t.Fatalf("expected missing id error, got %v", err)
	}
}

func TestLoadProfileFileErrors(t *testing.T) {
	if _, _, err := LoadProfileFile("/nonexistent/profile.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, _, err := LoadProfileFile(writeProfileFile(t, ":\tnot yaml")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestProfileEmbeddingText(t *testing.T) {
	profile := &Profile{
		ID:     "u1",
		Skills: []string{"go", "docker"},
		Experience: []ExperienceEntry{
			{Title: "Backend Engineer", Company: "Acme"},
		},
		Languages: []string{"english"},
	}

	text := profile.EmbeddingText()
	for _, want := range []string{"Skills: go, docker", "Experience: Backend Engineer at Acme", "Languages: english"} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in embedding text: %q", want, text)
		}
	}
}
