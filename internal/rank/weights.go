package rank

import "fmt"

// Weights is the versioned scoring configuration. The four weights must
// sum to 100 so the composite stays in [0, 100].
type Weights struct {
	Version      string  `mapstructure:"version"`
	Semantic     float64 `mapstructure:"semantic"`
	SkillOverlap float64 `mapstructure:"skill-overlap"`
	Recency      float64 `mapstructure:"recency"`
	Location     float64 `mapstructure:"location"`
}

// DefaultWeights returns the current scoring configuration.
func DefaultWeights() Weights {
	return Weights{
		Version:      "2026-01",
		Semantic:     30,
		SkillOverlap: 30,
		Recency:      20,
		Location:     20,
	}
}

// Validate rejects weight sets that would break the [0, 100] composite
// range.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"semantic":      w.Semantic,
		"skill-overlap": w.SkillOverlap,
		"recency":       w.Recency,
		"location":      w.Location,
	} {
		if v < 0 {
			return fmt.Errorf("ranking weight %s must not be negative", name)
		}
	}
	if sum := w.Semantic + w.SkillOverlap + w.Recency + w.Location; sum != 100 {
		return fmt.Errorf("ranking weights must sum to 100, got %g", sum)
	}
	return nil
}
