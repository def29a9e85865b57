package domain

import "time"

// Profile is the user's skill vector. Read-only to the pipeline.
type Profile struct {
	Skills       []string `json:"skills"`
	Competencies []string `json:"competencies"`
}

// Terms returns skills followed by competencies.
func (p Profile) Terms() []string {
	out := make([]string, 0, len(p.Skills)+len(p.Competencies))
	out = append(out, p.Skills...)
	return append(out, p.Competencies...)
}

// Criteria drive both the source queries and the filter stage.
type Criteria struct {
	Query      string        `json:"query"`
	Location   string        `json:"location"`
	Locations  []string      `json:"locations"`
	Blacklist  []string      `json:"blacklist"`
	MinScore   int           `json:"min_score"`
	MaxResults int           `json:"max_results"`
	Recency    time.Duration `json:"recency"`
}

const DefaultMinScore = 60
