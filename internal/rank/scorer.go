package rank

import (
	"fmt"
	"math"
	"strings"

	"jobsearch-engine/internal/domain"
)

type Method string

const (
	MethodTFIDF   Method = "tfidf"
	MethodOverlap Method = "overlap"
)

const (
	DefaultVocabularySize = 1000
	DefaultBonusIncrement = 5
)

// DefaultBonusKeywords are the high-value terms that add a fixed increment
// when found anywhere in the job text.
var DefaultBonusKeywords = []string{
	"business analyst",
	"requirements",
	"sql",
	"stakeholder",
	"senior",
	"remote",
	"product manager",
	"crm",
	"healthcare",
	"business intelligence",
}

// Result is the outcome of scoring one job. Err is set (wrapping
// domain.ErrScoringFailure) when no score could be produced.
type Result struct {
	Score   int      `json:"score"`
	Base    int      `json:"base"`
	Bonus   int      `json:"bonus"`
	Method  Method   `json:"method,omitempty"`
	Matched []string `json:"matched,omitempty"`
	Err     error    `json:"-"`
}

func (r Result) OK() bool { return r.Err == nil }

// ScoreOr returns the score, or fallback when scoring failed.
func (r Result) ScoreOr(fallback int) int {
	if r.Err != nil {
		return fallback
	}
	return r.Score
}

// Scorer computes a 0..100 fit between a job text and a profile.
type Scorer struct {
	VocabularySize int
	BonusIncrement int
	BonusKeywords  []string
}

func NewScorer() Scorer {
	return Scorer{
		VocabularySize: DefaultVocabularySize,
		BonusIncrement: DefaultBonusIncrement,
		BonusKeywords:  DefaultBonusKeywords,
	}
}

func (s Scorer) Score(jobText string, profile domain.Profile) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Result{Err: fmt.Errorf("%w: %v", domain.ErrScoringFailure, rec)}
		}
	}()

	terms := profileTerms(profile)
	if len(terms) == 0 {
		return Result{Err: fmt.Errorf("%w: profile has no skills", domain.ErrScoringFailure)}
	}

	lower := strings.ToLower(jobText)

	vec := Vectorizer{MaxFeatures: s.VocabularySize}
	if sim, err := vec.Similarity(strings.Join(terms, " "), jobText); err == nil {
		res.Base = percent(sim)
		res.Method = MethodTFIDF
	} else {
		res.Base = overlap(terms, lower)
		res.Method = MethodOverlap
	}

	inc := s.BonusIncrement
	if inc <= 0 {
		inc = DefaultBonusIncrement
	}
	keywords := s.BonusKeywords
	if keywords == nil {
		keywords = DefaultBonusKeywords
	}
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			res.Bonus += inc
			res.Matched = append(res.Matched, kw)
		}
	}

	res.Score = domain.ClampScore(res.Base + res.Bonus)
	return res
}

func profileTerms(p domain.Profile) []string {
	var out []string
	for _, t := range p.Terms() {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// overlap is the share of profile terms that occur as substrings of text.
func overlap(terms []string, lowerText string) int {
	hits := 0
	for _, t := range terms {
		if strings.Contains(lowerText, t) {
			hits++
		}
	}
	return domain.ClampScore(hits * 100 / len(terms))
}

func percent(sim float64) int {
	return domain.ClampScore(int(math.Floor(sim*100 + 1e-9)))
}
