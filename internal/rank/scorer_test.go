package rank

import (
	"errors"
	"strings"
	"testing"

	"jobsearch-engine/internal/domain"
)

var analystProfile = domain.Profile{
	Skills:       []string{"business analyst", "sql"},
	Competencies: []string{"stakeholder management", "process modelling"},
}

func TestScoreKnownValue(t *testing.T) {
	s := NewScorer()
	profile := domain.Profile{Skills: []string{"business analyst", "sql"}}

	res := s.Score("Senior Business Analyst Requirements gathering with stakeholders", profile)
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if res.Method != MethodTFIDF {
		t.Fatalf("expected tfidf, got %s", res.Method)
	}
	if res.Base != 70 {
		t.Fatalf("expected base 70, got %d", res.Base)
	}
	// business analyst, requirements, stakeholder, senior
	if res.Bonus != 20 {
		t.Fatalf("expected bonus 20, got %d (matched %v)", res.Bonus, res.Matched)
	}
	if res.Score != 90 {
		t.Fatalf("expected 90, got %d", res.Score)
	}
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	texts := []string{
		"",
		"Java developer",
		"Senior Business Analyst SQL stakeholder requirements remote CRM healthcare product manager business intelligence",
		strings.Repeat("sql ", 500),
		"Analyst of business processes, process modelling, stakeholder management",
	}
	for _, text := range texts {
		res := s.Score(text, analystProfile)
		if !res.OK() {
			t.Fatalf("unexpected failure for %q: %v", text, res.Err)
		}
		if res.Score < 0 || res.Score > 100 {
			t.Fatalf("score %d out of range for %q", res.Score, text)
		}
	}
}

func TestScoreBonusMonotone(t *testing.T) {
	t.Parallel()

	s := NewScorer()
	bases := []string{
		"Business analyst for a banking platform",
		"Analyst role, stakeholder management and reporting",
		"Process modelling specialist",
		"Senior SQL analyst, remote",
	}
	for _, base := range bases {
		before := s.Score(base, analystProfile)
		for _, kw := range DefaultBonusKeywords {
			after := s.Score(base+" "+kw, analystProfile)
			if after.Score < before.Score {
				t.Errorf("adding %q to %q lowered score %d -> %d", kw, base, before.Score, after.Score)
			}
		}
	}

	// profile terms hidden inside longer words, then the keyword on its own
	devProfile := domain.Profile{Skills: []string{"sql", "java"}}
	before := s.Score("PostgreSQL JavaScript developer", devProfile)
	after := s.Score("PostgreSQL JavaScript developer SQL", devProfile)
	if after.Score < before.Score {
		t.Errorf("adding SQL lowered score %d -> %d", before.Score, after.Score)
	}
}

func TestScoreBonusCapped(t *testing.T) {
	s := NewScorer()
	text := strings.Join(DefaultBonusKeywords, " ") + " stakeholder management process modelling"
	res := s.Score(text, analystProfile)
	if res.Score != 100 {
		t.Fatalf("expected cap at 100, got %d (base %d bonus %d)", res.Score, res.Base, res.Bonus)
	}
	if res.Bonus != len(DefaultBonusKeywords)*DefaultBonusIncrement {
		t.Fatalf("expected every keyword to count once, got bonus %d", res.Bonus)
	}
}

func TestScoreFallbackOverlap(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		profile domain.Profile
		text    string
		base    int
		score   int
	}{
		{
			name:    "single-term vocabulary",
			profile: domain.Profile{Skills: []string{"r", "sql"}},
			text:    "sql only",
			base:    50,
			score:   55,
		},
		{
			name:    "stop words only profile",
			profile: domain.Profile{Skills: []string{"the", "and"}},
			text:    "the job and the team",
			base:    100,
			score:   100,
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := NewScorer().Score(tc.text, tc.profile)
			if !res.OK() {
				t.Fatalf("unexpected failure: %v", res.Err)
			}
			if res.Method != MethodOverlap {
				t.Fatalf("expected overlap fallback, got %s", res.Method)
			}
			if res.Base != tc.base || res.Score != tc.score {
				t.Fatalf("got base=%d score=%d, want base=%d score=%d", res.Base, res.Score, tc.base, tc.score)
			}
		})
	}
}

func TestScoreNoSharedTermsIsZeroSimilarity(t *testing.T) {
	t.Parallel()

	// "postgresql" and "javascript" contain the profile terms as substrings
	// only; that must not count as a match.
	profile := domain.Profile{Skills: []string{"sql", "java"}}
	res := NewScorer().Score("PostgreSQL JavaScript developer", profile)
	if !res.OK() {
		t.Fatalf("unexpected failure: %v", res.Err)
	}
	if res.Method != MethodTFIDF || res.Base != 0 {
		t.Fatalf("got method=%s base=%d, want tfidf base 0", res.Method, res.Base)
	}
}

func TestScoreEmptyProfileFails(t *testing.T) {
	res := NewScorer().Score("Senior Business Analyst", domain.Profile{Skills: []string{"  "}})
	if res.OK() {
		t.Fatal("expected failure for empty profile")
	}
	if !errors.Is(res.Err, domain.ErrScoringFailure) {
		t.Fatalf("expected ErrScoringFailure, got %v", res.Err)
	}
	if got := res.ScoreOr(0); got != 0 {
		t.Fatalf("ScoreOr(0) = %d", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer()
	text := "Senior Business Analyst, SQL, stakeholder management, Warsaw"
	first := s.Score(text, analystProfile)
	for i := 0; i < 5; i++ {
		if got := s.Score(text, analystProfile); got.Score != first.Score || got.Base != first.Base {
			t.Fatalf("run %d: %+v != %+v", i, got, first)
		}
	}
}

func TestVocabularyCap(t *testing.T) {
	v := Vectorizer{MaxFeatures: 2}
	got := v.vocabulary(tokenize("sql sql python java the"))
	want := []string{"sql", "java"}
	if len(got) != len(want) {
		t.Fatalf("vocabulary = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("vocabulary = %v, want %v", got, want)
		}
	}
}

func TestSimilarityFullOverlap(t *testing.T) {
	sim, err := Vectorizer{}.Similarity("sql python", "Python and SQL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if percent(sim) != 100 {
		t.Fatalf("expected 100, got %d (%f)", percent(sim), sim)
	}
}
