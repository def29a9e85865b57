package rank

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

var errDegenerateVocabulary = errors.New("degenerate vocabulary")

var tokenRE = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer compares two texts as TF-IDF vectors over a bounded vocabulary
// taken from the profile side. Term weights are binary presence times a
// smoothed IDF over the two-document corpus {profile, job}.
type Vectorizer struct {
	MaxFeatures int
}

func tokenize(s string) []string {
	toks := tokenRE.FindAllString(strings.ToLower(s), -1)
	out := toks[:0]
	for _, t := range toks {
		if _, stop := stopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// vocabulary keeps the MaxFeatures most frequent profile terms, ties broken
// alphabetically so the cut is deterministic.
func (v Vectorizer) vocabulary(profileTokens []string) []string {
	counts := make(map[string]int, len(profileTokens))
	for _, t := range profileTokens {
		counts[t]++
	}
	terms := make([]string, 0, len(counts))
	for t := range counts {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	return terms
}

// Similarity returns the cosine of the two vectors in [0,1]. It fails only when
// the vocabulary has fewer than two terms; a job sharing no vocabulary term
// scores 0.
func (v Vectorizer) Similarity(profileText, jobText string) (float64, error) {
	vocab := v.vocabulary(tokenize(profileText))
	if len(vocab) < 2 {
		return 0, errDegenerateVocabulary
	}

	inJob := make(map[string]bool)
	for _, t := range tokenize(jobText) {
		inJob[t] = true
	}

	const docs = 2.0
	var dot, pNorm, jNorm float64
	for _, term := range vocab {
		df := 1.0
		if inJob[term] {
			df = 2
		}
		idf := math.Log((1+docs)/(1+df)) + 1
		w := idf * idf
		pNorm += w
		if inJob[term] {
			jNorm += w
			dot += w
		}
	}
	if jNorm == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(pNorm) * math.Sqrt(jNorm))
	return math.Min(1, math.Max(0, sim)), nil
}

var stopWords = func() map[string]struct{} {
	words := strings.Fields(`
a about above after again against all am an and any are as at be because been before being below
between both but by can could did do does doing down during each few for from further had has have
having he her here hers herself him himself his how if in into is it its itself just me more most my
myself no nor not now of off on once only or other our ours ourselves out over own same she should so
some such than that the their theirs them themselves then there these they this those through to too
under until up very was we were what when where which while who whom why will with would you your
yours yourself yourselves etc also per via within without across among upon`)
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}()
