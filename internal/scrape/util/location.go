package util

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// locationSelectors cover the hosted Greenhouse and Lever boards.
var locationSelectors = []string{
	".location",
	".job__location",
	".posting-categories .location",
	".opening .location--small",
	"[data-testid='job-location']",
	"[data-testid='location']",
}

// "Location: Warsaw, Poland", also the Polish boards' "Lokalizacja:".
var reLocationLabel = regexp.MustCompile(`(?i)\b(?:job location|locations?|lokalizacja|miejsce pracy)\s*:\s*`)

// LocationFromDocument finds a posting's location on its HTML page: known
// selectors first, then a labelled value in og:description or the body.
func LocationFromDocument(doc *goquery.Document) string {
	for _, sel := range locationSelectors {
		if t := CleanText(doc.Find(sel).First().Text()); t != "" {
			return NormalizeLocation(t)
		}
	}

	if v, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		if loc := LabeledLocation(v); loc != "" {
			return NormalizeLocation(loc)
		}
	}
	return NormalizeLocation(LabeledLocation(doc.Find("body").Text()))
}

// LabeledLocation returns the text after the first location label, cut at
// the end of its line or a separator. Implausibly long values are ignored.
func LabeledLocation(s string) string {
	loc := reLocationLabel.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	rest := s[loc[1]:]
	if i := strings.IndexAny(rest, "\r\n|·"); i >= 0 {
		rest = rest[:i]
	}
	rest = CleanText(rest)
	if len([]rune(rest)) > 80 {
		return ""
	}
	return rest
}
