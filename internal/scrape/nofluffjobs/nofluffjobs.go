// Package nofluffjobs scrapes the NoFluffJobs search listing.
package nofluffjobs

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const DefaultBaseURL = "https://nofluffjobs.com/pl"

type Scraper struct {
	baseURL string
	client  *util.Client
	log     *zap.Logger
}

func New(baseURL string, client *util.Client, log *zap.Logger) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{baseURL: strings.TrimRight(baseURL, "/"), client: client, log: log.Named("nofluffjobs")}
}

func (s *Scraper) Name() string { return "nofluffjobs" }

var (
	cardSelectors = []string{
		"div.posting-list-item, a.posting-list-item, [data-cy=job-item]",
		"article",
	}
	titleSelectors    = []string{"h3", "h2", "a[class*=title]", "a[class*=name]", "span[class*=title]", "span[class*=position]"}
	companySelectors  = []string{"span[class*=company]", "span[class*=employer]", "div[class*=company]", "div[class*=employer]", "p[class*=company]", "h4"}
	locationSelectors = []string{"span[class*=location]", "span[class*=city]", "div[class*=location]", "div[class*=city]"}
	salarySelectors   = []string{"span[class*=salary]", "span[class*=pay]", "span[class*=wage]", "div[class*=salary]", "div[class*=pay]", "div[class*=wage]"}
	tagSelectors      = "[class*=tile], [class*=tag]"
)

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.RawRecord, error) {
	params := url.Values{}
	params.Set("criteria", q.Term)
	params.Set("city", q.Location)
	params.Set("page", "1")
	searchURL := s.baseURL + "/jobs?" + params.Encode()

	doc, err := s.client.GetDocument(ctx, searchURL)
	if err != nil {
		return nil, fmt.Errorf("%w: nofluffjobs: %v", domain.ErrSourceUnavailable, err)
	}

	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		if cards = doc.Find(sel); cards.Length() > 0 {
			break
		}
	}
	s.log.Debug("cards found", zap.Int("count", cards.Length()))

	var out []domain.RawRecord
	cards.EachWithBreak(func(_ int, card *goquery.Selection) bool {
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			return false
		}
		out = append(out, s.recordFromCard(card))
		return true
	})
	return out, nil
}

// recordFromCard only records fields it actually found; missing title or
// company is left for the normalizer to reject.
func (s *Scraper) recordFromCard(card *goquery.Selection) domain.RawRecord {
	var rec domain.RawRecord
	set := func(field string, sels []string) {
		if v := firstText(card, sels); v != "" {
			rec.Set(field, v)
		}
	}
	set(domain.FieldTitle, titleSelectors)
	set(domain.FieldCompany, companySelectors)
	set(domain.FieldLocation, locationSelectors)
	set(domain.FieldSalary, salarySelectors)

	href, ok := card.Attr("href")
	if !ok || goquery.NodeName(card) != "a" {
		href, ok = card.Find("a[href]").First().Attr("href")
	}
	if ok {
		if abs := util.Resolve(s.baseURL+"/", href); abs != "" {
			rec.Set(domain.FieldURL, util.CanonicalURL(abs))
		}
	}

	var tags []string
	card.Find(tagSelectors).Each(func(_ int, t *goquery.Selection) {
		if v := util.CleanText(t.Text()); v != "" {
			tags = append(tags, v)
		}
	})
	if len(tags) > 0 {
		rec.Set(domain.FieldRequirements, util.JoinUnique(tags, ", "))
	}
	return rec
}

func firstText(card *goquery.Selection, sels []string) string {
	for _, sel := range sels {
		if t := util.CleanText(card.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return ""
}
