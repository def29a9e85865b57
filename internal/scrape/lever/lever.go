package lever

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const DefaultAPIBase = "https://api.lever.co"

type Config struct {
	Companies []Company
	APIBase   string
}

type Company struct {
	Slug string // api.lever.co/v0/postings/<slug>
	Name string
}

type Scraper struct {
	cfg    Config
	client *util.Client
	log    *zap.Logger
}

func New(cfg Config, client *util.Client, log *zap.Logger) *Scraper {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{cfg: cfg, client: client, log: log.Named("lever")}
}

func (s *Scraper) Name() string { return "lever" }

type leverPosting struct {
	ID         string `json:"id"`
	Text       string `json:"text"` // title
	HostedURL  string `json:"hostedUrl"`
	CreatedAt  int64  `json:"createdAt"` // ms epoch
	Categories struct {
		Location string `json:"location"`
		Team     string `json:"team"`
	} `json:"categories"`
	Description      string `json:"description"`      // html
	DescriptionPlain string `json:"descriptionPlain"` // sometimes present
	Lists            []struct {
		Text    string `json:"text"`
		Content string `json:"content"` // html
	} `json:"lists"`
}

// Fetch pulls every configured company board. A board that fails is logged
// and skipped; the fetch fails only when every board failed.
func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.RawRecord, error) {
	const workers = 8

	companies := s.cfg.Companies
	if len(companies) == 0 {
		return nil, nil
	}

	type result struct {
		recs []domain.RawRecord
		err  error
	}
	resCh := make(chan result, len(companies))
	workCh := make(chan Company)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for co := range workCh {
				cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
				recs, err := s.fetchCompany(cctx, co, q)
				cancel()

				if err != nil {
					s.log.Warn("company fetch failed", zap.String("company", co.Name), zap.String("slug", co.Slug), zap.Error(err))
				}
				resCh <- result{recs: recs, err: err}
			}
		}()
	}

	go func() {
		defer close(workCh)
		for _, co := range companies {
			select {
			case <-ctx.Done():
				return
			case workCh <- co:
			}
		}
	}()

	wg.Wait()
	close(resCh)

	var (
		out      []domain.RawRecord
		failures int
		lastErr  error
	)
	for r := range resCh {
		if r.err != nil {
			failures++
			lastErr = r.err
			continue
		}
		out = append(out, r.recs...)
	}
	if failures == len(companies) {
		return nil, fmt.Errorf("%w: lever: %v", domain.ErrSourceUnavailable, lastErr)
	}
	if err := ctx.Err(); err != nil && len(out) == 0 {
		return nil, fmt.Errorf("%w: lever: %v", domain.ErrSourceUnavailable, err)
	}

	s.log.Debug("processed", zap.Int("records", len(out)))
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company, q types.Query) ([]domain.RawRecord, error) {
	apiURL := fmt.Sprintf("%s/v0/postings/%s?mode=json", strings.TrimRight(s.cfg.APIBase, "/"), co.Slug)

	var postings []leverPosting
	if err := s.client.GetJSON(ctx, apiURL, &postings); err != nil {
		return nil, err
	}

	cutoff := time.Time{}
	if q.Recency > 0 {
		cutoff = time.Now().Add(-q.Recency)
	}

	out := make([]domain.RawRecord, 0, len(postings))
	for _, p := range postings {
		title := util.CleanText(p.Text)
		if p.ID == "" || p.HostedURL == "" || title == "" {
			continue
		}
		if q.Term != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(q.Term)) {
			continue
		}

		var posted time.Time
		if p.CreatedAt > 0 {
			posted = time.UnixMilli(p.CreatedAt).UTC()
			if !cutoff.IsZero() && posted.Before(cutoff) {
				continue
			}
		}

		loc := util.NormalizeLocation(p.Categories.Location)
		if loc == "" {
			loc = s.hydrateLocation(ctx, p.HostedURL)
		}

		desc := util.CleanText(p.DescriptionPlain)
		if desc == "" {
			desc = util.HTMLToText(p.Description)
		}

		var reqs []string
		for _, l := range p.Lists {
			if t := util.HTMLToText(l.Content); t != "" {
				reqs = append(reqs, util.CleanText(l.Text+": "+t))
			}
		}

		rec := domain.NewRecord(
			domain.FieldTitle, title,
			domain.FieldCompany, co.Name,
			domain.FieldLocation, loc,
			domain.FieldURL, util.CanonicalURL(p.HostedURL),
			domain.FieldDescription, desc,
			domain.FieldRequirements, strings.Join(reqs, "\n"),
		)
		if !posted.IsZero() {
			rec.Set(domain.FieldPostedDate, posted.Format(time.RFC3339))
		}
		out = append(out, rec)
	}
	return out, nil
}

// hydrateLocation reads the hosted posting page when the API left the
// location blank.
func (s *Scraper) hydrateLocation(ctx context.Context, pageURL string) string {
	doc, err := s.client.GetDocument(ctx, pageURL)
	if err != nil {
		s.log.Debug("hydrate failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}

	for _, sel := range []string{
		"[itemprop='jobLocation']",
		"[data-qa='location']",
		".posting-categories .location",
		".posting-categories li",
	} {
		if t := util.CleanText(doc.Find(sel).First().Text()); t != "" {
			return util.NormalizeLocation(t)
		}
	}
	return util.LocationFromDocument(doc)
}
