package smartrecruiters

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const (
	DefaultAPIBase  = "https://api.smartrecruiters.com"
	DefaultJobsBase = "https://jobs.smartrecruiters.com"

	pageSize  = 100
	maxOffset = 5000
)

type Config struct {
	Companies []Company
	APIBase   string
	JobsBase  string
}

type Company struct {
	// Slug is the SmartRecruiters company identifier used in URLs, e.g.
	// https://jobs.smartrecruiters.com/<slug>
	Slug string
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
	if cfg.JobsBase == "" {
		cfg.JobsBase = DefaultJobsBase
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{cfg: cfg, client: client, log: log.Named("smartrecruiters")}
}

func (s *Scraper) Name() string { return "smartrecruiters" }

// { "content": [...], "totalFound": N, "offset": O, "limit": L }
type postingsResponse struct {
	Content    []posting `json:"content"`
	TotalFound int       `json:"totalFound"`
}

type posting struct {
	ID           string    `json:"id"`
	UUID         string    `json:"uuid"`
	Name         string    `json:"name"`
	ReleasedDate time.Time `json:"releasedDate"`
	Ref          string    `json:"ref"`
	Location     struct {
		City    string `json:"city"`
		Region  string `json:"region"`
		Country string `json:"country"`
		Remote  bool   `json:"remote"`
	} `json:"location"`
	Department struct {
		Label string `json:"label"`
	} `json:"department"`
	Function struct {
		Label string `json:"label"`
	} `json:"function"`
	ExperienceLevel struct {
		Label string `json:"label"`
	} `json:"experienceLevel"`
}

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.RawRecord, error) {
	const workers = 8

	type result struct {
		recs []domain.RawRecord
		err  error
	}

	companies := s.cfg.Companies
	resCh := make(chan result, len(companies))
	workCh := make(chan Company)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for co := range workCh {
				cctx, cancel := context.WithTimeout(ctx, 20*time.Second)
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
		}
		out = append(out, r.recs...)
	}

	if len(out) == 0 && failures > 0 && failures == len(companies) {
		return nil, fmt.Errorf("%w: smartrecruiters: %v", domain.ErrSourceUnavailable, lastErr)
	}
	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	s.log.Debug("fetched", zap.Int("records", len(out)))
	return out, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company, q types.Query) ([]domain.RawRecord, error) {
	slug := strings.TrimSpace(co.Slug)
	if slug == "" {
		return nil, fmt.Errorf("empty slug")
	}
	base := fmt.Sprintf("%s/v1/companies/%s/postings", strings.TrimRight(s.cfg.APIBase, "/"), url.PathEscape(slug))

	var cutoff time.Time
	if q.Recency > 0 {
		cutoff = time.Now().Add(-q.Recency)
	}

	params := url.Values{"limit": {fmt.Sprint(pageSize)}}
	if q.Term != "" {
		params.Set("q", q.Term)
	}

	var out []domain.RawRecord
	for offset := 0; offset <= maxOffset; offset += pageSize {
		params.Set("offset", fmt.Sprint(offset))

		var pr postingsResponse
		if err := s.client.GetJSON(ctx, base+"?"+params.Encode(), &pr); err != nil {
			return out, err
		}
		if len(pr.Content) == 0 {
			break
		}

		for _, p := range pr.Content {
			title := util.CleanText(p.Name)
			id := strings.TrimSpace(firstNonEmpty(p.ID, p.UUID))
			if title == "" || id == "" {
				continue
			}
			if !cutoff.IsZero() && !p.ReleasedDate.IsZero() && p.ReleasedDate.Before(cutoff) {
				continue
			}

			loc := util.NormalizeLocation(strings.Join(nonEmpty(p.Location.City, p.Location.Region, p.Location.Country), ", "))
			if p.Location.Remote {
				loc = strings.Join(nonEmpty(loc, "Remote"), ", ")
			}

			rec := domain.NewRecord(
				domain.FieldTitle, title,
				domain.FieldCompany, co.Name,
				domain.FieldLocation, loc,
				domain.FieldURL, fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.JobsBase, "/"), url.PathEscape(slug), url.PathEscape(id)),
				domain.FieldDescription, strings.Join(nonEmpty(title, p.Department.Label, p.Function.Label, p.ExperienceLevel.Label), ". "),
			)
			if !p.ReleasedDate.IsZero() {
				rec.Set(domain.FieldPostedDate, p.ReleasedDate.UTC().Format(time.RFC3339))
			}
			out = append(out, rec)
		}

		if pr.TotalFound > 0 && offset+pageSize >= pr.TotalFound {
			break
		}
	}
	return out, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func nonEmpty(vals ...string) []string {
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
