package greenhouse

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const DefaultAPIBase = "https://boards-api.greenhouse.io"

type Config struct {
	Companies []Company // list of boards
	APIBase   string
}

type Company struct {
	Slug string // boards.greenhouse.io/<slug>
	Name string // display name
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
	return &Scraper{cfg: cfg, client: client, log: log.Named("greenhouse")}
}

func (s *Scraper) Name() string { return "greenhouse" }

type boardResponse struct {
	Jobs []struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		AbsoluteURL string `json:"absolute_url"`
		UpdatedAt   string `json:"updated_at"`
		Location    struct {
			Name string `json:"name"`
		} `json:"location"`
		Content string `json:"content"` // entity-escaped html
	} `json:"jobs"`
}

func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.RawRecord, error) {
	var (
		out      []domain.RawRecord
		failures int
		lastErr  error
	)
	for _, co := range s.cfg.Companies {
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}
		recs, err := s.fetchCompany(ctx, co, q)
		if err != nil {
			// one board being down does not fail the source
			failures++
			lastErr = err
			s.log.Warn("board fetch failed", zap.String("company", co.Name), zap.String("slug", co.Slug), zap.Error(err))
			continue
		}
		out = append(out, recs...)
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			out = out[:q.MaxResults]
			break
		}
	}

	if len(out) == 0 && lastErr != nil && (failures == len(s.cfg.Companies) || ctx.Err() != nil) {
		return nil, fmt.Errorf("%w: greenhouse: %v", domain.ErrSourceUnavailable, lastErr)
	}
	return out, nil
}

func (s *Scraper) fetchCompany(ctx context.Context, co Company, q types.Query) ([]domain.RawRecord, error) {
	apiURL := fmt.Sprintf("%s/v1/boards/%s/jobs?content=true", strings.TrimRight(s.cfg.APIBase, "/"), co.Slug)

	var board boardResponse
	if err := s.client.GetJSON(ctx, apiURL, &board); err != nil {
		return nil, err
	}

	var cutoff time.Time
	if q.Recency > 0 {
		cutoff = time.Now().Add(-q.Recency)
	}
	term := strings.ToLower(q.Term)

	recs := make([]domain.RawRecord, 0, len(board.Jobs))
	for _, j := range board.Jobs {
		title := util.CleanText(j.Title)
		if title == "" || j.AbsoluteURL == "" {
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(title), term) {
			continue
		}
		if !cutoff.IsZero() {
			if t, err := time.Parse(time.RFC3339, j.UpdatedAt); err == nil && t.Before(cutoff) {
				continue
			}
		}

		loc := util.NormalizeLocation(j.Location.Name)
		if loc == "" {
			loc = s.hydrateLocation(ctx, j.AbsoluteURL)
		}

		recs = append(recs, domain.NewRecord(
			domain.FieldTitle, title,
			domain.FieldCompany, co.Name,
			domain.FieldLocation, loc,
			domain.FieldURL, util.CanonicalURL(j.AbsoluteURL),
			domain.FieldDescription, util.HTMLToText(html.UnescapeString(j.Content)),
			domain.FieldPostedDate, j.UpdatedAt,
		))
	}
	return recs, nil
}

func (s *Scraper) hydrateLocation(ctx context.Context, pageURL string) string {
	doc, err := s.client.GetDocument(ctx, pageURL)
	if err != nil {
		s.log.Debug("hydrate failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	return util.LocationFromDocument(doc)
}
