// Package justjoinit reads offers from the JustJoinIT public API.
package justjoinit

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const (
	DefaultBaseURL = "https://justjoin.it"
	DefaultAPIURL  = "https://api.justjoin.it"
	maxPerPage     = 100
)

type Scraper struct {
	baseURL string
	apiURL  string
	client  *util.Client
	log     *zap.Logger
}

func New(baseURL, apiURL string, client *util.Client, log *zap.Logger) *Scraper {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scraper{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiURL:  strings.TrimRight(apiURL, "/"),
		client:  client,
		log:     log.Named("justjoinit"),
	}
}

func (s *Scraper) Name() string { return "justjoinit" }

type offer struct {
	ID              string `json:"id"`
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	City            string `json:"city"`
	Remote          bool   `json:"remote"`
	MarkerIcon      string `json:"marker_icon"`
	WorkplaceType   string `json:"workplace_type"`
	PublishedAt     string `json:"published_at"`
	EmploymentTypes []struct {
		Type   string  `json:"type"`
		Salary *salary `json:"salary"`
	} `json:"employment_types"`
}

type salary struct {
	From     float64 `json:"from"`
	To       float64 `json:"to"`
	Currency string  `json:"currency"`
}

// Fetch asks for the newest offers and keeps those whose title contains the
// query term. The payload shape drifts between API versions, so offers are
// decoded leniently from generic maps.
func (s *Scraper) Fetch(ctx context.Context, q types.Query) ([]domain.RawRecord, error) {
	perPage := q.MaxResults
	if perPage <= 0 || perPage > maxPerPage {
		perPage = maxPerPage
	}
	params := url.Values{}
	params.Set("page", "1")
	params.Set("sortBy", "published")
	params.Set("orderBy", "DESC")
	params.Set("perPage", strconv.Itoa(perPage))
	if q.Location != "" {
		params.Set("city", q.Location)
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := s.client.GetJSON(ctx, s.apiURL+"/v2/job-offers?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("%w: justjoinit: %v", domain.ErrSourceUnavailable, err)
	}
	s.log.Debug("offers received", zap.Int("count", len(payload.Data)))

	term := strings.ToLower(strings.TrimSpace(q.Term))
	var out []domain.RawRecord
	for i, raw := range payload.Data {
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			break
		}
		var o offer
		if err := decode(raw, &o); err != nil {
			s.log.Debug("skip undecodable offer", zap.Int("index", i), zap.Error(err))
			continue
		}
		if term != "" && !strings.Contains(strings.ToLower(o.Title), term) {
			continue
		}
		out = append(out, s.record(o))
	}
	return out, nil
}

func decode(raw map[string]any, o *offer) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           o,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

func (s *Scraper) record(o offer) domain.RawRecord {
	loc := o.City
	if o.Remote {
		loc = util.JoinUnique([]string{o.City, "Remote"}, ", ")
	}

	id := o.ID
	if id == "" {
		id = o.Slug
	}
	skills := util.CleanText(o.MarkerIcon + " " + o.WorkplaceType)

	rec := domain.NewRecord(
		domain.FieldTitle, o.Title,
		domain.FieldCompany, o.CompanyName,
		domain.FieldLocation, loc,
		domain.FieldDescription, util.CleanText(fmt.Sprintf("%s position at %s. %s", o.Title, o.CompanyName, skills)),
		domain.FieldRequirements, skills,
		domain.FieldPostedDate, o.PublishedAt,
	)
	if id != "" {
		rec.Set(domain.FieldURL, s.baseURL+"/offers/"+url.PathEscape(id))
	}
	if len(o.EmploymentTypes) > 0 {
		if sal := o.EmploymentTypes[0].Salary; sal != nil && sal.From > 0 && sal.To > 0 {
			cur := sal.Currency
			if cur == "" {
				cur = "PLN"
			}
			rec.Set(domain.FieldSalary, fmt.Sprintf("%s-%s %s", groupThousands(int64(sal.From)), groupThousands(int64(sal.To)), strings.ToUpper(cur)))
		}
	}
	return rec
}

// groupThousands renders 15000 as "15,000".
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
