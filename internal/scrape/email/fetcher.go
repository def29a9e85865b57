// Package email turns LinkedIn job-alert e-mails into raw job records by
// reading unseen messages over IMAP.
package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const defaultLookback = 90 * 24 * time.Hour

type Config struct {
	Addr        string // host:port
	Username    string
	Password    string
	Mailbox     string
	SubjectAny  []string
	MaxMessages int
	MarkSeen    bool
}

type Fetcher struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Fetcher {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.MaxMessages <= 0 {
		cfg.MaxMessages = 200
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{cfg: cfg, log: log.Named("email")}
}

func (f *Fetcher) Name() string { return "email" }

// Fetch reads unseen alerts received within the query recency window (90
// days when unset). Parsed alerts are flagged \Seen when MarkSeen is on;
// other mail is left untouched.
func (f *Fetcher) Fetch(ctx context.Context, q types.Query) ([]domain.RawRecord, error) {
	c, err := DialAndLogin(ctx, f.cfg.Addr, f.cfg.Username, f.cfg.Password, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: email: %v", domain.ErrSourceUnavailable, err)
	}
	defer LogoutAndClose(c, f.log)

	if _, err := c.Select(f.cfg.Mailbox, &imap.SelectOptions{ReadOnly: !f.cfg.MarkSeen}).Wait(); err != nil {
		return nil, fmt.Errorf("%w: email: select %q: %v", domain.ErrSourceUnavailable, f.cfg.Mailbox, err)
	}

	lookback := q.Recency
	if lookback <= 0 {
		lookback = defaultLookback
	}
	msgs, err := FetchUnseen(ctx, c, f.cfg.MaxMessages, time.Now().Add(-lookback))
	if err != nil {
		return nil, fmt.Errorf("%w: email: %v", domain.ErrSourceUnavailable, err)
	}

	var (
		out  []domain.RawRecord
		seen []imap.UID
	)
	for _, m := range msgs {
		recs, ok := RecordsFromMessage(m, f.cfg.SubjectAny)
		if !ok {
			continue
		}
		f.log.Debug("alert parsed", zap.String("subject", m.Subject), zap.Int("jobs", len(recs)))
		out = append(out, recs...)
		seen = append(seen, m.UID)
	}

	if f.cfg.MarkSeen {
		if err := MarkSeen(c, seen); err != nil {
			f.log.Warn("mark seen failed", zap.Int("messages", len(seen)), zap.Error(err))
		}
	}

	if q.MaxResults > 0 && len(out) > q.MaxResults {
		out = out[:q.MaxResults]
	}
	return out, nil
}

// RecordsFromMessage parses one message. ok is false when the message is not
// a job alert matching subjectAny (empty matches any subject).
func RecordsFromMessage(m Message, subjectAny []string) (recs []domain.RawRecord, ok bool) {
	subj, bodyText, htmlBody := parseRFC822(m.RawMessage, m.Subject)
	if len(subjectAny) > 0 && !containsAnyCI(subj, subjectAny) {
		return nil, false
	}
	if !looksLikeLinkedInJobAlert(m.From, subj, bodyText+"\n"+htmlBody) {
		return nil, false
	}
	if htmlBody == "" {
		htmlBody = bodyText
	}

	jobs, err := ParseLinkedInJobAlertHTML(htmlBody)
	if err != nil {
		return nil, false
	}

	for _, j := range jobs {
		rec := domain.NewRecord(
			domain.FieldTitle, j.Title,
			domain.FieldCompany, j.Company,
			domain.FieldLocation, j.Location,
			domain.FieldSalary, j.Salary,
			domain.FieldURL, j.URL,
			domain.FieldDescription, strings.Join(nonEmpty(subj, j.Company+" · "+j.Location, j.Salary), "\n"),
			domain.FieldSource, "linkedin",
		)
		if !m.Date.IsZero() {
			rec.Set(domain.FieldPostedDate, m.Date.UTC().Format(time.RFC3339))
		}
		recs = append(recs, rec)
	}
	return recs, true
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p = util.CleanText(strings.Trim(p, " ·")); p != "" {
			out = append(out, p)
		}
	}
	return out
}
