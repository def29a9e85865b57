// Package scrape assembles the configured job sources into fetchers the
// ingestion pipeline can run.
package scrape

import (
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/scrape/email"
	"jobsearch-engine/internal/scrape/greenhouse"
	"jobsearch-engine/internal/scrape/justjoinit"
	"jobsearch-engine/internal/scrape/lever"
	"jobsearch-engine/internal/scrape/nofluffjobs"
	"jobsearch-engine/internal/scrape/smartrecruiters"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
	"jobsearch-engine/internal/secrets"
)

// IMAPPasswordEnv is the last-resort environment variable for the mailbox
// password.
const IMAPPasswordEnv = config.EnvPrefix + "_IMAP_PASSWORD"

const defaultHTTPTimeout = 30 * time.Second

// BuildFetchers returns one fetcher per enabled source. All HTTP sources share
// a client and a per-host rate limiter. The e-mail source is left out, with a
// warning, when its password cannot be resolved.
func BuildFetchers(cfg config.Config, log *zap.Logger) []types.Fetcher {
	if log == nil {
		log = zap.NewNop()
	}

	timeout := cfg.SourceTimeout()
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	rps := float64(cfg.Ingest.HostRequestsPerSec)
	if rps <= 0 {
		rps = 2
	}
	client := util.NewClient(timeout, util.NewHostLimiter(rps, 2))

	var out []types.Fetcher
	src := cfg.Sources

	if src.NoFluffJobs.Enabled {
		out = append(out, nofluffjobs.New(src.NoFluffJobs.BaseURL, client, log))
	}
	if src.JustJoinIT.Enabled {
		out = append(out, justjoinit.New(src.JustJoinIT.BaseURL, src.JustJoinIT.APIURL, client, log))
	}
	if src.Greenhouse.Enabled && len(src.Greenhouse.Companies) > 0 {
		out = append(out, greenhouse.New(greenhouse.Config{Companies: greenhouseCompanies(src.Greenhouse.Companies)}, client, log))
	}
	if src.Lever.Enabled && len(src.Lever.Companies) > 0 {
		out = append(out, lever.New(lever.Config{Companies: leverCompanies(src.Lever.Companies)}, client, log))
	}
	if src.SmartRecruiters.Enabled && len(src.SmartRecruiters.Companies) > 0 {
		out = append(out, smartrecruiters.New(smartrecruiters.Config{Companies: smartRecruitersCompanies(src.SmartRecruiters.Companies)}, client, log))
	}

	if cfg.Email.Enabled {
		if f, err := emailFetcher(cfg, log); err != nil {
			log.Warn("email source disabled", zap.Error(err))
		} else {
			out = append(out, f)
		}
	}
	return out
}

func emailFetcher(cfg config.Config, log *zap.Logger) (*email.Fetcher, error) {
	e := cfg.Email
	port := e.IMAPPort
	if port == 0 {
		port = 993
	}

	pw, err := secrets.Load(secrets.Source{
		Name:           "imap password",
		File:           cfg.ResolvePath(e.PasswordFile),
		Value:          e.Password,
		KeyringAccount: secrets.IMAPAccount(e.Username, e.IMAPHost),
		Env:            IMAPPasswordEnv,
	})
	if err != nil {
		return nil, err
	}

	return email.New(email.Config{
		Addr:        net.JoinHostPort(e.IMAPHost, strconv.Itoa(port)),
		Username:    e.Username,
		Password:    pw,
		Mailbox:     e.Mailbox,
		SubjectAny:  e.SearchSubjectAny,
		MaxMessages: e.MaxMessages,
		MarkSeen:    e.MarkSeen,
	}, log), nil
}

func greenhouseCompanies(in []config.Company) []greenhouse.Company {
	out := make([]greenhouse.Company, 0, len(in))
	for _, c := range in {
		out = append(out, greenhouse.Company{Slug: c.Slug, Name: c.Name})
	}
	return out
}

func leverCompanies(in []config.Company) []lever.Company {
	out := make([]lever.Company, 0, len(in))
	for _, c := range in {
		out = append(out, lever.Company{Slug: c.Slug, Name: c.Name})
	}
	return out
}

func smartRecruitersCompanies(in []config.Company) []smartrecruiters.Company {
	out := make([]smartrecruiters.Company, 0, len(in))
	for _, c := range in {
		out = append(out, smartrecruiters.Company{Slug: c.Slug, Name: c.Name})
	}
	return out
}
