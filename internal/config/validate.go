package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

func trimList(xs []string) []string {
	seen := map[string]bool{}
	var ys []string
	for _, x := range xs {
		x = strings.Join(strings.Fields(x), " ")
		if x == "" {
			continue
		}
		key := strings.ToLower(x)
		if seen[key] {
			continue
		}
		seen[key] = true
		ys = append(ys, x)
	}
	return ys
}

// NormalizeAndValidate returns a copy with trimmed, de-duplicated lists and
// lower-cased enums, plus what is wrong with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	out.Profile.Skills = trimList(out.Profile.Skills)
	out.Profile.Competencies = trimList(out.Profile.Competencies)
	out.Search.Locations = trimList(out.Search.Locations)
	out.Search.Blacklist = trimList(out.Search.Blacklist)
	out.Scoring.BonusKeywords = trimList(out.Scoring.BonusKeywords)
	out.Email.SearchSubjectAny = trimList(out.Email.SearchSubjectAny)
	out.Store.Driver = strings.ToLower(strings.TrimSpace(out.Store.Driver))
	out.Generation.Provider = strings.ToLower(strings.TrimSpace(out.Generation.Provider))

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Store.Driver {
	case "", "sqlite":
		if strings.TrimSpace(out.Store.Path) == "" {
			res.addErr("store.path is required for the sqlite driver")
		}
	case "postgres":
		if strings.TrimSpace(out.Store.DSN) == "" {
			res.addErr("store.dsn is required for the postgres driver")
		}
	default:
		res.addErr("store.driver must be sqlite or postgres, got %q", out.Store.Driver)
	}

	// profile
	if len(out.Profile.Skills) == 0 {
		res.addErr("profile.skills must have at least 1 term")
	}

	// search criteria
	if out.Search.MinScore < 0 || out.Search.MinScore > 100 {
		res.addErr("search.min_score must be 0..100")
	}
	if out.Search.MaxResults < 0 {
		res.addErr("search.max_results must be >= 0")
	}
	if out.Search.RecencyDays < 0 {
		res.addErr("search.recency_days must be >= 0")
	}
	if strings.TrimSpace(out.Search.Query) == "" {
		res.addWarn("search.query is empty; sources will return unfiltered listings.")
	}
	if len(out.Search.Locations) > 50 {
		res.addWarn("search.locations has %d entries; consider tightening it for faster filtering.", len(out.Search.Locations))
	}

	// scoring
	if out.Scoring.VocabularySize < 0 {
		res.addErr("scoring.vocabulary_size must be >= 0")
	} else if out.Scoring.VocabularySize > 0 && out.Scoring.VocabularySize < 2 {
		res.addWarn("scoring.vocabulary_size below 2 always falls back to keyword overlap.")
	}
	if out.Scoring.BonusIncrement < 0 {
		res.addErr("scoring.bonus_increment must be >= 0")
	}

	// schedule
	for _, c := range []struct{ name, spec string }{
		{"schedule.ingest_cron", out.Schedule.IngestCron},
		{"schedule.maintenance_cron", out.Schedule.MaintenanceCron},
	} {
		name, spec := c.name, c.spec
		if strings.TrimSpace(spec) == "" {
			res.addWarn("%s is empty; that cycle only runs on demand.", name)
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			res.addErr("%s: %v", name, err)
		}
	}

	// ingest
	if out.Ingest.SourceTimeoutSeconds <= 0 {
		res.addErr("ingest.source_timeout_seconds must be > 0")
	}
	if out.Ingest.SourceDelayMillis < 0 {
		res.addErr("ingest.source_delay_millis must be >= 0")
	} else if out.Ingest.SourceDelayMillis < 500 {
		res.addWarn("ingest.source_delay_millis is very low (%d) and may cause rate limits.", out.Ingest.SourceDelayMillis)
	}
	if out.Ingest.HostRequestsPerSec <= 0 {
		res.addErr("ingest.host_requests_per_sec must be > 0")
	}

	// maintenance
	if out.Maintenance.HighPriorityScore < 0 || out.Maintenance.HighPriorityScore > 100 {
		res.addErr("maintenance.high_priority_score must be 0..100")
	}
	if out.Maintenance.BatchSize <= 0 {
		res.addErr("maintenance.batch_size must be > 0")
	}
	if out.Maintenance.FollowUpDays <= 0 {
		res.addErr("maintenance.follow_up_days must be > 0")
	}
	if out.Maintenance.GenerationTimeoutSeconds <= 0 {
		res.addErr("maintenance.generation_timeout_seconds must be > 0")
	}

	// generation
	if out.Generation.Enabled {
		if out.Generation.Provider != "gemini" {
			res.addErr("generation.provider must be gemini, got %q", out.Generation.Provider)
		}
		if strings.TrimSpace(out.Generation.Model) == "" {
			res.addErr("generation.model is required when generation.enabled=true")
		}
		if strings.TrimSpace(out.Generation.BaseCVPath) == "" {
			res.addWarn("generation.base_cv_path is empty; CVs will be generated from the job alone.")
		}
	}

	// sources
	src := out.Sources
	if !src.NoFluffJobs.Enabled && !src.JustJoinIT.Enabled && !src.Greenhouse.Enabled && !src.Lever.Enabled && !src.SmartRecruiters.Enabled && !out.Email.Enabled {
		res.addWarn("no sources enabled; ingestion cycles will find nothing.")
	}
	if src.NoFluffJobs.Enabled && strings.TrimSpace(src.NoFluffJobs.BaseURL) == "" {
		res.addErr("sources.nofluffjobs.base_url is required when enabled")
	}
	if src.JustJoinIT.Enabled && strings.TrimSpace(src.JustJoinIT.APIURL) == "" {
		res.addErr("sources.justjoinit.api_url is required when enabled")
	}
	checkCompanies := func(name string, enabled bool, cos []Company) {
		if !enabled {
			return
		}
		if len(cos) == 0 {
			res.addWarn("%s is enabled with no companies.", name)
		}
		for i, c := range cos {
			if strings.TrimSpace(c.Slug) == "" {
				res.addErr("%s.companies[%d].slug is required", name, i)
			}
		}
	}
	checkCompanies("sources.greenhouse", src.Greenhouse.Enabled, src.Greenhouse.Companies)
	checkCompanies("sources.lever", src.Lever.Enabled, src.Lever.Companies)
	checkCompanies("sources.smartrecruiters", src.SmartRecruiters.Enabled, src.SmartRecruiters.Companies)

	// email required fields if enabled (password not required here; it may be in the keychain)
	if out.Email.Enabled {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when email.enabled=true")
		}
		if strings.TrimSpace(out.Email.Mailbox) == "" {
			res.addErr("email.mailbox is required when email.enabled=true")
		}
		if len(out.Email.SearchSubjectAny) == 0 {
			res.addWarn("email.search_subject_any is empty; every unseen message will be parsed.")
		}
	}

	// simple conflict check
	blocked := map[string]bool{}
	for _, b := range out.Search.Blacklist {
		blocked[strings.ToLower(b)] = true
	}
	for _, a := range out.Search.Locations {
		if blocked[strings.ToLower(a)] {
			res.addWarn("term appears in both search.locations and search.blacklist: %q", a)
		}
	}

	if out.Events.RedisURL != "" && strings.TrimSpace(out.Events.Channel) == "" {
		res.addErr("events.channel is required when events.redis_url is set")
	}

	return out, res
}
