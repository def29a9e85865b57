// Package config holds the engine's YAML configuration: the search profile,
// source settings and the cadences that drive ingestion and maintenance.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"jobsearch-engine/internal/domain"
)

// EnvPrefix is prepended to environment overrides, e.g. JOBSEARCH_STORE_DSN.
const EnvPrefix = "JOBSEARCH"

type Company struct {
	Slug string `yaml:"slug" mapstructure:"slug" json:"slug"`
	Name string `yaml:"name" mapstructure:"name" json:"name"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" mapstructure:"port" json:"port"`
		DataDir string `yaml:"data_dir" mapstructure:"data_dir" json:"data_dir"`
		LogJSON bool   `yaml:"log_json" mapstructure:"log_json" json:"log_json"`
		Debug   bool   `yaml:"debug" mapstructure:"debug" json:"debug"`
	} `yaml:"app" mapstructure:"app" json:"app"`

	Store struct {
		Driver string `yaml:"driver" mapstructure:"driver" json:"driver"` // sqlite | postgres
		Path   string `yaml:"path" mapstructure:"path" json:"path"`
		DSN    string `yaml:"dsn" mapstructure:"dsn" json:"-"`
	} `yaml:"store" mapstructure:"store" json:"store"`

	Profile struct {
		Skills       []string `yaml:"skills" mapstructure:"skills" json:"skills"`
		Competencies []string `yaml:"competencies" mapstructure:"competencies" json:"competencies"`
	} `yaml:"profile" mapstructure:"profile" json:"profile"`

	Search struct {
		Query       string   `yaml:"query" mapstructure:"query" json:"query"`
		Location    string   `yaml:"location" mapstructure:"location" json:"location"`
		Locations   []string `yaml:"locations" mapstructure:"locations" json:"locations"`
		Blacklist   []string `yaml:"blacklist" mapstructure:"blacklist" json:"blacklist"`
		MinScore    int      `yaml:"min_score" mapstructure:"min_score" json:"min_score"`
		MaxResults  int      `yaml:"max_results" mapstructure:"max_results" json:"max_results"`
		RecencyDays int      `yaml:"recency_days" mapstructure:"recency_days" json:"recency_days"`
	} `yaml:"search" mapstructure:"search" json:"search"`

	Scoring struct {
		VocabularySize int      `yaml:"vocabulary_size" mapstructure:"vocabulary_size" json:"vocabulary_size"`
		BonusIncrement int      `yaml:"bonus_increment" mapstructure:"bonus_increment" json:"bonus_increment"`
		BonusKeywords  []string `yaml:"bonus_keywords" mapstructure:"bonus_keywords" json:"bonus_keywords"`
	} `yaml:"scoring" mapstructure:"scoring" json:"scoring"`

	Schedule struct {
		IngestCron      string `yaml:"ingest_cron" mapstructure:"ingest_cron" json:"ingest_cron"`
		MaintenanceCron string `yaml:"maintenance_cron" mapstructure:"maintenance_cron" json:"maintenance_cron"`
		RunOnStart      bool   `yaml:"run_on_start" mapstructure:"run_on_start" json:"run_on_start"`
	} `yaml:"schedule" mapstructure:"schedule" json:"schedule"`

	Ingest struct {
		SourceTimeoutSeconds int `yaml:"source_timeout_seconds" mapstructure:"source_timeout_seconds" json:"source_timeout_seconds"`
		SourceDelayMillis    int `yaml:"source_delay_millis" mapstructure:"source_delay_millis" json:"source_delay_millis"`
		HostRequestsPerSec   int `yaml:"host_requests_per_sec" mapstructure:"host_requests_per_sec" json:"host_requests_per_sec"`
	} `yaml:"ingest" mapstructure:"ingest" json:"ingest"`

	Maintenance struct {
		HighPriorityScore        int  `yaml:"high_priority_score" mapstructure:"high_priority_score" json:"high_priority_score"`
		BatchSize                int  `yaml:"batch_size" mapstructure:"batch_size" json:"batch_size"`
		FollowUpDays             int  `yaml:"follow_up_days" mapstructure:"follow_up_days" json:"follow_up_days"`
		GenerationTimeoutSeconds int  `yaml:"generation_timeout_seconds" mapstructure:"generation_timeout_seconds" json:"generation_timeout_seconds"`
		AllowPartial             bool `yaml:"allow_partial" mapstructure:"allow_partial" json:"allow_partial"`
	} `yaml:"maintenance" mapstructure:"maintenance" json:"maintenance"`

	Generation struct {
		Enabled    bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
		Provider   string `yaml:"provider" mapstructure:"provider" json:"provider"`
		Model      string `yaml:"model" mapstructure:"model" json:"model"`
		APIKey     string `yaml:"api_key" mapstructure:"api_key" json:"-"`
		APIKeyFile string `yaml:"api_key_file" mapstructure:"api_key_file" json:"api_key_file"`
		BaseCVPath string `yaml:"base_cv_path" mapstructure:"base_cv_path" json:"base_cv_path"`
		OutputDir  string `yaml:"output_dir" mapstructure:"output_dir" json:"output_dir"`
	} `yaml:"generation" mapstructure:"generation" json:"generation"`

	Sources struct {
		NoFluffJobs struct {
			Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
			BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url"`
		} `yaml:"nofluffjobs" mapstructure:"nofluffjobs" json:"nofluffjobs"`
		JustJoinIT struct {
			Enabled bool   `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
			BaseURL string `yaml:"base_url" mapstructure:"base_url" json:"base_url"`
			APIURL  string `yaml:"api_url" mapstructure:"api_url" json:"api_url"`
		} `yaml:"justjoinit" mapstructure:"justjoinit" json:"justjoinit"`
		Greenhouse struct {
			Enabled   bool      `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
			Companies []Company `yaml:"companies" mapstructure:"companies" json:"companies"`
		} `yaml:"greenhouse" mapstructure:"greenhouse" json:"greenhouse"`
		Lever struct {
			Enabled   bool      `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
			Companies []Company `yaml:"companies" mapstructure:"companies" json:"companies"`
		} `yaml:"lever" mapstructure:"lever" json:"lever"`
		SmartRecruiters struct {
			Enabled   bool      `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
			Companies []Company `yaml:"companies" mapstructure:"companies" json:"companies"`
		} `yaml:"smartrecruiters" mapstructure:"smartrecruiters" json:"smartrecruiters"`
	} `yaml:"sources" mapstructure:"sources" json:"sources"`

	Email struct {
		Enabled          bool     `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
		IMAPHost         string   `yaml:"imap_host" mapstructure:"imap_host" json:"imap_host"`
		IMAPPort         int      `yaml:"imap_port" mapstructure:"imap_port" json:"imap_port"`
		Username         string   `yaml:"username" mapstructure:"username" json:"username"`
		Password         string   `yaml:"password" mapstructure:"password" json:"-"`
		PasswordFile     string   `yaml:"password_file" mapstructure:"password_file" json:"password_file"`
		Mailbox          string   `yaml:"mailbox" mapstructure:"mailbox" json:"mailbox"`
		SearchSubjectAny []string `yaml:"search_subject_any" mapstructure:"search_subject_any" json:"search_subject_any"`
		MaxMessages      int      `yaml:"max_messages" mapstructure:"max_messages" json:"max_messages"`
		MarkSeen         bool     `yaml:"mark_seen" mapstructure:"mark_seen" json:"mark_seen"`
	} `yaml:"email" mapstructure:"email" json:"email"`

	Events struct {
		RedisURL string `yaml:"redis_url" mapstructure:"redis_url" json:"-"`
		Channel  string `yaml:"channel" mapstructure:"channel" json:"channel"`
	} `yaml:"events" mapstructure:"events" json:"events"`
}

// Load reads the YAML file at path with JOBSEARCH_* environment overrides and
// merges the profile overlay that sits next to it.
func Load(path string) (Config, error) {
	return LoadWith(viper.New(), path)
}

// LoadWith is Load on a caller-supplied viper instance, so flags bound on it
// take precedence over the file.
func LoadWith(v *viper.Viper, path string) (Config, error) {
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := OverlayProfile(&cfg, filepath.Join(filepath.Dir(path), ProfileFile)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// setDefaults covers scalar settings a hand-written config.yml may omit.
// Lists are left alone: an omitted list means no entries.
func setDefaults(v *viper.Viper) {
	d := Default()
	for key, val := range map[string]any{
		"app.port":                               d.App.Port,
		"store.driver":                           d.Store.Driver,
		"store.path":                             d.Store.Path,
		"search.min_score":                       domain.DefaultMinScore,
		"search.max_results":                     d.Search.MaxResults,
		"search.recency_days":                    d.Search.RecencyDays,
		"scoring.vocabulary_size":                d.Scoring.VocabularySize,
		"scoring.bonus_increment":                d.Scoring.BonusIncrement,
		"ingest.source_timeout_seconds":          d.Ingest.SourceTimeoutSeconds,
		"ingest.source_delay_millis":             d.Ingest.SourceDelayMillis,
		"ingest.host_requests_per_sec":           d.Ingest.HostRequestsPerSec,
		"maintenance.high_priority_score":        d.Maintenance.HighPriorityScore,
		"maintenance.batch_size":                 d.Maintenance.BatchSize,
		"maintenance.follow_up_days":             d.Maintenance.FollowUpDays,
		"maintenance.generation_timeout_seconds": d.Maintenance.GenerationTimeoutSeconds,
		"generation.provider":                    d.Generation.Provider,
		"generation.model":                       d.Generation.Model,
		"email.imap_port":                        d.Email.IMAPPort,
		"email.mailbox":                          d.Email.Mailbox,
		"email.max_messages":                     d.Email.MaxMessages,
		"events.channel":                         d.Events.Channel,
	} {
		v.SetDefault(key, val)
	}
}

func (c Config) DomainProfile() domain.Profile {
	return domain.Profile{
		Skills:       append([]string(nil), c.Profile.Skills...),
		Competencies: append([]string(nil), c.Profile.Competencies...),
	}
}

func (c Config) Criteria() domain.Criteria {
	return domain.Criteria{
		Query:      c.Search.Query,
		Location:   c.Search.Location,
		Locations:  append([]string(nil), c.Search.Locations...),
		Blacklist:  append([]string(nil), c.Search.Blacklist...),
		MinScore:   c.Search.MinScore,
		MaxResults: c.Search.MaxResults,
		Recency:    time.Duration(c.Search.RecencyDays) * 24 * time.Hour,
	}
}

// ResolvePath makes p absolute against the data dir. Empty stays empty.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.Ingest.SourceTimeoutSeconds) * time.Second
}

func (c Config) SourceDelay() time.Duration {
	return time.Duration(c.Ingest.SourceDelayMillis) * time.Millisecond
}

func (c Config) GenerationTimeout() time.Duration {
	return time.Duration(c.Maintenance.GenerationTimeoutSeconds) * time.Second
}

func (c Config) FollowUpAfter() time.Duration {
	return time.Duration(c.Maintenance.FollowUpDays) * 24 * time.Hour
}
