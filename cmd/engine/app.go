package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/generate"
	"jobsearch-engine/internal/ingest"
	"jobsearch-engine/internal/logger"
	"jobsearch-engine/internal/rank"
	"jobsearch-engine/internal/scheduler"
	"jobsearch-engine/internal/scrape"
	"jobsearch-engine/internal/secrets"
	"jobsearch-engine/internal/store"
	"jobsearch-engine/internal/workflow"
)

// GeminiKeyEnv is the last-resort environment variable for the Gemini key.
const GeminiKeyEnv = config.EnvPrefix + "_GEMINI_API_KEY"

// engine is everything a command needs, built once per process. The live
// config sits in cfg so serve can swap it after PUT /config.
type engine struct {
	log     *zap.Logger
	cfgPath string
	cfg     atomic.Value // config.Config
	db      *store.DB
	bus     *events.Bus
	redis   *events.RedisPublisher

	ingest      *scheduler.Cycle
	maintenance *scheduler.Cycle
}

func loadConfig() (config.Config, string, error) {
	dataDir := viper.GetString("data_dir")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return config.Config{}, "", err
	}

	path, err := config.EnsureUserConfig(dataDir)
	if err != nil {
		return config.Config{}, "", fmt.Errorf("config bootstrap failed: %w", err)
	}

	v := viper.New()
	for _, key := range []string{"app.debug", "app.log_json", "app.port"} {
		if viper.IsSet(key) {
			v.Set(key, viper.Get(key))
		}
	}
	cfg, err := config.LoadWith(v, path)
	if err != nil {
		return cfg, path, err
	}
	cfg.App.DataDir = dataDir
	return cfg, path, nil
}

// newEngine loads the config, opens and migrates the store and builds both
// cycles. Callers must close it.
func newEngine(ctx context.Context) (*engine, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.App.LogJSON, cfg.App.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	normalized, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		log.Warn("config", zap.String("warning", w))
	}
	if !v.OK() {
		return nil, fmt.Errorf("invalid config %s: %w", path, &v)
	}
	cfg = normalized

	db, err := store.Open(ctx, store.Options{
		Driver: store.Dialect(cfg.Store.Driver),
		Path:   cfg.ResolvePath(cfg.Store.Path),
		DSN:    cfg.Store.DSN,
	})
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	e := &engine{log: log, cfgPath: path, db: db}
	e.cfg.Store(cfg)

	e.bus = &events.Bus{Hub: events.NewHub(), Log: log.Named("events")}
	if cfg.Events.RedisURL != "" {
		rp, err := events.NewRedisPublisher(ctx, cfg.Events.RedisURL, cfg.Events.Channel)
		if err != nil {
			// events are best-effort; the engine still runs without redis
			log.Warn("redis events disabled", zap.Error(err))
		} else {
			e.redis = rp
			e.bus.Remote = rp
		}
	}

	e.ingest = &scheduler.Cycle{
		Name:  "ingest",
		Guard: scheduler.NewGuard(filepath.Join(cfg.App.DataDir, "ingest.lock")),
		Run:   e.runIngest,
		Log:   log.Named("scheduler"),
		Bus:   e.bus,
	}
	e.maintenance = &scheduler.Cycle{
		Name:  "maintenance",
		Guard: scheduler.NewGuard(filepath.Join(cfg.App.DataDir, "maintenance.lock")),
		Run:   e.runMaintenance,
		Log:   log.Named("scheduler"),
		Bus:   e.bus,
	}
	return e, nil
}

func (e *engine) config() config.Config { return e.cfg.Load().(config.Config) }

func (e *engine) Close() {
	if e.redis != nil {
		_ = e.redis.Close()
	}
	if err := e.db.Close(); err != nil {
		e.log.Warn("closing store", zap.Error(err))
	}
	_ = e.log.Sync()
}

// runIngest is one ingestion cycle on a config snapshot. A query override
// attached by POST /ingest/run replaces the configured term and location.
func (e *engine) runIngest(ctx context.Context) (int, error) {
	cfg := e.config()
	crit := cfg.Criteria()
	if o, ok := ingest.OverrideFrom(ctx); ok {
		crit = o.Apply(crit)
	}

	p := &ingest.Pipeline{
		Log:     e.log.Named("ingest"),
		Store:   e.db,
		Sources: scrape.BuildFetchers(cfg, e.log),
		Scorer: rank.Scorer{
			VocabularySize: cfg.Scoring.VocabularySize,
			BonusIncrement: cfg.Scoring.BonusIncrement,
			BonusKeywords:  cfg.Scoring.BonusKeywords,
		},
		SourceTimeout: cfg.SourceTimeout(),
		SourceDelay:   cfg.SourceDelay(),
		OnNewJob: func(j domain.Job) {
			e.bus.Emit(ctx, "", events.TypeJobCreated, map[string]any{
				"fingerprint": j.Fingerprint,
				"title":       j.Title,
				"company":     j.Company,
				"match_score": j.MatchScore,
			})
		},
	}
	if len(p.Sources) == 0 {
		e.log.Warn("no sources enabled")
	}

	rep, err := p.RunCycle(ctx, cfg.DomainProfile(), crit)
	return rep.Inserted, err
}

// runMaintenance is one maintenance cycle. Without generation configured the
// high-priority pass is skipped and only follow-ups are swept.
func (e *engine) runMaintenance(ctx context.Context) (int, error) {
	cfg := e.config()

	t := &workflow.Trigger{
		Log:   e.log.Named("workflow"),
		Store: e.db,
		Bus:   e.bus,
		Options: workflow.Options{
			HighPriorityScore: cfg.Maintenance.HighPriorityScore,
			BatchSize:         cfg.Maintenance.BatchSize,
			FollowUpAfter:     cfg.FollowUpAfter(),
			GenerationTimeout: cfg.GenerationTimeout(),
			AllowPartial:      cfg.Maintenance.AllowPartial,
		},
	}

	if cfg.Generation.Enabled {
		w, err := e.artifactWriter(ctx, cfg)
		if err != nil {
			e.log.Warn("generation unavailable; skipping high-priority pass", zap.Error(err))
		} else {
			t.Artifacts = w
		}
	}

	rep, err := t.RunCycle(ctx)
	return rep.Prepared + rep.FollowUpsFlagged, err
}

func (e *engine) artifactWriter(ctx context.Context, cfg config.Config) (*generate.Writer, error) {
	key, err := secrets.Load(secrets.Source{
		Name:           "gemini api key",
		File:           cfg.ResolvePath(cfg.Generation.APIKeyFile),
		Value:          cfg.Generation.APIKey,
		KeyringAccount: secrets.GeminiAccount(),
		Env:            GeminiKeyEnv,
	})
	if err != nil {
		return nil, err
	}

	gen, err := generate.NewGemini(ctx, key, cfg.Generation.Model)
	if err != nil {
		return nil, err
	}

	baseCV, err := generate.LoadBaseCV(cfg.ResolvePath(cfg.Generation.BaseCVPath))
	if err != nil {
		return nil, err
	}

	dir := cfg.ResolvePath(cfg.Generation.OutputDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &generate.Writer{Gen: gen, BaseCV: baseCV, Profile: cfg.DomainProfile(), Dir: dir}, nil
}
