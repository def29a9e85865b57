package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"jobsearch-engine/internal/domain"
)

func TestDefaultIsValid(t *testing.T) {
	_, v := NormalizeAndValidate(Default())
	if !v.OK() {
		t.Fatalf("default config has errors: %v", v.Errors)
	}
}

func TestEnsureUserConfigAndLoad(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Fatalf("path = %q", path)
	}

	t.Setenv("JOBSEARCH_SEARCH_MIN_SCORE", "75")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Search.MinScore != 75 {
		t.Fatalf("env override not applied: min_score=%d", cfg.Search.MinScore)
	}
	if cfg.Store.Driver != "sqlite" || cfg.Maintenance.HighPriorityScore != 85 {
		t.Fatalf("defaults not loaded: %+v", cfg.Store)
	}

	crit := cfg.Criteria()
	if crit.MinScore != 75 || crit.Recency != 14*24*time.Hour {
		t.Fatalf("criteria = %+v", crit)
	}

	// A second call must not overwrite the user's file.
	if err := os.WriteFile(path, []byte("app:\n  port: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureUserConfig(dir); err != nil {
		t.Fatal(err)
	}
	b, _ := os.ReadFile(path)
	if string(b) != "app:\n  port: 9999\n" {
		t.Fatal("EnsureUserConfig overwrote an existing file")
	}
}

func TestProfileOverlay(t *testing.T) {
	dir := t.TempDir()
	path, err := EnsureUserConfig(dir)
	if err != nil {
		t.Fatal(err)
	}
	overlay := "skills:\n  - golang\n  - kubernetes\nblacklist:\n  - Acme\n"
	if err := os.WriteFile(filepath.Join(dir, ProfileFile), []byte(overlay), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	p := cfg.DomainProfile()
	if len(p.Skills) != 2 || p.Skills[0] != "golang" {
		t.Fatalf("skills = %v", p.Skills)
	}
	if len(p.Competencies) == 0 {
		t.Fatal("competencies should survive an overlay that does not set them")
	}
	if len(cfg.Search.Blacklist) != 1 || cfg.Search.Blacklist[0] != "Acme" {
		t.Fatalf("blacklist = %v", cfg.Search.Blacklist)
	}
}

func TestLoadFillsOmittedScalars(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	minimal := "profile:\n  skills:\n    - sql\nsearch:\n  query: business analyst\n"
	if err := os.WriteFile(path, []byte(minimal), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, v := NormalizeAndValidate(cfg)
	if !v.OK() {
		t.Fatalf("minimal config has errors: %v", v.Errors)
	}
	if got := out.Criteria().MinScore; got != domain.DefaultMinScore {
		t.Fatalf("min score = %d, want %d", got, domain.DefaultMinScore)
	}
	if out.Maintenance.HighPriorityScore != 85 || out.Ingest.SourceTimeoutSeconds != 120 {
		t.Fatalf("maintenance/ingest defaults missing: %+v %+v", out.Maintenance, out.Ingest)
	}
	if len(out.Search.Locations) != 0 {
		t.Fatalf("omitted list should stay empty, got %v", out.Search.Locations)
	}

	// an explicit zero is the user's choice
	if err := os.WriteFile(path, []byte(minimal+"  min_score: 0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if cfg, err = Load(path); err != nil {
		t.Fatal(err)
	}
	if cfg.Search.MinScore != 0 {
		t.Fatalf("explicit min_score 0 overridden: %d", cfg.Search.MinScore)
	}
}

func TestNormalizeAndValidate(t *testing.T) {
	cfg := Default()
	cfg.App.Port = 0
	cfg.Store.Driver = " Postgres "
	cfg.Schedule.IngestCron = "every now and then"
	cfg.Search.Locations = []string{" Remote ", "remote", "", "Warsaw"}
	cfg.Search.Blacklist = []string{"Warsaw"}

	out, v := NormalizeAndValidate(cfg)
	if v.OK() {
		t.Fatal("expected validation errors")
	}
	wantErrs := []string{
		"app.port must be 1..65535",
		"store.dsn is required for the postgres driver",
	}
	for _, want := range wantErrs {
		if !contains(v.Errors, want) {
			t.Errorf("missing error %q in %v", want, v.Errors)
		}
	}
	if len(v.Errors) != 3 {
		t.Errorf("expected 3 errors (port, dsn, cron), got %v", v.Errors)
	}
	if out.Store.Driver != "postgres" {
		t.Fatalf("driver not normalized: %q", out.Store.Driver)
	}
	if len(out.Search.Locations) != 2 || out.Search.Locations[0] != "Remote" {
		t.Fatalf("locations = %v", out.Search.Locations)
	}
	if len(v.Warnings) == 0 {
		t.Fatal("expected a warning for the location/blacklist overlap")
	}
}

func TestSaveAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)

	bad := Default()
	bad.Profile.Skills = nil
	err := SaveAtomic(path, bad)
	var v *Validation
	if !errors.As(err, &v) {
		t.Fatalf("expected *Validation error, got %v", err)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatal("invalid config must not be written")
	}

	cfg := Default()
	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatalf("first save: %v", err)
	}
	cfg.Search.MinScore = 80
	if err := SaveAtomic(path, cfg); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Fatalf("backup missing: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Search.MinScore != 80 {
		t.Fatalf("min_score = %d", loaded.Search.MinScore)
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
