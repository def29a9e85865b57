package scrape

import (
	"testing"

	"github.com/zalando/go-keyring"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/scrape/types"
)

func names(fs []types.Fetcher) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Name())
	}
	return out
}

func TestBuildFetchersFollowsEnabledFlags(t *testing.T) {
	var cfg config.Config
	cfg.Sources.NoFluffJobs.Enabled = true
	cfg.Sources.JustJoinIT.Enabled = true
	cfg.Sources.Greenhouse.Enabled = true
	cfg.Sources.Greenhouse.Companies = []config.Company{{Slug: "acme", Name: "Acme"}}
	cfg.Sources.Lever.Enabled = true // no companies: skipped
	cfg.Sources.SmartRecruiters.Enabled = true
	cfg.Sources.SmartRecruiters.Companies = []config.Company{{Slug: "globex", Name: "Globex"}}
	cfg.Email.Enabled = true
	cfg.Email.IMAPHost = "imap.example.com"
	cfg.Email.Username = "me@example.com"
	cfg.Email.Password = "app-password"

	got := names(BuildFetchers(cfg, nil))
	want := []string{"nofluffjobs", "justjoinit", "greenhouse", "smartrecruiters", "email"}
	if len(got) != len(want) {
		t.Fatalf("fetchers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fetchers = %v, want %v", got, want)
		}
	}
}

func TestBuildFetchersSkipsEmailWithoutPassword(t *testing.T) {
	keyring.MockInit()
	t.Setenv(IMAPPasswordEnv, "")

	var cfg config.Config
	cfg.Email.Enabled = true
	cfg.Email.IMAPHost = "imap.example.com"
	cfg.Email.Username = "me@example.com"

	if got := BuildFetchers(cfg, nil); len(got) != 0 {
		t.Fatalf("fetchers = %v, want none", names(got))
	}

	t.Setenv(IMAPPasswordEnv, "from-env")
	if got := names(BuildFetchers(cfg, nil)); len(got) != 1 || got[0] != "email" {
		t.Fatalf("fetchers = %v, want [email]", got)
	}
}
