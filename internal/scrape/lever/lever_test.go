package lever

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

func TestFetchMapsPostings(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v0/postings/globex":
			created := time.Date(2024, 5, 30, 12, 0, 0, 0, time.UTC).UnixMilli()
			fmt.Fprintf(w, `[
  {"id":"a1","text":"Senior Business Analyst","hostedUrl":"%[1]s/globex/a1?utm_source=x","createdAt":%[2]d,
   "categories":{"location":"Warsaw, Warsaw"},"description":"<p>Own <b>requirements</b></p>",
   "lists":[{"text":"You have","content":"<li>SQL</li><li>BPMN</li>"}]},
  {"id":"a2","text":"Business Analyst II","hostedUrl":"%[1]s/globex/a2","createdAt":%[2]d,
   "categories":{"location":""},"descriptionPlain":"Plain text body"},
  {"id":"a3","text":"Office Manager","hostedUrl":"%[1]s/globex/a3","createdAt":%[2]d,"categories":{"location":"Berlin"}},
  {"id":"","text":"No id","hostedUrl":"x"}
]`, srv.URL, created)
		case "/globex/a2":
			fmt.Fprint(w, `<html><body><div class="posting-categories"><div class="location">Remote</div></div></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := New(Config{
		APIBase:   srv.URL,
		Companies: []Company{{Slug: "globex", Name: "Globex"}},
	}, util.NewClient(5*time.Second, nil), zaptest.NewLogger(t))

	recs, err := s.Fetch(context.Background(), types.Query{Term: "business analyst"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	first := recs[0]
	want := map[string]string{
		domain.FieldTitle:        "Senior Business Analyst",
		domain.FieldCompany:      "Globex",
		domain.FieldLocation:     "Warsaw",
		domain.FieldURL:          srv.URL + "/globex/a1",
		domain.FieldDescription:  "Own requirements",
		domain.FieldRequirements: "You have: SQL BPMN",
		domain.FieldPostedDate:   "2024-05-30T12:00:00Z",
	}
	for f, v := range want {
		if got, _ := first.Get(f); got != v {
			t.Errorf("%s = %q, want %q", f, got, v)
		}
	}

	if loc, _ := recs[1].Get(domain.FieldLocation); loc != "Remote" {
		t.Errorf("hydrated location = %q, want Remote", loc)
	}
	if desc, _ := recs[1].Get(domain.FieldDescription); desc != "Plain text body" {
		t.Errorf("description = %q", desc)
	}
}

func TestFetchAllBoardsDown(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	s := New(Config{APIBase: srv.URL, Companies: []Company{{Slug: "a", Name: "A"}, {Slug: "b", Name: "B"}}},
		util.NewClient(5*time.Second, nil), nil)
	if _, err := s.Fetch(context.Background(), types.Query{}); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestFetchRecencyAndLimit(t *testing.T) {
	t.Parallel()

	fresh := time.Now().Add(-time.Hour).UnixMilli()
	stale := time.Now().Add(-30 * 24 * time.Hour).UnixMilli()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
  {"id":"1","text":"Analyst A","hostedUrl":"https://jobs.example/1","createdAt":%d,"categories":{"location":"Remote"}},
  {"id":"2","text":"Analyst B","hostedUrl":"https://jobs.example/2","createdAt":%d,"categories":{"location":"Remote"}},
  {"id":"3","text":"Analyst C","hostedUrl":"https://jobs.example/3","createdAt":%d,"categories":{"location":"Remote"}}
]`, fresh, stale, fresh)
	}))
	defer srv.Close()

	s := New(Config{APIBase: srv.URL, Companies: []Company{{Slug: "x", Name: "X"}}}, util.NewClient(5*time.Second, nil), nil)

	recs, err := s.Fetch(context.Background(), types.Query{Recency: 14 * 24 * time.Hour})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recency filter kept %d, want 2", len(recs))
	}

	recs, err = s.Fetch(context.Background(), types.Query{MaxResults: 1})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("limit kept %d, want 1", len(recs))
	}
}
