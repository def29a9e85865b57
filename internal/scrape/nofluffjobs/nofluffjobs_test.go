package nofluffjobs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/scrape/util"
)

const listing = `<html><body>
<div class="list-container">
  <a class="posting-list-item" href="/pl/job/senior-business-analyst-globex-warszawa?utm_source=list">
    <h3 class="posting-title__position">Senior Business Analyst</h3>
    <span class="company-name">Globex</span>
    <span class="posting-info__location">Warszawa</span>
    <span class="salary">15 000 - 25 000 PLN</span>
    <span class="posting-tag">SQL</span><span class="posting-tag">BPMN</span>
  </a>
  <a class="posting-list-item" href="/pl/job/ba-no-company">
    <h3>Business Analyst</h3>
  </a>
</div>
</body></html>`

func TestFetchParsesCards(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pl/jobs" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, listing)
	}))
	defer srv.Close()

	s := New(srv.URL+"/pl", util.NewClient(5*time.Second, nil), nil)
	recs, err := s.Fetch(context.Background(), types.Query{Term: "business analyst", Location: "Warszawa"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotQuery != "city=Warszawa&criteria=business+analyst&page=1" {
		t.Errorf("query = %q", gotQuery)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	want := map[string]string{
		domain.FieldTitle:        "Senior Business Analyst",
		domain.FieldCompany:      "Globex",
		domain.FieldLocation:     "Warszawa",
		domain.FieldSalary:       "15 000 - 25 000 PLN",
		domain.FieldURL:          srv.URL + "/pl/job/senior-business-analyst-globex-warszawa",
		domain.FieldRequirements: "SQL, BPMN",
	}
	for f, v := range want {
		if got, _ := recs[0].Get(f); got != v {
			t.Errorf("%s = %q, want %q", f, got, v)
		}
	}

	if _, ok := recs[1].Get(domain.FieldCompany); ok {
		t.Error("second card has no company and must not get one")
	}
}

func TestFetchMaxResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listing)
	}))
	defer srv.Close()

	s := New(srv.URL, util.NewClient(5*time.Second, nil), nil)
	recs, err := s.Fetch(context.Background(), types.Query{MaxResults: 1})
	if err != nil || len(recs) != 1 {
		t.Fatalf("recs=%d err=%v", len(recs), err)
	}
}

func TestFetchArticleFallback(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><article><h2>Data Analyst</h2><div class="company">Initech</div><a href="https://other.example/o/1">go</a></article></body></html>`)
	}))
	defer srv.Close()

	s := New(srv.URL, util.NewClient(5*time.Second, nil), nil)
	recs, err := s.Fetch(context.Background(), types.Query{})
	if err != nil || len(recs) != 1 {
		t.Fatalf("recs=%d err=%v", len(recs), err)
	}
	if u, _ := recs[0].Get(domain.FieldURL); u != "https://other.example/o/1" {
		t.Errorf("url = %q", u)
	}
	if c, _ := recs[0].Get(domain.FieldCompany); c != "Initech" {
		t.Errorf("company = %q", c)
	}
}

func TestFetchFailureIsSourceUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "blocked", http.StatusForbidden)
	}))
	defer srv.Close()

	s := New(srv.URL, util.NewClient(5*time.Second, nil), nil)
	recs, err := s.Fetch(context.Background(), types.Query{Term: "analyst"})
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
	if len(recs) != 0 {
		t.Fatalf("no records may be fabricated on failure, got %d", len(recs))
	}
}
