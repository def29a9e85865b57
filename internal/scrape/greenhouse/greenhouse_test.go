package greenhouse

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

func TestFetchBoard(t *testing.T) {
	t.Parallel()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/boards/initech/jobs":
			if r.URL.Query().Get("content") != "true" {
				t.Errorf("content param missing: %s", r.URL.RawQuery)
			}
			fmt.Fprintf(w, `{"jobs":[
  {"id":11,"title":"Business Analyst","absolute_url":"%[1]s/initech/jobs/11#app","updated_at":"2024-05-01T10:00:00-04:00",
   "location":{"name":"Remote"},"content":"&lt;p&gt;Gather &amp;amp; refine requirements&lt;/p&gt;"},
  {"id":12,"title":"Business Analyst, CRM","absolute_url":"%[1]s/initech/jobs/12","updated_at":"2024-05-02T10:00:00Z",
   "location":{"name":""},"content":""},
  {"id":13,"title":"Designer","absolute_url":"%[1]s/initech/jobs/13","location":{"name":"Remote"}}
]}`, srv.URL)
		case "/initech/jobs/12":
			fmt.Fprint(w, `<html><body><div class="location">Warsaw, Poland</div></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := New(Config{APIBase: srv.URL, Companies: []Company{{Slug: "initech", Name: "Initech"}}}, util.NewClient(5*time.Second, nil), nil)
	recs, err := s.Fetch(context.Background(), types.Query{Term: "analyst"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}

	check := func(rec domain.RawRecord, field, want string) {
		t.Helper()
		if got, _ := rec.Get(field); got != want {
			t.Errorf("%s = %q, want %q", field, got, want)
		}
	}
	check(recs[0], domain.FieldURL, srv.URL+"/initech/jobs/11")
	check(recs[0], domain.FieldDescription, "Gather & refine requirements")
	check(recs[0], domain.FieldPostedDate, "2024-05-01T10:00:00-04:00")
	check(recs[0], domain.FieldCompany, "Initech")
	check(recs[1], domain.FieldLocation, "Warsaw, Poland")
}

func TestFetchPartialFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/boards/up/jobs" {
			fmt.Fprint(w, `{"jobs":[{"id":1,"title":"Analyst","absolute_url":"https://x.example/1","location":{"name":"Remote"}}]}`)
			return
		}
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	client := util.NewClient(5*time.Second, nil)

	s := New(Config{APIBase: srv.URL, Companies: []Company{{Slug: "down", Name: "Down"}, {Slug: "up", Name: "Up"}}}, client, nil)
	recs, err := s.Fetch(context.Background(), types.Query{})
	if err != nil || len(recs) != 1 {
		t.Fatalf("partial: recs=%d err=%v", len(recs), err)
	}

	s = New(Config{APIBase: srv.URL, Companies: []Company{{Slug: "down", Name: "Down"}}}, client, nil)
	if _, err := s.Fetch(context.Background(), types.Query{}); !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}
