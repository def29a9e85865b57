package rank

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
)

func TestFilterChain(t *testing.T) {
	criteria := domain.Criteria{
		Locations: []string{"Remote", "Warsaw"},
		Blacklist: []string{"Acme"},
		MinScore:  70,
	}
	jobs := []domain.Job{
		{Title: "BA", Company: "Acme Corp", Location: "Remote, EU", MatchScore: 80},
		{Title: "BA", Company: "Initech", Location: "Krakow", MatchScore: 90},
		{Title: "BA", Company: "Hooli", Location: "Remote", MatchScore: 65},
		{Title: "BA", Company: "Globex", Location: "Warsaw", MatchScore: 75},
		{Title: "BA", Company: "Umbrella", Location: "", MatchScore: 95},
	}

	kept, steps := Apply(zap.NewNop(), Filters(criteria), jobs)
	if len(kept) != 1 || kept[0].Company != "Globex" {
		t.Fatalf("expected only Globex to survive, got %+v", kept)
	}

	want := []Step{
		{Name: "location", Initial: 5, Dropped: 2, Left: 3},
		{Name: "blacklist", Initial: 3, Dropped: 1, Left: 2},
		{Name: "min_score", Initial: 2, Dropped: 1, Left: 1},
	}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %+v, want %+v", i, steps[i], want[i])
		}
	}
}

func TestFilterNoLocationsKeepsAll(t *testing.T) {
	jobs := []domain.Job{
		{Company: "A", Location: "", MatchScore: 60},
		{Company: "B", Location: "Anywhere", MatchScore: 61},
	}
	kept, _ := Apply(nil, Filters(domain.Criteria{MinScore: 60}), jobs)
	if len(kept) != 2 {
		t.Fatalf("expected both jobs kept, got %d", len(kept))
	}
}

func TestBlacklistCaseInsensitive(t *testing.T) {
	f := blacklistFilter{deny: lowerList([]string{" ACME "})}
	if f.Keep(domain.Job{Company: "acme industries"}) {
		t.Fatal("expected acme industries to be dropped")
	}
	if !f.Keep(domain.Job{Company: "Globex"}) {
		t.Fatal("expected Globex to be kept")
	}
}

func TestRankOrdering(t *testing.T) {
	day := func(d int) *time.Time {
		ts := time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
		return &ts
	}
	jobs := []domain.Job{
		{Title: "undated", MatchScore: 80},
		{Title: "old", MatchScore: 80, PostedDate: day(1)},
		{Title: "top", MatchScore: 95},
		{Title: "new", MatchScore: 80, PostedDate: day(10)},
		{Title: "undated-2", MatchScore: 80},
		{Title: "low", MatchScore: 70, PostedDate: day(20)},
	}

	got := Rank(jobs)
	want := []string{"top", "new", "old", "undated", "undated-2", "low"}
	for i, title := range want {
		if got[i].Title != title {
			t.Fatalf("position %d = %q, want %q (order %v)", i, got[i].Title, title, titles(got))
		}
	}
	if jobs[0].Title != "undated" {
		t.Fatal("Rank modified its input")
	}
}

func TestFilterAndRank(t *testing.T) {
	c := domain.Criteria{MinScore: 70}
	jobs := []domain.Job{
		{Title: "b", MatchScore: 71},
		{Title: "a", MatchScore: 90},
		{Title: "c", MatchScore: 10},
	}
	got, steps := FilterAndRank(zap.NewNop(), c, jobs)
	if len(got) != 2 || got[0].Title != "a" || got[1].Title != "b" {
		t.Fatalf("unexpected result %v", titles(got))
	}
	if last := steps[len(steps)-1]; last.Name != "min_score" || last.Dropped != 1 || last.Left != 2 {
		t.Fatalf("last step = %+v", last)
	}
}

func titles(jobs []domain.Job) []string {
	out := make([]string, len(jobs))
	for i, j := range jobs {
		out[i] = j.Title
	}
	return out
}
