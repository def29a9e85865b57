package workflow

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/store"
)

type fakeArtifacts struct {
	mu        sync.Mutex
	cvErr     map[int64]error
	letterErr map[int64]error
	block     bool
	calls     int
}

func (f *fakeArtifacts) OptimizeCV(ctx context.Context, job domain.Job) (string, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	err := f.cvErr[job.ID]
	f.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return "cv-" + job.Company, nil
}

func (f *fakeArtifacts) GenerateCoverLetter(ctx context.Context, job domain.Job) (string, error) {
	f.mu.Lock()
	err := f.letterErr[job.ID]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return "letter-" + job.Company, nil
}

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newStore(t *testing.T) *store.DB {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.Options{Driver: store.SQLite, Path: filepath.Join(t.TempDir(), "jobs.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func insert(t *testing.T, db *store.DB, title, company string, score int) domain.Job {
	t.Helper()
	ctx := context.Background()
	j := domain.Job{
		Fingerprint: domain.Fingerprint(title, company),
		Title:       title,
		Company:     company,
		MatchScore:  score,
		Status:      domain.StatusFound,
	}
	if _, err := db.Upsert(ctx, j); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	jobs, err := db.Query(ctx, store.QueryFilter{Limit: 100})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	for _, got := range jobs {
		if got.Fingerprint == j.Fingerprint {
			return got
		}
	}
	t.Fatalf("%s not stored", j.Fingerprint)
	return domain.Job{}
}

func markApplied(t *testing.T, db *store.DB, id int64, at time.Time) {
	t.Helper()
	ctx := context.Background()
	for _, s := range []domain.Status{domain.StatusReadyToApply, domain.StatusApplied} {
		if _, err := db.UpdateStatus(ctx, id, s, at); err != nil {
			t.Fatalf("status %s: %v", s, err)
		}
	}
}

func TestHighPriorityPass(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	both := insert(t, db, "Senior BA", "Globex", 95)
	broken := insert(t, db, "Lead BA", "Initech", 90)
	low := insert(t, db, "Junior BA", "Umbrella", 70)

	arts := &fakeArtifacts{letterErr: map[int64]error{broken.ID: errors.New("quota")}}
	hub := events.NewHub()
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	tr := &Trigger{
		Log:       zaptest.NewLogger(t),
		Store:     db,
		Artifacts: arts,
		Bus:       &events.Bus{Hub: hub},
		Now:       func() time.Time { return testNow },
	}
	rep, err := tr.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if rep.Candidates != 2 || rep.Prepared != 1 || rep.GenerationFails != 1 {
		t.Fatalf("unexpected report %+v", rep)
	}

	got, _ := db.Get(ctx, both.ID)
	if got.Status != domain.StatusReadyToApply || got.CVVersion != "cv-Globex" || got.CoverLetterPath != "letter-Globex" {
		t.Fatalf("prepared job: %+v", got)
	}
	for _, id := range []int64{broken.ID, low.ID} {
		got, _ := db.Get(ctx, id)
		if got.Status != domain.StatusFound || got.CVVersion != "" {
			t.Fatalf("job %d should be untouched: %+v", id, got)
		}
	}

	select {
	case evt := <-sub:
		if !containsType(evt, events.TypeJobReady) {
			t.Fatalf("first event = %s", evt)
		}
	default:
		t.Fatal("expected a ready event")
	}

	// the failed job is retried on the next cycle
	arts.letterErr = nil
	rep, err = tr.RunCycle(ctx)
	if err != nil {
		t.Fatalf("second RunCycle: %v", err)
	}
	if rep.Candidates != 1 || rep.Prepared != 1 {
		t.Fatalf("retry report %+v", rep)
	}
}

func TestAllowPartial(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	j := insert(t, db, "Senior BA", "Globex", 95)

	tr := &Trigger{
		Store:     db,
		Artifacts: &fakeArtifacts{letterErr: map[int64]error{j.ID: errors.New("quota")}},
		Options:   Options{AllowPartial: true},
		Now:       func() time.Time { return testNow },
	}
	rep, err := tr.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if rep.Prepared != 1 || rep.GenerationFails != 1 {
		t.Fatalf("report %+v", rep)
	}
	got, _ := db.Get(ctx, j.ID)
	if got.Status != domain.StatusReadyToApply || got.CVVersion != "cv-Globex" || got.CoverLetterPath != "" {
		t.Fatalf("partial job: %+v", got)
	}
}

func TestGenerationTimeout(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()
	j := insert(t, db, "Senior BA", "Globex", 95)

	tr := &Trigger{
		Store:     db,
		Artifacts: &fakeArtifacts{block: true},
		Options:   Options{GenerationTimeout: 20 * time.Millisecond},
		Now:       func() time.Time { return testNow },
	}
	rep, err := tr.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if rep.GenerationFails != 1 || rep.Prepared != 0 {
		t.Fatalf("report %+v", rep)
	}
	got, _ := db.Get(ctx, j.ID)
	if got.Status != domain.StatusFound {
		t.Fatalf("job should stay found: %+v", got)
	}
}

func TestFollowUpSweep(t *testing.T) {
	db := newStore(t)
	ctx := context.Background()

	stale := insert(t, db, "Analyst", "Stale", 70)
	answered := insert(t, db, "Analyst", "Answered", 70)
	fresh := insert(t, db, "Analyst", "Fresh", 70)

	markApplied(t, db, stale.ID, testNow.AddDate(0, 0, -8))
	markApplied(t, db, answered.ID, testNow.AddDate(0, 0, -8))
	markApplied(t, db, fresh.ID, testNow.AddDate(0, 0, -3))

	// an applied record that already carries a response date
	if _, err := db.Pool.ExecContext(ctx, `UPDATE jobs SET response_date = ? WHERE id = ?`,
		testNow.AddDate(0, 0, -1).Format("2006-01-02T15:04:05.000000Z"), answered.ID); err != nil {
		t.Fatalf("set response_date: %v", err)
	}

	tr := &Trigger{Store: db, Now: func() time.Time { return testNow }}
	rep, err := tr.RunCycle(ctx)
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if rep.FollowUpsFlagged != 1 {
		t.Fatalf("flagged = %d, want 1", rep.FollowUpsFlagged)
	}

	got, _ := db.Get(ctx, stale.ID)
	if got.Status != domain.StatusFollowUpNeeded || got.FollowUpDate == nil || !got.FollowUpDate.Equal(testNow) {
		t.Fatalf("stale job: %+v", got)
	}
	for _, id := range []int64{answered.ID, fresh.ID} {
		got, _ := db.Get(ctx, id)
		if got.Status != domain.StatusApplied || got.FollowUpDate != nil {
			t.Fatalf("job %d should stay applied: %+v", id, got)
		}
	}

	// idempotent
	rep, err = tr.RunCycle(ctx)
	if err != nil || rep.FollowUpsFlagged != 0 {
		t.Fatalf("second sweep: rep=%+v err=%v", rep, err)
	}
}

type failingStore struct{ Store }

func (failingStore) HighPriority(context.Context, int, int) ([]domain.Job, error) {
	return nil, domain.ErrStoreUnavailable
}

func TestStoreFailureIsReturned(t *testing.T) {
	tr := &Trigger{Store: failingStore{}, Artifacts: &fakeArtifacts{}}
	if _, err := tr.RunCycle(context.Background()); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func containsType(evt, typ string) bool {
	return strings.Contains(evt, `"type":"`+typ+`"`)
}
