package generate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"google.golang.org/genai"

	"jobsearch-engine/internal/domain"
)

type fakeGen struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeGen) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func fixedNow() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

func testJob() domain.Job {
	return domain.Job{
		ID:           7,
		Title:        "Senior Business Analyst",
		Company:      "Globex Corp.",
		Location:     "Remote",
		Description:  "Own requirements with stakeholders.",
		Requirements: "SQL, BPMN",
	}
}

func TestWriterOptimizeCV(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	gen := &fakeGen{reply: "# Tailored CV"}
	w := &Writer{
		Gen:     gen,
		BaseCV:  "Jane Doe, analyst",
		Profile: domain.Profile{Skills: []string{"sql", "bpmn"}},
		Dir:     dir,
		Now:     fixedNow,
	}

	ref, err := w.OptimizeCV(context.Background(), testJob())
	if err != nil {
		t.Fatalf("OptimizeCV: %v", err)
	}
	if ref != "7-globex-corp-cv-20260304.md" {
		t.Fatalf("ref = %q", ref)
	}
	b, err := os.ReadFile(filepath.Join(dir, ref))
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if strings.TrimSpace(string(b)) != "# Tailored CV" {
		t.Fatalf("artifact = %q", b)
	}

	p := gen.prompts[0]
	for _, want := range []string{"Senior Business Analyst", "Globex Corp.", "Requirements:\nSQL, BPMN", "sql, bpmn", "Jane Doe, analyst"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q:\n%s", want, p)
		}
	}
}

func TestWriterCoverLetter(t *testing.T) {
	t.Parallel()

	w := &Writer{Gen: &fakeGen{reply: "Dear team"}, Dir: t.TempDir(), Now: fixedNow}
	ref, err := w.GenerateCoverLetter(context.Background(), testJob())
	if err != nil {
		t.Fatalf("GenerateCoverLetter: %v", err)
	}
	if ref != "7-globex-corp-cover-letter-20260304.txt" {
		t.Fatalf("ref = %q", ref)
	}
}

func TestWriterFailuresAreGenerationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		w    *Writer
	}{
		{"backend error", &Writer{Gen: &fakeGen{err: errors.New("quota")}, Dir: t.TempDir()}},
		{"no generator", &Writer{Dir: t.TempDir()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.w.OptimizeCV(context.Background(), testJob())
			if !errors.Is(err, domain.ErrGenerationFailure) {
				t.Fatalf("err = %v, want ErrGenerationFailure", err)
			}
		})
	}
}

func TestLoadBaseCVPlainText(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cv.txt")
	if err := os.WriteFile(path, []byte("  Jane Doe\nAnalyst \n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadBaseCV(path)
	if err != nil {
		t.Fatalf("LoadBaseCV: %v", err)
	}
	if got != "Jane Doe\nAnalyst" {
		t.Fatalf("got %q", got)
	}

	if _, err := LoadBaseCV(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSlug(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Globex Corp.":  "globex-corp",
		"  ACME  ":      "acme",
		"":              "job",
		"Ünïcödé":       "n-c-d",
		"a/b\\c":        "a-b-c",
	}
	for in, want := range tests {
		if got := slug(in); got != want {
			t.Errorf("slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJoinCandidates(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: " first "}, nil, {Text: ""}}}},
			nil,
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "second"}}}},
		},
	}
	got, err := joinCandidates(resp)
	if err != nil {
		t.Fatalf("joinCandidates: %v", err)
	}
	if got != "first\nsecond" {
		t.Fatalf("got %q", got)
	}

	if _, err := joinCandidates(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGemini(context.Background(), "  ", ""); err == nil {
		t.Fatal("expected error without api key")
	}
}
