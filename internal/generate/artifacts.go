// Package generate produces per-job application artifacts (a tailored CV and
// a cover letter) through a text generation backend.
package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"
	"unicode"

	"code.sajari.com/docconv"

	"jobsearch-engine/internal/domain"
)

// Generator turns a prompt into text.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Writer renders prompts for a job, calls the Generator and stores the result
// under Dir. Returned references are paths relative to Dir.
type Writer struct {
	Gen     Generator
	BaseCV  string
	Profile domain.Profile
	Dir     string
	Now     func() time.Time
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// OptimizeCV writes a CV tailored to job and returns its reference.
func (w *Writer) OptimizeCV(ctx context.Context, job domain.Job) (string, error) {
	return w.produce(ctx, cvPrompt, job, "cv", ".md")
}

// GenerateCoverLetter writes a cover letter for job and returns its reference.
func (w *Writer) GenerateCoverLetter(ctx context.Context, job domain.Job) (string, error) {
	return w.produce(ctx, letterPrompt, job, "cover-letter", ".txt")
}

func (w *Writer) produce(ctx context.Context, t *template.Template, job domain.Job, kind, ext string) (string, error) {
	if w.Gen == nil {
		return "", fmt.Errorf("%w: no generator configured", domain.ErrGenerationFailure)
	}
	prompt, err := render(t, job, w.Profile, w.BaseCV)
	if err != nil {
		return "", fmt.Errorf("%w: render %s prompt: %v", domain.ErrGenerationFailure, kind, err)
	}

	text, err := w.Gen.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %s for job %d: %v", domain.ErrGenerationFailure, kind, job.ID, err)
	}

	name := fmt.Sprintf("%d-%s-%s-%s%s", job.ID, slug(job.Company), kind, w.now().UTC().Format("20060102"), ext)
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir: %v", domain.ErrGenerationFailure, err)
	}
	if err := os.WriteFile(filepath.Join(w.Dir, name), []byte(text+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", domain.ErrGenerationFailure, name, err)
	}
	return name, nil
}

// LoadBaseCV extracts the text of the user's base CV. Office and PDF formats
// go through docconv; anything else is read as plain text.
func LoadBaseCV(path string) (string, error) {
	if path == "" {
		return "", errors.New("base cv path is empty")
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".docx", ".doc", ".rtf", ".odt":
		res, err := docconv.ConvertPath(path)
		if err != nil {
			return "", fmt.Errorf("parse base cv %s: %w", path, err)
		}
		return strings.TrimSpace(res.Body), nil
	default:
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read base cv %s: %w", path, err)
		}
		return strings.TrimSpace(string(b)), nil
	}
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if r < unicode.MaxASCII {
				b.WriteRune(r)
				dash = false
				continue
			}
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if len(out) > 40 {
		out = strings.TrimSuffix(out[:40], "-")
	}
	if out == "" {
		return "job"
	}
	return out
}
