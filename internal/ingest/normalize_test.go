package ingest

import (
	"errors"
	"testing"
	"time"

	"jobsearch-engine/internal/domain"
)

func TestParseSalary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		raw      string
		min, max int
		currency string
		bounded  bool
	}{
		{"15 000 - 25 000 PLN", "15000-25000", 15000, 25000, "PLN", true},
		{"15,000–25,000 zł brutto / month", "15000-25000", 15000, 25000, "PLN", true},
		{"€50k - €70k", "50000-70000", 50000, 70000, "EUR", true},
		{"20-30k PLN", "20000-30000", 20000, 30000, "PLN", true},
		{"25k - 30 EUR", "25000-30000", 25000, 30000, "EUR", true},
		{"900 - 12k USD", "900-12000", 900, 12000, "USD", true},
		{"USD 120'000", "120000", 120000, 120000, "USD", true},
		{"12.50 GBP/hour", "12", 12, 12, "GBP", true},
		{"Undisclosed", "Undisclosed", 0, 0, "", false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.in, func(t *testing.T) {
			t.Parallel()
			got := ParseSalary(tc.in)
			if got.Raw != tc.raw || got.Currency != tc.currency {
				t.Fatalf("ParseSalary(%q) = %+v", tc.in, got)
			}
			if !tc.bounded {
				if got.Min != nil || got.Max != nil {
					t.Fatalf("expected no bounds, got %+v", got)
				}
				return
			}
			if got.Min == nil || got.Max == nil || *got.Min != tc.min || *got.Max != tc.max {
				t.Fatalf("bounds = %v/%v, want %d/%d", got.Min, got.Max, tc.min, tc.max)
			}
		})
	}

	if !ParseSalary("   ").IsZero() {
		t.Fatal("blank salary should be absent")
	}
}

func TestCanonicalLocation(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Warszawa, zdalnie":            "Warszawa, Remote",
		"Remote, remote, REMOTE":       "Remote",
		"100% remote":                  "Remote",
		"Fully Remote, Work From Home": "Remote",
		"Location: Warsaw,  Warsaw":    "Warsaw",
		"Warsaw, Poland (Remote)":      "Warsaw, Poland, Remote",
		"Warszawa (praca zdalna)":      "Warszawa, Remote",
		"REMOTE - EU":                  "Remote, EU",
		"Hybrid / remote":              "Hybrid, Remote",
		"Remote/WFH":                   "Remote",
		"Remotely managed, Gdańsk":     "Remotely managed, Gdańsk",
		"  ":                           "",
	}
	for in, want := range cases {
		if got := CanonicalLocation(in); got != want {
			t.Errorf("CanonicalLocation(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalize(t *testing.T) {
	rec := domain.NewRecord(
		domain.FieldTitle, "  Senior   Business Analyst ",
		domain.FieldCompany, "Globex",
		domain.FieldLocation, "Praca zdalna",
		domain.FieldSalary, "20 000 PLN",
		domain.FieldDescription, "",
		domain.FieldPostedDate, "2024-03-05",
	)

	j, err := Normalize(rec, "nofluffjobs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if j.Title != "Senior Business Analyst" || j.Location != RemoteToken {
		t.Fatalf("unexpected job %+v", j)
	}
	if j.Description != "" {
		t.Fatalf("empty description should be absent, got %q", j.Description)
	}
	if j.SourcePlatform != "nofluffjobs" || j.Status != domain.StatusFound {
		t.Fatalf("unexpected source/status %q/%q", j.SourcePlatform, j.Status)
	}
	if j.Fingerprint != "senior_business_analyst_globex" {
		t.Fatalf("fingerprint = %q", j.Fingerprint)
	}
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	if j.PostedDate == nil || !j.PostedDate.Equal(want) {
		t.Fatalf("posted date = %v", j.PostedDate)
	}
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	t.Parallel()

	recs := []domain.RawRecord{
		domain.NewRecord(domain.FieldCompany, "Globex"),
		domain.NewRecord(domain.FieldTitle, "Analyst", domain.FieldCompany, "   "),
		domain.NewRecord(domain.FieldTitle, "Analyst"),
	}
	for i, rec := range recs {
		if _, err := Normalize(rec, "test"); !errors.Is(err, domain.ErrMalformedRecord) {
			t.Errorf("record %d: expected ErrMalformedRecord, got %v", i, err)
		}
	}
}

func TestNormalizeKeepsRecordSource(t *testing.T) {
	rec := domain.NewRecord(domain.FieldTitle, "BA", domain.FieldCompany, "X", domain.FieldSource, "linkedin")
	j, err := Normalize(rec, "email")
	if err != nil {
		t.Fatal(err)
	}
	if j.SourcePlatform != "linkedin" {
		t.Fatalf("source = %q", j.SourcePlatform)
	}
	if j.PostedDate != nil {
		t.Fatalf("posted date should be absent: %v", j.PostedDate)
	}
}
