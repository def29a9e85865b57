package util

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func TestNormalizeLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Location: Warsaw, Poland, warsaw", "Warsaw, Poland"},
		{"Lokalizacja: Kraków", "Kraków"},
		{"  Remote  ", "Remote"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeLocation(tt.in); got != tt.want {
				t.Fatalf("NormalizeLocation(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLocationFromDocument(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, html, want string
	}{
		{
			name: "selector",
			html: `<div class="job__location"> Gdańsk, Poland </div>`,
			want: "Gdańsk, Poland",
		},
		{
			name: "og description",
			html: `<html><head><meta property="og:description" content="Team: Data | Location: Wrocław | Full-time"></head><body></body></html>`,
			want: "Wrocław",
		},
		{
			name: "labelled body text",
			html: "<body><p>Job location: Remote\nApply below</p></body>",
			want: "Remote",
		},
		{
			name: "none",
			html: "<body><p>Great team</p></body>",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			if err != nil {
				t.Fatal(err)
			}
			if got := LocationFromDocument(doc); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHostLimiterSharesBucketPerHost(t *testing.T) {
	t.Parallel()

	hl := NewHostLimiter(0.001, 1)
	ctx := context.Background()
	if err := hl.Wait(ctx, "https://api.lever.co/v0/postings/a"); err != nil {
		t.Fatal(err)
	}
	// a different host has its own burst
	if err := hl.Wait(ctx, "https://boards-api.greenhouse.io/v1/boards/b/jobs"); err != nil {
		t.Fatal(err)
	}

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if err := hl.Wait(short, "https://API.lever.co/v0/postings/c"); err == nil {
		t.Fatal("second request to the same host should have to wait")
	}
}
