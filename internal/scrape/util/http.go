package util

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const UserAgent = "JobSearch/1.0 (+local)"

// Client is the HTTP client adapters share: one timeout, one user agent, and
// an optional per-host limiter applied before every request.
type Client struct {
	HC      *http.Client
	Limiter *HostLimiter
}

func NewClient(timeout time.Duration, limiter *HostLimiter) *Client {
	return &Client{HC: &http.Client{Timeout: timeout}, Limiter: limiter}
}

// Get issues a GET and returns the open response for 2xx statuses. The
// caller closes the body.
func (c *Client) Get(ctx context.Context, rawURL, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx, rawURL); err != nil {
			return nil, err
		}
	}

	hc := c.HC
	if hc == nil {
		hc = http.DefaultClient
	}
	res, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(res.Body, 256))
		res.Body.Close()
		return nil, fmt.Errorf("GET %s: status %d: %s", rawURL, res.StatusCode, CleanText(string(b)))
	}
	return res, nil
}

// GetJSON decodes a JSON response body into v.
func (c *Client) GetJSON(ctx context.Context, rawURL string, v any) error {
	res, err := c.Get(ctx, rawURL, "application/json")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return nil
}

// GetDocument parses an HTML response.
func (c *Client) GetDocument(ctx context.Context, rawURL string) (*goquery.Document, error) {
	res, err := c.Get(ctx, rawURL, "text/html,application/xhtml+xml")
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", rawURL, err)
	}
	return doc, nil
}

// HTMLToText flattens an HTML fragment to whitespace-collapsed text.
func HTMLToText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return CleanText(fragment)
	}
	doc.Find("script,style").Remove()
	doc.Find("br,p,li,div,h1,h2,h3,h4").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml(" ")
	})
	return CleanText(doc.Text())
}
