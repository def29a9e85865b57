package util

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostLimiter paces requests per host so several companies on one ATS share
// a budget. Hosts that differ only by a "www." prefix share a bucket.
type HostLimiter struct {
	every rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

func NewHostLimiter(reqPerSec float64, burst int) *HostLimiter {
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{every: rate.Limit(reqPerSec), burst: burst, hosts: map[string]*rate.Limiter{}}
}

// Wait blocks until a request to rawURL's host is allowed or ctx ends.
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	return hl.bucket(hostKey(rawURL)).Wait(ctx)
}

func (hl *HostLimiter) bucket(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()
	lim := hl.hosts[host]
	if lim == nil {
		lim = rate.NewLimiter(hl.every, hl.burst)
		hl.hosts[host] = lim
	}
	return lim
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
