package fetch

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// hostLimiter rate-limits per portal hostname so parallel sources hitting
// the same host still respect one budget.
type hostLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   rate.Limit
	burst    int
}

func newHostLimiter(reqPerSec float64, burst int) *hostLimiter {
	return &hostLimiter{
		limiters: make(map[string]*rate.Limiter),
		perSec:   rate.Limit(reqPerSec),
		burst:    burst,
	}
}

func (hl *hostLimiter) forHost(host string) *rate.Limiter {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	if lim, ok := hl.limiters[host]; ok {
		return lim
	}
	lim := rate.NewLimiter(hl.perSec, hl.burst)
	hl.limiters[host] = lim
	return lim
}

func (hl *hostLimiter) wait(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return hl.forHost("_").Wait(ctx)
	}
	return hl.forHost(u.Host).Wait(ctx)
}
