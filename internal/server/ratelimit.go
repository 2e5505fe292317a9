package server

import (
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// quoteLimiter rate-limits quote submissions per client IP with a
// token bucket per address. Idle entries are dropped after an hour.
type quoteLimiter struct {
	mu      sync.Mutex
	perIP   map[string]*limiterEntry
	limit   rate.Limit
	burst   int
	maxIdle time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newQuoteLimiter(perMinute float64, burst int) *quoteLimiter {
	if perMinute <= 0 {
		perMinute = 6
	}
	if burst <= 0 {
		burst = 1
	}
	return &quoteLimiter{
		perIP:   make(map[string]*limiterEntry),
		limit:   rate.Limit(perMinute / 60.0),
		burst:   burst,
		maxIdle: time.Hour,
	}
}

// Allow reports whether the client behind addr may submit another
// quote now. addr is either an ip:port remote address or a bare IP
// (RealIP-rewritten); buckets are keyed on the IP alone so a client
// cannot reset its bucket by reconnecting from a new port.
func (l *quoteLimiter) Allow(addr string) bool {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	entry, ok := l.perIP[addr]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.perIP[addr] = entry
	}
	entry.lastSeen = now

	if len(l.perIP) > 1024 {
		for ip, e := range l.perIP {
			if now.Sub(e.lastSeen) > l.maxIdle {
				delete(l.perIP, ip)
			}
		}
	}
	return entry.limiter.Allow()
}
