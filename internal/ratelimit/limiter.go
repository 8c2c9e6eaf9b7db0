// internal/ratelimit/limiter.go
package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// entryTTL is how long an idle client keeps its limiter state.
	entryTTL = 10 * time.Minute

	// pruneInterval is how often the background prune runs.
	pruneInterval = time.Minute
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// PerKey tracks one token-bucket limiter per client key. Allow never
// blocks, and idle entries are pruned so memory stays bounded.
type PerKey struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int

	stopPrune chan struct{}
	wg        sync.WaitGroup
}

// New creates a per-key limiter and starts its prune loop.
func New(limit rate.Limit, burst int) *PerKey {
	p := &PerKey{
		limiters:  make(map[string]*entry),
		limit:     limit,
		burst:     burst,
		stopPrune: make(chan struct{}),
	}

	p.wg.Add(1)
	go p.pruneLoop()

	return p
}

func (p *PerKey) pruneLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.prune()
		case <-p.stopPrune:
			return
		}
	}
}

func (p *PerKey) prune() {
	p.mu.Lock()
	defer p.mu.Unlock()

	cutoff := time.Now().Add(-entryTTL)
	for key, e := range p.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(p.limiters, key)
		}
	}
}

// Allow reports whether the key may proceed right now.
func (p *PerKey) Allow(key string) bool {
	p.mu.Lock()
	e, ok := p.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(p.limit, p.burst)}
		p.limiters[key] = e
	}
	e.lastSeen = time.Now()
	p.mu.Unlock()

	return e.limiter.Allow()
}

// Len returns the number of tracked keys.
func (p *PerKey) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.limiters)
}

// Close stops the prune loop and waits for it to finish.
func (p *PerKey) Close() {
	close(p.stopPrune)
	p.wg.Wait()
}

// Middleware limits requests per client IP, answering 429 when the
// client's budget is spent.
func (p *PerKey) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !p.Allow(host) {
			http.Error(w, "too many requests, slow down", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
