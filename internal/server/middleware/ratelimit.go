package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterSweepEvery = 10 * time.Minute
	limiterIdleAfter  = 30 * time.Minute
)

// limiterSet hands out one token bucket per key.
type limiterSet struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	buckets map[string]*bucket
}

type bucket struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func newLimiterSet(requestsPerSecond float64, burst int) *limiterSet {
	return &limiterSet{
		limit:   rate.Limit(requestsPerSecond),
		burst:   burst,
		buckets: make(map[string]*bucket),
	}
}

func (l *limiterSet) allow(key string) bool {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastAccess = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow()
}

// evictIdle drops buckets not used since cutoff.
func (l *limiterSet) evictIdle(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if b.lastAccess.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *limiterSet) sweep(ctx context.Context) {
	ticker := time.NewTicker(limiterSweepEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			l.evictIdle(time.Now().Add(-limiterIdleAfter))
		case <-ctx.Done():
			return
		}
	}
}

// limitBy rate limits requests per key. Requests for which key reports
// false pass through unlimited. Idle buckets are swept until ctx ends.
func limitBy(ctx context.Context, requestsPerSecond float64, burst int, key func(*http.Request) (string, bool)) func(http.Handler) http.Handler {
	set := newLimiterSet(requestsPerSecond, burst)
	go set.sweep(ctx)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if k, ok := key(r); ok && !set.allow(k) {
				http.Error(w, `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitByIP limits unauthenticated endpoints per client address. It
// relies on chi's RealIP having rewritten r.RemoteAddr.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	return limitBy(ctx, requestsPerSecond, burst, func(r *http.Request) (string, bool) {
		return "ip:" + r.RemoteAddr, true
	})
}

// RateLimit limits authenticated requests per Tenant Scope, so every actor
// of a tenant shares one bucket. Actors without a scope are limited
// individually, and requests without an actor are not limited.
func RateLimit(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	return limitBy(ctx, requestsPerSecond, burst, actorKey)
}

func actorKey(r *http.Request) (string, bool) {
	actor, ok := ActorFromContext(r.Context())
	if !ok {
		return "", false
	}
	if scope := actor.Scope(); !scope.IsNone() {
		return "tenant:" + scope.String(), true
	}
	return "actor:" + actor.ID, true
}
