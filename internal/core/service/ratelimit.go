package service

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/respkv/pkg/cmap"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// LimiterRegistry keeps one token bucket per client key, usually the
// remote IP.
type LimiterRegistry struct {
	limit    rate.Limit
	burst    int
	limiters *cmap.Map[*limiterEntry]
	now      func() time.Time
}

// NewLimiterRegistry allows perSecond events per key with the given burst.
func NewLimiterRegistry(perSecond float64, burst int) *LimiterRegistry {
	return &LimiterRegistry{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: cmap.New[*limiterEntry](),
		now:      time.Now,
	}
}

// Allow consumes one token for key.
func (r *LimiterRegistry) Allow(key string) bool {
	now := r.now()
	e, _ := r.limiters.GetOrCreate(key, func() *limiterEntry {
		return &limiterEntry{limiter: rate.NewLimiter(r.limit, r.burst)}
	})
	e.lastSeen.Store(now.UnixNano())
	return e.limiter.AllowN(now, 1)
}

// Prune forgets keys not seen for idle and returns how many were removed.
func (r *LimiterRegistry) Prune(idle time.Duration) int {
	cutoff := r.now().Add(-idle).UnixNano()
	var stale []string
	r.limiters.Range(func(k string, e *limiterEntry) bool {
		if e.lastSeen.Load() < cutoff {
			stale = append(stale, k)
		}
		return true
	})
	for _, k := range stale {
		r.limiters.Delete(k)
	}
	return len(stale)
}

// Len returns the number of tracked keys.
func (r *LimiterRegistry) Len() int {
	return r.limiters.Count()
}
