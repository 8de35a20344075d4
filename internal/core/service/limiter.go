package service

import (
	"golang.org/x/time/rate"

	"github.com/yndnr/gatekeep/pkg/cmap"
)

// maxTrackedClients bounds the limiter registry. When it is full, idle
// limiters are dropped first; if that frees nothing the registry starts
// over, which only ever loosens throttling.
const maxTrackedClients = 10000

// LimiterRegistry keeps one token-bucket limiter per client key.
type LimiterRegistry struct {
	limiters *cmap.Map[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewLimiterRegistry creates a registry allowing perSecond attempts with the
// given burst. It returns nil when perSecond is not positive, and a nil
// registry allows everything.
func NewLimiterRegistry(perSecond float64, burst int) *LimiterRegistry {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &LimiterRegistry{
		limiters: cmap.New[string, *rate.Limiter](),
		limit:    rate.Limit(perSecond),
		burst:    burst,
	}
}

// Allow reports whether key may make another attempt now.
func (r *LimiterRegistry) Allow(key string) bool {
	if r == nil {
		return true
	}
	return r.get(key).Allow()
}

func (r *LimiterRegistry) get(key string) *rate.Limiter {
	if limiter, ok := r.limiters.Get(key); ok {
		return limiter
	}

	if r.limiters.Count() >= maxTrackedClients {
		if r.Prune() == 0 {
			r.limiters.Clear()
		}
	}

	limiter, _ := r.limiters.GetOrSet(key, rate.NewLimiter(r.limit, r.burst))
	return limiter
}

// Prune drops limiters whose bucket has refilled, since a fresh limiter
// would behave the same. It returns the number dropped.
func (r *LimiterRegistry) Prune() int {
	if r == nil {
		return 0
	}
	full := float64(r.burst)
	return r.limiters.DeleteFunc(func(_ string, l *rate.Limiter) bool {
		return l.Tokens() >= full
	})
}

// Len returns the number of tracked clients.
func (r *LimiterRegistry) Len() int {
	if r == nil {
		return 0
	}
	return r.limiters.Count()
}
