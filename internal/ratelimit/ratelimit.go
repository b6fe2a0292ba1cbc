package ratelimit

import (
	"sync"
	"time"
)

// slidingWindow tracks request timestamps within one span against a limit.
// A limit of zero or below means unlimited.
type slidingWindow struct {
	span  time.Duration
	limit int
	times []time.Time
}

func (w *slidingWindow) prune(now time.Time) {
	w.times = filterTimes(w.times, now.Add(-w.span))
}

func (w *slidingWindow) full() bool {
	return w.limit > 0 && len(w.times) >= w.limit
}

// RateLimiter enforces request quotas for the import API across stacked
// minute, hour, and day windows.
type RateLimiter struct {
	enabled bool

	mu      sync.Mutex
	windows [3]slidingWindow
}

// NewRateLimiter creates a limiter with the given per-window limits
func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		windows: [3]slidingWindow{
			{span: time.Minute, limit: requestsPerMinute},
			{span: time.Hour, limit: requestsPerHour},
			{span: 24 * time.Hour, limit: requestsPerDay},
		},
	}
}

// AllowRequest claims a slot in every window, or reports that some window
// is exhausted. A denied request is not recorded.
func (rl *RateLimiter) AllowRequest() bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for i := range rl.windows {
		rl.windows[i].prune(now)
		if rl.windows[i].full() {
			return false
		}
	}

	for i := range rl.windows {
		rl.windows[i].times = append(rl.windows[i].times, now)
	}
	return true
}

// filterTimes keeps only timestamps after the cutoff
func filterTimes(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// Stats reports current usage against configured limits
type Stats struct {
	Enabled           bool `json:"enabled"`
	RequestsThisMin   int  `json:"requests_this_minute"`
	RequestsThisHour  int  `json:"requests_this_hour"`
	RequestsToday     int  `json:"requests_today"`
	RequestsPerMinute int  `json:"requests_per_minute_limit"`
	RequestsPerHour   int  `json:"requests_per_hour_limit"`
	RequestsPerDay    int  `json:"requests_per_day_limit"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for i := range rl.windows {
		rl.windows[i].prune(now)
	}

	return Stats{
		Enabled:           rl.enabled,
		RequestsThisMin:   len(rl.windows[0].times),
		RequestsThisHour:  len(rl.windows[1].times),
		RequestsToday:     len(rl.windows[2].times),
		RequestsPerMinute: rl.windows[0].limit,
		RequestsPerHour:   rl.windows[1].limit,
		RequestsPerDay:    rl.windows[2].limit,
	}
}
