package ratelimit

import (
	"log"
	"sync"
	"time"
)

// ListingLimiter strictly caps listing-page fetches per hour. Auction sites
// block aggressive crawlers, so the importer funnels every listing fetch
// through a single hourly quota with a blocking Acquire.
type ListingLimiter struct {
	perHour int
	window  []time.Time
	mu      sync.Mutex
}

// NewListingLimiter creates a limiter allowing perHour fetches per hour
func NewListingLimiter(perHour int) *ListingLimiter {
	return &ListingLimiter{
		perHour: perHour,
		window:  make([]time.Time, 0, perHour),
	}
}

// Acquire blocks until a fetch slot is available, then claims it.
// caller is a label for log attribution (api, worker, scheduler).
func (ll *ListingLimiter) Acquire(caller string) {
	for {
		ll.mu.Lock()
		now := time.Now()
		ll.window = filterTimes(ll.window, now.Add(-1*time.Hour))

		if len(ll.window) < ll.perHour {
			ll.window = append(ll.window, now)
			ll.mu.Unlock()
			return
		}

		// Window full: wait until the oldest entry ages out
		oldest := ll.window[0]
		ll.mu.Unlock()

		wait := time.Until(oldest.Add(1 * time.Hour))
		if wait < time.Second {
			wait = time.Second
		}
		log.Printf("[ListingLimiter] caller=%s quota=%d/hour exhausted, waiting %v", caller, ll.perHour, wait.Round(time.Second))
		time.Sleep(wait)
	}
}

// TryAcquire claims a slot without blocking. Returns false if the hourly
// quota is exhausted.
func (ll *ListingLimiter) TryAcquire() bool {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	now := time.Now()
	ll.window = filterTimes(ll.window, now.Add(-1*time.Hour))

	if len(ll.window) >= ll.perHour {
		return false
	}
	ll.window = append(ll.window, now)
	return true
}

// Used returns how many slots are claimed in the current hour
func (ll *ListingLimiter) Used() int {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.window = filterTimes(ll.window, time.Now().Add(-1*time.Hour))
	return len(ll.window)
}
