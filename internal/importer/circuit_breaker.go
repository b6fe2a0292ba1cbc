package importer

import (
	"log"
	"sync"
	"time"
)

const breakerWindowSize = 20

// CircuitBreaker halts imports when a site starts blocking us. It watches a
// sliding window of recent request outcomes; too many failures trips the
// breaker and all imports pause until the reset timeout elapses.
type CircuitBreaker struct {
	mu               sync.Mutex
	outcomes         []bool // sliding window, true = failure
	failureThreshold int
	resetTimeout     time.Duration
	openedAt         time.Time
	open             bool
}

func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		outcomes:         make([]bool, 0, breakerWindowSize),
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
	}
}

// CanProceed reports whether requests are currently allowed
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.open {
		return true
	}

	if time.Since(cb.openedAt) >= cb.resetTimeout {
		log.Printf("[CircuitBreaker] Reset timeout elapsed, allowing requests again")
		cb.open = false
		cb.outcomes = cb.outcomes[:0]
		return true
	}

	return false
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.record(false)
}

// RecordFailure records a blocking-class failure (403, 429, 5xx)
func (cb *CircuitBreaker) RecordFailure(statusCode int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.record(true)

	failures := cb.failureCount()
	if failures >= cb.failureThreshold && !cb.open {
		cb.open = true
		cb.openedAt = time.Now()
		log.Printf("[CircuitBreaker] OPENED after %d/%d failures (last status %d), pausing imports for %v",
			failures, len(cb.outcomes), statusCode, cb.resetTimeout)
	}
}

func (cb *CircuitBreaker) record(failed bool) {
	cb.outcomes = append(cb.outcomes, failed)
	if len(cb.outcomes) > breakerWindowSize {
		cb.outcomes = cb.outcomes[len(cb.outcomes)-breakerWindowSize:]
	}
}

func (cb *CircuitBreaker) failureCount() int {
	n := 0
	for _, failed := range cb.outcomes {
		if failed {
			n++
		}
	}
	return n
}

// GetStatus returns (open, failures in window, window size)
func (cb *CircuitBreaker) GetStatus() (bool, int, int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.open, cb.failureCount(), len(cb.outcomes)
}
