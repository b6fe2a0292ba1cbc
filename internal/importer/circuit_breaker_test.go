package importer

import (
	"testing"
	"time"
)

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Hour)

	if !cb.CanProceed() {
		t.Fatal("fresh breaker should allow requests")
	}

	cb.RecordFailure(503)
	cb.RecordFailure(429)
	if !cb.CanProceed() {
		t.Fatal("breaker opened below threshold")
	}

	cb.RecordFailure(403)
	if cb.CanProceed() {
		t.Fatal("breaker did not open at threshold")
	}

	open, failures, window := cb.GetStatus()
	if !open || failures != 3 || window != 3 {
		t.Errorf("GetStatus() = (%v, %d, %d), want (true, 3, 3)", open, failures, window)
	}
}

func TestCircuitBreakerResetsAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(1, 10*time.Millisecond)

	cb.RecordFailure(503)
	if cb.CanProceed() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)
	if !cb.CanProceed() {
		t.Fatal("breaker did not reset after timeout")
	}

	// The window is cleared on reset; one success keeps it closed
	cb.RecordSuccess()
	if _, failures, _ := cb.GetStatus(); failures != 0 {
		t.Errorf("failures = %d after reset, want 0", failures)
	}
}

func TestCircuitBreakerSlidingWindow(t *testing.T) {
	cb := NewCircuitBreaker(5, time.Hour)

	// Old failures age out of the fixed-size window
	for i := 0; i < 4; i++ {
		cb.RecordFailure(500)
	}
	for i := 0; i < breakerWindowSize; i++ {
		cb.RecordSuccess()
	}

	if _, failures, _ := cb.GetStatus(); failures != 0 {
		t.Errorf("failures = %d, want 0 after window rolled over", failures)
	}
	if !cb.CanProceed() {
		t.Error("breaker open despite clean window")
	}
}
