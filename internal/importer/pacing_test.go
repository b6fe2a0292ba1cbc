package importer

import (
	"sync"
	"testing"
	"time"
)

func TestRateLimitPacesConcurrentCallers(t *testing.T) {
	im := NewImporterWithConfig(Config{
		RunnerUserID: "runner",
		Timeout:      time.Second,
		RequestDelay: 20 * time.Millisecond,
	})

	// Warm up so the first paced call has a reference timestamp
	im.rateLimit()

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			im.rateLimit()
		}()
	}
	wg.Wait()

	// Three paced calls after the warmup must take roughly three delays;
	// unsynchronized callers would overlap and finish in about one.
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("concurrent callers finished in %v, want pacing of at least 50ms", elapsed)
	}
}

func TestRateLimitZeroDelayIsNoop(t *testing.T) {
	im := NewImporterWithConfig(Config{RunnerUserID: "runner", Timeout: time.Second})

	start := time.Now()
	for i := 0; i < 100; i++ {
		im.rateLimit()
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("unpaced calls took %v", elapsed)
	}
}
