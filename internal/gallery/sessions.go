package gallery

import (
	"sync"
	"time"
)

// defaultSessionCap bounds how many viewer sessions are kept in memory
const defaultSessionCap = 1024

type session struct {
	loader   *Loader
	lastSeen time.Time
}

// Sessions hands out one Loader per viewer so that rapid subject changes by
// the same viewer are serialized through generation gating, while different
// viewers never supersede each other.
type Sessions struct {
	store      Store
	timeout    time.Duration
	maxRecords int

	mu       sync.Mutex
	sessions map[string]*session
	cap      int
}

// NewSessions creates a session registry backed by the given store
func NewSessions(store Store, timeout time.Duration, maxRecords int) *Sessions {
	return &Sessions{
		store:      store,
		timeout:    timeout,
		maxRecords: maxRecords,
		sessions:   make(map[string]*session),
		cap:        defaultSessionCap,
	}
}

// For returns the loader for a viewer key, creating one on first use.
// An empty key (anonymous viewer) always gets a fresh loader.
func (s *Sessions) For(viewerKey string) *Loader {
	if viewerKey == "" {
		return NewLoaderWithConfig(s.store, s.timeout, s.maxRecords)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[viewerKey]; ok {
		sess.lastSeen = time.Now()
		return sess.loader
	}

	if len(s.sessions) >= s.cap {
		s.evictOldestLocked()
	}

	sess := &session{
		loader:   NewLoaderWithConfig(s.store, s.timeout, s.maxRecords),
		lastSeen: time.Now(),
	}
	s.sessions[viewerKey] = sess
	return sess.loader
}

// evictOldestLocked drops the least recently used session. Caller holds mu.
func (s *Sessions) evictOldestLocked() {
	var oldestKey string
	var oldest time.Time
	for key, sess := range s.sessions {
		if oldestKey == "" || sess.lastSeen.Before(oldest) {
			oldestKey = key
			oldest = sess.lastSeen
		}
	}
	if oldestKey != "" {
		delete(s.sessions, oldestKey)
	}
}

// Len returns the number of live sessions (for stats endpoints)
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
