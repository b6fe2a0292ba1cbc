package gallery

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/sss97133/nuke-sub012/internal/models"
)

// MaxRecords is the hard cap on gallery size per load
const MaxRecords = 100

// DefaultQueryTimeout bounds a single gallery load; expiry counts as a
// load failure
const DefaultQueryTimeout = 10 * time.Second

// Store is the read capability the loader needs: a filtered, sorted,
// limited query over the vehicle_images collection. includePrivate is true
// only when the viewer is the profile owner.
type Store interface {
	ListUserImages(ctx context.Context, userID string, includePrivate bool, limit int) ([]models.VehicleImage, error)
}

// ErrSuperseded is returned when a load finished after a newer load for the
// same viewer had already started; its result was discarded.
var ErrSuperseded = errors.New("gallery: load superseded by a newer request")

// State is the explicit presentation state of a gallery view
type State int

const (
	StateLoading State = iota
	StateEmpty
	StatePopulated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateEmpty:
		return "empty"
	case StatePopulated:
		return "populated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// View is a snapshot of a gallery: the subject being viewed, the state, and
// the filtered image list when populated
type View struct {
	State  State                 `json:"state"`
	UserID string                `json:"user_id"`
	Images []models.VehicleImage `json:"images"`
}

// Loader fetches and filters a user's gallery. It keeps the view of one
// viewer session; each Load supersedes any in-flight one, and a stale
// response never overwrites the view of a newer subject.
type Loader struct {
	store      Store
	timeout    time.Duration
	maxRecords int

	mu         sync.Mutex
	generation uint64
	view       View
}

// NewLoader creates a loader with default timeout and record cap
func NewLoader(store Store) *Loader {
	return NewLoaderWithConfig(store, DefaultQueryTimeout, MaxRecords)
}

// NewLoaderWithConfig creates a loader with explicit timeout and record cap
func NewLoaderWithConfig(store Store, timeout time.Duration, maxRecords int) *Loader {
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	if maxRecords <= 0 || maxRecords > MaxRecords {
		maxRecords = MaxRecords
	}
	return &Loader{
		store:      store,
		timeout:    timeout,
		maxRecords: maxRecords,
		view:       View{State: StateEmpty},
	}
}

// Load fetches the gallery for userID. isOwnProfile controls whether images
// of private vehicles are visible. The returned View reflects this load's
// outcome; the loader's committed view is only updated if no newer Load
// started in the meantime.
func (l *Loader) Load(ctx context.Context, userID string, isOwnProfile bool) (View, error) {
	l.mu.Lock()
	l.generation++
	gen := l.generation
	l.view = View{State: StateLoading, UserID: userID}
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	images, err := l.store.ListUserImages(ctx, userID, isOwnProfile, l.maxRecords)
	if err != nil {
		log.Printf("[Gallery] Load failed user_id=%s own_profile=%v: %v", userID, isOwnProfile, err)
		return l.commit(gen, View{State: StateFailed, UserID: userID}, err)
	}

	// The store already caps the query, but never trust it past the limit
	if len(images) > l.maxRecords {
		images = images[:l.maxRecords]
	}

	filtered := FilterAuthored(images)

	view := View{UserID: userID, Images: filtered}
	if len(filtered) == 0 {
		view.State = StateEmpty
	} else {
		view.State = StatePopulated
	}

	return l.commit(gen, view, nil)
}

// commit applies a finished load's view unless a newer load superseded it
func (l *Loader) commit(gen uint64, view View, loadErr error) (View, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		// A newer load owns the view now; discard this result.
		return l.view, ErrSuperseded
	}

	l.view = view
	return view, loadErr
}

// View returns the loader's current committed view
func (l *Loader) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.view
}
