package gallery

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sss97133/nuke-sub012/internal/models"
)

// fakeStore returns canned images per user. Loads for blockUser park on the
// release channel so tests can interleave a slow load with a fast one.
type fakeStore struct {
	images    map[string][]models.VehicleImage
	err       error
	blockUser string
	release   chan struct{}
	started   chan struct{}
}

func (f *fakeStore) ListUserImages(ctx context.Context, userID string, includePrivate bool, limit int) ([]models.VehicleImage, error) {
	if userID == f.blockUser && f.release != nil {
		if f.started != nil {
			f.started <- struct{}{}
		}
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.images[userID], nil
}

func authoredImages(userID string, n int) []models.VehicleImage {
	images := make([]models.VehicleImage, n)
	for i := range images {
		images[i] = models.VehicleImage{
			ID:     fmt.Sprintf("%s-img-%d", userID, i),
			UserID: userID,
			Source: models.SourceUserUpload,
		}
	}
	return images
}

func TestLoadPopulated(t *testing.T) {
	store := &fakeStore{images: map[string][]models.VehicleImage{
		"alice": authoredImages("alice", 3),
	}}
	loader := NewLoader(store)

	view, err := loader.Load(context.Background(), "alice", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if view.State != StatePopulated {
		t.Errorf("state = %v, want populated", view.State)
	}
	if len(view.Images) != 3 {
		t.Errorf("images = %d, want 3", len(view.Images))
	}
	if view.UserID != "alice" {
		t.Errorf("user_id = %q, want alice", view.UserID)
	}
}

func TestLoadEmpty(t *testing.T) {
	store := &fakeStore{images: map[string][]models.VehicleImage{}}
	loader := NewLoader(store)

	view, err := loader.Load(context.Background(), "nobody", false)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if view.State != StateEmpty {
		t.Errorf("state = %v, want empty", view.State)
	}
}

func TestLoadAllFilteredOutIsEmpty(t *testing.T) {
	store := &fakeStore{images: map[string][]models.VehicleImage{
		"runner": {
			{ID: "1", Source: models.SourceExternalImport},
			{ID: "2", ExifData: models.ExifData{"source_url": "https://x.test"}},
		},
	}}
	loader := NewLoader(store)

	view, err := loader.Load(context.Background(), "runner", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if view.State != StateEmpty {
		t.Errorf("state = %v, want empty when every record is filtered", view.State)
	}
	if len(view.Images) != 0 {
		t.Errorf("images = %d, want 0", len(view.Images))
	}
}

func TestLoadFailed(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	loader := NewLoader(store)

	view, err := loader.Load(context.Background(), "alice", true)
	if err == nil {
		t.Fatal("Load() error = nil, want query error surfaced")
	}
	if view.State != StateFailed {
		t.Errorf("state = %v, want failed", view.State)
	}
	if loader.View().State != StateFailed {
		t.Errorf("committed state = %v, want failed", loader.View().State)
	}
}

func TestLoadTruncatesToMaxRecords(t *testing.T) {
	store := &fakeStore{images: map[string][]models.VehicleImage{
		"hoarder": authoredImages("hoarder", MaxRecords+50),
	}}
	loader := NewLoader(store)

	view, err := loader.Load(context.Background(), "hoarder", true)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(view.Images) != MaxRecords {
		t.Errorf("images = %d, want %d", len(view.Images), MaxRecords)
	}
}

func TestStaleLoadDoesNotOverwriteNewerView(t *testing.T) {
	store := &fakeStore{
		images: map[string][]models.VehicleImage{
			"first":  authoredImages("first", 2),
			"second": authoredImages("second", 5),
		},
		blockUser: "first",
		release:   make(chan struct{}),
		started:   make(chan struct{}, 1),
	}
	loader := NewLoader(store)

	type result struct {
		view View
		err  error
	}
	firstDone := make(chan result, 1)
	go func() {
		view, err := loader.Load(context.Background(), "first", false)
		firstDone <- result{view, err}
	}()

	// Wait until the first load is in flight, then start a newer one
	select {
	case <-store.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first load never reached the store")
	}

	secondView, err := loader.Load(context.Background(), "second", false)
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if secondView.State != StatePopulated || secondView.UserID != "second" {
		t.Fatalf("second view = %+v, want populated view of second", secondView)
	}

	// Now let the stale first load finish
	close(store.release)
	first := <-firstDone

	if !errors.Is(first.err, ErrSuperseded) {
		t.Errorf("stale load error = %v, want ErrSuperseded", first.err)
	}
	if first.view.UserID != "second" {
		t.Errorf("stale load returned view of %q, want the committed view of second", first.view.UserID)
	}
	if got := loader.View(); got.UserID != "second" || len(got.Images) != 5 {
		t.Errorf("committed view = %+v, want second's populated view", got)
	}
}

func TestSessionsSameViewerSharesLoader(t *testing.T) {
	store := &fakeStore{images: map[string][]models.VehicleImage{}}
	sessions := NewSessions(store, time.Second, MaxRecords)

	a := sessions.For("viewer-1")
	b := sessions.For("viewer-1")
	if a != b {
		t.Error("same viewer key got different loaders")
	}

	c := sessions.For("viewer-2")
	if a == c {
		t.Error("different viewer keys share a loader")
	}
	if sessions.Len() != 2 {
		t.Errorf("Len() = %d, want 2", sessions.Len())
	}
}

func TestSessionsAnonymousAlwaysFresh(t *testing.T) {
	store := &fakeStore{images: map[string][]models.VehicleImage{}}
	sessions := NewSessions(store, time.Second, MaxRecords)

	a := sessions.For("")
	b := sessions.For("")
	if a == b {
		t.Error("anonymous viewers share a loader")
	}
	if sessions.Len() != 0 {
		t.Errorf("Len() = %d, want 0 (anonymous loaders are not retained)", sessions.Len())
	}
}
