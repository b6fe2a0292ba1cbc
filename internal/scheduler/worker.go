package scheduler

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sss97133/nuke-sub012/internal/database"
	"github.com/sss97133/nuke-sub012/internal/importer"
	"github.com/sss97133/nuke-sub012/internal/models"
)

const defaultPollInterval = 30 * time.Second

// VehicleIndexer pushes imported vehicles into the search index
type VehicleIndexer interface {
	IndexVehicle(v *models.Vehicle) error
}

// QueueWorker drains the import queue in the background. Each claimed entry
// is fetched, parsed, and persisted; failures are retried with backoff and
// delisted pages are parked permanently.
type QueueWorker struct {
	db           *database.GormDB
	importer     *importer.Importer
	indexer      VehicleIndexer
	pollInterval time.Duration
	stop         chan struct{}
	done         chan struct{}

	// The poll ticker, the cron daily run, and the admin trigger all call
	// drainQueue; only one drain runs at a time.
	drainMu sync.Mutex
}

func NewQueueWorker(db *database.GormDB, im *importer.Importer, indexer VehicleIndexer) *QueueWorker {
	return &QueueWorker{
		db:           db,
		importer:     im,
		indexer:      indexer,
		pollInterval: defaultPollInterval,
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

func (w *QueueWorker) Start() {
	go w.run()
	log.Printf("[QueueWorker] Started, polling every %v", w.pollInterval)
}

func (w *QueueWorker) Stop() {
	close(w.stop)
	<-w.done
	log.Printf("[QueueWorker] Stopped")
}

func (w *QueueWorker) run() {
	defer close(w.done)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.drainQueue()
		}
	}
}

// drainQueue processes entries until the queue is empty or a stop arrives
func (w *QueueWorker) drainQueue() {
	w.drainMu.Lock()
	defer w.drainMu.Unlock()

	for {
		select {
		case <-w.stop:
			return
		default:
		}

		item, err := w.db.ClaimNextQueueItem()
		if err != nil {
			log.Printf("[QueueWorker] Failed to claim queue item: %v", err)
			return
		}
		if item == nil {
			return
		}

		w.processItem(item)
	}
}

func (w *QueueWorker) processItem(item *models.ImportQueue) {
	log.Printf("[QueueWorker] Processing item id=%d source=%s url=%s attempt=%d",
		item.ID, item.Source, item.ListingURL, item.Attempts+1)

	importer.ListingLimiter.Acquire("queue-worker")

	vehicle, images, err := w.importer.ImportListing(item.ListingURL)
	if err != nil {
		permanent := isPermanentFailure(err)
		if markErr := w.db.MarkQueueItemFailed(item, err, permanent); markErr != nil {
			log.Printf("[QueueWorker] Failed to record failure for id=%d: %v", item.ID, markErr)
		}
		log.Printf("[QueueWorker] Import failed id=%d permanent=%v: %v", item.ID, permanent, err)
		return
	}

	inserted, err := w.db.SaveVehicleWithImages(vehicle, images)
	if err != nil {
		if markErr := w.db.MarkQueueItemFailed(item, err, false); markErr != nil {
			log.Printf("[QueueWorker] Failed to record failure for id=%d: %v", item.ID, markErr)
		}
		log.Printf("[QueueWorker] Save failed id=%d: %v", item.ID, err)
		return
	}

	if w.indexer != nil {
		if indexErr := w.indexer.IndexVehicle(vehicle); indexErr != nil {
			// Search lags behind but the import itself succeeded
			log.Printf("[QueueWorker] Index failed for vehicle=%s: %v", vehicle.ID, indexErr)
		}
	}

	if err := w.db.MarkQueueItemDone(item.ID); err != nil {
		log.Printf("[QueueWorker] Failed to mark done id=%d: %v", item.ID, err)
		return
	}

	log.Printf("[QueueWorker] Imported vehicle=%s images=%d from %s", vehicle.ID, inserted, item.ListingURL)
}

// isPermanentFailure detects delisted pages that will never succeed
func isPermanentFailure(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "permanent_fail") || strings.Contains(msg, "404")
}

// ProcessOnce runs a single drain pass, used by admin triggers and tests
func (w *QueueWorker) ProcessOnce(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		w.drainQueue()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
