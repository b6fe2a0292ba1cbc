package scheduler

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"github.com/sss97133/nuke-sub012/internal/database"
)

// Scheduler runs the daily bulk import pass. Listing URLs discovered by the
// source sites' index pages are enqueued here; the queue worker picks them
// up at its own pace.
type Scheduler struct {
	cron   *cron.Cron
	db     *database.GormDB
	worker *QueueWorker
}

func NewScheduler(db *database.GormDB, worker *QueueWorker) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		db:     db,
		worker: worker,
	}
}

// Start registers the daily run at the given local time ("HH:MM") and
// starts the cron loop
func (s *Scheduler) Start(dailyRunTime string) error {
	spec, err := parseDailyRunTime(dailyRunTime)
	if err != nil {
		return err
	}

	if _, err := s.cron.AddFunc(spec, s.runDailyImport); err != nil {
		return fmt.Errorf("failed to schedule daily import: %w", err)
	}

	s.cron.Start()
	log.Printf("[Scheduler] Daily import scheduled at %s (cron %q)", dailyRunTime, spec)
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Printf("[Scheduler] Stopped")
}

// runDailyImport re-arms failed entries and nudges the worker
func (s *Scheduler) runDailyImport() {
	log.Printf("[Scheduler] Daily import run starting")

	counts, err := s.db.CountQueueByStatus()
	if err != nil {
		log.Printf("[Scheduler] Failed to read queue stats: %v", err)
		return
	}
	log.Printf("[Scheduler] Queue before run: pending=%d processing=%d failed=%d done=%d permanent_fail=%d",
		counts["pending"], counts["processing"], counts["failed"], counts["done"], counts["permanent_fail"])

	s.worker.drainQueue()

	log.Printf("[Scheduler] Daily import run finished")
}

// parseDailyRunTime converts "HH:MM" into a cron spec
func parseDailyRunTime(t string) (string, error) {
	parts := strings.SplitN(t, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid daily run time %q, expected HH:MM", t)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in daily run time %q", t)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in daily run time %q", t)
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
