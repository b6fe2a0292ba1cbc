package cleanup

import (
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/sss97133/nuke-sub012/internal/database"
	"github.com/sss97133/nuke-sub012/internal/models"
)

const queueRetention = 30 * 24 * time.Hour

// Cleaner removes duplicate and orphaned image rows and prunes stale queue
// entries. Every image removal is recorded in the delete log for audit.
type Cleaner struct {
	db *database.GormDB
}

func NewCleaner(db *database.GormDB) *Cleaner {
	return &Cleaner{db: db}
}

// Result summarizes one cleanup pass
type Result struct {
	DuplicatesRemoved int   `json:"duplicates_removed"`
	OrphansRemoved    int   `json:"orphans_removed"`
	QueuePruned       int64 `json:"queue_pruned"`
}

// Run performs a full cleanup pass
func (c *Cleaner) Run() (*Result, error) {
	result := &Result{}

	dupes, err := c.removeDuplicateImages()
	if err != nil {
		return nil, err
	}
	result.DuplicatesRemoved = dupes

	orphans, err := c.removeOrphanedImages()
	if err != nil {
		return nil, err
	}
	result.OrphansRemoved = orphans

	pruned, err := c.pruneQueue()
	if err != nil {
		return nil, err
	}
	result.QueuePruned = pruned

	log.Printf("[Cleanup] Pass finished duplicates=%d orphans=%d queue_pruned=%d",
		result.DuplicatesRemoved, result.OrphansRemoved, result.QueuePruned)
	return result, nil
}

// removeDuplicateImages deletes images sharing a file hash within the same
// vehicle, keeping the oldest row
func (c *Cleaner) removeDuplicateImages() (int, error) {
	gdb := c.db.DB()

	type dupeGroup struct {
		VehicleID string
		FileHash  string
	}
	var groups []dupeGroup
	err := gdb.Model(&models.VehicleImage{}).
		Select("vehicle_id, file_hash").
		Where("file_hash <> ''").
		Group("vehicle_id, file_hash").
		Having("COUNT(*) > 1").
		Scan(&groups).Error
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, g := range groups {
		var images []models.VehicleImage
		if err := gdb.Where("vehicle_id = ? AND file_hash = ?", g.VehicleID, g.FileHash).
			Order("created_at ASC").Find(&images).Error; err != nil {
			return removed, err
		}
		if len(images) < 2 {
			continue
		}

		// First row is the keeper
		for _, img := range images[1:] {
			if err := c.deleteImage(gdb, &img, models.DeleteReasonDuplicate); err != nil {
				return removed, err
			}
			removed++
		}
	}

	return removed, nil
}

// removeOrphanedImages deletes images whose vehicle row no longer exists.
// Images without any vehicle reference are direct user uploads and stay.
func (c *Cleaner) removeOrphanedImages() (int, error) {
	gdb := c.db.DB()

	var orphans []models.VehicleImage
	err := gdb.
		Joins("LEFT JOIN vehicles ON vehicles.id = vehicle_images.vehicle_id").
		Where("vehicle_images.vehicle_id <> '' AND vehicles.id IS NULL").
		Find(&orphans).Error
	if err != nil {
		return 0, err
	}

	for i := range orphans {
		if err := c.deleteImage(gdb, &orphans[i], models.DeleteReasonOrphaned); err != nil {
			return i, err
		}
	}

	return len(orphans), nil
}

func (c *Cleaner) deleteImage(gdb *gorm.DB, img *models.VehicleImage, reason string) error {
	return gdb.Transaction(func(tx *gorm.DB) error {
		entry := models.DeleteLog{
			ImageID:   img.ID,
			VehicleID: img.VehicleID,
			ImageURL:  img.ImageURL,
			FileHash:  img.FileHash,
			Reason:    reason,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Delete(img).Error
	})
}

// pruneQueue drops finished queue entries older than the retention window
func (c *Cleaner) pruneQueue() (int64, error) {
	cutoff := time.Now().Add(-queueRetention)

	result := c.db.DB().
		Where("status IN ? AND updated_at < ?",
			[]string{models.QueueStatusDone, models.QueueStatusPermanentFail}, cutoff).
		Delete(&models.ImportQueue{})

	return result.RowsAffected, result.Error
}

// GetDeleteLogs returns the most recent delete log entries
func (c *Cleaner) GetDeleteLogs(limit int) ([]models.DeleteLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.DeleteLog
	err := c.db.DB().Order("deleted_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
