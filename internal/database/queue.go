package database

import (
	"time"

	"gorm.io/gorm"

	"github.com/sss97133/nuke-sub012/internal/models"
)

// ClaimNextQueueItem picks the next importable queue entry and marks it
// processing. Pending items go first by priority, then failed items whose
// retry window has opened. Returns nil when the queue is drained.
//
// Claiming is a conditional status flip: the update only succeeds if the
// row still holds the status it was selected under, so concurrent claimers
// never process the same entry twice.
func (gdb *GormDB) ClaimNextQueueItem() (*models.ImportQueue, error) {
	for {
		var item models.ImportQueue

		err := gdb.db.Where("status = ?", models.QueueStatusPending).
			Order("priority DESC, created_at ASC").
			First(&item).Error

		if err == gorm.ErrRecordNotFound {
			err = gdb.db.Where("status = ? AND attempts < ? AND (next_retry_at IS NULL OR next_retry_at <= ?)",
				models.QueueStatusFailed, models.MaxRetryAttempts, time.Now()).
				Order("priority DESC, next_retry_at ASC").
				First(&item).Error
		}

		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		result := gdb.db.Model(&models.ImportQueue{}).
			Where("id = ? AND status = ?", item.ID, item.Status).
			Update("status", models.QueueStatusProcessing)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			// Lost the race for this row; pick another.
			continue
		}

		item.Status = models.QueueStatusProcessing
		return &item, nil
	}
}

// MarkQueueItemDone records a successful import
func (gdb *GormDB) MarkQueueItemDone(id int64) error {
	now := time.Now()
	return gdb.db.Model(&models.ImportQueue{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       models.QueueStatusDone,
			"completed_at": &now,
			"last_error":   "",
		}).Error
}

// MarkQueueItemFailed records a failed attempt. Retryable failures schedule
// an exponential-backoff retry; once attempts run out, or when permanent is
// set (delisted pages), the item is parked as permanent_fail.
func (gdb *GormDB) MarkQueueItemFailed(item *models.ImportQueue, failureErr error, permanent bool) error {
	attempts := item.Attempts + 1

	updates := map[string]interface{}{
		"attempts":   attempts,
		"last_error": failureErr.Error(),
	}

	if permanent || attempts >= models.MaxRetryAttempts {
		updates["status"] = models.QueueStatusPermanentFail
		updates["next_retry_at"] = nil
	} else {
		retryAt := time.Now().Add(models.GetNextRetryDelay(attempts))
		updates["status"] = models.QueueStatusFailed
		updates["next_retry_at"] = &retryAt
	}

	return gdb.db.Model(&models.ImportQueue{}).Where("id = ?", item.ID).Updates(updates).Error
}

// GetRecentQueueActivity lists the most recently updated queue entries
func (gdb *GormDB) GetRecentQueueActivity(limit int) ([]models.ImportQueue, error) {
	if limit <= 0 {
		limit = 20
	}
	var items []models.ImportQueue
	err := gdb.db.Order("updated_at DESC").Limit(limit).Find(&items).Error
	return items, err
}
