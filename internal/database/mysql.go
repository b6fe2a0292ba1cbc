package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sss97133/nuke-sub012/internal/gallery"
	"github.com/sss97133/nuke-sub012/internal/models"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
		// Orphan detection and removal is application-managed (cleanup package)
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.Vehicle{},
		&models.VehicleImage{},
		&models.ImportQueue{},
		&models.DeleteLog{},
	)
}

// ListUserImages retrieves a user's gallery rows: newest first, capped, and
// gated on vehicle visibility unless the viewer owns the profile. Images
// without a vehicle relation pass the gate (the join is optional).
func (gdb *GormDB) ListUserImages(ctx context.Context, userID string, includePrivate bool, limit int) ([]models.VehicleImage, error) {
	if limit <= 0 || limit > gallery.MaxRecords {
		limit = gallery.MaxRecords
	}

	query := gdb.db.WithContext(ctx).
		Model(&models.VehicleImage{}).
		Where("vehicle_images.user_id = ?", userID)

	if !includePrivate {
		query = query.
			Joins("LEFT JOIN vehicles ON vehicles.id = vehicle_images.vehicle_id").
			Where("vehicles.id IS NULL OR vehicles.is_public = ?", true)
	}

	var images []models.VehicleImage
	err := query.
		Preload("Vehicle").
		Order("vehicle_images.created_at DESC").
		Limit(limit).
		Find(&images).Error
	return images, err
}

// GetVehicleByID retrieves a vehicle by ID
func (gdb *GormDB) GetVehicleByID(id string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := gdb.db.Where("id = ?", id).First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// GetVehicleImages retrieves all images for a vehicle, newest first
func (gdb *GormDB) GetVehicleImages(vehicleID string) ([]models.VehicleImage, error) {
	var images []models.VehicleImage
	err := gdb.db.Where("vehicle_id = ?", vehicleID).
		Order("created_at DESC").
		Find(&images).Error
	return images, err
}

// SaveVehicle saves or updates a vehicle (upsert by listing_url when set)
func (gdb *GormDB) SaveVehicle(v *models.Vehicle) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}

	if v.ListingURL == nil || *v.ListingURL == "" {
		return gdb.db.Save(v).Error
	}

	var existing models.Vehicle
	result := gdb.db.Where("listing_url = ?", *v.ListingURL).First(&existing)

	if result.Error == gorm.ErrRecordNotFound {
		return gdb.db.Create(v).Error
	} else if result.Error != nil {
		return result.Error
	}

	// Update existing (keep original ID, owner, and CreatedAt)
	v.ID = existing.ID
	v.UserID = existing.UserID
	v.CreatedAt = existing.CreatedAt
	return gdb.db.Save(v).Error
}

// saveVehicleImages inserts images that are not already present, deduping by
// file hash when available, otherwise by image URL
func saveVehicleImages(tx *gorm.DB, vehicleID string, images []models.VehicleImage) (int, error) {
	saved := 0
	for i := range images {
		img := &images[i]
		img.VehicleID = vehicleID
		if img.ID == "" {
			img.ID = uuid.NewString()
		}

		var count int64
		if img.FileHash != "" {
			tx.Model(&models.VehicleImage{}).
				Where("vehicle_id = ? AND file_hash = ?", vehicleID, img.FileHash).
				Count(&count)
		} else {
			tx.Model(&models.VehicleImage{}).
				Where("vehicle_id = ? AND image_url = ?", vehicleID, img.ImageURL).
				Count(&count)
		}
		if count > 0 {
			continue
		}

		if err := tx.Create(img).Error; err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

// SaveVehicleWithImages saves a vehicle and its images in a transaction.
// Returns how many images were newly inserted.
func (gdb *GormDB) SaveVehicleWithImages(v *models.Vehicle, images []models.VehicleImage) (int, error) {
	saved := 0
	err := gdb.db.Transaction(func(tx *gorm.DB) error {
		if v.ID == "" {
			v.ID = uuid.NewString()
		}

		if v.ListingURL != nil && *v.ListingURL != "" {
			var existing models.Vehicle
			result := tx.Where("listing_url = ?", *v.ListingURL).First(&existing)

			if result.Error == gorm.ErrRecordNotFound {
				if err := tx.Create(v).Error; err != nil {
					return err
				}
			} else if result.Error != nil {
				return result.Error
			} else {
				v.ID = existing.ID
				v.UserID = existing.UserID
				v.CreatedAt = existing.CreatedAt
				if err := tx.Save(v).Error; err != nil {
					return err
				}
			}
		} else if err := tx.Save(v).Error; err != nil {
			return err
		}

		n, err := saveVehicleImages(tx, v.ID, images)
		if err != nil {
			return err
		}
		saved = n
		return nil
	})
	return saved, err
}

// EnqueueListing adds a listing URL to the import queue, resetting failed
// entries so they get retried. Pending, processing, and done entries are
// left alone; permanent failures are never retried.
func (gdb *GormDB) EnqueueListing(source, listingURL string, priority int) (bool, error) {
	var existing models.ImportQueue
	err := gdb.db.Where("source = ? AND listing_url = ?", source, listingURL).
		First(&existing).Error

	if err == gorm.ErrRecordNotFound {
		item := models.ImportQueue{
			Source:     source,
			ListingURL: listingURL,
			Status:     models.QueueStatusPending,
			Priority:   priority,
		}
		if createErr := gdb.db.Create(&item).Error; createErr != nil {
			return false, createErr
		}
		return true, nil
	} else if err != nil {
		return false, err
	}

	if existing.Status == models.QueueStatusFailed {
		updates := map[string]interface{}{
			"status":        models.QueueStatusPending,
			"attempts":      0,
			"last_error":    "",
			"next_retry_at": nil,
		}
		if updateErr := gdb.db.Model(&existing).Updates(updates).Error; updateErr != nil {
			return false, updateErr
		}
		return true, nil
	}

	return false, nil
}

// CountQueueByStatus returns import queue counters keyed by status
func (gdb *GormDB) CountQueueByStatus() (map[string]int64, error) {
	counts := make(map[string]int64)
	statuses := []string{
		models.QueueStatusPending,
		models.QueueStatusProcessing,
		models.QueueStatusDone,
		models.QueueStatusFailed,
		models.QueueStatusPermanentFail,
	}
	for _, status := range statuses {
		var count int64
		if err := gdb.db.Model(&models.ImportQueue{}).Where("status = ?", status).Count(&count).Error; err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, nil
}

// IsRecordNotFound reports whether the error is a missing-row error
func IsRecordNotFound(err error) bool {
	return err == gorm.ErrRecordNotFound
}
