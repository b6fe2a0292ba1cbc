package models

import "time"

// DeleteLog represents a record of physically deleted images
type DeleteLog struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ImageID   string    `gorm:"type:varchar(36);not null;index" json:"image_id"`
	VehicleID string    `gorm:"type:varchar(36)" json:"vehicle_id,omitempty"`
	ImageURL  string    `gorm:"type:text" json:"image_url"`
	FileHash  string    `gorm:"type:varchar(64)" json:"file_hash,omitempty"`
	DeletedAt time.Time `gorm:"not null;autoCreateTime;index" json:"deleted_at"`
	Reason    string    `gorm:"type:varchar(50);not null" json:"reason"`
}

// TableName specifies the table name
func (DeleteLog) TableName() string {
	return "delete_logs"
}

// DeleteReason constants
const (
	DeleteReasonDuplicate = "duplicate_hash"
	DeleteReasonOrphaned  = "orphaned_vehicle"
	DeleteReasonManual    = "manual_deletion"
)
