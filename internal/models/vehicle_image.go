package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ExifData holds unordered key/value metadata captured alongside an image.
// Import pipelines store the external origin under the "source_url" key.
type ExifData map[string]string

// Value serializes the map to JSON for storage
func (e ExifData) Value() (driver.Value, error) {
	if len(e) == 0 {
		return nil, nil
	}
	return json.Marshal(e)
}

// Scan deserializes a JSON column into the map
func (e *ExifData) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("exif_data: unsupported column type %T", value)
	}
	if len(data) == 0 {
		*e = nil
		return nil
	}
	return json.Unmarshal(data, e)
}

// VehicleImage represents a photo record attached to a vehicle and an account
type VehicleImage struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"id"`
	VehicleID   string `gorm:"type:varchar(36);index" json:"vehicle_id"`
	UserID      string `gorm:"type:varchar(36);not null;index:idx_user_created" json:"user_id"`
	ImageURL    string `gorm:"type:text;not null" json:"image_url"`
	StoragePath string `gorm:"type:varchar(500)" json:"storage_path,omitempty"`

	// Provenance. Bulk importers tag records with an import source and the
	// external page they came from; user uploads carry SourceUserUpload.
	Source    string `gorm:"type:varchar(50);index" json:"source,omitempty"`
	SourceURL string `gorm:"type:text" json:"source_url,omitempty"`

	ImageType  string     `gorm:"type:varchar(50)" json:"image_type,omitempty"`
	IsExternal bool       `gorm:"not null;default:false" json:"is_external"`
	FileHash   string     `gorm:"type:varchar(64);index" json:"file_hash,omitempty"`
	Filename   string     `gorm:"type:varchar(255)" json:"filename,omitempty"`
	TakenAt    *time.Time `json:"taken_at,omitempty"`
	ExifData   ExifData   `gorm:"type:json" json:"exif_data,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_user_created,sort:desc" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationship
	Vehicle *Vehicle `gorm:"foreignKey:VehicleID;references:ID" json:"vehicle,omitempty"`
}

// TableName specifies the table name
func (VehicleImage) TableName() string {
	return "vehicle_images"
}

// Source tag constants. Import pipelines reassign user_id to a runner
// account, so these tags are the only reliable provenance signal.
const (
	SourceUserUpload         = "user_upload"
	SourceApplePhotos        = "apple_photos"
	SourceOrganizationImport = "organization_import"
	SourceExternalImport     = "external_import"
)
