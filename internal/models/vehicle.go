package models

import (
	"fmt"
	"strings"
	"time"
)

// Vehicle represents a vehicle profile that photos are attached to
type Vehicle struct {
	ID              string `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID          string `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Year            *int   `gorm:"type:int;index" json:"year,omitempty"`
	Make            string `gorm:"type:varchar(100);index" json:"make,omitempty"`
	Model           string `gorm:"type:varchar(150)" json:"model,omitempty"`
	Title           string `gorm:"type:text" json:"title,omitempty"`
	// NULL for user-created vehicles; the unique index only has to hold
	// across imported listings.
	ListingURL *string `gorm:"type:varchar(500);uniqueIndex" json:"listing_url,omitempty"`
	SalePrice       *int   `gorm:"type:int" json:"sale_price,omitempty"`
	DiscoverySource string `gorm:"type:varchar(50)" json:"discovery_source,omitempty"`

	// Visibility gate: non-owner gallery queries only see images whose
	// vehicle is public.
	IsPublic bool `gorm:"not null;default:false;index" json:"is_public"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name
func (Vehicle) TableName() string {
	return "vehicles"
}

// DisplayName returns a human-readable "1967 Chevrolet Camaro SS" style label
func (v *Vehicle) DisplayName() string {
	if v.Title != "" {
		return v.Title
	}
	parts := []string{}
	if v.Year != nil {
		parts = append(parts, fmt.Sprintf("%d", *v.Year))
	}
	if v.Make != "" {
		parts = append(parts, v.Make)
	}
	if v.Model != "" {
		parts = append(parts, v.Model)
	}
	return strings.Join(parts, " ")
}
