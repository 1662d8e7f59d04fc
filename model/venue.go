package model

import (
	"time"
)

// ===============================
// Database Entities (Internal)
// ===============================

// Venue represents a physical location that hosts events
type Venue struct {
	ID        uint    `gorm:"primaryKey"`
	Name      string  `gorm:"type:varchar(255);not null"`
	Location  string  `gorm:"type:varchar(255);not null"`
	Capacity  int     `gorm:"not null"`
	ImageURL  *string `gorm:"type:text"`
	Version   int     `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName sets the table name for GORM
func (Venue) TableName() string {
	return "venues"
}

// Image returns the image URL or an empty string when none was uploaded
func (v Venue) Image() string {
	if v.ImageURL == nil {
		return ""
	}
	return *v.ImageURL
}

// ===============================
// Form DTOs (External)
// ===============================

// VenueInput is the venue form payload. Create validates it; edit applies
// only the fields that carry a value.
type VenueInput struct {
	ID       uint   `form:"ID"`
	Name     string `form:"Name" validate:"notblank"`
	Location string `form:"Location" validate:"notblank"`
	Capacity int    `form:"Capacity" validate:"gt=0"`
	ImageURL string `form:"ImageURL"`
	Version  int    `form:"Version"`
}

// ToVenueInput converts a stored venue back into form values for redisplay
func (v *Venue) ToVenueInput() VenueInput {
	return VenueInput{
		ID:       v.ID,
		Name:     v.Name,
		Location: v.Location,
		Capacity: v.Capacity,
		ImageURL: v.Image(),
		Version:  v.Version,
	}
}

// ImageUpload is an image payload received with a venue form
type ImageUpload struct {
	Data        []byte
	ContentType string
	Extension   string
}
