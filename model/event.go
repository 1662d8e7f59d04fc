package model

import (
	"time"
)

// ===============================
// Database Entities (Internal)
// ===============================

// Event represents a named occurrence scheduled at one venue
type Event struct {
	ID          uint      `gorm:"primaryKey" copier:"-"`
	Name        string    `gorm:"type:varchar(255);not null"`
	EventDate   time.Time `gorm:"not null"`
	Description string    `gorm:"type:text"`
	VenueID     uint      `gorm:"not null;index"`
	Version     int       `gorm:"not null;default:1" copier:"-"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Events go with their venue; bookings still restrict both deletes
	Venue Venue `gorm:"foreignKey:VenueID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName sets the table name for GORM
func (Event) TableName() string {
	return "events"
}

// ===============================
// Form DTOs (External)
// ===============================

// EventInput is the event form payload. Every field is replaced on edit.
type EventInput struct {
	ID          uint      `form:"ID"`
	Name        string    `form:"Name" validate:"notblank"`
	EventDate   time.Time `form:"EventDate" time_format:"2006-01-02T15:04" time_utc:"1" validate:"required"`
	Description string    `form:"Description"`
	VenueID     uint      `form:"VenueID" validate:"required"`
	Version     int       `form:"Version"`
}

// ToEventInput converts a stored event back into form values
func (e *Event) ToEventInput() EventInput {
	return EventInput{
		ID:          e.ID,
		Name:        e.Name,
		EventDate:   e.EventDate,
		Description: e.Description,
		VenueID:     e.VenueID,
		Version:     e.Version,
	}
}
