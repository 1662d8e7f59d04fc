package model

import (
	"time"
)

// ============================================================================
// DATABASE ENTITIES (Internal - GORM only)
// ============================================================================

// Booking binds one event to one venue on one calendar date. The unique
// index on (venue_id, booking_date) is the authoritative double-booking guard.
type Booking struct {
	ID          uint      `gorm:"primaryKey" copier:"-"`
	EventID     uint      `gorm:"not null;index"`
	VenueID     uint      `gorm:"not null;uniqueIndex:idx_bookings_venue_date,priority:1"`
	BookingDate time.Time `gorm:"type:date;not null;uniqueIndex:idx_bookings_venue_date,priority:2"`
	Version     int       `gorm:"not null;default:1" copier:"-"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Event Event `gorm:"foreignKey:EventID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Venue Venue `gorm:"foreignKey:VenueID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// TableName sets the table name for GORM
func (Booking) TableName() string {
	return "bookings"
}

// DateOnly drops the time-of-day component, keeping the calendar date as
// seen in t's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ============================================================================
// REPOSITORY DATA TRANSFER OBJECTS (Internal)
// ============================================================================

// BookingFilter represents the search options of the booking list. The
// predicates are OR-ed together.
type BookingFilter struct {
	Term      string
	BookingID *int
}

// ============================================================================
// FORM DATA TRANSFER OBJECTS (External)
// ============================================================================

// BookingInput is the booking form payload
type BookingInput struct {
	ID          uint      `form:"ID"`
	EventID     uint      `form:"EventID" validate:"required"`
	VenueID     uint      `form:"VenueID" validate:"required"`
	BookingDate time.Time `form:"BookingDate" time_format:"2006-01-02" time_utc:"1" validate:"required"`
	Version     int       `form:"Version"`
}

// ToBookingInput converts a stored booking back into form values
func (b *Booking) ToBookingInput() BookingInput {
	return BookingInput{
		ID:          b.ID,
		EventID:     b.EventID,
		VenueID:     b.VenueID,
		BookingDate: b.BookingDate,
		Version:     b.Version,
	}
}

// ============================================================================
// KAFKA MESSAGE STRUCTURES
// ============================================================================

const (
	BookingCreated = "booking.created"
	BookingUpdated = "booking.updated"
	BookingDeleted = "booking.deleted"
)

// BookingEvent represents the message sent to the booking events topic
type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   uint      `json:"booking_id"`
	EventID     uint      `json:"event_id"`
	VenueID     uint      `json:"venue_id"`
	BookingDate string    `json:"booking_date"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToBookingEvent builds a lifecycle message for the booking
func (b *Booking) ToBookingEvent(eventType string) BookingEvent {
	return BookingEvent{
		Type:        eventType,
		BookingID:   b.ID,
		EventID:     b.EventID,
		VenueID:     b.VenueID,
		BookingDate: b.BookingDate.Format(DateLayout),
		Timestamp:   time.Now().UTC(),
	}
}
