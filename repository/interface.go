package repository

import (
	"context"
	"time"

	"github.com/arunvm123/eventease/model"
)

// VenueRepository persists venues. Like the other Update methods,
// UpdateVenue writes only when the stored version equals expectedVersion,
// returns ErrStaleVersion otherwise and advances Version on success.
type VenueRepository interface {
	CreateVenue(ctx context.Context, venue *model.Venue) error
	GetVenueByID(ctx context.Context, id uint) (*model.Venue, error)
	ListVenues(ctx context.Context) ([]model.Venue, error)
	UpdateVenue(ctx context.Context, venue *model.Venue, expectedVersion int) error
	DeleteVenue(ctx context.Context, id uint) error
	VenueExists(ctx context.Context, id uint) (bool, error)
}

type EventRepository interface {
	CreateEvent(ctx context.Context, event *model.Event) error
	GetEventByID(ctx context.Context, id uint) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	UpdateEvent(ctx context.Context, event *model.Event, expectedVersion int) error
	DeleteEvent(ctx context.Context, id uint) error
	EventExists(ctx context.Context, id uint) (bool, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *model.Booking) error
	GetBookingByID(ctx context.Context, id uint) (*model.Booking, error)
	ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, booking *model.Booking, expectedVersion int) error
	DeleteBooking(ctx context.Context, id uint) error
	BookingExists(ctx context.Context, id uint) (bool, error)

	// FindConflictingBooking returns the booking holding venueID on the
	// calendar date of date, ignoring excludeID, or nil when the date is free.
	FindConflictingBooking(ctx context.Context, venueID uint, date time.Time, excludeID uint) (*model.Booking, error)
	CountBookingsByVenue(ctx context.Context, venueID uint) (int64, error)
	CountBookingsByEvent(ctx context.Context, eventID uint) (int64, error)
}

// Store is the relational data store shared by all managers
type Store interface {
	VenueRepository
	EventRepository
	BookingRepository

	// Health check
	Ping(ctx context.Context) error
	Close() error
}
