package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateBooking inserts a booking. A concurrent booking for the same venue
// and date surfaces as repository.ErrDuplicate from the unique index.
func (s *PostgresStore) CreateBooking(ctx context.Context, booking *model.Booking) error {
	booking.Version = 1
	return translateError(s.db.WithContext(ctx).Omit(clause.Associations).Create(booking).Error)
}

func (s *PostgresStore) GetBookingByID(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).
		Preload("Event").
		Preload("Venue").
		First(&booking, id).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

// ListBookings returns bookings with their event and venue, ordered by id.
// A non-empty filter keeps rows where the venue name or event name contains
// the term, or the id equals filter.BookingID.
func (s *PostgresStore) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	query := s.db.WithContext(ctx).Model(&model.Booking{}).
		Select("bookings.*").
		Preload("Event").
		Preload("Venue").
		Order("bookings.id ASC")

	if filter.Term != "" {
		pattern := containsPattern(filter.Term)
		query = query.
			Joins("JOIN venues ON venues.id = bookings.venue_id").
			Joins("JOIN events ON events.id = bookings.event_id")
		if filter.BookingID != nil {
			query = query.Where("venues.name LIKE ? OR events.name LIKE ? OR bookings.id = ?",
				pattern, pattern, *filter.BookingID)
		} else {
			query = query.Where("venues.name LIKE ? OR events.name LIKE ?", pattern, pattern)
		}
	}

	var bookings []model.Booking
	if err := query.Find(&bookings).Error; err != nil {
		return nil, translateError(err)
	}
	return bookings, nil
}

func (s *PostgresStore) UpdateBooking(ctx context.Context, booking *model.Booking, expectedVersion int) error {
	result := s.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND version = ?", booking.ID, expectedVersion).
		Updates(map[string]interface{}{
			"event_id":     booking.EventID,
			"venue_id":     booking.VenueID,
			"booking_date": booking.BookingDate,
			"version":      gorm.Expr("version + 1"),
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrStaleVersion
	}

	booking.Version = expectedVersion + 1
	return nil
}

func (s *PostgresStore) DeleteBooking(ctx context.Context, id uint) error {
	return s.deleteByID(ctx, &model.Booking{}, id)
}

func (s *PostgresStore) BookingExists(ctx context.Context, id uint) (bool, error) {
	return s.exists(ctx, &model.Booking{}, id)
}

func (s *PostgresStore) FindConflictingBooking(ctx context.Context, venueID uint, date time.Time, excludeID uint) (*model.Booking, error) {
	var booking model.Booking
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("venue_id = ? AND booking_date = CAST(? AS date) AND id <> ?",
			venueID, date.Format(model.DateLayout), excludeID).
		First(&booking).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translateError(err)
	}
	return &booking, nil
}

func (s *PostgresStore) CountBookingsByVenue(ctx context.Context, venueID uint) (int64, error) {
	return s.countBookings(ctx, "venue_id = ?", venueID)
}

func (s *PostgresStore) CountBookingsByEvent(ctx context.Context, eventID uint) (int64, error) {
	return s.countBookings(ctx, "event_id = ?", eventID)
}

func (s *PostgresStore) countBookings(ctx context.Context, condition string, id uint) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.Booking{}).Where(condition, id).Count(&count).Error; err != nil {
		return 0, translateError(err)
	}
	return count, nil
}
