package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/publisher"
	"github.com/arunvm123/eventease/repository"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"
)

const (
	bookingConflictBanner = "This booking cannot be created as the venue is already booked."
	publishTimeout        = 5 * time.Second
)

type bookingStore interface {
	repository.BookingRepository
	EventExists(ctx context.Context, id uint) (bool, error)
	VenueExists(ctx context.Context, id uint) (bool, error)
}

type BookingManager struct {
	repo      bookingStore
	publisher publisher.BookingPublisher
	log       logrus.FieldLogger
}

func NewBookingManager(repo bookingStore, publisher publisher.BookingPublisher, log logrus.FieldLogger) *BookingManager {
	return &BookingManager{
		repo:      repo,
		publisher: publisher,
		log:       log,
	}
}

// List returns bookings ordered by id. A non-empty search keeps bookings
// whose venue or event name contains it, or whose id equals it.
func (m *BookingManager) List(ctx context.Context, search string) ([]model.Booking, error) {
	filter := model.BookingFilter{Term: search}
	if search != "" {
		if id, err := strconv.Atoi(search); err == nil {
			filter.BookingID = &id
		}
	}
	return m.repo.ListBookings(ctx, filter)
}

func (m *BookingManager) Get(ctx context.Context, id uint) (*model.Booking, error) {
	return m.repo.GetBookingByID(ctx, id)
}

// Create runs the venue/date conflict check before writing. The unique
// index still decides races between the check and the insert.
func (m *BookingManager) Create(ctx context.Context, input model.BookingInput) (*model.Booking, error) {
	booking, err := m.prepare(ctx, &input, 0)
	if err != nil {
		return nil, err
	}

	err = m.repo.CreateBooking(ctx, booking)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrBookingTaken
	case errors.Is(err, repository.ErrForeignKey):
		if rerr := m.referenceError(ctx, booking); rerr != nil {
			return nil, rerr
		}
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	default:
		m.log.WithError(err).WithField("venue_id", booking.VenueID).Error("Failed to create booking")
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	m.log.WithFields(logrus.Fields{
		"booking_id": booking.ID,
		"venue_id":   booking.VenueID,
		"date":       booking.BookingDate.Format(model.DateLayout),
	}).Info("Booking created")

	m.publish(ctx, booking, model.BookingCreated)
	return booking, nil
}

// Update overwrites every bound field and re-runs the conflict check with
// the booking itself excluded.
func (m *BookingManager) Update(ctx context.Context, id uint, input model.BookingInput) (*model.Booking, error) {
	current, err := m.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expectedVersion := current.Version
	if input.Version > 0 {
		expectedVersion = input.Version
	}

	booking, err := m.prepare(ctx, &input, id)
	if err != nil {
		return nil, err
	}
	booking.ID = id

	err = m.repo.UpdateBooking(ctx, booking, expectedVersion)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrStaleVersion):
		return nil, staleOutcome(m.repo.BookingExists(ctx, id))
	case errors.Is(err, repository.ErrDuplicate):
		return nil, ErrBookingTaken
	case errors.Is(err, repository.ErrForeignKey):
		if rerr := m.referenceError(ctx, booking); rerr != nil {
			return nil, rerr
		}
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	default:
		m.log.WithError(err).WithField("booking_id", id).Error("Failed to update booking")
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	m.publish(ctx, booking, model.BookingUpdated)
	return booking, nil
}

// Delete removes the booking unconditionally and returns it with its event
// and venue loaded.
func (m *BookingManager) Delete(ctx context.Context, id uint) (*model.Booking, error) {
	booking, err := m.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := m.repo.DeleteBooking(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		m.log.WithError(err).WithField("booking_id", id).Error("Failed to delete booking")
		return nil, fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}

	m.log.WithField("booking_id", id).Info("Booking deleted")
	m.publish(ctx, booking, model.BookingDeleted)
	return booking, nil
}

// prepare validates input, checks references and runs the conflict check
func (m *BookingManager) prepare(ctx context.Context, input *model.BookingInput, excludeID uint) (*model.Booking, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	booking := &model.Booking{}
	if err := copier.Copy(booking, input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	booking.BookingDate = model.DateOnly(booking.BookingDate)

	if err := m.referenceError(ctx, booking); err != nil {
		return nil, err
	}

	conflict, err := m.repo.FindConflictingBooking(ctx, booking.VenueID, booking.BookingDate, excludeID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if conflict != nil {
		verr := fieldError("BookingDate", fmt.Sprintf(
			"The venue is already booked on %s for event '%s'. Please choose a different date or venue.",
			booking.BookingDate.Format(model.DateLayout), conflict.Event.Name))
		verr.Message = bookingConflictBanner
		return nil, verr
	}

	return booking, nil
}

// referenceError reports missing events or venues as field errors
func (m *BookingManager) referenceError(ctx context.Context, booking *model.Booking) error {
	verr := &ValidationError{}

	exists, err := m.repo.EventExists(ctx, booking.EventID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if !exists {
		verr.add("EventID", "The selected event does not exist.")
	}

	exists, err = m.repo.VenueExists(ctx, booking.VenueID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if !exists {
		verr.add("VenueID", "The selected venue does not exist.")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// publish emits a lifecycle message. Failures are logged only.
func (m *BookingManager) publish(ctx context.Context, booking *model.Booking, eventType string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := m.publisher.PublishBookingEvent(ctx, booking.ToBookingEvent(eventType)); err != nil {
		m.log.WithError(err).WithFields(logrus.Fields{
			"booking_id": booking.ID,
			"type":       eventType,
		}).Warn("Failed to publish booking event")
	}
}
