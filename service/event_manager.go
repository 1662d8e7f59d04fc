package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"github.com/jinzhu/copier"
	"github.com/sirupsen/logrus"
)

type eventStore interface {
	repository.EventRepository
	VenueExists(ctx context.Context, id uint) (bool, error)
	CountBookingsByEvent(ctx context.Context, eventID uint) (int64, error)
}

type EventManager struct {
	repo eventStore
	log  logrus.FieldLogger
}

func NewEventManager(repo eventStore, log logrus.FieldLogger) *EventManager {
	return &EventManager{
		repo: repo,
		log:  log,
	}
}

func (m *EventManager) List(ctx context.Context) ([]model.Event, error) {
	return m.repo.ListEvents(ctx)
}

func (m *EventManager) Get(ctx context.Context, id uint) (*model.Event, error) {
	return m.repo.GetEventByID(ctx, id)
}

func (m *EventManager) Create(ctx context.Context, input model.EventInput) (*model.Event, error) {
	if err := m.check(ctx, &input); err != nil {
		return nil, err
	}

	event := &model.Event{}
	if err := copier.Copy(event, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	if err := m.repo.CreateEvent(ctx, event); err != nil {
		if errors.Is(err, repository.ErrForeignKey) {
			return nil, fieldError("VenueID", "The selected venue does not exist.")
		}
		m.log.WithError(err).WithField("event_name", event.Name).Error("Failed to create event")
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	m.log.WithField("event_id", event.ID).Info("Event created")
	return event, nil
}

// Update overwrites every bound field of the event
func (m *EventManager) Update(ctx context.Context, id uint, input model.EventInput) (*model.Event, error) {
	event, err := m.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := m.check(ctx, &input); err != nil {
		return nil, err
	}

	expectedVersion := event.Version
	if input.Version > 0 {
		expectedVersion = input.Version
	}

	if err := copier.Copy(event, &input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	event.Venue = model.Venue{}

	err = m.repo.UpdateEvent(ctx, event, expectedVersion)
	switch {
	case err == nil:
		return event, nil
	case errors.Is(err, repository.ErrStaleVersion):
		return nil, staleOutcome(m.repo.EventExists(ctx, id))
	case errors.Is(err, repository.ErrForeignKey):
		return nil, fieldError("VenueID", "The selected venue does not exist.")
	}

	m.log.WithError(err).WithField("event_id", id).Error("Failed to update event")
	return nil, fmt.Errorf("%w: %v", ErrSaveFailed, err)
}

// Delete refuses with ErrHasBookings while any booking references the event
func (m *EventManager) Delete(ctx context.Context, id uint) error {
	count, err := m.repo.CountBookingsByEvent(ctx, id)
	if err != nil {
		m.log.WithError(err).WithField("event_id", id).Error("Failed to count event bookings")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if count > 0 {
		return ErrHasBookings
	}

	err = m.repo.DeleteEvent(ctx, id)
	switch {
	case err == nil:
		m.log.WithField("event_id", id).Info("Event deleted")
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, repository.ErrForeignKey):
		return ErrHasBookings
	}

	m.log.WithError(err).WithField("event_id", id).Error("Failed to delete event")
	return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
}

// Options lists events as drop-down choices
func (m *EventManager) Options(ctx context.Context) ([]model.Option, error) {
	events, err := m.repo.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	options := make([]model.Option, 0, len(events))
	for _, e := range events {
		options = append(options, model.Option{ID: e.ID, Label: e.Name})
	}
	return options, nil
}

// check validates input and verifies the chosen venue exists
func (m *EventManager) check(ctx context.Context, input *model.EventInput) error {
	if err := validateInput(input); err != nil {
		return err
	}

	exists, err := m.repo.VenueExists(ctx, input.VenueID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if !exists {
		return fieldError("VenueID", "The selected venue does not exist.")
	}
	return nil
}
