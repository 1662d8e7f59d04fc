// Package memory provides an in-process repository.Store. It backs the
// "memory" database driver for local runs and the unit tests, and enforces
// the same keys and constraints as the Postgres schema.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
)

type bookingKey struct {
	venueID uint
	date    string
}

type Store struct {
	mu sync.RWMutex

	venues   map[uint]model.Venue
	events   map[uint]model.Event
	bookings map[uint]model.Booking
	// (venue, date) -> booking id, mirrors idx_bookings_venue_date
	bookingIndex map[bookingKey]uint

	lastVenueID   uint
	lastEventID   uint
	lastBookingID uint
}

func NewStore() *Store {
	return &Store{
		venues:       make(map[uint]model.Venue),
		events:       make(map[uint]model.Event),
		bookings:     make(map[uint]model.Booking),
		bookingIndex: make(map[bookingKey]uint),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}

// Venue operations
func (s *Store) CreateVenue(ctx context.Context, venue *model.Venue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastVenueID++
	now := time.Now()
	venue.ID = s.lastVenueID
	venue.Version = 1
	venue.CreatedAt, venue.UpdatedAt = now, now
	s.venues[venue.ID] = *venue
	return nil
}

func (s *Store) GetVenueByID(ctx context.Context, id uint) (*model.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	venue, ok := s.venues[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &venue, nil
}

func (s *Store) ListVenues(ctx context.Context) ([]model.Venue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	venues := make([]model.Venue, 0, len(s.venues))
	for _, v := range s.venues {
		venues = append(venues, v)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })
	return venues, nil
}

func (s *Store) UpdateVenue(ctx context.Context, venue *model.Venue, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.venues[venue.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrStaleVersion
	}

	stored.Name = venue.Name
	stored.Location = venue.Location
	stored.Capacity = venue.Capacity
	stored.ImageURL = venue.ImageURL
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now()
	s.venues[venue.ID] = stored

	venue.Version = stored.Version
	return nil
}

func (s *Store) DeleteVenue(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venues[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.VenueID == id {
			return fmt.Errorf("%w: fk_bookings_venue", repository.ErrForeignKey)
		}
		// the cascade to events is blocked by their bookings too
		if s.events[b.EventID].VenueID == id {
			return fmt.Errorf("%w: fk_bookings_event", repository.ErrForeignKey)
		}
	}

	for eventID, e := range s.events {
		if e.VenueID == id {
			delete(s.events, eventID)
		}
	}
	delete(s.venues, id)
	return nil
}

func (s *Store) VenueExists(ctx context.Context, id uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.venues[id]
	return ok, nil
}

// Event operations
func (s *Store) CreateEvent(ctx context.Context, event *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venues[event.VenueID]; !ok {
		return fmt.Errorf("%w: fk_events_venue", repository.ErrForeignKey)
	}

	s.lastEventID++
	now := time.Now()
	event.ID = s.lastEventID
	event.Version = 1
	event.CreatedAt, event.UpdatedAt = now, now
	stored := *event
	stored.Venue = model.Venue{}
	s.events[event.ID] = stored
	return nil
}

func (s *Store) GetEventByID(ctx context.Context, id uint) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	event.Venue = s.venues[event.VenueID]
	return &event, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := make([]model.Event, 0, len(s.events))
	for _, e := range s.events {
		e.Venue = s.venues[e.VenueID]
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	return events, nil
}

func (s *Store) UpdateEvent(ctx context.Context, event *model.Event, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.events[event.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	if _, ok := s.venues[event.VenueID]; !ok {
		return fmt.Errorf("%w: fk_events_venue", repository.ErrForeignKey)
	}

	stored.Name = event.Name
	stored.EventDate = event.EventDate
	stored.Description = event.Description
	stored.VenueID = event.VenueID
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now()
	s.events[event.ID] = stored

	event.Version = stored.Version
	return nil
}

func (s *Store) DeleteEvent(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[id]; !ok {
		return repository.ErrNotFound
	}
	for _, b := range s.bookings {
		if b.EventID == id {
			return fmt.Errorf("%w: fk_bookings_event", repository.ErrForeignKey)
		}
	}
	delete(s.events, id)
	return nil
}

func (s *Store) EventExists(ctx context.Context, id uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.events[id]
	return ok, nil
}

// Booking operations
func (s *Store) CreateBooking(ctx context.Context, booking *model.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBookingRefs(booking); err != nil {
		return err
	}
	key := keyFor(booking)
	if _, taken := s.bookingIndex[key]; taken {
		return fmt.Errorf("%w: idx_bookings_venue_date", repository.ErrDuplicate)
	}

	s.lastBookingID++
	now := time.Now()
	booking.ID = s.lastBookingID
	booking.Version = 1
	booking.BookingDate = model.DateOnly(booking.BookingDate)
	booking.CreatedAt, booking.UpdatedAt = now, now
	stored := *booking
	stored.Event, stored.Venue = model.Event{}, model.Venue{}
	s.bookings[booking.ID] = stored
	s.bookingIndex[key] = booking.ID
	return nil
}

func (s *Store) GetBookingByID(ctx context.Context, id uint) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.fillBooking(&booking)
	return &booking, nil
}

func (s *Store) ListBookings(ctx context.Context, filter model.BookingFilter) ([]model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]model.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		s.fillBooking(&b)
		if filter.Term != "" && !matchesFilter(b, filter) {
			continue
		}
		bookings = append(bookings, b)
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].ID < bookings[j].ID })
	return bookings, nil
}

func matchesFilter(b model.Booking, filter model.BookingFilter) bool {
	return strings.Contains(b.Venue.Name, filter.Term) ||
		strings.Contains(b.Event.Name, filter.Term) ||
		(filter.BookingID != nil && *filter.BookingID >= 0 && uint(*filter.BookingID) == b.ID)
}

func (s *Store) UpdateBooking(ctx context.Context, booking *model.Booking, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bookings[booking.ID]
	if !ok || stored.Version != expectedVersion {
		return repository.ErrStaleVersion
	}
	if err := s.checkBookingRefs(booking); err != nil {
		return err
	}
	newKey := keyFor(booking)
	if holder, taken := s.bookingIndex[newKey]; taken && holder != booking.ID {
		return fmt.Errorf("%w: idx_bookings_venue_date", repository.ErrDuplicate)
	}

	delete(s.bookingIndex, keyFor(&stored))
	stored.EventID = booking.EventID
	stored.VenueID = booking.VenueID
	stored.BookingDate = model.DateOnly(booking.BookingDate)
	stored.Version = expectedVersion + 1
	stored.UpdatedAt = time.Now()
	s.bookings[booking.ID] = stored
	s.bookingIndex[newKey] = booking.ID

	booking.Version = stored.Version
	return nil
}

func (s *Store) DeleteBooking(ctx context.Context, id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.bookingIndex, keyFor(&stored))
	delete(s.bookings, id)
	return nil
}

func (s *Store) BookingExists(ctx context.Context, id uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.bookings[id]
	return ok, nil
}

func (s *Store) FindConflictingBooking(ctx context.Context, venueID uint, date time.Time, excludeID uint) (*model.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, taken := s.bookingIndex[bookingKey{venueID: venueID, date: date.Format(model.DateLayout)}]
	if !taken || id == excludeID {
		return nil, nil
	}
	booking := s.bookings[id]
	s.fillBooking(&booking)
	return &booking, nil
}

func (s *Store) CountBookingsByVenue(ctx context.Context, venueID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, b := range s.bookings {
		if b.VenueID == venueID {
			count++
		}
	}
	return count, nil
}

func (s *Store) CountBookingsByEvent(ctx context.Context, eventID uint) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, b := range s.bookings {
		if b.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (s *Store) checkBookingRefs(booking *model.Booking) error {
	if _, ok := s.events[booking.EventID]; !ok {
		return fmt.Errorf("%w: fk_bookings_event", repository.ErrForeignKey)
	}
	if _, ok := s.venues[booking.VenueID]; !ok {
		return fmt.Errorf("%w: fk_bookings_venue", repository.ErrForeignKey)
	}
	return nil
}

// fillBooking mimics Preload("Event").Preload("Venue")
func (s *Store) fillBooking(b *model.Booking) {
	b.Event = s.events[b.EventID]
	b.Venue = s.venues[b.VenueID]
}

func keyFor(b *model.Booking) bookingKey {
	return bookingKey{venueID: b.VenueID, date: b.BookingDate.Format(model.DateLayout)}
}
