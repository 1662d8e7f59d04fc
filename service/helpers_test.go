package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func discardLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type failingBlobStore struct {
	calls int
}

func (f *failingBlobStore) Upload(ctx context.Context, image model.ImageUpload) (string, error) {
	f.calls++
	return "", errors.New("quota exceeded")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.BookingEvent
	err    error
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, event model.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error {
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type fixture struct {
	store     *memory.Store
	publisher *recordingPublisher
	venues    *VenueManager
	events    *EventManager
	bookings  *BookingManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	pub := &recordingPublisher{}
	log := discardLogger()

	return &fixture{
		store:     store,
		publisher: pub,
		venues:    NewVenueManager(store, &failingBlobStore{}, log),
		events:    NewEventManager(store, log),
		bookings:  NewBookingManager(store, pub, log),
	}
}

func (f *fixture) venue(t *testing.T, name string) *model.Venue {
	t.Helper()
	venue, err := f.venues.Create(context.Background(), model.VenueInput{Name: name, Location: "Pretoria", Capacity: 100}, nil)
	require.NoError(t, err)
	return venue
}

func (f *fixture) event(t *testing.T, name string, venueID uint) *model.Event {
	t.Helper()
	event, err := f.events.Create(context.Background(), model.EventInput{
		Name:      name,
		EventDate: time.Date(2025, 9, 1, 18, 30, 0, 0, time.UTC),
		VenueID:   venueID,
	})
	require.NoError(t, err)
	return event
}

func (f *fixture) booking(t *testing.T, eventID, venueID uint, date time.Time) *model.Booking {
	t.Helper()
	booking, err := f.bookings.Create(context.Background(), model.BookingInput{EventID: eventID, VenueID: venueID, BookingDate: date})
	require.NoError(t, err)
	return booking
}

func day(d int) time.Time {
	return time.Date(2025, 10, d, 0, 0, 0, 0, time.UTC)
}
