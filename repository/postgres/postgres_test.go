package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/arunvm123/eventease/config"
	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *PostgresStore {
	t.Helper()

	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		t.Skip("POSTGRES_URL not set")
	}

	store, err := open(dsn, &config.Database{MaxOpenConns: 5, MaxIdleConns: 2, ConnMaxLifetime: 5}, logrus.New())
	require.NoError(t, err)

	require.NoError(t, store.GetDB().Exec("TRUNCATE bookings, events, venues RESTART IDENTITY CASCADE").Error)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func seedVenueAndEvent(t *testing.T, store *PostgresStore, venueName string) (*model.Venue, *model.Event) {
	t.Helper()
	ctx := context.Background()

	venue := &model.Venue{Name: venueName, Location: "Johannesburg", Capacity: 300}
	require.NoError(t, store.CreateVenue(ctx, venue))

	event := &model.Event{Name: "Launch " + venueName, EventDate: time.Now().UTC(), VenueID: venue.ID}
	require.NoError(t, store.CreateEvent(ctx, event))

	return venue, event
}

func TestUniqueVenueDateIndex(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	venue, event := seedVenueAndEvent(t, store, "Main Hall")

	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)
	first := &model.Booking{EventID: event.ID, VenueID: venue.ID, BookingDate: date}
	require.NoError(t, store.CreateBooking(ctx, first))

	second := &model.Booking{EventID: event.ID, VenueID: venue.ID, BookingDate: date}
	assert.ErrorIs(t, store.CreateBooking(ctx, second), repository.ErrDuplicate)

	conflict, err := store.FindConflictingBooking(ctx, venue.ID, date, 0)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, first.ID, conflict.ID)
	assert.Equal(t, event.Name, conflict.Event.Name)

	conflict, err = store.FindConflictingBooking(ctx, venue.ID, date, first.ID)
	require.NoError(t, err)
	assert.Nil(t, conflict)
}

func TestDeleteVenueWithBookingsIsRestricted(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	venue, event := seedVenueAndEvent(t, store, "Annex")

	booking := &model.Booking{EventID: event.ID, VenueID: venue.ID, BookingDate: time.Now().UTC()}
	require.NoError(t, store.CreateBooking(ctx, booking))

	count, err := store.CountBookingsByVenue(ctx, venue.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	assert.ErrorIs(t, store.DeleteVenue(ctx, venue.ID), repository.ErrForeignKey)

	exists, err := store.VenueExists(ctx, venue.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDeleteVenueCascadesToEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	venue, event := seedVenueAndEvent(t, store, "Pavilion")

	require.NoError(t, store.DeleteVenue(ctx, venue.ID))

	exists, err := store.EventExists(ctx, event.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStaleUpdateAfterDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	venue, event := seedVenueAndEvent(t, store, "Loft")

	booking := &model.Booking{EventID: event.ID, VenueID: venue.ID, BookingDate: time.Now().UTC()}
	require.NoError(t, store.CreateBooking(ctx, booking))
	require.NoError(t, store.DeleteBooking(ctx, booking.ID))

	booking.BookingDate = booking.BookingDate.AddDate(0, 0, 1)
	assert.ErrorIs(t, store.UpdateBooking(ctx, booking, 1), repository.ErrStaleVersion)

	exists, err := store.BookingExists(ctx, booking.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestListBookingsSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	hall, gala := seedVenueAndEvent(t, store, "Grand Hall")
	barn, _ := seedVenueAndEvent(t, store, "Old Barn")

	require.NoError(t, store.CreateBooking(ctx, &model.Booking{EventID: gala.ID, VenueID: hall.ID, BookingDate: time.Now().UTC()}))
	require.NoError(t, store.CreateBooking(ctx, &model.Booking{EventID: gala.ID, VenueID: barn.ID, BookingDate: time.Now().UTC()}))

	found, err := store.ListBookings(ctx, model.BookingFilter{Term: "Barn"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Old Barn", found[0].Venue.Name)
	assert.Equal(t, gala.Name, found[0].Event.Name)

	found, err = store.ListBookings(ctx, model.BookingFilter{Term: "Grand"})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Less(t, found[0].ID, found[1].ID)
}
