package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/arunvm123/eventease/cache/memory"
	"github.com/arunvm123/eventease/config"
	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/publisher"
	"github.com/arunvm123/eventease/repository"
	memstore "github.com/arunvm123/eventease/repository/memory"
	"github.com/arunvm123/eventease/storage/local"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var csrfPattern = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

type testApp struct {
	t       *testing.T
	router  *gin.Engine
	store   *memstore.Store
	cookies []*http.Cookie
	csrf    string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithStore(t, func(s *memstore.Store) repository.Store { return s })
}

// newTestAppWithStore lets a test put a wrapper in front of the memory store
func newTestAppWithStore(t *testing.T, wrap func(*memstore.Store) repository.Store) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cfg := &config.Config{
		Session: config.Session{
			Secret:       "test-secret",
			CookieName:   "eventease_session",
			MaxAgeHours:  1,
			FlashTTLSecs: 60,
		},
		Upload: config.Upload{
			MaxBytes:  1 << 20,
			PublicURL: "/uploads",
		},
	}

	blobs, err := local.NewStore(t.TempDir(), cfg.Upload.PublicURL)
	require.NoError(t, err)

	store := memstore.NewStore()
	deps := &Dependencies{
		Store:          wrap(store),
		Cache:          memory.NewCacheRepository(),
		Blobs:          blobs,
		Publisher:      publisher.Noop{},
		LocalUploadDir: blobs.Dir(),
	}

	router, err := SetupRouter(cfg, log, deps)
	require.NoError(t, err)

	return &testApp{t: t, router: router, store: store}
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range a.cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	if cookies := w.Result().Cookies(); len(cookies) > 0 {
		a.cookies = cookies
	}
	if m := csrfPattern.FindStringSubmatch(w.Body.String()); m != nil {
		a.csrf = m[1]
	}
	return w
}

func (a *testApp) get(path string) *httptest.ResponseRecorder {
	return a.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (a *testApp) post(path string, form url.Values) *httptest.ResponseRecorder {
	if form.Get("csrf_token") == "" && a.csrf != "" {
		form.Set("csrf_token", a.csrf)
	}
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.do(req)
}

// begin loads a form page so the session cookie and token are set
func (a *testApp) begin() {
	w := a.get("/venue/create")
	require.Equal(a.t, http.StatusOK, w.Code)
	require.NotEmpty(a.t, a.csrf)
}

func (a *testApp) seedVenue(name string) *model.Venue {
	venue := &model.Venue{Name: name, Location: "Stellenbosch", Capacity: 80}
	require.NoError(a.t, a.store.CreateVenue(context.Background(), venue))
	return venue
}

func (a *testApp) seedEvent(name string, venueID uint) *model.Event {
	event := &model.Event{Name: name, EventDate: time.Now().UTC(), VenueID: venueID}
	require.NoError(a.t, a.store.CreateEvent(context.Background(), event))
	return event
}

func TestRootRedirectsToVenues(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/venue", w.Header().Get("Location"))
}

func TestPostWithoutTokenIsForbidden(t *testing.T) {
	app := newTestApp(t)
	app.begin()

	w := app.post("/venue/create", url.Values{
		"csrf_token": {"forged"},
		"Name":       {"Hall A"},
		"Location":   {"Paarl"},
		"Capacity":   {"10"},
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	venues, err := app.store.ListVenues(context.Background())
	require.NoError(t, err)
	assert.Empty(t, venues)
}

func TestCreateVenueRedirectsWithFlash(t *testing.T) {
	app := newTestApp(t)
	app.begin()

	w := app.post("/venue/create", url.Values{
		"Name":     {"Hall A"},
		"Location": {"Paarl"},
		"Capacity": {"120"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/venue", w.Header().Get("Location"))

	w = app.get("/venue")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "created successfully!")
	assert.Contains(t, w.Body.String(), "Hall A")

	// flash is shown once
	w = app.get("/venue")
	assert.NotContains(t, w.Body.String(), "created successfully!")
}

func TestCreateVenueInvalidRerendersForm(t *testing.T) {
	app := newTestApp(t)
	app.begin()

	w := app.post("/venue/create", url.Values{
		"Name":     {""},
		"Location": {"Paarl"},
		"Capacity": {"0"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "The Name field is required.")
	assert.Contains(t, w.Body.String(), "Capacity must be greater than 0.")
	assert.Contains(t, w.Body.String(), `value="Paarl"`)
}

func TestCreateVenueWithImage(t *testing.T) {
	app := newTestApp(t)
	app.begin()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("csrf_token", app.csrf))
	require.NoError(t, mw.WriteField("Name", "Glasshouse"))
	require.NoError(t, mw.WriteField("Location", "Franschhoek"))
	require.NoError(t, mw.WriteField("Capacity", "40"))
	part, err := mw.CreateFormFile("ImageFile", "glasshouse.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/venue/create", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := app.do(req)
	require.Equal(t, http.StatusSeeOther, w.Code)

	venues, err := app.store.ListVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 1)
	imageURL := venues[0].Image()
	assert.True(t, strings.HasPrefix(imageURL, "/uploads/"))
	assert.True(t, strings.HasSuffix(imageURL, ".png"))

	w = app.get(imageURL)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEditVenueKeepsBlankFields(t *testing.T) {
	app := newTestApp(t)
	venue := app.seedVenue("Old Mill")
	app.begin()

	w := app.post("/venue/edit/"+itoa(venue.ID), url.Values{
		"Name":     {""},
		"Location": {""},
		"Capacity": {"0"},
		"Version":  {"1"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	stored, err := app.store.GetVenueByID(context.Background(), venue.ID)
	require.NoError(t, err)
	assert.Equal(t, "Old Mill", stored.Name)
	assert.Equal(t, 80, stored.Capacity)
}

func TestDeleteVenueWithBookingsShowsError(t *testing.T) {
	app := newTestApp(t)
	venue := app.seedVenue("Hall A")
	event := app.seedEvent("Gala", venue.ID)
	require.NoError(t, app.store.CreateBooking(context.Background(), &model.Booking{
		EventID: event.ID, VenueID: venue.ID, BookingDate: model.DateOnly(time.Now()),
	}))
	app.begin()

	w := app.post("/venue/delete/"+itoa(venue.ID), url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.get("/venue")
	assert.Contains(t, w.Body.String(), "Cannot delete this venue because it has active bookings.")

	exists, err := app.store.VenueExists(context.Background(), venue.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCreateBookingConflict(t *testing.T) {
	app := newTestApp(t)
	venue := app.seedVenue("Hall A")
	gala := app.seedEvent("Gala", venue.ID)
	expo := app.seedEvent("Expo", venue.ID)
	app.begin()

	w := app.post("/booking/create", url.Values{
		"EventID":     {itoa(gala.ID)},
		"VenueID":     {itoa(venue.ID)},
		"BookingDate": {"2025-11-20"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.post("/booking/create", url.Values{
		"EventID":     {itoa(expo.ID)},
		"VenueID":     {itoa(venue.ID)},
		"BookingDate": {"2025-11-20"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "This booking cannot be created as the venue is already booked.")
	assert.Contains(t, w.Body.String(), "The venue is already booked on 2025-11-20")

	bookings, err := app.store.ListBookings(context.Background(), model.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

// racingStore reports every date as free, leaving the unique index to
// reject the insert.
type racingStore struct {
	*memstore.Store
}

func (racingStore) FindConflictingBooking(ctx context.Context, venueID uint, date time.Time, excludeID uint) (*model.Booking, error) {
	return nil, nil
}

func TestCreateBookingTakenByConcurrentRequest(t *testing.T) {
	app := newTestAppWithStore(t, func(s *memstore.Store) repository.Store { return racingStore{s} })
	venue := app.seedVenue("Hall A")
	gala := app.seedEvent("Gala", venue.ID)
	expo := app.seedEvent("Expo", venue.ID)
	require.NoError(t, app.store.CreateBooking(context.Background(), &model.Booking{
		EventID: gala.ID, VenueID: venue.ID, BookingDate: time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC),
	}))
	app.begin()

	w := app.post("/booking/create", url.Values{
		"EventID":     {itoa(expo.ID)},
		"VenueID":     {itoa(venue.ID)},
		"BookingDate": {"2025-11-20"},
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), bookingTakenMessage)

	bookings, err := app.store.ListBookings(context.Background(), model.BookingFilter{})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestBookingSearchAndDelete(t *testing.T) {
	app := newTestApp(t)
	hallA := app.seedVenue("Hall A")
	hallB := app.seedVenue("Hall B")
	gala := app.seedEvent("Gala", hallA.ID)
	expo := app.seedEvent("Expo", hallB.ID)

	ctx := context.Background()
	first := &model.Booking{EventID: gala.ID, VenueID: hallA.ID, BookingDate: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)}
	second := &model.Booking{EventID: expo.ID, VenueID: hallB.ID, BookingDate: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, app.store.CreateBooking(ctx, first))
	require.NoError(t, app.store.CreateBooking(ctx, second))
	app.begin()

	w := app.get("/booking?searchString=Expo")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hall B")
	assert.NotContains(t, w.Body.String(), "<td>Hall A</td>")

	w = app.post("/booking/delete/"+itoa(second.ID), url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = app.get("/booking")
	assert.Contains(t, w.Body.String(), "Booking for Expo at Hall B on 2025-12-01 deleted successfully!")
}

func TestUnknownIDReturnsNotFound(t *testing.T) {
	app := newTestApp(t)

	for _, path := range []string{"/venue/details/42", "/event/edit/42", "/booking/delete/42", "/venue/details/abc"} {
		w := app.get(path)
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestEventCreateAndDeleteGuard(t *testing.T) {
	app := newTestApp(t)
	venue := app.seedVenue("Atrium")
	app.begin()

	w := app.post("/event/create", url.Values{
		"Name":      {"Recital"},
		"EventDate": {"2025-08-15T19:00"},
		"VenueID":   {itoa(venue.ID)},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	events, err := app.store.ListEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, time.Date(2025, 8, 15, 19, 0, 0, 0, time.UTC), events[0].EventDate.UTC())

	require.NoError(t, app.store.CreateBooking(context.Background(), &model.Booking{
		EventID: events[0].ID, VenueID: venue.ID, BookingDate: model.DateOnly(time.Now()),
	}))

	w = app.post("/event/delete/"+itoa(events[0].ID), url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	w = app.get("/event")
	assert.Contains(t, w.Body.String(), "Cannot delete this event because it has active bookings.")
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w := app.get("/health")
	require.Equal(t, http.StatusOK, w.Code)

	var health model.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)

	w = app.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
