package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/service"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookings *service.BookingManager
	events   *service.EventManager
	venues   *service.VenueManager
	pages    *Pages
}

func NewBookingHandler(bookings *service.BookingManager, events *service.EventManager, venues *service.VenueManager, pages *Pages) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		events:   events,
		venues:   venues,
		pages:    pages,
	}
}

// Index lists bookings, filtered by the searchString query parameter
func (h *BookingHandler) Index(c *gin.Context) {
	search := c.Query("searchString")

	bookings, err := h.bookings.List(c.Request.Context(), search)
	if err != nil {
		h.pages.serverError(c, err, "/")
		return
	}

	h.pages.render(c, http.StatusOK, "booking/index.html", gin.H{
		"Title":    "Bookings",
		"Bookings": bookings,
		"Search":   search,
	})
}

func (h *BookingHandler) Details(c *gin.Context) {
	h.show(c, "booking/details.html", "Booking Details")
}

func (h *BookingHandler) ConfirmDelete(c *gin.Context) {
	h.show(c, "booking/delete.html", "Delete Booking")
}

func (h *BookingHandler) show(c *gin.Context, name, title string) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/booking")
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		h.pages.lookupFailed(c, err, "/booking")
		return
	}

	h.pages.render(c, http.StatusOK, name, gin.H{
		"Title":   title,
		"Booking": booking,
	})
}

func (h *BookingHandler) CreateForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "/booking/create", model.BookingInput{}, nil, "")
}

func (h *BookingHandler) Create(c *gin.Context) {
	var input model.BookingInput
	if err := c.ShouldBind(&input); err != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, "/booking/create", input, nil, invalidFormMessage)
		return
	}

	if _, err := h.bookings.Create(c.Request.Context(), input); err != nil {
		h.pages.formFailure(c, err, "booking", "/booking", func(status int, fields map[string]string, banner string) {
			h.renderForm(c, status, "/booking/create", input, fields, banner)
		})
		return
	}

	h.pages.redirect(c, "/booking", model.FlashSuccess, "Booking created successfully!")
}

func (h *BookingHandler) EditForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/booking")
		return
	}

	booking, err := h.bookings.Get(c.Request.Context(), id)
	if err != nil {
		h.pages.lookupFailed(c, err, "/booking")
		return
	}

	h.renderForm(c, http.StatusOK, fmt.Sprintf("/booking/edit/%d", id), booking.ToBookingInput(), nil, "")
}

func (h *BookingHandler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/booking")
		return
	}
	action := fmt.Sprintf("/booking/edit/%d", id)

	var input model.BookingInput
	bindErr := c.ShouldBind(&input)
	input.ID = id
	if bindErr != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, action, input, nil, invalidFormMessage)
		return
	}

	if _, err := h.bookings.Update(c.Request.Context(), id, input); err != nil {
		h.pages.formFailure(c, err, "booking", "/booking", func(status int, fields map[string]string, banner string) {
			h.renderForm(c, status, action, input, fields, banner)
		})
		return
	}

	h.pages.redirect(c, "/booking", model.FlashSuccess, "Booking edited successfully!")
}

func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/booking")
		return
	}

	booking, err := h.bookings.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		h.pages.redirect(c, "/booking", model.FlashSuccess, fmt.Sprintf(
			"Booking for %s at %s on %s deleted successfully!",
			booking.Event.Name, booking.Venue.Name, booking.BookingDate.Format(model.DateLayout)))
	case errors.Is(err, service.ErrNotFound):
		h.pages.notFound(c, "/booking")
	default:
		_ = c.Error(err)
		h.pages.redirect(c, "/booking", model.FlashError, "An error occurred while deleting the booking. Please try again.")
	}
}

// renderForm shows the booking form with event and venue choice lists
func (h *BookingHandler) renderForm(c *gin.Context, status int, action string, input model.BookingInput, fields map[string]string, banner string) {
	eventOptions, err := h.events.Options(c.Request.Context())
	if err != nil {
		h.pages.serverError(c, err, "/booking")
		return
	}
	venueOptions, err := h.venues.Options(c.Request.Context())
	if err != nil {
		h.pages.serverError(c, err, "/booking")
		return
	}

	title := "Create Booking"
	if input.ID != 0 {
		title = "Edit Booking"
	}

	h.pages.render(c, status, "booking/form.html", gin.H{
		"Title":        title,
		"Action":       action,
		"Input":        input,
		"Errors":       fields,
		"Banner":       banner,
		"EventOptions": eventOptions,
		"VenueOptions": venueOptions,
	})
}
