package main

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/service"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	events *service.EventManager
	venues *service.VenueManager
	pages  *Pages
}

func NewEventHandler(events *service.EventManager, venues *service.VenueManager, pages *Pages) *EventHandler {
	return &EventHandler{
		events: events,
		venues: venues,
		pages:  pages,
	}
}

func (h *EventHandler) Index(c *gin.Context) {
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		h.pages.serverError(c, err, "/")
		return
	}

	h.pages.render(c, http.StatusOK, "event/index.html", gin.H{
		"Title":  "Events",
		"Events": events,
	})
}

func (h *EventHandler) Details(c *gin.Context) {
	h.show(c, "event/details.html", "Event Details")
}

func (h *EventHandler) ConfirmDelete(c *gin.Context) {
	h.show(c, "event/delete.html", "Delete Event")
}

func (h *EventHandler) show(c *gin.Context, name, title string) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/event")
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		h.pages.lookupFailed(c, err, "/event")
		return
	}

	h.pages.render(c, http.StatusOK, name, gin.H{
		"Title": title,
		"Event": event,
	})
}

func (h *EventHandler) CreateForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "/event/create", model.EventInput{}, nil, "")
}

func (h *EventHandler) Create(c *gin.Context) {
	var input model.EventInput
	if err := c.ShouldBind(&input); err != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, "/event/create", input, nil, invalidFormMessage)
		return
	}

	event, err := h.events.Create(c.Request.Context(), input)
	if err != nil {
		h.pages.formFailure(c, err, "event", "/event", func(status int, fields map[string]string, banner string) {
			h.renderForm(c, status, "/event/create", input, fields, banner)
		})
		return
	}

	h.pages.redirect(c, "/event", model.FlashSuccess, fmt.Sprintf("Event '%s' created successfully!", event.Name))
}

func (h *EventHandler) EditForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/event")
		return
	}

	event, err := h.events.Get(c.Request.Context(), id)
	if err != nil {
		h.pages.lookupFailed(c, err, "/event")
		return
	}

	h.renderForm(c, http.StatusOK, fmt.Sprintf("/event/edit/%d", id), event.ToEventInput(), nil, "")
}

func (h *EventHandler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/event")
		return
	}
	action := fmt.Sprintf("/event/edit/%d", id)

	var input model.EventInput
	bindErr := c.ShouldBind(&input)
	input.ID = id
	if bindErr != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, action, input, nil, invalidFormMessage)
		return
	}

	event, err := h.events.Update(c.Request.Context(), id, input)
	if err != nil {
		h.pages.formFailure(c, err, "event", "/event", func(status int, fields map[string]string, banner string) {
			h.renderForm(c, status, action, input, fields, banner)
		})
		return
	}

	h.pages.redirect(c, "/event", model.FlashSuccess, fmt.Sprintf("Event '%s' edited successfully!", event.Name))
}

func (h *EventHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/event")
		return
	}

	err := h.events.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		h.pages.redirect(c, "/event", model.FlashSuccess, "Event deleted successfully!")
	case errors.Is(err, service.ErrNotFound):
		h.pages.notFound(c, "/event")
	case errors.Is(err, service.ErrHasBookings):
		h.pages.redirect(c, "/event", model.FlashError, "Cannot delete this event because it has active bookings.")
	default:
		_ = c.Error(err)
		h.pages.redirect(c, "/event", model.FlashError, "An error occurred while deleting the event. Please try again.")
	}
}

// renderForm shows the event form with the venue choice list
func (h *EventHandler) renderForm(c *gin.Context, status int, action string, input model.EventInput, fields map[string]string, banner string) {
	options, err := h.venues.Options(c.Request.Context())
	if err != nil {
		h.pages.serverError(c, err, "/event")
		return
	}

	title := "Create Event"
	if input.ID != 0 {
		title = "Edit Event"
	}

	h.pages.render(c, status, "event/form.html", gin.H{
		"Title":        title,
		"Action":       action,
		"Input":        input,
		"Errors":       fields,
		"Banner":       banner,
		"VenueOptions": options,
	})
}
