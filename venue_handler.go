package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/service"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

type VenueHandler struct {
	venues    *service.VenueManager
	pages     *Pages
	maxUpload int64
}

func NewVenueHandler(venues *service.VenueManager, pages *Pages, maxUpload int64) *VenueHandler {
	return &VenueHandler{
		venues:    venues,
		pages:     pages,
		maxUpload: maxUpload,
	}
}

func (h *VenueHandler) Index(c *gin.Context) {
	venues, err := h.venues.List(c.Request.Context())
	if err != nil {
		h.pages.serverError(c, err, "/")
		return
	}

	h.pages.render(c, http.StatusOK, "venue/index.html", gin.H{
		"Title":  "Venues",
		"Venues": venues,
	})
}

func (h *VenueHandler) Details(c *gin.Context) {
	h.show(c, "venue/details.html", "Venue Details")
}

func (h *VenueHandler) ConfirmDelete(c *gin.Context) {
	h.show(c, "venue/delete.html", "Delete Venue")
}

func (h *VenueHandler) show(c *gin.Context, name, title string) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/venue")
		return
	}

	venue, err := h.venues.Get(c.Request.Context(), id)
	if err != nil {
		h.pages.lookupFailed(c, err, "/venue")
		return
	}

	h.pages.render(c, http.StatusOK, name, gin.H{
		"Title": title,
		"Venue": venue,
	})
}

func (h *VenueHandler) CreateForm(c *gin.Context) {
	h.renderForm(c, http.StatusOK, "/venue/create", model.VenueInput{}, nil, "")
}

func (h *VenueHandler) Create(c *gin.Context) {
	var input model.VenueInput
	if err := c.ShouldBind(&input); err != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, "/venue/create", input, nil, invalidFormMessage)
		return
	}

	image, err := h.readImage(c)
	if err == nil {
		_, err = h.venues.Create(c.Request.Context(), input, image)
	}
	if err != nil {
		h.pages.formFailure(c, err, "venue", "/venue", func(status int, fields map[string]string, banner string) {
			h.renderForm(c, status, "/venue/create", input, fields, banner)
		})
		return
	}

	h.pages.redirect(c, "/venue", model.FlashSuccess, fmt.Sprintf("Venue '%s' created successfully!", input.Name))
}

func (h *VenueHandler) EditForm(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/venue")
		return
	}

	venue, err := h.venues.Get(c.Request.Context(), id)
	if err != nil {
		h.pages.lookupFailed(c, err, "/venue")
		return
	}

	h.renderForm(c, http.StatusOK, fmt.Sprintf("/venue/edit/%d", id), venue.ToVenueInput(), nil, "")
}

func (h *VenueHandler) Edit(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/venue")
		return
	}
	action := fmt.Sprintf("/venue/edit/%d", id)

	var input model.VenueInput
	bindErr := c.ShouldBind(&input)
	input.ID = id
	if bindErr != nil {
		h.renderForm(c, http.StatusUnprocessableEntity, action, input, nil, invalidFormMessage)
		return
	}

	var venue *model.Venue
	image, err := h.readImage(c)
	if err == nil {
		venue, err = h.venues.Update(c.Request.Context(), id, input, image)
	}
	if err != nil {
		h.pages.formFailure(c, err, "venue", "/venue", func(status int, fields map[string]string, banner string) {
			h.renderForm(c, status, action, input, fields, banner)
		})
		return
	}

	h.pages.redirect(c, "/venue", model.FlashSuccess, fmt.Sprintf("Venue '%s' updated successfully!", venue.Name))
}

func (h *VenueHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		h.pages.notFound(c, "/venue")
		return
	}

	err := h.venues.Delete(c.Request.Context(), id)
	switch {
	case err == nil:
		h.pages.redirect(c, "/venue", model.FlashSuccess, "Venue deleted successfully!")
	case errors.Is(err, service.ErrNotFound):
		h.pages.notFound(c, "/venue")
	case errors.Is(err, service.ErrHasBookings):
		h.pages.redirect(c, "/venue", model.FlashError, "Cannot delete this venue because it has active bookings.")
	default:
		_ = c.Error(err)
		h.pages.redirect(c, "/venue", model.FlashError, "An error occurred while deleting the venue. Please try again.")
	}
}

func (h *VenueHandler) renderForm(c *gin.Context, status int, action string, input model.VenueInput, fields map[string]string, banner string) {
	title := "Create Venue"
	if input.ID != 0 {
		title = "Edit Venue"
	}

	h.pages.render(c, status, "venue/form.html", gin.H{
		"Title":  title,
		"Action": action,
		"Input":  input,
		"Errors": fields,
		"Banner": banner,
	})
}

// readImage returns the uploaded ImageFile, or nil when none was sent
func (h *VenueHandler) readImage(c *gin.Context) (*model.ImageUpload, error) {
	fileHeader, err := c.FormFile("ImageFile")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, imageError(fmt.Sprintf("Error uploading image: %v", err))
	}
	if fileHeader.Size == 0 {
		return nil, nil
	}
	if fileHeader.Size > h.maxUpload {
		return nil, imageError(fmt.Sprintf("The image must not exceed %d MB.", h.maxUpload>>20))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, imageError(fmt.Sprintf("Error uploading image: %v", err))
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUpload))
	if err != nil {
		return nil, imageError(fmt.Sprintf("Error uploading image: %v", err))
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return nil, imageError("The uploaded file is not an image.")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = mime.Extension()
	}

	return &model.ImageUpload{
		Data:        data,
		ContentType: mime.String(),
		Extension:   ext,
	}, nil
}

func imageError(message string) error {
	return &service.ValidationError{Fields: map[string]string{"ImageFile": message}}
}
