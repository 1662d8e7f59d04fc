package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/arunvm123/eventease/cache"
	"github.com/arunvm123/eventease/model"
	"github.com/arunvm123/eventease/repository"
	"github.com/arunvm123/eventease/service"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	concurrencyMessage  = "The record you attempted to edit was modified by another user. Please reload and try again."
	bookingTakenMessage = "Unable to save changes. The venue may have been booked by another user. Please try again."
	invalidFormMessage  = "The submitted form contains invalid values."
)

// Pages renders HTML views and carries one-shot flash messages between
// requests.
type Pages struct {
	cache    cache.CacheRepository
	log      logrus.FieldLogger
	flashTTL time.Duration
}

func NewPages(cache cache.CacheRepository, log logrus.FieldLogger, flashTTL time.Duration) *Pages {
	return &Pages{
		cache:    cache,
		log:      log,
		flashTTL: flashTTL,
	}
}

func (p *Pages) render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}

	if session := currentSession(c); session != nil {
		data["CSRFToken"] = session.CSRFToken
		flashes, err := p.cache.PopFlashes(c.Request.Context(), session.ID)
		if err != nil {
			p.log.WithError(err).Warn("Failed to load flash messages")
		}
		data["Flashes"] = flashes
	}

	c.HTML(status, name, data)
}

// redirect sends a 303 to path after queueing a flash message
func (p *Pages) redirect(c *gin.Context, path, kind, message string) {
	if session := currentSession(c); session != nil && message != "" {
		flash := model.Flash{Kind: kind, Message: message}
		if err := p.cache.PushFlash(c.Request.Context(), session.ID, flash, p.flashTTL); err != nil {
			p.log.WithError(err).Warn("Failed to store flash message")
		}
	}
	c.Redirect(http.StatusSeeOther, path)
}

func (p *Pages) notFound(c *gin.Context, back string) {
	p.render(c, http.StatusNotFound, "error.html", gin.H{
		"Title":   "Not Found",
		"Message": "The requested record does not exist.",
		"Back":    back,
	})
}

func (p *Pages) serverError(c *gin.Context, err error, back string) {
	_ = c.Error(err)
	p.render(c, http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Error",
		"Message": "An unexpected error occurred. Please try again.",
		"Back":    back,
	})
}

// lookupFailed renders 404 for unknown ids and 500 otherwise
func (p *Pages) lookupFailed(c *gin.Context, err error, back string) {
	if errors.Is(err, service.ErrNotFound) {
		p.notFound(c, back)
		return
	}
	p.serverError(c, err, back)
}

// formFailure maps a manager error onto a re-rendered form
func (p *Pages) formFailure(c *gin.Context, err error, entity, back string, rerender func(status int, fields map[string]string, banner string)) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		rerender(http.StatusUnprocessableEntity, verr.Fields, verr.Message)
	case errors.Is(err, service.ErrNotFound):
		p.notFound(c, back)
	case errors.Is(err, service.ErrConcurrencyConflict):
		rerender(http.StatusConflict, nil, concurrencyMessage)
	case errors.Is(err, service.ErrBookingTaken):
		rerender(http.StatusConflict, nil, bookingTakenMessage)
	default:
		_ = c.Error(err)
		rerender(http.StatusInternalServerError, nil,
			fmt.Sprintf("An error occurred while saving the %s. Please try again.", entity))
	}
}

// parseID reads the :id path parameter
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// HealthHandler reports whether the store and flash cache are reachable
type HealthHandler struct {
	store repository.Store
	cache cache.CacheRepository
}

func NewHealthHandler(store repository.Store, cache cache.CacheRepository) *HealthHandler {
	return &HealthHandler{
		store: store,
		cache: cache,
	}
}

// HealthCheck handles health check endpoint
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Error:   "service_unavailable",
			Message: "Database ping failed",
		})
		return
	}

	if err := h.cache.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{
			Error:   "service_unavailable",
			Message: "Cache ping failed",
		})
		return
	}

	response := model.HealthResponse{
		Status:    "healthy",
		Service:   "eventease",
		Timestamp: time.Now(),
	}

	c.JSON(http.StatusOK, response)
}
