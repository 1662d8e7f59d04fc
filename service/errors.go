// Package service holds the venue, event and booking managers. Managers
// translate store outcomes into the errors below; the HTTP layer maps them
// to status codes and messages.
package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/arunvm123/eventease/repository"
)

var (
	ErrNotFound            = repository.ErrNotFound
	ErrConcurrencyConflict = errors.New("record was modified by another user")
	ErrHasBookings         = errors.New("record has active bookings")
	ErrBookingTaken        = errors.New("venue was booked by another request")
	ErrDeleteFailed        = errors.New("delete failed")
	ErrSaveFailed          = errors.New("save failed")
)

// ValidationError carries field-level messages and an optional banner
type ValidationError struct {
	Fields  map[string]string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

func fieldError(field, message string) *ValidationError {
	verr := &ValidationError{}
	verr.add(field, message)
	return verr
}

// staleOutcome decides what a rejected versioned write means once the
// existence re-check has run.
func staleOutcome(exists bool, err error) error {
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConcurrencyConflict
}
