// Package publisher emits booking lifecycle messages after a commit.
package publisher

import (
	"context"

	"github.com/arunvm123/eventease/model"
)

type BookingPublisher interface {
	PublishBookingEvent(ctx context.Context, event model.BookingEvent) error
	Close() error
}

// Noop drops every message. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishBookingEvent(ctx context.Context, event model.BookingEvent) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
