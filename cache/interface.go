package cache

import (
	"context"
	"time"

	"github.com/arunvm123/eventease/model"
)

type CacheRepository interface {
	// Flash message operations, keyed by session id
	PushFlash(ctx context.Context, sessionID string, flash model.Flash, ttl time.Duration) error
	PopFlashes(ctx context.Context, sessionID string) ([]model.Flash, error)

	// Health check
	Ping(ctx context.Context) error
}
