// Package memory keeps flash messages in process memory. It is used when
// Redis is disabled and in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/arunvm123/eventease/model"
)

// sweepInterval bounds how often PushFlash scans for expired sessions
const sweepInterval = time.Minute

type entry struct {
	flashes   []model.Flash
	expiresAt time.Time
}

type CacheRepository struct {
	mu        sync.Mutex
	entries   map[string]*entry
	now       func() time.Time
	lastSweep time.Time
}

func NewCacheRepository() *CacheRepository {
	return &CacheRepository{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

func (r *CacheRepository) PushFlash(ctx context.Context, sessionID string, flash model.Flash, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()

	e, ok := r.entries[sessionID]
	if !ok || r.now().After(e.expiresAt) {
		e = &entry{}
		r.entries[sessionID] = e
	}
	e.flashes = append(e.flashes, flash)
	e.expiresAt = r.now().Add(ttl)
	return nil
}

func (r *CacheRepository) PopFlashes(ctx context.Context, sessionID string) ([]model.Flash, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, nil
	}
	delete(r.entries, sessionID)
	if r.now().After(e.expiresAt) {
		return nil, nil
	}
	return e.flashes, nil
}

// sweep drops sessions whose messages expired without being shown
func (r *CacheRepository) sweep() {
	now := r.now()
	if now.Sub(r.lastSweep) < sweepInterval {
		return
	}
	r.lastSweep = now

	for id, e := range r.entries {
		if now.After(e.expiresAt) {
			delete(r.entries, id)
		}
	}
}

func (r *CacheRepository) Ping(ctx context.Context) error {
	return nil
}
