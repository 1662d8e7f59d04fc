package redis

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arunvm123/eventease/model"
	"github.com/redis/go-redis/v9"
)

type RedisCacheRepository struct {
	client *redis.Client
}

// NewRedisCacheRepository connects to redisURL. A nil tlsConfig means a
// plain TCP connection.
func NewRedisCacheRepository(redisURL, password string, db int, tlsConfig *tls.Config) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:      redisURL,
		Password:  password,
		DB:        db,
		TLSConfig: tlsConfig,
	})

	// Test connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisCacheRepository{
		client: client,
	}, nil
}

// Cache key generators
func (r *RedisCacheRepository) flashKey(sessionID string) string {
	return fmt.Sprintf("session:%s:flash", sessionID)
}

func (r *RedisCacheRepository) PushFlash(ctx context.Context, sessionID string, flash model.Flash, ttl time.Duration) error {
	key := r.flashKey(sessionID)

	data, err := json.Marshal(flash)
	if err != nil {
		return err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// PopFlashes returns and clears the pending messages in one transaction
func (r *RedisCacheRepository) PopFlashes(ctx context.Context, sessionID string) ([]model.Flash, error) {
	key := r.flashKey(sessionID)

	var items *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		items = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// a missing key reads as an empty list
	flashes := make([]model.Flash, 0, len(items.Val()))
	for _, item := range items.Val() {
		var flash model.Flash
		if err := json.Unmarshal([]byte(item), &flash); err != nil {
			continue
		}
		flashes = append(flashes, flash)
	}
	return flashes, nil
}

func (r *RedisCacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}
