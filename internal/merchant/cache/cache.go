// Package cache keeps merchant categories in Redis in front of the database.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrJamesThe3rd/smsledger/internal/logger"
	"github.com/MrJamesThe3rd/smsledger/internal/merchant"
)

// Client is the subset of *redis.Client the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Repository reads through Redis and writes through to the wrapped
// repository. Redis failures degrade to the wrapped repository.
type Repository struct {
	next   merchant.Repository
	client Client
	ttl    time.Duration
}

func New(next merchant.Repository, client Client, ttl time.Duration) *Repository {
	return &Repository{next: next, client: client, ttl: ttl}
}

func key(userID, name string) string {
	return "merchant:" + userID + ":" + name
}

func (r *Repository) GetCategory(ctx context.Context, userID, name string) (string, error) {
	k := key(userID, name)

	cached, err := r.client.Get(ctx, k).Result()
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, redis.Nil) {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k).Msg("merchant cache read failed")
	}

	category, err := r.next.GetCategory(ctx, userID, name)
	if err != nil {
		return "", err
	}

	if err := r.client.Set(ctx, k, category, r.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k).Msg("merchant cache write failed")
	}

	return category, nil
}

func (r *Repository) SaveCategory(ctx context.Context, userID, name, category string) error {
	if err := r.next.SaveCategory(ctx, userID, name, category); err != nil {
		return err
	}

	k := key(userID, name)
	if err := r.client.Set(ctx, k, category, r.ttl).Err(); err != nil {
		logger.FromContext(ctx).Warn().Err(err).Str("key", k).Msg("merchant cache write failed")

		// A stale entry must not outlive the write.
		r.client.Del(ctx, k)
	}

	return nil
}

func (r *Repository) ListMappings(ctx context.Context, userID string) ([]*merchant.Mapping, error) {
	return r.next.ListMappings(ctx, userID)
}
