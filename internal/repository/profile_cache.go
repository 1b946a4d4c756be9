package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/learn-connect/internal/config"
	"github.com/iliyamo/learn-connect/internal/model"
)

// ProfileCache keeps serialized public profiles in Redis. A nil *ProfileCache
// is valid and caches nothing, which is what NewProfileCache returns when
// caching is disabled or Redis is unavailable.
type ProfileCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

func NewProfileCache(cfg config.ProfileCacheConfig, rdb *redis.Client) *ProfileCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &ProfileCache{rdb: rdb, ttl: cfg.TTL, prefix: cfg.Prefix}
}

func (c *ProfileCache) key(userID string) string {
	return c.prefix + ":user:" + userID
}

// Get returns the cached profile. Misses and Redis errors both report false.
func (c *ProfileCache) Get(ctx context.Context, userID string) (model.PublicUser, bool) {
	if c == nil {
		return model.PublicUser{}, false
	}
	bs, err := c.rdb.Get(ctx, c.key(userID)).Bytes()
	if err != nil {
		return model.PublicUser{}, false
	}
	var p model.PublicUser
	if err := json.Unmarshal(bs, &p); err != nil {
		return model.PublicUser{}, false
	}
	return p, true
}

// Set stores p under its user id for the configured TTL.
func (c *ProfileCache) Set(ctx context.Context, p model.PublicUser) error {
	if c == nil {
		return nil
	}
	bs, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.SetEx(ctx, c.key(p.ID), bs, c.ttl).Err()
}

// Invalidate drops the cached profile of userID, if any.
func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	if c == nil {
		return nil
	}
	err := c.rdb.Del(ctx, c.key(userID)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
