// Package cache keeps sanitized template markup close to the renderer.
package cache

import (
	"context"
	"errors"
	"log"
	"time"

	lowimpl "github.com/redis/go-redis/v9"
)

const keyPrefix = "vdp:template:"

// TemplateCache maps template ids to sanitized SVG text.
type TemplateCache interface {
	Get(ctx context.Context, templateID string) (string, bool, error)
	Set(ctx context.Context, templateID, svg string) error
	Delete(ctx context.Context, templateID string) error
	Close() error
}

type RedisCache struct {
	internal *lowimpl.Client
	ttl      time.Duration
}

var _ TemplateCache = (*RedisCache)(nil)

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	c := &RedisCache{
		internal: lowimpl.NewClient(&lowimpl.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
	log.Printf("[INFO] redis template cache initialized (%s)", addr)
	return c
}

func templateKey(templateID string) string {
	return keyPrefix + templateID
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.internal.Ping(ctx).Err()
}

func (c *RedisCache) Get(ctx context.Context, templateID string) (string, bool, error) {
	val, err := c.internal.Get(ctx, templateKey(templateID)).Result()
	if errors.Is(err, lowimpl.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, templateID, svg string) error {
	return c.internal.Set(ctx, templateKey(templateID), svg, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, templateID string) error {
	return c.internal.Del(ctx, templateKey(templateID)).Err()
}

func (c *RedisCache) Close() error {
	if c.internal == nil {
		return nil
	}
	return c.internal.Close()
}

// Nop is used when no cache is configured. Every Get misses.
type Nop struct{}

var _ TemplateCache = Nop{}

func (Nop) Get(ctx context.Context, templateID string) (string, bool, error) { return "", false, nil }
func (Nop) Set(ctx context.Context, templateID, svg string) error            { return nil }
func (Nop) Delete(ctx context.Context, templateID string) error              { return nil }
func (Nop) Close() error                                                     { return nil }
