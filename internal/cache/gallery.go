package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/pixelshelf/backend/internal/config"
	"github.com/pixelshelf/backend/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	galleryViewKey    = "gallery:view"
	defaultGalleryTTL = time.Minute
)

// GalleryCache holds the assembled gallery view model for a short TTL so
// hot gallery pages don't re-fetch every metadata document. Disabled by
// default; with the no-op implementation every page view goes back to the
// bucket.
type GalleryCache interface {
	GetView(ctx context.Context) ([]domain.GalleryEntry, bool, error)
	SetView(ctx context.Context, entries []domain.GalleryEntry) error
	Invalidate(ctx context.Context) error
}

type redisGalleryCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopGalleryCache struct{}

func NewGalleryCache(cfg config.CacheConfig) (GalleryCache, error) {
	if !cfg.Enabled {
		return &noopGalleryCache{}, nil
	}

	opts, err := buildRedisOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	ttl := time.Duration(cfg.GalleryTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = defaultGalleryTTL
	}

	return &redisGalleryCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopGalleryCache() GalleryCache {
	return &noopGalleryCache{}
}

func (c *redisGalleryCache) GetView(ctx context.Context) ([]domain.GalleryEntry, bool, error) {
	payload, err := c.client.Get(ctx, galleryViewKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entries []domain.GalleryEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, false, fmt.Errorf("decode gallery view cache: %w", err)
	}

	return entries, true, nil
}

func (c *redisGalleryCache) SetView(ctx context.Context, entries []domain.GalleryEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode gallery view cache: %w", err)
	}

	if err := c.client.Set(ctx, galleryViewKey, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}

	return nil
}

func (c *redisGalleryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, galleryViewKey).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (n *noopGalleryCache) GetView(ctx context.Context) ([]domain.GalleryEntry, bool, error) {
	return nil, false, nil
}

func (n *noopGalleryCache) SetView(ctx context.Context, entries []domain.GalleryEntry) error {
	return nil
}

func (n *noopGalleryCache) Invalidate(ctx context.Context) error {
	return nil
}

func buildRedisOptions(cfg config.CacheConfig) (*redis.Options, error) {
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return opt, nil
	}

	host := cfg.RedisHost
	if host == "" {
		host = "127.0.0.1"
	}

	port := cfg.RedisPort
	if port == "" {
		port = "6379"
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(host, port),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, nil
}
