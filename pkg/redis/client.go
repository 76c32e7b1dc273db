package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gemlane/storefront-bff/pkg/config"
	"github.com/gemlane/storefront-bff/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace    = "sf"
	guestCartPrefix = "guest_cart"
	lockPrefix      = "checkout_lock"
)

// ErrNotFound is returned when a key does not exist.
var ErrNotFound = redis.Nil

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Client wraps the redis operations needed by the storefront: guest-cart
// snapshots and checkout re-entrancy locks.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// New bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func New(ctx context.Context, cfg config.RedisConfig, logg *logger.Logger) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Set stores a string value with an optional TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Set(ctx, key, value, ttl).Err()
}

// Get returns a string value stored at key.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	if c.store == nil {
		return "", errors.New("redis client not initialized")
	}
	return c.store.Get(ctx, key).Result()
}

// SetNX sets a value only if the key does not exist yet.
func (c *Client) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if c.store == nil {
		return false, errors.New("redis client not initialized")
	}
	return c.store.SetNX(ctx, key, value, ttl).Result()
}

// Del removes the provided keys.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Del(ctx, keys...).Err()
}

// GuestCartKey returns the namespaced key for a guest cart snapshot.
func (c *Client) GuestCartKey(cartToken string) string {
	return c.buildKey(guestCartPrefix, cartToken)
}

// CheckoutLockKey returns the namespaced key for a checkout re-entrancy lock.
func (c *Client) CheckoutLockKey(cartToken string) string {
	return c.buildKey(lockPrefix, cartToken)
}

// StoreGuestCart persists a serialized guest cart with the given TTL.
func (c *Client) StoreGuestCart(ctx context.Context, cartToken, payload string, ttl time.Duration) error {
	return c.Set(ctx, c.GuestCartKey(cartToken), payload, ttl)
}

// GetGuestCart loads a serialized guest cart. Missing carts return ErrNotFound.
func (c *Client) GetGuestCart(ctx context.Context, cartToken string) (string, error) {
	return c.Get(ctx, c.GuestCartKey(cartToken))
}

// DeleteGuestCart removes the guest cart snapshot.
func (c *Client) DeleteGuestCart(ctx context.Context, cartToken string) error {
	return c.Del(ctx, c.GuestCartKey(cartToken))
}

// AcquireCheckoutLock takes the per-cart checkout lock. Returns false when
// another checkout for the same cart is already in flight.
func (c *Client) AcquireCheckoutLock(ctx context.Context, cartToken, token string, ttl time.Duration) (bool, error) {
	return c.SetNX(ctx, c.CheckoutLockKey(cartToken), token, ttl)
}

// ReleaseCheckoutLock drops the per-cart checkout lock.
func (c *Client) ReleaseCheckoutLock(ctx context.Context, cartToken string) error {
	return c.Del(ctx, c.CheckoutLockKey(cartToken))
}

// Ping verifies the connection.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) buildKey(parts ...string) string {
	if len(parts) == 0 {
		return keyNamespace
	}
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}
