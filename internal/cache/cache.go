package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "herd"
	versionPart = "version"
)

// Cache stores computed analytics in Redis under per-tenant versioned keys.
// Bumping a tenant's version makes every key built before the bump unreachable.
// A nil Cache, or one without a client, calls the loader every time.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New instantiates the cache helper. A nil logger falls back to slog.Default().
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Enabled reports whether results are actually stored
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Version returns the tenant's current cache version, initialising when missing
func (c *Cache) Version(ctx context.Context, tenantID uint) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	key := versionKey(tenantID)
	ver, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		// SetNX so two first readers agree on the version
		if err := c.client.SetNX(ctx, key, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, key).Int64()
	}
	if err != nil {
		return 0, err
	}
	if ver <= 0 {
		ver = 1
		if err := c.client.Set(ctx, key, ver, 0).Err(); err != nil {
			return 0, err
		}
	}
	return ver, nil
}

// BuildKey composes a tenant key carrying the current version
func (c *Cache) BuildKey(ctx context.Context, tenantID uint, parts ...string) (string, error) {
	base := strings.Join(append([]string{keyPrefix, formatUint(tenantID)}, parts...), ":")
	if !c.Enabled() {
		return base, nil
	}
	ver, err := c.Version(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", base, ver), nil
}

// FetchJSON loads a cached value into dest or populates it using the loader.
// Redis failures are logged and the loader result is served uncached.
func (c *Cache) FetchJSON(ctx context.Context, tenantID uint, parts []string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if !c.Enabled() {
		return loadInto(ctx, dest, loader)
	}

	key, err := c.BuildKey(ctx, tenantID, parts...)
	if err != nil {
		c.logger.Warn("Cache unavailable, computing directly", "tenant_id", tenantID, "error", err.Error())
		return loadInto(ctx, dest, loader)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(payload, dest); jsonErr == nil {
			return nil
		}
		c.logger.Warn("Discarding unreadable cache entry", "key", key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("Cache read failed, computing directly", "key", key, "error", err.Error())
		return loadInto(ctx, dest, loader)
	}

	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err.Error())
	}
	return json.Unmarshal(raw, dest)
}

// Bump invalidates every cached result of the tenant. Replicas share the version
// key, so the next BuildKey anywhere sees the new version.
func (c *Cache) Bump(ctx context.Context, tenantID uint) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Incr(ctx, versionKey(tenantID)).Err()
}

// Ping checks the connection, used by health checks
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func loadInto(ctx context.Context, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func versionKey(tenantID uint) string {
	return strings.Join([]string{keyPrefix, formatUint(tenantID), versionPart}, ":")
}

func formatUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
