// Package cache memoizes calculation responses. Calculations are pure, so a
// hit for the same mode and inputs can be served without recomputing.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Supported cache drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverNone   = "none"
)

// DefaultTTL applies when Config.TTL is zero.
const DefaultTTL = 10 * time.Minute

// Cache stores opaque values by key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Config selects and configures a cache.
type Config struct {
	Driver  string        `yaml:"driver" json:"driver"`
	Address string        `yaml:"address" json:"address"`
	TTL     time.Duration `yaml:"ttl" json:"ttl"`
	// Prefix namespaces keys in a shared Redis.
	Prefix string `yaml:"prefix" json:"prefix"`
}

// New builds the cache named by cfg.Driver. An empty driver selects the
// in-memory cache.
func New(cfg Config) (Cache, error) {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverMemory:
		return NewMemoryCache(ttl), nil
	case DriverRedis:
		if strings.TrimSpace(cfg.Address) == "" {
			return nil, fmt.Errorf("redis cache requires an address")
		}
		return NewRedisCache(cfg.Address, cfg.Prefix, ttl), nil
	case DriverNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}

// Key hashes the JSON encoding of v under namespace. Equal values always
// produce equal keys because encoding/json writes struct fields in
// declaration order.
func Key(namespace string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	return namespace + ":" + strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// Noop never stores anything.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte) error  { return nil }
func (Noop) Close() error                               { return nil }
