package cache

import (
	"context"
	"testing"
	"time"

	"github.com/iwvelando/fincalc/pkg/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type keyInput struct {
	Mode   pricing.Mode   `json:"mode"`
	Inputs pricing.Inputs `json:"inputs"`
}

func TestKey(t *testing.T) {
	a := keyInput{Mode: pricing.ModeDirect, Inputs: pricing.Inputs{PVS: pricing.Float(10), Meta: pricing.Float(5)}}
	b := keyInput{Mode: pricing.ModeDirect, Inputs: pricing.Inputs{PVS: pricing.Float(10), Meta: pricing.Float(5)}}
	c := keyInput{Mode: pricing.ModeTargetPrice, Inputs: a.Inputs}
	d := keyInput{Mode: pricing.ModeDirect, Inputs: pricing.Inputs{PVS: pricing.Float(10), Meta: pricing.Float(6)}}

	ka, err := Key("calc", a)
	require.NoError(t, err)
	kb, err := Key("calc", b)
	require.NoError(t, err)
	kc, err := Key("calc", c)
	require.NoError(t, err)
	kd, err := Key("calc", d)
	require.NoError(t, err)
	ke, err := Key("sens", a)
	require.NoError(t, err)

	assert.Equal(t, ka, kb, "equal inputs share a key")
	assert.NotEqual(t, ka, kc, "mode is part of the key")
	assert.NotEqual(t, ka, kd)
	assert.NotEqual(t, ka, ke, "namespace is part of the key")
	assert.Regexp(t, `^calc:[0-9a-f]+$`, ka)

	_, err = Key("calc", func() {})
	assert.Error(t, err)
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute)
	c.now = func() time.Time { return now }

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	value := []byte("hello")
	require.NoError(t, c.Set(ctx, "k", value))
	value[0] = 'j'

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, "hello", string(got), "stored values are copied")

	now = now.Add(59 * time.Second)
	_, ok = c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entries expire after the ttl")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCacheSweep(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Second)
	c.now = func() time.Time { return now }
	c.sweepAt = 4

	for _, k := range []string{"a", "b", "c", "d"} {
		require.NoError(t, c.Set(ctx, k, []byte(k)))
	}
	now = now.Add(2 * time.Second)
	require.NoError(t, c.Set(ctx, "e", []byte("e")))

	assert.Equal(t, 1, c.Len(), "expired entries are swept once the threshold is reached")
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    interface{}
		wantErr bool
	}{
		{"Default", Config{}, &MemoryCache{}, false},
		{"Memory", Config{Driver: "MEMORY", TTL: time.Second}, &MemoryCache{}, false},
		{"None", Config{Driver: "none"}, Noop{}, false},
		{"Redis", Config{Driver: "redis", Address: "localhost:6379"}, &RedisCache{}, false},
		{"Redis without address", Config{Driver: "redis"}, nil, true},
		{"Unknown", Config{Driver: "memcached"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, c)
			assert.NoError(t, c.Close())
		})
	}
}

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}
	require.NoError(t, c.Set(ctx, "k", []byte("v")))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}
