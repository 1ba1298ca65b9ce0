package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) (string, func()) {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err, "failed to get redis endpoint")

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return addr, cleanup
}

func TestRedisCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	addr, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	c := NewRedisCache(addr, "test:", time.Second)
	defer c.Close()
	require.NoError(t, c.Ping(ctx))

	_, ok := c.Get(ctx, "missing")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", []byte(`{"LL":1}`)))
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, `{"LL":1}`, string(got))

	assert.Eventually(t, func() bool {
		_, ok := c.Get(ctx, "k")
		return !ok
	}, 5*time.Second, 100*time.Millisecond, "entries expire after the ttl")
}

func TestRedisCacheUnreachable(t *testing.T) {
	c := NewRedisCache("127.0.0.1:1", "", time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok, "an unreachable server reads as a miss")
	assert.Error(t, c.Set(ctx, "k", []byte("v")))
}
