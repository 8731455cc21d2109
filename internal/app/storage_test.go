package app

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xenking/mateicos-storefront/internal/domain/cart"
	"github.com/xenking/mateicos-storefront/pkg/health"
)

func TestOpenBackend_Memory(t *testing.T) {
	ctx := context.Background()

	b, err := openBackend(ctx, zap.NewNop(), StorageConfig{Backend: BackendMemory}, health.New())
	require.NoError(t, err)
	t.Cleanup(b.close)

	products, err := b.catalog.List(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 8)

	_, err = b.slots.Slot("cart:x").Load(ctx)
	assert.ErrorIs(t, err, cart.ErrNoState)
}

func TestOpenBackend_Redis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	cfg := StorageConfig{
		Backend:     BackendRedis,
		RedisURL:    "redis://" + mr.Addr(),
		RedisPrefix: "test:",
		CartTTL:     time.Hour,
	}
	b, err := openBackend(ctx, zap.NewNop(), cfg, health.New())
	require.NoError(t, err)
	t.Cleanup(b.close)

	require.NoError(t, b.slots.Slot("cart:abc").Save(ctx, []byte(`[]`)))
	assert.True(t, mr.Exists("test:cart:abc"))
	assert.Equal(t, time.Hour, mr.TTL("test:cart:abc"))
}

func TestOpenBackend_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := StorageConfig{Backend: BackendRedis, RedisURL: "redis://" + addr}
	_, err := openBackend(context.Background(), zap.NewNop(), cfg, health.New())
	require.Error(t, err)
}

func TestOpenBackend_BadRedisURL(t *testing.T) {
	cfg := StorageConfig{Backend: BackendRedis, RedisURL: "://nope"}
	_, err := openBackend(context.Background(), zap.NewNop(), cfg, health.New())
	require.Error(t, err)
}
