package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/pkg/config"
)

type cachedRecord struct {
	DateTime  string  `json:"DateTime"`
	SpotPrice float64 `json:"SpotPrice"`
}

func newMiniCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewCache(NewFromRedis(rdb), "spotcast"), mr
}

func TestNewClient_Disabled(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Enabled = false

	client, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestCache_Disabled(t *testing.T) {
	client, err := New(config.Default())
	require.NoError(t, err)
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result []cachedRecord
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(context.Background(), "key", []cachedRecord{{SpotPrice: 1}}, time.Minute))
	assert.NoError(t, cache.Delete(context.Background(), "key"))
}

func TestCache_RoundTripAndTTL(t *testing.T) {
	cache, mr := newMiniCache(t)
	ctx := context.Background()
	key := SpotPriceKey("DK1", "EUR", "hour", time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC))

	records := []cachedRecord{
		{DateTime: "2026-10-18T00:00:00Z", SpotPrice: 61.2},
		{DateTime: "2026-10-18T01:00:00Z", SpotPrice: 58.9},
	}
	require.NoError(t, cache.Set(ctx, key, records, TTLLong))
	assert.True(t, mr.Exists("spotcast:cache:"+key))

	var got []cachedRecord
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, records, got)

	mr.FastForward(TTLLong + time.Second)

	found, err = cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCache_Miss(t *testing.T) {
	cache, _ := newMiniCache(t)

	var got []cachedRecord
	found, err := cache.Get(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSpotPriceKey(t *testing.T) {
	key := SpotPriceKey("DK2", "DKK", "hour", time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC))
	assert.Equal(t, "spot:DK2:DKK:hour:2026-01-02", key)
}
