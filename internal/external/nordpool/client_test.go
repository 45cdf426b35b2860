package nordpool

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/httputil"
	"github.com/wonny/spotcast/pkg/logger"
	"github.com/wonny/spotcast/pkg/redis"
)

const samplePayload = `{"data":[
	{"DateTime":"2024-03-01T00:00:00","SpotPrice":61.25},
	{"DateTime":"2024-03-01T01:00:00","SpotPrice":"58.10"},
	{"DateTime":"2024-03-01T02:00:00","SpotPrice":null}
]}`

var deliveryDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T, baseURL string, cache *redis.Cache) *Client {
	t.Helper()
	cfg := config.Default()
	cfg.Nordpool.APIKey = "np-key"
	cfg.Nordpool.BaseURL = baseURL
	log := logger.Nop()
	return NewClient(cfg, httputil.New(cfg, log), cache, log)
}

func testQuery() contracts.PriceQuery {
	return contracts.PriceQuery{Area: "DK1", Currency: "EUR", Resolution: "hour", Date: deliveryDate}
}

func TestFetchSpotPrices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pricesPath, r.URL.Path)
		assert.Equal(t, "Bearer np-key", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-03-01", r.URL.Query().Get("deliveryDate"))
		assert.Equal(t, "DK1", r.URL.Query().Get("area"))
		assert.Equal(t, "EUR", r.URL.Query().Get("currency"))
		assert.Equal(t, "hour", r.URL.Query().Get("resolution"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	records, err := newTestClient(t, server.URL, nil).FetchSpotPrices(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, contracts.RawPrice{DateTime: "2024-03-01T00:00:00", SpotPrice: "61.25"}, records[0])
	assert.Equal(t, "58.10", records[1].SpotPrice)
	assert.Equal(t, "", records[2].SpotPrice)
}

func TestFetchSpotPrices_Unauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, nil).FetchSpotPrices(context.Background(), testQuery())
	require.Error(t, err)

	var svcErr *contracts.ExternalServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "nordpool", svcErr.Service)

	var statusErr *httputil.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestFetchSpotPrices_Cached(t *testing.T) {
	mr := miniredis.RunT(t)
	cache := redis.NewCache(redis.NewFromRedis(goredis.NewClient(&goredis.Options{Addr: mr.Addr()})), "spotcast")

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePayload))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, cache)
	first, err := client.FetchSpotPrices(context.Background(), testQuery())
	require.NoError(t, err)
	second, err := client.FetchSpotPrices(context.Background(), testQuery())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, mr.Exists("spotcast:cache:spot:DK1:EUR:hour:2024-03-01"))
}

func TestRawNumber(t *testing.T) {
	assert.Equal(t, "1.5", rawNumber([]byte("1.5")))
	assert.Equal(t, "2,5", rawNumber([]byte(`"2,5"`)))
	assert.Equal(t, "", rawNumber([]byte("null")))
	assert.Equal(t, "", rawNumber(nil))
}
