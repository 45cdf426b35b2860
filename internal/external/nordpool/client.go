package nordpool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/httputil"
	"github.com/wonny/spotcast/pkg/logger"
	"github.com/wonny/spotcast/pkg/redis"
)

const (
	serviceName = "nordpool"
	pricesPath  = "/marketdata/page/10"
)

// Client handles communication with the Nord Pool market data API
// ⭐ SSOT: 스팟 가격 피드 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	cache      *redis.Cache
	logger     *logger.Logger
	apiKey     string
	baseURL    string
}

// NewClient creates a new Nord Pool client. cache may be nil.
func NewClient(cfg *config.Config, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		cache:      cache,
		logger:     log.WithComponent("nordpool"),
		apiKey:     cfg.Nordpool.APIKey,
		baseURL:    strings.TrimRight(cfg.Nordpool.BaseURL, "/"),
	}
}

// priceRecord SpotPrice may arrive as number, string or null
type priceRecord struct {
	DateTime  string          `json:"DateTime"`
	SpotPrice json.RawMessage `json:"SpotPrice"`
}

type pricesResponse struct {
	Data []priceRecord `json:"data"`
}

// FetchSpotPrices fetches one delivery day of spot prices
func (c *Client) FetchSpotPrices(ctx context.Context, query contracts.PriceQuery) ([]contracts.RawPrice, error) {
	cacheKey := redis.SpotPriceKey(query.Area, query.Currency, query.Resolution, query.Date)

	var cached []contracts.RawPrice
	if found, err := c.cache.Get(ctx, cacheKey, &cached); err != nil {
		c.logger.WithError(err).Warn("Spot price cache read failed")
	} else if found {
		c.logger.WithField("key", cacheKey).Debug("Spot prices served from cache")
		return cached, nil
	}

	params := url.Values{}
	params.Set("deliveryDate", query.Date.Format("2006-01-02"))
	params.Set("area", query.Area)
	params.Set("currency", query.Currency)
	params.Set("resolution", query.Resolution)

	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, pricesPath, params.Encode())

	var resp pricesResponse
	if _, err := c.httpClient.DoJSON(ctx, http.MethodGet, fullURL, httputil.BearerHeader(c.apiKey), nil, &resp); err != nil {
		return nil, contracts.NewExternalServiceError(serviceName, "fetch spot prices", err)
	}

	records := make([]contracts.RawPrice, 0, len(resp.Data))
	for _, r := range resp.Data {
		records = append(records, contracts.RawPrice{
			DateTime:  r.DateTime,
			SpotPrice: rawNumber(r.SpotPrice),
		})
	}

	c.logger.WithFields(map[string]interface{}{
		"area":    query.Area,
		"date":    query.Date.Format("2006-01-02"),
		"records": len(records),
	}).Info("Fetched spot prices")

	if len(records) > 0 {
		if err := c.cache.Set(ctx, cacheKey, records, redis.TTLLong); err != nil {
			c.logger.WithError(err).Warn("Spot price cache write failed")
		}
	}

	return records, nil
}

// rawNumber flattens a JSON number/string/null into text
func rawNumber(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
