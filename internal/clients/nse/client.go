// Package nse provides the NSE India holiday and index feed client.
package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/algotrade/tradecal/internal/clientdata"
	"github.com/algotrade/tradecal/internal/httputil"
	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	holidayPath = "/api/holiday-master?type=trading"
	indicesPath = "/api/allIndices"

	indicesCacheKey = "allIndices"

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// Config holds client settings
type Config struct {
	BaseURL   string
	Segment   string   // holiday-master key, "CM" for the cash market
	Indices   []string // index names kept from allIndices; empty keeps all
	RateLimit float64  // requests per second
	Retry     httputil.RetryConfig
}

// Client for the NSE India public JSON API
type Client struct {
	baseURL   string
	segment   string
	indices   map[string]bool
	client    *http.Client
	limiter   *rate.Limiter
	retry     httputil.RetryConfig
	log       zerolog.Logger
	cacheRepo *clientdata.Repository
}

// NewClient creates a new NSE client.
// cacheRepo is optional - if nil, caching is disabled
func NewClient(cfg Config, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if cfg.Segment == "" {
		cfg.Segment = "CM"
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 1
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = httputil.DefaultRetry
	}

	var indices map[string]bool
	if len(cfg.Indices) > 0 {
		indices = make(map[string]bool, len(cfg.Indices))
		for _, name := range cfg.Indices {
			indices[name] = true
		}
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		segment:   cfg.Segment,
		indices:   indices,
		client:    &http.Client{Timeout: 15 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		retry:     cfg.Retry,
		log:       log.With().Str("client", "nse").Logger(),
		cacheRepo: cacheRepo,
	}
}

// Holiday is one row of the holiday-master payload
type Holiday struct {
	TradingDate string `json:"tradingDate"`
	WeekDay     string `json:"weekDay"`
	Description string `json:"description"`
	SerialNo    int    `json:"Sr_no"`
}

// IndexQuote is one row of the allIndices payload
type IndexQuote struct {
	Key           string  `json:"key"`
	Index         string  `json:"index"`
	Symbol        string  `json:"indexSymbol"`
	Last          float64 `json:"last"`
	Open          float64 `json:"open"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	PreviousClose float64 `json:"previousClose"`
	PercentChange float64 `json:"percentChange"`
	YearHigh      float64 `json:"yearHigh"`
	YearLow       float64 `json:"yearLow"`
}

// Holidays implements calendar.HolidaySource for the configured segment
func (c *Client) Holidays(ctx context.Context) ([]calendar.HolidayRecord, error) {
	return cached(ctx, c, "nse_holidays", c.segment, clientdata.TTLHolidays, holidayPath,
		func(body []byte) ([]calendar.HolidayRecord, error) {
			var payload map[string][]Holiday
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, err
			}
			rows, ok := payload[c.segment]
			if !ok || len(rows) == 0 {
				return nil, fmt.Errorf("holidays for segment %s do not exist", c.segment)
			}

			records := make([]calendar.HolidayRecord, 0, len(rows))
			for _, row := range rows {
				records = append(records, calendar.HolidayRecord{
					TradeDay:    row.TradingDate,
					WeekDay:     row.WeekDay,
					Description: row.Description,
				})
			}
			return records, nil
		})
}

// IndexQuotes returns the configured spot indices from allIndices
func (c *Client) IndexQuotes(ctx context.Context) ([]IndexQuote, error) {
	quotes, err := cached(ctx, c, "nse_indices", indicesCacheKey, clientdata.TTLIndices, indicesPath,
		func(body []byte) ([]IndexQuote, error) {
			var payload struct {
				Data []IndexQuote `json:"data"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, err
			}
			if len(payload.Data) == 0 {
				return nil, fmt.Errorf("allIndices returned no data")
			}
			return payload.Data, nil
		})
	if err != nil {
		return nil, err
	}

	if c.indices == nil {
		return quotes, nil
	}

	filtered := make([]IndexQuote, 0, len(c.indices))
	for _, q := range quotes {
		if c.indices[q.Index] {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

// cached serves fresh cache first, then the API, then stale cache.
func cached[T any](ctx context.Context, c *Client, table, key string, ttl time.Duration, path string, decode func([]byte) (T, error)) (T, error) {
	var zero T

	if c.cacheRepo != nil {
		data, err := c.cacheRepo.GetIfFresh(table, key)
		if err == nil && data != nil {
			var value T
			if err := json.Unmarshal(data, &value); err == nil {
				c.log.Debug().Str("table", table).Str("key", key).Msg("Cache hit")
				return value, nil
			}
		}
	}

	body, err := c.get(ctx, path)
	var value T
	if err == nil {
		value, err = decode(body)
	}
	if err != nil {
		if stale, ok := getStale[T](c, table, key); ok {
			c.log.Warn().
				Err(err).
				Str("table", table).
				Str("key", key).
				Msg("NSE request failed, using stale cached data")
			return stale, nil
		}
		return zero, fmt.Errorf("nse %s: %w", path, err)
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store(table, key, value, ttl); err != nil {
			c.log.Warn().Err(err).Str("table", table).Str("key", key).Msg("Failed to cache NSE response")
		}
	}

	c.log.Info().Str("path", path).Msg("Fetched NSE data")
	return value, nil
}

func getStale[T any](c *Client, table, key string) (T, bool) {
	var value T
	if c.cacheRepo == nil {
		return value, false
	}

	data, err := c.cacheRepo.Get(table, key)
	if err != nil || data == nil {
		return value, false
	}
	if err := json.Unmarshal(data, &value); err != nil {
		return value, false
	}
	return value, true
}

// get performs a rate limited, retried GET and returns the body of a 200 response
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	url := c.baseURL + path
	c.log.Debug().Str("url", url).Msg("Fetching")

	resp, err := httputil.Do(ctx, c.client, c.retry, c.log, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json, text/plain, */*")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return body, nil
}
