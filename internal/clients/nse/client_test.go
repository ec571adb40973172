package nse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/algotrade/tradecal/internal/clientdata"
	"github.com/algotrade/tradecal/internal/httputil"
	testutil "github.com/algotrade/tradecal/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holidayPayload = `{
  "CM": [
    {"tradingDate": "22-Jan-2024", "weekDay": "Monday", "description": "Special Holiday", "Sr_no": 1},
    {"tradingDate": "01-May-2024", "weekDay": "Wednesday", "description": "Maharashtra Day", "Sr_no": 2},
    {"tradingDate": "01-Nov-2024", "weekDay": "Friday", "description": "Diwali Laxmi Pujan*", "Sr_no": 3}
  ],
  "FO": []
}`

const indicesPayload = `{
  "data": [
    {"key": "BROAD MARKET INDICES", "index": "NIFTY 50", "indexSymbol": "NIFTY 50", "last": 22402.4, "open": 22447.05, "high": 22476.45, "low": 22384.8, "previousClose": 22368, "percentChange": 0.15},
    {"key": "SECTORAL INDICES", "index": "NIFTY BANK", "indexSymbol": "NIFTY BANK", "last": 48189, "open": 48230.45, "high": 48311.9, "low": 47935.15, "previousClose": 47970.45, "percentChange": 0.46},
    {"key": "SECTORAL INDICES", "index": "NIFTY IT", "indexSymbol": "NIFTY IT", "last": 33000, "open": 33100, "high": 33200, "low": 32900, "previousClose": 33050, "percentChange": -0.15}
  ]
}`

var noRetry = httputil.RetryConfig{MaxAttempts: 1}

func newFeedServer(t *testing.T, status *atomic.Int32, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		if code := int(status.Load()); code != http.StatusOK {
			w.WriteHeader(code)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/holiday-master":
			assert.Equal(t, "trading", r.URL.Query().Get("type"))
			_, _ = w.Write([]byte(holidayPayload))
		case "/api/allIndices":
			_, _ = w.Write([]byte(indicesPayload))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string, segment string, indices []string) (*Client, *clientdata.Repository) {
	t.Helper()
	db, cleanup := testutil.NewTestDB(t, "cache")
	t.Cleanup(cleanup)

	repo := clientdata.NewRepository(db.Conn())
	client := NewClient(Config{
		BaseURL:   baseURL,
		Segment:   segment,
		Indices:   indices,
		RateLimit: 100,
		Retry:     noRetry,
	}, repo, zerolog.Nop())
	return client, repo
}

func TestHolidays_MapsSegment(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := newFeedServer(t, &status, &hits)
	client, _ := newTestClient(t, srv.URL, "CM", nil)

	records, err := client.Holidays(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "22-Jan-2024", records[0].TradeDay)
	assert.Equal(t, "Monday", records[0].WeekDay)
	assert.Equal(t, "Diwali Laxmi Pujan*", records[2].Description)

	// second call is served from cache
	_, err = client.Holidays(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHolidays_MissingSegment(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := newFeedServer(t, &status, &hits)

	for _, segment := range []string{"FO", "CD"} {
		client, _ := newTestClient(t, srv.URL, segment, nil)
		_, err := client.Holidays(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "do not exist")
	}
}

func TestHolidays_StaleFallback(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := newFeedServer(t, &status, &hits)
	client, repo := newTestClient(t, srv.URL, "CM", nil)

	_, err := client.Holidays(context.Background())
	require.NoError(t, err)

	// expire the cached copy and take the feed down
	require.NoError(t, repo.Store("nse_holidays", "CM", mustRecords(t, client), -time.Hour))
	status.Store(http.StatusServiceUnavailable)

	records, err := client.Holidays(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, int32(2), hits.Load())
}

func TestHolidays_NoCacheNoFeed(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusBadGateway)
	srv := newFeedServer(t, &status, &hits)

	client := NewClient(Config{BaseURL: srv.URL, RateLimit: 100, Retry: noRetry}, nil, zerolog.Nop())
	_, err := client.Holidays(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/api/holiday-master")
}

func TestIndexQuotes_Filters(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := newFeedServer(t, &status, &hits)
	client, _ := newTestClient(t, srv.URL, "CM", []string{"NIFTY 50", "NIFTY BANK"})

	quotes, err := client.IndexQuotes(context.Background())
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "NIFTY 50", quotes[0].Index)
	assert.InDelta(t, 22402.4, quotes[0].Last, 1e-9)
	assert.InDelta(t, 47970.45, quotes[1].PreviousClose, 1e-9)
}

func TestIndexQuotes_AllWhenUnfiltered(t *testing.T) {
	var status, hits atomic.Int32
	status.Store(http.StatusOK)
	srv := newFeedServer(t, &status, &hits)
	client, _ := newTestClient(t, srv.URL, "CM", nil)

	quotes, err := client.IndexQuotes(context.Background())
	require.NoError(t, err)
	assert.Len(t, quotes, 3)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0", RateLimit: 0.001, Retry: noRetry}, nil, zerolog.Nop())
	client.limiter.Allow() // drain the single token

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Holidays(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
}

func mustRecords(t *testing.T, c *Client) interface{} {
	t.Helper()
	records, err := c.Holidays(context.Background())
	require.NoError(t, err)
	return records
}
