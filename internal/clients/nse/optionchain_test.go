package nse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const optionChainPayload = `{
  "records": {
    "expiryDates": ["25-Apr-2024", "02-May-2024"],
    "timestamp": "24-Apr-2024 15:30:00",
    "underlyingValue": 22402.4,
    "data": [
      {"strikePrice": 22300, "expiryDate": "25-Apr-2024",
       "CE": {"openInterest": 2000, "changeinOpenInterest": 100},
       "PE": {"openInterest": 12000, "changeinOpenInterest": 900}},
      {"strikePrice": 22500, "expiryDate": "25-Apr-2024",
       "CE": {"openInterest": 15000, "changeinOpenInterest": 1200}},
      {"strikePrice": 22500, "expiryDate": "02-May-2024",
       "CE": {"openInterest": 500}, "PE": {"openInterest": 400}}
    ]
  },
  "filtered": {"CE": {"totOI": 17000}, "PE": {"totOI": 12000}}
}`

func TestOptionChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/option-chain-indices", r.URL.Path)
		assert.Equal(t, "NIFTY", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(optionChainPayload))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, "CM", nil)

	oc, err := client.OptionChain(context.Background(), "NIFTY")
	require.NoError(t, err)
	assert.Equal(t, "NIFTY", oc.Symbol)
	assert.InDelta(t, 22402.4, oc.Underlying, 1e-9)

	expiry, rows, err := oc.Expiry(0)
	require.NoError(t, err)
	assert.Equal(t, "25-Apr-2024", expiry)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[1].PE)
	assert.InDelta(t, 12000, rows[0].PE.OpenInterest, 1e-9)

	_, _, err = oc.Expiry(5)
	assert.Error(t, err)
}

func TestOptionChain_NoExpiries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"records": {"data": []}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, RateLimit: 100, Retry: noRetry}, nil, zerolog.Nop())
	_, err := client.OptionChain(context.Background(), "BANKNIFTY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expiry not found")
}
