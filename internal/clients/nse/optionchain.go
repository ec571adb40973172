package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/algotrade/tradecal/internal/clientdata"
)

const optionChainPath = "/api/option-chain-indices?symbol="

// OptionLeg is one side of a strike
type OptionLeg struct {
	OpenInterest         float64 `json:"openInterest"`
	ChangeInOpenInterest float64 `json:"changeinOpenInterest"`
	LastPrice            float64 `json:"lastPrice"`
	ImpliedVolatility    float64 `json:"impliedVolatility"`
}

// OptionStrike is one strike/expiry row; either leg may be missing
type OptionStrike struct {
	StrikePrice float64    `json:"strikePrice"`
	ExpiryDate  string     `json:"expiryDate"`
	CE          *OptionLeg `json:"CE,omitempty"`
	PE          *OptionLeg `json:"PE,omitempty"`
}

// OptionChain is the records section of the option-chain payload
type OptionChain struct {
	Symbol      string         `json:"symbol"`
	Timestamp   string         `json:"timestamp"`
	Underlying  float64        `json:"underlyingValue"`
	ExpiryDates []string       `json:"expiryDates"`
	Data        []OptionStrike `json:"data"`
}

// Expiry returns the rows for one expiry; index 0 is the nearest
func (oc *OptionChain) Expiry(index int) (string, []OptionStrike, error) {
	if index < 0 || index >= len(oc.ExpiryDates) {
		return "", nil, fmt.Errorf("expiry %d not found for %s", index, oc.Symbol)
	}

	expiry := oc.ExpiryDates[index]
	var rows []OptionStrike
	for _, s := range oc.Data {
		if s.ExpiryDate == expiry {
			rows = append(rows, s)
		}
	}
	if len(rows) == 0 {
		return expiry, nil, fmt.Errorf("no data found for %s expiry %s", oc.Symbol, expiry)
	}
	return expiry, rows, nil
}

// OptionChain fetches the index option chain for a symbol such as NIFTY or BANKNIFTY
func (c *Client) OptionChain(ctx context.Context, symbol string) (*OptionChain, error) {
	return cached(ctx, c, "nse_indices", "oc:"+symbol, clientdata.TTLIndices, optionChainPath+url.QueryEscape(symbol),
		func(body []byte) (*OptionChain, error) {
			var payload struct {
				Records OptionChain `json:"records"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, err
			}
			if len(payload.Records.ExpiryDates) == 0 {
				return nil, fmt.Errorf("expiry not found for %s", symbol)
			}
			payload.Records.Symbol = symbol
			return &payload.Records, nil
		})
}
