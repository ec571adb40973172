package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/algotrade/tradecal/internal/clientdata"
)

const (
	historyPath = "/api/historical/indicesHistory"

	// NSE takes query dates as dd-mm-yyyy and returns 29-APR-2024 style timestamps
	historyQueryLayout = "02-01-2006"
	historyRowLayout   = "02-Jan-2006"
)

// IndexBar is one daily bar of index history
type IndexBar struct {
	Date  time.Time `json:"date"`
	Open  float64   `json:"open"`
	High  float64   `json:"high"`
	Low   float64   `json:"low"`
	Close float64   `json:"close"`
}

type historyRow struct {
	Name      string  `json:"EOD_INDEX_NAME"`
	Open      float64 `json:"EOD_OPEN_INDEX_VAL"`
	High      float64 `json:"EOD_HIGH_INDEX_VAL"`
	Low       float64 `json:"EOD_LOW_INDEX_VAL"`
	Close     float64 `json:"EOD_CLOSE_INDEX_VAL"`
	Timestamp string  `json:"EOD_TIMESTAMP"`
}

// IndexHistory returns daily bars for an index between from and to, oldest first
func (c *Client) IndexHistory(ctx context.Context, index string, from, to time.Time) ([]IndexBar, error) {
	query := url.Values{}
	query.Set("indexType", index)
	query.Set("from", from.Format(historyQueryLayout))
	query.Set("to", to.Format(historyQueryLayout))

	key := fmt.Sprintf("hist:%s:%s:%s", index, from.Format(historyQueryLayout), to.Format(historyQueryLayout))
	return cached(ctx, c, "nse_indices", key, clientdata.TTLIndices, historyPath+"?"+query.Encode(),
		func(body []byte) ([]IndexBar, error) {
			var payload struct {
				Data struct {
					Records []historyRow `json:"indexCloseOnlineRecords"`
				} `json:"data"`
			}
			if err := json.Unmarshal(body, &payload); err != nil {
				return nil, err
			}
			if len(payload.Data.Records) == 0 {
				return nil, fmt.Errorf("no history for %s", index)
			}

			bars := make([]IndexBar, 0, len(payload.Data.Records))
			for _, row := range payload.Data.Records {
				date, err := time.Parse(historyRowLayout, row.Timestamp)
				if err != nil {
					return nil, fmt.Errorf("bad history timestamp %q: %w", row.Timestamp, err)
				}
				bars = append(bars, IndexBar{Date: date, Open: row.Open, High: row.High, Low: row.Low, Close: row.Close})
			}
			sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
			return bars, nil
		})
}

// Closes extracts the closing prices of bars
func Closes(bars []IndexBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
