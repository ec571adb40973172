package reports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/algotrade/tradecal/internal/clients/nse"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionReport(t *testing.T) {
	data := &fakeMarketData{
		quotes: sampleQuotes(),
		chains: map[string]*nse.OptionChain{"NIFTY": sampleChain()},
	}
	b := NewBuilder("NSE", data, time.Thursday, []string{"NIFTY", "BANKNIFTY"}, zerolog.Nop())

	r, err := b.SessionReport(context.Background(), newResolver(t, "29-Apr-2024", afterCutoff))
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, KindSession, r.Kind)
	assert.Equal(t, "29-Apr-2024", r.SessionDate)
	assert.Equal(t, "NSE session report 29-Apr-2024", r.Title)
	assert.True(t, r.GeneratedAt.Equal(afterCutoff))
	require.Len(t, r.Sections, 4)

	cal, ok := r.Section(HeadingCalendar)
	require.True(t, ok)
	assert.Equal(t, [][]string{
		{"Market date", "29-Apr-2024"},
		{"Effective day", "29-Apr-2024"},
		{"Next business day", "30-Apr-2024"},
		{"Previous business day", "26-Apr-2024"},
		{"Session phase", "settled"},
		{"Next weekly expiry", "02-May-2024"},
	}, cal.Rows)

	holidays, ok := r.Section(HeadingHolidays)
	require.True(t, ok)
	require.Len(t, holidays.Rows, 3)
	assert.Equal(t, []string{"01-May-2024", "Wednesday", "Maharashtra Day", "closed"}, holidays.Rows[0])
	assert.Equal(t, "open", holidays.Rows[2][3])

	pivots, ok := r.Section(HeadingPivots)
	require.True(t, ok)
	require.Len(t, pivots.Rows, 2)
	assert.Equal(t, "NIFTY 50", pivots.Rows[0][0])
	assert.Equal(t, "22402.40", pivots.Rows[0][1])
	assert.Equal(t, "30-Apr-2024", pivots.Rows[0][len(pivots.Columns)-1])

	options, ok := r.Section(HeadingOptions)
	require.True(t, ok)
	require.Len(t, options.Rows, 1, "BANKNIFTY is skipped")
	// 15000 puts / 17000 calls
	assert.Equal(t, []string{"NIFTY", "02-May-2024", "22402.40", "0.88", "Mildly Bullish", "22500.00", "22300.00", "22300.00", "22500.00"}, options.Rows[0])
}

func TestSessionReport_ShiftedDayIsMarked(t *testing.T) {
	trading := time.Date(2024, 4, 29, 5, 10, 0, 0, time.UTC) // 10:40 IST
	b := NewBuilder("NSE", &fakeMarketData{quotes: sampleQuotes()}, time.Thursday, nil, zerolog.Nop())

	r, err := b.SessionReport(context.Background(), newResolver(t, "29-Apr-2024", trading))
	require.NoError(t, err)

	assert.Equal(t, "26-Apr-2024", r.SessionDate)
	assert.Len(t, r.Sections, 3)
	cal, _ := r.Section(HeadingCalendar)
	assert.Equal(t, "26-Apr-2024 (session in progress)", cal.Rows[1][1])
	assert.Equal(t, "open", cal.Rows[4][1])
}

func TestSessionReport_QuotesRequired(t *testing.T) {
	b := NewBuilder("NSE", &fakeMarketData{quoteErr: errors.New("feed down")}, time.Thursday, nil, zerolog.Nop())

	_, err := b.SessionReport(context.Background(), newResolver(t, "29-Apr-2024", afterCutoff))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "feed down")
}

func TestStrikeRows(t *testing.T) {
	rows := StrikeRows([]nse.OptionStrike{
		{StrikePrice: 100, CE: &nse.OptionLeg{OpenInterest: 5, ChangeInOpenInterest: 1}},
		{StrikePrice: 200, PE: &nse.OptionLeg{OpenInterest: 7}},
	})

	require.Len(t, rows, 2)
	assert.Equal(t, 5.0, rows[0].CallOI)
	assert.Zero(t, rows[0].PutOI)
	assert.Equal(t, 7.0, rows[1].PutOI)
}

func TestSessionReport_TrendSection(t *testing.T) {
	data := &fakeMarketData{
		quotes:  sampleQuotes(),
		history: map[string][]nse.IndexBar{"NIFTY 50": risingBars(60)},
	}
	b := NewBuilder("NSE", data, time.Thursday, nil, zerolog.Nop())

	r, err := b.SessionReport(context.Background(), newResolver(t, "29-Apr-2024", afterCutoff))
	require.NoError(t, err)
	require.Len(t, r.Sections, 4)

	trend, ok := r.Section(HeadingTrend)
	require.True(t, ok)
	require.Len(t, trend.Rows, 1, "NIFTY BANK has no history")

	row := trend.Rows[0]
	assert.Equal(t, "NIFTY 50", row[0])
	assert.Equal(t, "100.00", row[2], "only gains")
	assert.NotEqual(t, "n/a", row[3])
	assert.NotEqual(t, "n/a", row[4])
	assert.Equal(t, "n/a", row[5])
	assert.Equal(t, "No Crossover", row[6])
}
