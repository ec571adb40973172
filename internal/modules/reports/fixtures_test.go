package reports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/algotrade/tradecal/internal/clients/nse"
	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/stretchr/testify/require"
)

// 29-Apr-2024 16:10 IST, after the cutoff
var afterCutoff = time.Date(2024, 4, 29, 10, 40, 0, 0, time.UTC)

func holidayRecords() []calendar.HolidayRecord {
	return []calendar.HolidayRecord{
		{TradeDay: "22-Jan-2024", WeekDay: "Monday", Description: "Special Holiday"},
		{TradeDay: "01-May-2024", WeekDay: "Wednesday", Description: "Maharashtra Day"},
		{TradeDay: "20-May-2024", WeekDay: "Monday", Description: "General Elections"},
		{TradeDay: "01-Nov-2024", WeekDay: "Friday", Description: "Diwali Laxmi Pujan*"},
	}
}

func newResolver(t *testing.T, nominal string, now time.Time) *calendar.TradingDayResolver {
	t.Helper()
	session, err := calendar.NewMarketSession(calendar.DefaultMarketTiming(), calendar.FixedClock(now))
	require.NoError(t, err)

	cal, err := calendar.NewHolidayCalendar(holidayRecords(), calendar.DefaultLayout, session.Today(calendar.DefaultLayout))
	require.NoError(t, err)

	return calendar.NewTradingDayResolver(calendar.MustParse(nominal, calendar.DefaultLayout), cal, session)
}

type fakeMarketData struct {
	quotes    []nse.IndexQuote
	quoteErr  error
	chains    map[string]*nse.OptionChain
	chainErrs map[string]error
	history   map[string][]nse.IndexBar
}

func (f *fakeMarketData) IndexQuotes(context.Context) ([]nse.IndexQuote, error) {
	return f.quotes, f.quoteErr
}

func (f *fakeMarketData) OptionChain(_ context.Context, symbol string) (*nse.OptionChain, error) {
	if err := f.chainErrs[symbol]; err != nil {
		return nil, err
	}
	oc, ok := f.chains[symbol]
	if !ok {
		return nil, errors.New("unknown symbol")
	}
	return oc, nil
}

func (f *fakeMarketData) IndexHistory(_ context.Context, index string, _, _ time.Time) ([]nse.IndexBar, error) {
	bars, ok := f.history[index]
	if !ok {
		return nil, errors.New("no history")
	}
	return bars, nil
}

// risingBars returns n bars closing at 100, 101, 102 ...
func risingBars(n int) []nse.IndexBar {
	bars := make([]nse.IndexBar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = nse.IndexBar{Date: start.AddDate(0, 0, i), Close: float64(100 + i)}
	}
	return bars
}

func sampleQuotes() []nse.IndexQuote {
	return []nse.IndexQuote{
		{Index: "NIFTY 50", Open: 22447.05, High: 22476.45, Low: 22384.8, Last: 22402.4, PercentChange: 0.15},
		{Index: "NIFTY BANK", Open: 48230.45, High: 48311.9, Low: 47935.15, Last: 48189, PercentChange: 0.46},
	}
}

func sampleChain() *nse.OptionChain {
	return &nse.OptionChain{
		Symbol:      "NIFTY",
		Underlying:  22402.4,
		ExpiryDates: []string{"02-May-2024"},
		Data: []nse.OptionStrike{
			{StrikePrice: 22300, ExpiryDate: "02-May-2024", CE: &nse.OptionLeg{OpenInterest: 2000}, PE: &nse.OptionLeg{OpenInterest: 12000}},
			{StrikePrice: 22500, ExpiryDate: "02-May-2024", CE: &nse.OptionLeg{OpenInterest: 15000}, PE: &nse.OptionLeg{OpenInterest: 3000}},
		},
	}
}

func sampleReport() *Report {
	r := NewReport(KindSession, "29-Apr-2024", "NSE session report 29-Apr-2024", time.Date(2024, 4, 29, 16, 10, 0, 0, time.FixedZone("IST", 19800)))
	r.Sections = []Section{
		{Heading: HeadingCalendar, Columns: []string{"Field", "Value"}, Rows: [][]string{{"Market date", "29-Apr-2024"}, {"Next business day", "30-Apr-2024"}}},
		{Heading: HeadingHolidays, Columns: []string{"Date", "Day", "Description", "Session"}},
	}
	return r
}

type fakeNotifier struct {
	name string
	err  error

	mu       sync.Mutex
	received []*Report
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Notify(_ context.Context, r *Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = append(f.received, r)
	return f.err
}
