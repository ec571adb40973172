package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// nseRecords is a trimmed 2024 NSE list: two closures and the Muhurat session.
func nseRecords() []HolidayRecord {
	return []HolidayRecord{
		{TradeDay: "22-Jan-2024", WeekDay: "Monday", Description: "Special Holiday"},
		{TradeDay: "01-May-2024", WeekDay: "Wednesday", Description: "Maharashtra Day"},
		{TradeDay: "01-Nov-2024", WeekDay: "Friday", Description: "Diwali Laxmi Pujan*"},
	}
}

// Clock instants are given in UTC; IST is UTC+05:30.
var (
	apr24PreOpen     = time.Date(2024, 4, 24, 0, 0, 0, 0, time.UTC)   // 05:30 IST
	apr29BeforeOpen  = time.Date(2024, 4, 29, 3, 0, 0, 0, time.UTC)   // 08:30 IST
	apr29Trading     = time.Date(2024, 4, 29, 5, 10, 0, 0, time.UTC)  // 10:40 IST
	apr29AtCutoff    = time.Date(2024, 4, 29, 10, 30, 0, 0, time.UTC) // 16:00 IST
	apr29AfterCutoff = time.Date(2024, 4, 29, 10, 40, 0, 0, time.UTC) // 16:10 IST
)

func date(t *testing.T, raw string) CalendarDate {
	t.Helper()
	d, err := Parse(raw, DefaultLayout)
	require.NoError(t, err)
	return d
}

func newTestSession(t *testing.T, now time.Time) *MarketSession {
	t.Helper()
	session, err := NewMarketSession(DefaultMarketTiming(), FixedClock(now))
	require.NoError(t, err)
	return session
}

func newTestCalendar(t *testing.T, records []HolidayRecord, today string) *HolidayCalendar {
	t.Helper()
	cal, err := NewHolidayCalendar(records, DefaultLayout, date(t, today))
	require.NoError(t, err)
	return cal
}

// resolveAt builds a resolver for raw with the clock frozen at now and the
// calendar anchored to the session's date.
func resolveAt(t *testing.T, records []HolidayRecord, raw string, now time.Time) *TradingDayResolver {
	t.Helper()
	session := newTestSession(t, now)
	cal, err := NewHolidayCalendar(records, DefaultLayout, session.Today(DefaultLayout))
	require.NoError(t, err)
	return NewTradingDayResolver(date(t, raw), cal, session)
}
