package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/algotrade/tradecal/internal/modules/reports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var (
	// 29-Apr-2024 16:10 IST, after the cutoff
	mondayEvening = time.Date(2024, 4, 29, 10, 40, 0, 0, time.UTC)
	// 01-May-2024 16:10 IST, Maharashtra Day
	holidayEvening = time.Date(2024, 5, 1, 10, 40, 0, 0, time.UTC)
)

func holidayRecords() []calendar.HolidayRecord {
	return []calendar.HolidayRecord{
		{TradeDay: "22-Jan-2024", WeekDay: "Monday", Description: "Special Holiday"},
		{TradeDay: "01-May-2024", WeekDay: "Wednesday", Description: "Maharashtra Day"},
		{TradeDay: "01-Nov-2024", WeekDay: "Friday", Description: "Diwali Laxmi Pujan*"},
	}
}

func newCalendarService(t *testing.T, now time.Time, source calendar.HolidaySource) *calendar.Service {
	t.Helper()
	session, err := calendar.NewMarketSession(calendar.DefaultMarketTiming(), calendar.FixedClock(now))
	require.NoError(t, err)
	return calendar.NewService(source, session, calendar.DefaultLayout, calendar.Adhoc{}, zerolog.Nop())
}

type failingSource struct{}

func (failingSource) Holidays(context.Context) ([]calendar.HolidayRecord, error) {
	return nil, errors.New("feed unreachable")
}

type fakeBuilder struct {
	err   error
	calls int
}

func (b *fakeBuilder) SessionReport(_ context.Context, r *calendar.TradingDayResolver) (*reports.Report, error) {
	b.calls++
	if b.err != nil {
		return nil, b.err
	}
	return reports.NewReport(reports.KindSession, r.EffectiveDay().String(), "NSE session report", r.Session().Instant()), nil
}

type fakeDispatcher struct {
	err        error
	dispatched []*reports.Report
}

func (d *fakeDispatcher) Dispatch(_ context.Context, r *reports.Report) error {
	d.dispatched = append(d.dispatched, r)
	return d.err
}

type fakeHistory struct {
	mu        sync.Mutex
	delivered map[string]bool
	cutoff    time.Time
	deleted   int64
	err       error
}

func (h *fakeHistory) Delivered(kind reports.Kind, sessionDate string) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return false, h.err
	}
	return h.delivered[string(kind)+"/"+sessionDate], nil
}

func (h *fakeHistory) DeleteBefore(cutoff time.Time) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.err != nil {
		return 0, h.err
	}
	h.cutoff = cutoff
	return h.deleted, nil
}
