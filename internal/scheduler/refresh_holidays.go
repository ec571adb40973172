package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/algotrade/tradecal/internal/clients/holidayfile"
	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/rs/zerolog"
)

const refreshTimeout = 2 * time.Minute

// RefreshHolidaysJob refetches the exchange holiday list and optionally
// snapshots it to the offline holiday file.
type RefreshHolidaysJob struct {
	JobBase
	service  CalendarService
	market   string
	segment  string
	snapshot string
	log      zerolog.Logger
}

// NewRefreshHolidaysJob creates a new RefreshHolidaysJob. snapshot may be empty.
func NewRefreshHolidaysJob(service CalendarService, market, segment, snapshot string, log zerolog.Logger) *RefreshHolidaysJob {
	return &RefreshHolidaysJob{
		service:  service,
		market:   market,
		segment:  segment,
		snapshot: snapshot,
		log:      log.With().Str("job", "refresh_holidays").Logger(),
	}
}

// Name returns the job name
func (j *RefreshHolidaysJob) Name() string {
	return "refresh_holidays"
}

// Run executes the refresh
func (j *RefreshHolidaysJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	cal, err := j.service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("holiday refresh failed: %w", err)
	}

	j.log.Info().
		Str("run_id", j.RunID()).
		Int("entries", cal.Len()).
		Str("next_holiday", cal.NextHoliday().String()).
		Msg("Holiday list refreshed")

	if j.snapshot == "" {
		return nil
	}
	if err := holidayfile.Save(j.snapshot, snapshotOf(j.market, j.segment, cal)); err != nil {
		// the live list is already in use; a stale snapshot only affects offline starts
		j.log.Warn().Err(err).Str("path", j.snapshot).Msg("Failed to snapshot holiday list")
	}
	return nil
}

func snapshotOf(market, segment string, cal *calendar.HolidayCalendar) *holidayfile.File {
	entries := cal.Entries()
	f := &holidayfile.File{
		Market:   market,
		Segment:  segment,
		Holidays: make([]calendar.HolidayRecord, len(entries)),
	}
	for i, e := range entries {
		f.Holidays[i] = calendar.HolidayRecord{
			TradeDay:    e.Date.String(),
			WeekDay:     e.WeekDay.String(),
			Description: e.Description,
		}
	}
	return f
}
