package scheduler

import (
	"path/filepath"
	"testing"

	"github.com/algotrade/tradecal/internal/clients/holidayfile"
	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshHolidaysJob_Name(t *testing.T) {
	job := NewRefreshHolidaysJob(nil, "NSE", "CM", "", zerolog.Nop())
	assert.Equal(t, "refresh_holidays", job.Name())
}

func TestRefreshHolidaysJob_Snapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	svc := newCalendarService(t, mondayEvening, calendar.StaticSource(holidayRecords()))
	job := NewRefreshHolidaysJob(svc, "NSE", "CM", path, zerolog.Nop())

	require.NoError(t, job.Run())

	f, err := holidayfile.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "NSE", f.Market)
	assert.Equal(t, "CM", f.Segment)
	assert.Equal(t, holidayRecords(), f.Holidays)
}

func TestRefreshHolidaysJob_NoSnapshot(t *testing.T) {
	svc := newCalendarService(t, mondayEvening, calendar.StaticSource(holidayRecords()))
	job := NewRefreshHolidaysJob(svc, "NSE", "CM", "", zerolog.Nop())

	assert.NoError(t, job.Run())
}

func TestRefreshHolidaysJob_SnapshotFailureIsNotFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "holidays.yaml")
	svc := newCalendarService(t, mondayEvening, calendar.StaticSource(holidayRecords()))
	job := NewRefreshHolidaysJob(svc, "NSE", "CM", path, zerolog.Nop())

	assert.NoError(t, job.Run())
}

func TestRefreshHolidaysJob_SourceError(t *testing.T) {
	svc := newCalendarService(t, mondayEvening, failingSource{})
	job := NewRefreshHolidaysJob(svc, "NSE", "CM", "", zerolog.Nop())

	err := job.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "holiday refresh failed")
}
