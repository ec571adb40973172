// Package di provides dependency injection for scheduler jobs.
package di

import (
	"fmt"
	"time"

	"github.com/algotrade/tradecal/internal/clientdata"
	"github.com/algotrade/tradecal/internal/config"
	"github.com/algotrade/tradecal/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates every job and registers it with a scheduler running in the market time zone
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil {
		return fmt.Errorf("container cannot be nil")
	}

	jobs := &JobInstances{}

	// Job 1: Holiday refresh, snapshotting to the offline file when one is configured
	jobs.RefreshHolidays = scheduler.NewRefreshHolidaysJob(
		container.CalendarService,
		cfg.Market,
		cfg.NSE.HolidaySegment,
		cfg.NSE.HolidayFile,
		log,
	)

	// Job 2: End of session report
	jobs.SessionReport = scheduler.NewSessionReportJob(
		container.CalendarService,
		container.ReportBuilder,
		container.Dispatcher,
		container.ReportRepo,
		log,
	)

	// Job 3: Feed cache cleanup
	jobs.CacheCleanup = clientdata.NewCleanupJob(container.ClientDataRepo, log)

	// Job 4-5: Database maintenance
	jobs.CheckDatabases = scheduler.NewCheckDatabasesJob(container.Databases())
	jobs.CheckDatabases.SetLogger(log.With().Str("job", "check_databases").Logger())
	jobs.CheckWALCheckpoints = scheduler.NewCheckWALCheckpointsJob(container.Databases())
	jobs.CheckWALCheckpoints.SetLogger(log.With().Str("job", "check_wal_checkpoints").Logger())

	// Job 6: Delivery history retention
	jobs.ReportHistoryCleanup = scheduler.NewReportHistoryCleanupJob(
		container.ReportRepo,
		time.Duration(cfg.ReportRetentionDays)*24*time.Hour,
		log,
	)

	sched := scheduler.New(log, container.Session.Location())
	schedules := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.Schedule.HolidayRefresh, jobs.RefreshHolidays},
		{cfg.Schedule.SessionReport, jobs.SessionReport},
		{cfg.Schedule.CacheCleanup, jobs.CacheCleanup},
		{cfg.Schedule.DatabaseCheck, jobs.CheckDatabases},
		{cfg.Schedule.DatabaseCheck, jobs.CheckWALCheckpoints},
		{cfg.Schedule.HistoryCleanup, jobs.ReportHistoryCleanup},
	}
	for _, s := range schedules {
		if err := sched.AddJob(s.spec, s.job); err != nil {
			return fmt.Errorf("failed to schedule %s (%q): %w", s.job.Name(), s.spec, err)
		}
	}

	container.Scheduler = sched
	container.Jobs = jobs

	log.Info().Int("jobs", len(schedules)).Msg("Jobs registered")
	return nil
}
