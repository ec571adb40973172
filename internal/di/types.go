// Package di provides dependency injection type definitions.
//
// Container holds every long lived instance and is the single place the
// application is assembled from.
package di

import (
	"github.com/algotrade/tradecal/internal/clientdata"
	"github.com/algotrade/tradecal/internal/clients/nse"
	"github.com/algotrade/tradecal/internal/database"
	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/algotrade/tradecal/internal/modules/reports"
	"github.com/algotrade/tradecal/internal/scheduler"
)

// Container holds all dependencies for the application
type Container struct {
	// Databases
	CacheDB   *database.DB // feed payload cache
	ReportsDB *database.DB // report delivery history

	// Repositories
	ClientDataRepo *clientdata.Repository
	ReportRepo     *reports.Repository

	// Clients
	NSEClient *nse.Client

	// Services
	Session         *calendar.MarketSession
	CalendarService *calendar.Service
	ReportBuilder   *reports.Builder
	Dispatcher      *reports.Dispatcher

	// Scheduling
	Scheduler *scheduler.Scheduler
	Jobs      *JobInstances
}

// JobInstances holds job references for manual triggering via API
type JobInstances struct {
	RefreshHolidays      *scheduler.RefreshHolidaysJob
	SessionReport        *scheduler.SessionReportJob
	CacheCleanup         *clientdata.CleanupJob
	CheckDatabases       *scheduler.CheckDatabasesJob
	CheckWALCheckpoints  *scheduler.CheckWALCheckpointsJob
	ReportHistoryCleanup *scheduler.ReportHistoryCleanupJob
}

// All returns every job as a scheduler.Job
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{
		j.RefreshHolidays,
		j.SessionReport,
		j.CacheCleanup,
		j.CheckDatabases,
		j.CheckWALCheckpoints,
		j.ReportHistoryCleanup,
	}
}

// Databases returns the open databases keyed by name
func (c *Container) Databases() map[string]*database.DB {
	return map[string]*database.DB{
		"cache":   c.CacheDB,
		"reports": c.ReportsDB,
	}
}

// Close stops the scheduler and closes the databases
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}

	var firstErr error
	for _, db := range []*database.DB{c.CacheDB, c.ReportsDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
