package scheduler

import (
	"time"

	"github.com/rs/zerolog"
)

// ReportHistoryCleanupJob prunes delivery history older than the retention window
type ReportHistoryCleanupJob struct {
	JobBase
	history   DeliveryHistory
	retention time.Duration
	now       func() time.Time
	log       zerolog.Logger
}

// NewReportHistoryCleanupJob creates a new ReportHistoryCleanupJob
func NewReportHistoryCleanupJob(history DeliveryHistory, retention time.Duration, log zerolog.Logger) *ReportHistoryCleanupJob {
	return &ReportHistoryCleanupJob{
		history:   history,
		retention: retention,
		now:       time.Now,
		log:       log.With().Str("job", "report_history_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *ReportHistoryCleanupJob) Name() string {
	return "report_history_cleanup"
}

// Run deletes expired runs
func (j *ReportHistoryCleanupJob) Run() error {
	cutoff := j.now().Add(-j.retention)
	deleted, err := j.history.DeleteBefore(cutoff)
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", j.RunID()).
		Time("cutoff", cutoff).
		Int64("deleted", deleted).
		Msg("Report history cleanup completed")
	return nil
}
