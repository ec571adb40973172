package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/algotrade/tradecal/internal/modules/reports"
	"github.com/rs/zerolog"
)

const reportTimeout = 5 * time.Minute

// Reasons a session report is not produced
var (
	ErrNoSession        = errors.New("market was closed on the requested day")
	ErrAlreadyDelivered = errors.New("session report already delivered")
)

// SessionReportJob builds the end of session report and hands it to the dispatcher.
// It is scheduled every weekday and Saturday; closed days are skipped so
// special Saturday sessions are still reported.
type SessionReportJob struct {
	JobBase
	service    CalendarService
	builder    ReportBuilder
	dispatcher ReportDispatcher
	history    DeliveryHistory
	log        zerolog.Logger

	// serialises the delivered check with the dispatch
	mu sync.Mutex
}

// NewSessionReportJob creates a new SessionReportJob. history is optional.
func NewSessionReportJob(service CalendarService, builder ReportBuilder, dispatcher ReportDispatcher, history DeliveryHistory, log zerolog.Logger) *SessionReportJob {
	return &SessionReportJob{
		service:    service,
		builder:    builder,
		dispatcher: dispatcher,
		history:    history,
		log:        log.With().Str("job", "session_report").Logger(),
	}
}

// Name returns the job name
func (j *SessionReportJob) Name() string {
	return "session_report"
}

// Run reports on today's session
func (j *SessionReportJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()

	_, err := j.Trigger(ctx, "", false)
	if errors.Is(err, ErrNoSession) || errors.Is(err, ErrAlreadyDelivered) {
		j.log.Info().Str("run_id", j.RunID()).Str("reason", err.Error()).Msg("Session report skipped")
		return nil
	}
	return err
}

// Trigger reports on date (today when empty). force re-sends a report that
// was already delivered. The report is returned even when some channels fail.
func (j *SessionReportJob) Trigger(ctx context.Context, date string, force bool) (*reports.Report, error) {
	resolver, err := j.service.Resolver(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session date: %w", err)
	}

	nominal := resolver.Nominal()
	if !resolver.Calendar().IsTradingDay(nominal) {
		return nil, fmt.Errorf("%s: %w", nominal, ErrNoSession)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	sessionDate := resolver.EffectiveDay().String()
	if !force && j.history != nil {
		delivered, err := j.history.Delivered(reports.KindSession, sessionDate)
		if err != nil {
			return nil, err
		}
		if delivered {
			return nil, fmt.Errorf("%s: %w", sessionDate, ErrAlreadyDelivered)
		}
	}

	report, err := j.builder.SessionReport(ctx, resolver)
	if err != nil {
		return nil, err
	}

	if err := j.dispatcher.Dispatch(ctx, report); err != nil {
		return report, err
	}

	j.log.Info().
		Str("run_id", j.RunID()).
		Str("report_id", report.ID).
		Str("session_date", sessionDate).
		Bool("forced", force).
		Msg("Session report delivered")

	return report, nil
}
