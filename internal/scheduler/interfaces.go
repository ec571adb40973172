package scheduler

import (
	"context"
	"time"

	"github.com/algotrade/tradecal/internal/modules/calendar"
	"github.com/algotrade/tradecal/internal/modules/reports"
)

// CalendarService resolves trading days against the current holiday list
type CalendarService interface {
	Refresh(ctx context.Context) (*calendar.HolidayCalendar, error)
	Resolver(ctx context.Context, date string) (*calendar.TradingDayResolver, error)
}

// ReportBuilder assembles session reports
type ReportBuilder interface {
	SessionReport(ctx context.Context, r *calendar.TradingDayResolver) (*reports.Report, error)
}

// ReportDispatcher delivers reports to the configured channels
type ReportDispatcher interface {
	Dispatch(ctx context.Context, r *reports.Report) error
}

// DeliveryHistory is the report run log
type DeliveryHistory interface {
	Delivered(kind reports.Kind, sessionDate string) (bool, error)
	DeleteBefore(cutoff time.Time) (int64, error)
}
