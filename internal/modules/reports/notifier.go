package reports

import "context"

// Notifier delivers a report to one channel
type Notifier interface {
	Name() string
	Notify(ctx context.Context, r *Report) error
}
