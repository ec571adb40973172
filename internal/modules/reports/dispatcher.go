package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const maxParallelDeliveries = 4

// Dispatcher fans a report out to every notifier and records the outcome
type Dispatcher struct {
	notifiers []Notifier
	repo      *Repository
	now       func() time.Time
	log       zerolog.Logger
}

// NewDispatcher creates a dispatcher. repo is optional.
func NewDispatcher(notifiers []Notifier, repo *Repository, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		repo:      repo,
		now:       time.Now,
		log:       log.With().Str("component", "report_dispatcher").Logger(),
	}
}

// Channels lists the configured notifier names
func (d *Dispatcher) Channels() []string {
	names := make([]string, len(d.notifiers))
	for i, n := range d.notifiers {
		names[i] = n.Name()
	}
	return names
}

// Dispatch delivers r to all channels. A failing channel does not stop the
// others; the returned error joins every channel failure.
func (d *Dispatcher) Dispatch(ctx context.Context, r *Report) error {
	if len(d.notifiers) == 0 {
		d.log.Warn().Str("report_id", r.ID).Msg("No notification channels configured")
		return nil
	}

	results := make([]error, len(d.notifiers))

	var g errgroup.Group
	g.SetLimit(maxParallelDeliveries)
	for i, n := range d.notifiers {
		i, n := i, n
		g.Go(func() error {
			results[i] = n.Notify(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	// history is written serially; sqlite allows one writer
	var errs []error
	for i, n := range d.notifiers {
		d.record(r, n.Name(), results[i])
		if results[i] != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), results[i]))
		}
	}

	err := errors.Join(errs...)
	if err != nil {
		d.log.Error().Err(err).Str("report_id", r.ID).Msg("Report delivery incomplete")
	}
	return err
}

func (d *Dispatcher) record(r *Report, channel string, deliveryErr error) {
	run := Run{
		ReportID:    r.ID,
		Kind:        r.Kind,
		SessionDate: r.SessionDate,
		Channel:     channel,
		Status:      StatusSent,
		CreatedAt:   d.now(),
	}
	if deliveryErr != nil {
		run.Status = StatusFailed
		run.Error = deliveryErr.Error()
		d.log.Warn().Err(deliveryErr).Str("channel", channel).Str("report_id", r.ID).Msg("Delivery failed")
	}

	if d.repo == nil {
		return
	}
	if err := d.repo.Record(run); err != nil {
		d.log.Error().Err(err).Str("channel", channel).Msg("Failed to record report run")
	}
}
