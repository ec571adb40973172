// Package scheduler runs background jobs on cron schedules in the market time zone.
package scheduler

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// runIDSetter is implemented by jobs embedding JobBase
type runIDSetter interface {
	SetRunID(id string)
}

// JobInfo describes a registered job
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	Next     time.Time `json:"next"`
	Prev     time.Time `json:"prev,omitempty"`
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger

	mu      sync.Mutex
	entries map[string]registration
}

type registration struct {
	id       cron.EntryID
	schedule string
}

// New creates a scheduler whose schedules are evaluated in loc.
// Schedules take a leading seconds field.
func New(log zerolog.Logger, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		log:     log.With().Str("component", "scheduler").Logger(),
		entries: make(map[string]registration),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 */5 * * * *"      - Every 5 minutes
//   - "0 10 16 * * MON-FRI" - 16:10 on weekdays
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	id, err := s.cron.AddFunc(schedule, func() {
		s.execute(job, "schedule")
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.entries[job.Name()] = registration{id: id, schedule: schedule}
	s.mu.Unlock()

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.execute(job, "manual")
}

// Jobs lists registered jobs with their next and previous run times
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]JobInfo, 0, len(s.entries))
	for name, reg := range s.entries {
		entry := s.cron.Entry(reg.id)
		out = append(out, JobInfo{
			Name:     name,
			Schedule: reg.schedule,
			Next:     entry.Next,
			Prev:     entry.Prev,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *Scheduler) execute(job Job, trigger string) error {
	runID := uuid.NewString()
	if setter, ok := job.(runIDSetter); ok {
		setter.SetRunID(runID)
	}

	log := s.log.With().Str("job", job.Name()).Str("run_id", runID).Str("trigger", trigger).Logger()
	log.Debug().Msg("Running job")

	start := time.Now()
	err := job.Run()
	if err != nil {
		log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Job failed")
	} else {
		log.Debug().Dur("duration", time.Since(start)).Msg("Job completed")
	}
	return err
}
