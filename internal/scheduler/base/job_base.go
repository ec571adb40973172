// Package base provides base implementation for scheduler jobs.
package base

import "sync"

// JobBase carries the run ID assigned by the scheduler before each run.
// Jobs embed it so log lines from one run can be correlated.
type JobBase struct {
	mu    sync.RWMutex
	runID string
}

// SetRunID stores the ID of the run about to start
func (j *JobBase) SetRunID(id string) {
	j.mu.Lock()
	j.runID = id
	j.mu.Unlock()
}

// RunID returns the current run ID, empty when the job runs outside the scheduler
func (j *JobBase) RunID() string {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.runID
}
