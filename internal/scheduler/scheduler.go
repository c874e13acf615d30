// Package scheduler runs named jobs on a cron expression or once at a future
// instant. Job state lives in the shared store so any process can register,
// list, cancel or execute jobs.
package scheduler

//go:generate mockgen -source=scheduler.go -destination=mocks/mocks.go -package=mocks Scheduler

import (
	"context"
	"time"
)

// Job is a registered job.
type Job struct {
	ID   string
	Name string
	// Cron is set for recurring jobs.
	Cron string
	// RunAt is the next execution time.
	RunAt time.Time
}

// Recurring reports whether the job re-arms after it runs.
func (j Job) Recurring() bool { return j.Cron != "" }

// Spec describes a job to register. Exactly one of Cron and RunAt is set.
type Spec struct {
	Name  string
	Cron  string
	RunAt time.Time
}

// Scheduler registers and cancels jobs.
type Scheduler interface {
	RunJob(ctx context.Context, spec Spec) (string, error)
	ListJobs(ctx context.Context) ([]Job, error)
	CancelJob(ctx context.Context, id string) error
}
