// Package install resets scheduled work and broker topics when openmod is
// installed or upgraded.
package install

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"openmod/internal/enforcement"
	"openmod/internal/platform/logger"
	"openmod/internal/scheduler"
)

// TopicEnsurer creates missing event topics and returns the ones it created.
type TopicEnsurer func(ctx context.Context) ([]string, error)

// Installer brings scheduled jobs to their installed state.
type Installer struct {
	scheduler scheduler.Scheduler
	sweepCron string
	topics    TopicEnsurer
	logger    *slog.Logger
}

// Option configures an Installer.
type Option func(*Installer)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Installer) {
		i.logger = l
	}
}

// WithTopics makes Reset also create the event topics.
func WithTopics(ensure TopicEnsurer) Option {
	return func(i *Installer) {
		i.topics = ensure
	}
}

// New creates an Installer that schedules the sweep at sweepCron.
func New(sched scheduler.Scheduler, sweepCron string, opts ...Option) (*Installer, error) {
	if sched == nil {
		return nil, errors.New("scheduler is required")
	}
	if _, err := scheduler.ParseCron(sweepCron); err != nil {
		return nil, err
	}
	i := &Installer{
		scheduler: sched,
		sweepCron: sweepCron,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Reset cancels every scheduled job and registers exactly one recurring
// sweep. It returns the new sweep job id.
func (i *Installer) Reset(ctx context.Context) (string, error) {
	jobs, err := i.scheduler.ListJobs(ctx)
	if err != nil {
		return "", fmt.Errorf("listing jobs: %w", err)
	}
	for _, job := range jobs {
		if err := i.scheduler.CancelJob(ctx, job.ID); err != nil {
			return "", fmt.Errorf("cancelling job %s: %w", job.ID, err)
		}
	}
	if len(jobs) > 0 {
		i.logger.InfoContext(ctx, "cancelled scheduled jobs",
			"jobs", lo.Map(jobs, func(j scheduler.Job, _ int) string { return j.Name }),
		)
	}

	id, err := i.scheduler.RunJob(ctx, scheduler.Spec{Name: enforcement.SweepJob, Cron: i.sweepCron})
	if err != nil {
		return "", fmt.Errorf("scheduling sweep: %w", err)
	}
	i.logger.InfoContext(ctx, "scheduled sweep", "job_id", id, "cron", i.sweepCron)

	if i.topics != nil {
		created, err := i.topics(ctx)
		if err != nil {
			return id, fmt.Errorf("ensuring topics: %w", err)
		}
		if len(created) > 0 {
			i.logger.InfoContext(ctx, "created topics", "topics", created)
		}
	}
	return id, nil
}
