package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"openmod/internal/platform/logger"
	"openmod/internal/platform/metrics"
	"openmod/internal/temporal"
	"openmod/pkg/requestcontext"
)

// Handler executes one firing of a job.
type Handler func(ctx context.Context, job Job) error

// Runner polls the store and executes due jobs by name. Jobs of one tick run
// sequentially, each to completion, under a single pinned "now".
type Runner struct {
	store    *Store
	handlers map[string]Handler
	clock    temporal.Clock
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithMetrics counts executions.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithClock overrides the time source.
func WithClock(c temporal.Clock) RunnerOption {
	return func(r *Runner) {
		r.clock = c
	}
}

// NewRunner creates a Runner over store.
func NewRunner(store *Store, opts ...RunnerOption) (*Runner, error) {
	if store == nil {
		return nil, errors.New("scheduler store is required")
	}
	r := &Runner{
		store:    store,
		handlers: make(map[string]Handler),
		clock:    temporal.System{},
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Handle registers h for jobs named name.
func (r *Runner) Handle(name string, h Handler) {
	r.handlers[name] = h
}

// Start runs RunOnce every interval until ctx is cancelled.
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("job runner started", slog.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job runner stopped")
			return
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.Error("job cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

// RunOnce claims and executes every due job. A failing job is logged and
// does not stop the others.
func (r *Runner) RunOnce(ctx context.Context) error {
	ctx = requestcontext.WithTime(ctx, r.clock.Now())

	jobs, err := r.store.Claim(ctx)
	for _, job := range jobs {
		r.run(ctx, job)
	}
	return err
}

func (r *Runner) run(ctx context.Context, job Job) {
	h, ok := r.handlers[job.Name]
	if !ok {
		r.logger.WarnContext(ctx, "no handler for job", "job", job.Name, "job_id", job.ID)
		r.observe(job.Name, "unhandled")
		return
	}

	start := time.Now()
	if err := h(ctx, job); err != nil {
		r.logger.ErrorContext(ctx, "job failed",
			"job", job.Name,
			"job_id", job.ID,
			"error", err,
		)
		r.observe(job.Name, "error")
		return
	}
	r.logger.InfoContext(ctx, "job completed",
		"job", job.Name,
		"job_id", job.ID,
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	r.observe(job.Name, "ok")
}

func (r *Runner) observe(name, status string) {
	if r.metrics != nil {
		r.metrics.ObserveJob(name, status)
	}
}
