// Package enforcement applies the content deletion policy: it sweeps due
// candidates, renews the ones still active and scrubs everything tracked for
// the ones that are gone.
package enforcement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"openmod/internal/content"
	"openmod/internal/extract"
	"openmod/internal/platform/logger"
	"openmod/internal/platform/metrics"
	"openmod/internal/scheduler"
	"openmod/internal/tracking"
	"openmod/pkg/domain"
)

// SweepJob is the scheduler job name of the sweep.
const SweepJob = "enforceContentDeletionPolicy"

const (
	DefaultBatchSize     = 50
	DefaultCheckInterval = 24 * time.Hour
	DefaultFollowUpDelay = 5 * time.Second
	DefaultRetryBackoff  = time.Hour
)

var tracer = otel.Tracer("openmod/enforcement")

// Things invalidates cached snapshots.
type Things interface {
	Invalidate(ctx context.Context, id domain.ThingID) error
}

// Redactor scrubs a published record before it is deleted.
type Redactor interface {
	Redact(ctx context.Context, id domain.LinkID) error
}

// Service runs sweeps and cascades.
type Service struct {
	tracking      *tracking.Store
	things        Things
	extracts      *extract.Repository
	redactor      Redactor
	provider      content.Provider
	scheduler     scheduler.Scheduler
	batchSize     int
	checkInterval time.Duration
	followUpDelay time.Duration
	retryBackoff  time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMetrics enables counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithBatchSize bounds how many candidates one sweep probes.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithCheckInterval sets how far out active candidates are renewed.
func WithCheckInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

// WithRetryBackoff sets how long a user whose cascade failed waits before
// the next attempt.
func WithRetryBackoff(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retryBackoff = d
		}
	}
}

// WithFollowUpDelay sets when a follow-up sweep runs while a backlog remains.
func WithFollowUpDelay(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.followUpDelay = d
		}
	}
}

// New creates a Service.
func New(
	trackingStore *tracking.Store,
	things Things,
	extracts *extract.Repository,
	redactor Redactor,
	provider content.Provider,
	sched scheduler.Scheduler,
	opts ...Option,
) (*Service, error) {
	if trackingStore == nil {
		return nil, errors.New("tracking store is required")
	}
	if things == nil {
		return nil, errors.New("thing cache is required")
	}
	if extracts == nil {
		return nil, errors.New("extract repository is required")
	}
	if redactor == nil {
		return nil, errors.New("redactor is required")
	}
	if provider == nil {
		return nil, errors.New("content provider is required")
	}
	if sched == nil {
		return nil, errors.New("scheduler is required")
	}

	s := &Service{
		tracking:      trackingStore,
		things:        things,
		extracts:      extracts,
		redactor:      redactor,
		provider:      provider,
		scheduler:     sched,
		batchSize:     DefaultBatchSize,
		checkInterval: DefaultCheckInterval,
		followUpDelay: DefaultFollowUpDelay,
		retryBackoff:  DefaultRetryBackoff,
		logger:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
