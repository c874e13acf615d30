package enforcement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"openmod/internal/scheduler"
	"openmod/internal/temporal"
	"openmod/internal/tracking"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

type probe struct {
	user  domain.UserID
	alive bool
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Sweep probes up to one batch of due candidates. Active ones are renewed
// one check interval out; inactive ones are cascaded and leave the set. When
// more were due than one batch holds, a follow-up sweep is scheduled shortly
// after instead of waiting for the next cron firing.
func (s *Service) Sweep(ctx context.Context) (err error) {
	ctx, span := tracer.Start(ctx, "enforcement.Sweep")
	defer func() { endSpan(span, err) }()

	start := time.Now()
	now := temporal.Now(ctx)

	due, err := s.tracking.DueCandidates(ctx, now)
	if err != nil {
		return err
	}
	if len(due) == 0 {
		s.logger.InfoContext(ctx, "no candidates due")
		return nil
	}

	batch := due[:min(len(due), s.batchSize)]
	span.SetAttributes(attribute.Int("due", len(due)), attribute.Int("batch", len(batch)))

	probes, err := s.probe(ctx, lo.Map(batch, func(e tracking.Entry[domain.UserID], _ int) domain.UserID { return e.ID }))
	if err != nil {
		return err
	}

	active := lo.FilterMap(probes, func(p probe, _ int) (domain.UserID, bool) { return p.user, p.alive })
	inactive := lo.FilterMap(probes, func(p probe, _ int) (domain.UserID, bool) { return p.user, !p.alive })

	if err := s.tracking.RenewCandidates(ctx, now.Add(s.checkInterval), active...); err != nil {
		return err
	}

	var errs []error
	failed := 0
	for _, user := range inactive {
		if err := s.EnforceUser(ctx, user); err != nil {
			failed++
			retryAt := now.Add(s.retryBackoff)
			s.logger.ErrorContext(ctx, "cascade failed, user stays queued",
				"user_id", user.String(),
				"retry_at", retryAt,
				"error", err,
			)
			errs = append(errs, fmt.Errorf("cascading %s: %w", user, err))
			// Off the head of the queue, so it cannot hold a batch slot.
			if err := s.tracking.RenewCandidates(ctx, retryAt, user); err != nil {
				errs = append(errs, err)
			}
			continue
		}
		if err := s.tracking.RemoveCandidates(ctx, user); err != nil {
			errs = append(errs, err)
		}
	}

	if len(due) > len(batch) {
		runAt := now.Add(s.followUpDelay)
		if _, err := s.scheduler.RunJob(ctx, scheduler.Spec{Name: SweepJob, RunAt: runAt}); err != nil {
			errs = append(errs, fmt.Errorf("scheduling follow-up sweep: %w", err))
		} else {
			s.logger.InfoContext(ctx, "backlog remains, follow-up sweep scheduled",
				"remaining", len(due)-len(batch),
				"run_at", runAt,
			)
		}
	}

	s.logger.InfoContext(ctx, "sweep completed",
		"due", len(due),
		"active", len(active),
		"inactive", len(inactive),
		"failed", failed,
	)
	if s.metrics != nil {
		s.metrics.AddCandidates("active", len(active))
		s.metrics.AddCandidates("inactive", len(inactive)-failed)
		s.metrics.AddCandidates("failed", failed)
		s.metrics.ObserveSweep(time.Since(start).Seconds())
	}
	return errors.Join(errs...)
}

// probe checks every user concurrently. A failed lookup counts as inactive:
// the account no longer resolving is the signal being probed for.
func (s *Service) probe(ctx context.Context, users []domain.UserID) ([]probe, error) {
	results := make([]probe, len(users))

	g, gctx := errgroup.WithContext(ctx)
	for i, user := range users {
		g.Go(func() error {
			_, err := s.provider.GetUserByID(gctx, user)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
				s.logger.WarnContext(ctx, "liveness probe failed, treating as inactive",
					"user_id", user.String(),
					"error", err,
				)
			}
			results[i] = probe{user: user, alive: err == nil}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
