package enforcement

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"openmod/internal/temporal"
	"openmod/pkg/domain"
)

// EnforceUser scrubs every thing tracked for user and then drops the user's
// tracking set. Each step tolerates already-absent state, so an interrupted
// cascade can simply be run again.
func (s *Service) EnforceUser(ctx context.Context, user domain.UserID) (err error) {
	ctx, span := tracer.Start(ctx, "enforcement.EnforceUser", trace.WithAttributes(
		attribute.String("user_id", user.String()),
	))
	defer func() { endSpan(span, err) }()

	things, err := s.tracking.Things(ctx, user)
	if err != nil {
		return err
	}
	if len(things) == 0 {
		s.logger.InfoContext(ctx, "candidate has no tracked things", "user_id", user.String())
	}

	for _, t := range things {
		if err := s.EnforceThing(ctx, t.ID); err != nil {
			return err
		}
	}
	if err := s.things.Invalidate(ctx, user.Thing()); err != nil {
		return err
	}
	if err := s.tracking.DeleteThings(ctx, user); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "enforced deletion policy for user",
		"user_id", user.String(),
		"things", len(things),
	)
	return nil
}

// EnforceThing drops the thing's snapshot, redacts and deletes every record
// published about it, and drops its record set.
func (s *Service) EnforceThing(ctx context.Context, thing domain.ThingID) error {
	if err := s.things.Invalidate(ctx, thing); err != nil {
		return err
	}

	entries, err := s.tracking.Extracts(ctx, thing)
	if err != nil {
		return err
	}
	ids := make([]domain.LinkID, 0, len(entries))
	for _, e := range entries {
		if err := s.redactor.Redact(ctx, e.ID); err != nil {
			return err
		}
		ids = append(ids, e.ID)
	}
	if err := s.extracts.Delete(ctx, ids...); err != nil {
		return err
	}
	if err := s.tracking.DeleteExtracts(ctx, thing); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "scrubbed thing",
		"thing_id", thing.String(),
		"records", len(ids),
	)
	if s.metrics != nil {
		s.metrics.IncrementScrubbed()
	}
	return nil
}

// Reconcile re-queues every user that still has tracked things but is
// missing from the candidate set, due immediately. It repairs cascades that
// stopped part way and candidates that were lost.
func (s *Service) Reconcile(ctx context.Context) (int, error) {
	users, err := s.tracking.TrackedUsers(ctx)
	if err != nil {
		return 0, err
	}

	now := temporal.Now(ctx)
	requeued := 0
	for _, u := range users {
		queued, err := s.tracking.IsCandidate(ctx, u)
		if err != nil {
			return requeued, err
		}
		if queued {
			continue
		}
		if err := s.tracking.AddCandidate(ctx, u, now); err != nil {
			return requeued, err
		}
		requeued++
		s.logger.InfoContext(ctx, "re-queued orphaned user", "user_id", u.String())
	}
	return requeued, nil
}
