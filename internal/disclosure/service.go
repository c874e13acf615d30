// Package disclosure turns moderation actions into published records and
// keeps those records in step with the content they describe.
package disclosure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"openmod/internal/cache"
	"openmod/internal/content"
	"openmod/internal/extract"
	"openmod/internal/platform/config"
	"openmod/internal/platform/logger"
	"openmod/internal/platform/metrics"
	"openmod/internal/temporal"
	"openmod/internal/tracking"
	"openmod/pkg/domain"
	"openmod/pkg/requestcontext"
)

// DefaultCheckInterval is how long a new candidate waits for its first
// liveness check.
const DefaultCheckInterval = 24 * time.Hour

var tracer = otel.Tracer("openmod/disclosure")

// Things is the thing cache as seen by the pipeline.
type Things interface {
	GetUser(ctx context.Context, id domain.UserID) (*cache.User, error)
	GetPost(ctx context.Context, id domain.LinkID) (*cache.Post, error)
	GetComment(ctx context.Context, id domain.CommentID) (*cache.Comment, error)
	PutUser(ctx context.Context, u *cache.User) error
}

// Service publishes, re-renders and redacts records.
type Service struct {
	settings      config.Settings
	things        Things
	tracking      *tracking.Store
	extracts      *extract.Repository
	provider      content.Provider
	checkInterval time.Duration
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

// WithCheckInterval sets the delay before a new candidate's first check.
func WithCheckInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

// New creates a Service.
func New(
	settings config.Settings,
	things Things,
	trackingStore *tracking.Store,
	extracts *extract.Repository,
	provider content.Provider,
	opts ...Option,
) (*Service, error) {
	if things == nil {
		return nil, errors.New("thing cache is required")
	}
	if trackingStore == nil {
		return nil, errors.New("tracking store is required")
	}
	if extracts == nil {
		return nil, errors.New("extract repository is required")
	}
	if provider == nil {
		return nil, errors.New("content provider is required")
	}

	s := &Service{
		settings:      settings,
		things:        things,
		tracking:      trackingStore,
		extracts:      extracts,
		provider:      provider,
		checkInterval: DefaultCheckInterval,
		logger:        logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings returns the settings the service was built with.
func (s *Service) Settings() config.Settings { return s.settings }

func (s *Service) skip(ctx context.Context, reason string, ev *ModAction) {
	s.logger.InfoContext(ctx, "moderation action not recorded",
		"reason", reason,
		"event_key", requestcontext.EventKey(ctx),
		"action", ev.Action,
		"moderator", ev.Moderator.Name,
		"user_id", ev.TargetUser.ID.String(),
	)
	if s.metrics != nil {
		s.metrics.IncrementSkipped(reason)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// Disclose publishes a record of ev in the target community and tracks it.
// Actions that are out of scope are logged and dropped without error.
func (s *Service) Disclose(ctx context.Context, ev *ModAction) (err error) {
	ctx, span := tracer.Start(ctx, "disclosure.Disclose", trace.WithAttributes(
		attribute.String("action", ev.Action),
		attribute.String("moderator", ev.Moderator.Name),
	))
	defer func() { endSpan(span, err) }()

	if err := validate(ev); err != nil {
		return err
	}

	action := extract.ActionType(ev.Action)
	if !action.Supported() {
		s.skip(ctx, "unsupported_action", ev)
		return nil
	}
	if !s.settings.RecordsAction(ev.Action) {
		s.skip(ctx, "action_not_selected", ev)
		return nil
	}

	mod, err := s.resolveModerator(ctx, ev.Moderator)
	if err != nil {
		return err
	}
	switch {
	case mod.IsAdmin && !s.settings.RecordAdminActions:
		s.skip(ctx, "admin_action", ev)
		return nil
	case mod.Username == AccountAutoMod && !s.settings.RecordAutoModeratorActions:
		s.skip(ctx, "automoderator_action", ev)
		return nil
	case containsFold(s.settings.ExcludedModerators, mod.Username):
		s.skip(ctx, "excluded_moderator", ev)
		return nil
	}

	x, err := s.distil(ctx, ev, mod.ID)
	if err != nil {
		return err
	}
	if !x.HasTarget() {
		s.skip(ctx, "no_target", ev)
		return nil
	}

	target, err := s.resolveTarget(ctx, x.Target, ev.TargetUser)
	if err != nil {
		return err
	}
	if containsFold(s.settings.ExcludedUsers, target.Username) {
		s.skip(ctx, "excluded_user", ev)
		return nil
	}

	view, err := s.view(ctx, x)
	if err != nil {
		return err
	}
	if view.Permalink == "" {
		view.Permalink = firstNonEmpty(ev.TargetPost.Permalink, ev.TargetComment.Permalink)
	}
	text, err := Compose(view)
	if err != nil {
		return err
	}

	post, err := s.provider.SubmitPost(ctx, s.settings.TargetCommunity, text.Title, text.Body)
	if err != nil {
		return fmt.Errorf("publishing %s by %s: %w", ev.Action, mod.Username, err)
	}
	s.logger.InfoContext(ctx, "published moderation record",
		"event_key", requestcontext.EventKey(ctx),
		"extract_id", post.ID.String(),
		"thing_id", x.Thing().String(),
		"user_id", x.Target.String(),
	)

	if err := s.record(ctx, x, post.ID, ev.ActionedAt); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.IncrementPublished()
	}
	return nil
}

// record writes the tracking associations and the record itself. The record
// goes last so a reader that finds it also finds its associations.
func (s *Service) record(ctx context.Context, x *extract.Extract, published domain.LinkID, actionedAt time.Time) error {
	thing := x.Thing()
	if err := s.tracking.AddExtract(ctx, thing, published, temporal.Now(ctx)); err != nil {
		return err
	}
	if err := s.tracking.TrackThing(ctx, x.Target, thing, actionedAt); err != nil {
		return err
	}
	if err := s.tracking.AddCandidate(ctx, x.Target, temporal.Future(ctx, s.checkInterval)); err != nil {
		return err
	}
	return s.extracts.Save(ctx, published, x)
}

// UpdateDisclosures re-renders every record about thing and edits the
// published posts in place.
func (s *Service) UpdateDisclosures(ctx context.Context, thing domain.ThingID) (err error) {
	ctx, span := tracer.Start(ctx, "disclosure.UpdateDisclosures", trace.WithAttributes(
		attribute.String("thing_id", thing.String()),
	))
	defer func() { endSpan(span, err) }()

	entries, err := s.tracking.Extracts(ctx, thing)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		s.logger.InfoContext(ctx, "no records to update", "thing_id", thing.String())
		return nil
	}

	for _, e := range entries {
		x, err := s.extracts.Get(ctx, e.ID)
		if err != nil {
			return fmt.Errorf("loading extract %s: %w", e.ID, err)
		}
		view, err := s.view(ctx, x)
		if err != nil {
			return err
		}
		text, err := Compose(view)
		if err != nil {
			return err
		}
		if err := s.provider.EditPost(ctx, e.ID, text.Body); err != nil {
			return fmt.Errorf("editing %s: %w", e.ID, err)
		}
		s.logger.InfoContext(ctx, "updated moderation record",
			"extract_id", e.ID.String(),
			"thing_id", thing.String(),
		)
		if s.metrics != nil {
			s.metrics.IncrementUpdated()
		}
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
