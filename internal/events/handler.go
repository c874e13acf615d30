// Package events turns moderation-action and content messages into
// disclosure and enforcement work, at most once per event.
package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"openmod/internal/cache"
	"openmod/internal/dedup"
	"openmod/internal/disclosure"
	"openmod/internal/extract"
	"openmod/internal/platform/config"
	"openmod/internal/platform/kafka/consumer"
	"openmod/internal/platform/logger"
	"openmod/internal/platform/metrics"
	"openmod/internal/temporal"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
	"openmod/pkg/requestcontext"
)

// Guard claims event keys.
type Guard interface {
	MarkAndCheck(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// Snapshots stores content snapshots as content is written.
type Snapshots interface {
	PutUserIfAbsent(ctx context.Context, u *cache.User) (bool, error)
	PutPost(ctx context.Context, p *cache.Post) error
	PutComment(ctx context.Context, c *cache.Comment) error
}

// Discloser publishes and refreshes public records.
type Discloser interface {
	Disclose(ctx context.Context, ev *disclosure.ModAction) error
	UpdateDisclosures(ctx context.Context, thing domain.ThingID) error
}

// Enforcer scrubs content its author deleted.
type Enforcer interface {
	EnforceThing(ctx context.Context, thing domain.ThingID) error
}

// Handler processes decoded events.
type Handler struct {
	settings  config.Settings
	guard     Guard
	snapshots Snapshots
	discloser Discloser
	enforcer  Enforcer
	clock     temporal.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		h.logger = l
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// WithClock sets the clock an invocation reads "now" from.
func WithClock(c temporal.Clock) Option {
	return func(h *Handler) {
		h.clock = c
	}
}

// New creates a Handler.
func New(settings config.Settings, guard Guard, snapshots Snapshots, discloser Discloser, enforcer Enforcer, opts ...Option) (*Handler, error) {
	if guard == nil {
		return nil, errors.New("dedup guard is required")
	}
	if snapshots == nil {
		return nil, errors.New("snapshot cache is required")
	}
	if discloser == nil {
		return nil, errors.New("disclosure service is required")
	}
	if enforcer == nil {
		return nil, errors.New("enforcement service is required")
	}

	h := &Handler{
		settings:  settings,
		guard:     guard,
		snapshots: snapshots,
		discloser: discloser,
		enforcer:  enforcer,
		clock:     temporal.System{},
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

func (h *Handler) configured(ctx context.Context) bool {
	if h.settings.IsMinimallyConfigured() {
		return true
	}
	h.logger.WarnContext(ctx, "target community not configured, skipping event")
	return false
}

// once runs fn for the first delivery of key. A failed run releases the key
// so the redelivery is processed again, unless the event itself is
// malformed and would fail the same way.
func (h *Handler) once(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	ctx = temporal.Pin(requestcontext.WithEventKey(ctx, key), h.clock)

	dup, err := h.guard.MarkAndCheck(ctx, key)
	if err != nil {
		return err
	}
	if dup {
		h.logger.InfoContext(ctx, "duplicate event, skipping", "event_key", key)
		if h.metrics != nil {
			h.metrics.IncrementDuplicate()
		}
		return nil
	}

	if err := fn(ctx); err != nil {
		if errors.Is(err, sentinel.ErrMalformedEvent) {
			return err
		}
		if rerr := h.guard.Release(ctx, key); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

// modActionTarget is the most specific thing an action names.
func modActionTarget(ev *disclosure.ModAction) domain.ThingID {
	switch {
	case !ev.TargetComment.ID.IsNil():
		return ev.TargetComment.ID.Thing()
	case !ev.TargetPost.ID.IsNil():
		return ev.TargetPost.ID.Thing()
	default:
		return ev.TargetUser.ID.Thing()
	}
}

// OnModAction discloses a moderation action once.
func (h *Handler) OnModAction(ctx context.Context, ev *disclosure.ModAction) error {
	if !h.configured(ctx) {
		return nil
	}
	if !extract.ActionType(ev.Action).Supported() {
		h.logger.InfoContext(ctx, "action has nothing to disclose, skipping", "action", ev.Action)
		if h.metrics != nil {
			h.metrics.IncrementSkipped("unsupported_action")
		}
		return nil
	}
	key, err := dedup.ModActionKey(ev.Moderator.ID, ev.Action, modActionTarget(ev), ev.ActionedAt)
	if err != nil {
		return err
	}
	return h.once(ctx, key, func(ctx context.Context) error {
		return h.discloser.Disclose(ctx, ev)
	})
}

// OnContentEvent keeps snapshots current and reacts to edits and author
// deletions.
func (h *Handler) OnContentEvent(ctx context.Context, ev *ContentEvent) error {
	if !h.configured(ctx) {
		return nil
	}
	if ev.Kind == ContentDelete && !ev.UserInitiated {
		h.logger.DebugContext(ctx, "deletion not made by author, skipping", "thing_id", ev.Thing.String())
		return nil
	}

	var revision string
	if ev.Kind == ContentUpdate && !ev.At.IsZero() {
		revision = strconv.FormatInt(ev.At.UnixMilli(), 10)
	}
	key, err := dedup.ContentEventKey(ev.Thing, string(ev.Kind), revision)
	if err != nil {
		return err
	}

	return h.once(ctx, key, func(ctx context.Context) error {
		switch ev.Kind {
		case ContentSubmit:
			return h.storeSnapshot(ctx, ev)
		case ContentUpdate:
			if err := h.storeSnapshot(ctx, ev); err != nil {
				return err
			}
			return h.discloser.UpdateDisclosures(ctx, ev.Thing)
		case ContentDelete:
			return h.enforcer.EnforceThing(ctx, ev.Thing)
		}
		return fmt.Errorf("content event %q: %w", ev.Kind, sentinel.ErrMalformedEvent)
	})
}

func (h *Handler) storeSnapshot(ctx context.Context, ev *ContentEvent) error {
	if ev.Author != nil && ev.Author.Username != "" {
		if _, err := h.snapshots.PutUserIfAbsent(ctx, ev.Author); err != nil {
			return err
		}
	}
	switch {
	case ev.Post != nil:
		return h.snapshots.PutPost(ctx, ev.Post)
	case ev.Comment != nil:
		return h.snapshots.PutComment(ctx, ev.Comment)
	}
	return nil
}

// HandleModAction is the consumer entry point for moderation-action
// messages. Malformed messages are logged and committed.
func (h *Handler) HandleModAction(ctx context.Context, msg *consumer.Message) error {
	ev, err := DecodeModAction(msg.Value)
	if err == nil {
		err = h.OnModAction(ctx, ev)
	}
	return h.settle(ctx, msg, err)
}

// HandleContent is the consumer entry point for content messages.
func (h *Handler) HandleContent(ctx context.Context, msg *consumer.Message) error {
	ev, err := DecodeContent(msg.Value)
	if err == nil {
		err = h.OnContentEvent(ctx, ev)
	}
	return h.settle(ctx, msg, err)
}

func (h *Handler) settle(ctx context.Context, msg *consumer.Message, err error) error {
	if errors.Is(err, sentinel.ErrMalformedEvent) {
		h.logger.ErrorContext(ctx, "malformed event, skipping",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	return err
}

// Routes registers the handler's topics on r.
func (h *Handler) Routes(r *Router, modActionTopic, contentTopic string) {
	r.Register(modActionTopic, consumer.HandlerFunc(h.HandleModAction))
	r.Register(contentTopic, consumer.HandlerFunc(h.HandleContent))
}
