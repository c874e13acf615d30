package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"openmod/internal/cache"
	"openmod/internal/content"
	"openmod/internal/platform/kv"
	"openmod/internal/platform/logger"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// Key returns the store key of the record published as post id.
func Key(id domain.LinkID) string {
	return "audit:" + id.String()
}

// ThingCache is the part of the thing cache the upgrade path reads through.
type ThingCache interface {
	GetPost(ctx context.Context, id domain.LinkID) (*cache.Post, error)
	GetComment(ctx context.Context, id domain.CommentID) (*cache.Comment, error)
	PutUser(ctx context.Context, u *cache.User) error
}

// Repository persists records keyed by the id of the post that published them.
type Repository struct {
	store    kv.Store
	cache    ThingCache
	provider content.Provider
	logger   *slog.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// NewRepository creates a Repository.
func NewRepository(store kv.Store, things ThingCache, provider content.Provider, opts ...Option) (*Repository, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if things == nil {
		return nil, errors.New("thing cache is required")
	}
	if provider == nil {
		return nil, errors.New("content provider is required")
	}

	r := &Repository{
		store:    store,
		cache:    things,
		provider: provider,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Get returns the record for id. A legacy record is upgraded and rewritten
// before it is returned, so callers only ever see the current shape.
func (r *Repository) Get(ctx context.Context, id domain.LinkID) (*Extract, error) {
	fields, err := r.store.HGetAll(ctx, Key(id))
	if err != nil {
		return nil, fmt.Errorf("reading extract %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("extract %s: %w", id, sentinel.ErrNotFound)
	}

	if !IsLegacy(fields) {
		x, err := Decode(fields)
		if err != nil {
			return nil, fmt.Errorf("decoding extract %s: %w", id, err)
		}
		return x, nil
	}

	legacy, err := DecodeLegacy(fields)
	if err != nil {
		return nil, fmt.Errorf("decoding legacy extract %s: %w", id, err)
	}
	return r.Upgrade(ctx, id, legacy)
}

// Save writes x under id, replacing anything stored there.
func (r *Repository) Save(ctx context.Context, id domain.LinkID, x *Extract) error {
	if err := x.Validate(); err != nil {
		return err
	}
	if err := r.store.HReplace(ctx, Key(id), Encode(x)); err != nil {
		return fmt.Errorf("writing extract %s: %w", id, err)
	}
	return nil
}

// Delete removes records; absent ones are ignored.
func (r *Repository) Delete(ctx context.Context, ids ...domain.LinkID) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, Key(id))
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("deleting %d extracts: %w", len(ids), err)
	}
	return nil
}

// Upgrade converts a legacy record to the current shape and overwrites it in
// place. If the moderator cannot be resolved the stored record is left as is
// and the error wraps sentinel.ErrActorResolution.
func (r *Repository) Upgrade(ctx context.Context, id domain.LinkID, legacy *Legacy) (*Extract, error) {
	actor, err := r.provider.GetUserByUsername(ctx, legacy.Actor)
	if err != nil {
		return nil, fmt.Errorf("%w: moderator %q of extract %s: %v", sentinel.ErrActorResolution, legacy.Actor, id, err)
	}
	if err := r.cache.PutUser(ctx, &cache.User{
		ID:       actor.ID,
		Username: actor.Username,
		IsAdmin:  actor.IsAdmin,
		IsApp:    actor.IsApp,
	}); err != nil {
		return nil, err
	}

	x := &Extract{Type: legacy.Type, Actor: actor.ID}
	if err := r.reclassify(ctx, x, legacy.ThingID); err != nil {
		return nil, fmt.Errorf("upgrading extract %s: %w", id, err)
	}

	if err := r.Save(ctx, id, x); err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "upgraded legacy extract",
		"extract_id", id.String(),
		"action", string(x.Type),
	)
	return x, nil
}

// reclassify fills the variant fields of x from the legacy raw thing id.
// Post and comment targets are the cached authors.
func (r *Repository) reclassify(ctx context.Context, x *Extract, thing domain.ThingID) error {
	switch x.Type.Kind() {
	case KindLink:
		link, ok := thing.Link()
		if !ok {
			return fmt.Errorf("%s on non-post %s: %w", x.Type, thing, sentinel.ErrInvalidState)
		}
		post, err := r.cache.GetPost(ctx, link)
		if err != nil {
			return err
		}
		x.Link, x.Target = link, post.Author
	case KindComment:
		comment, ok := thing.Comment()
		if !ok {
			return fmt.Errorf("%s on non-comment %s: %w", x.Type, thing, sentinel.ErrInvalidState)
		}
		c, err := r.cache.GetComment(ctx, comment)
		if err != nil {
			return err
		}
		x.Comment, x.Target = comment, c.Author
	case KindSanction, KindRevocation:
		user, ok := thing.User()
		if !ok {
			return fmt.Errorf("%s on non-user %s: %w", x.Type, thing, sentinel.ErrInvalidState)
		}
		x.Target = user
	default:
		return fmt.Errorf("unsupported legacy action %q: %w", x.Type, sentinel.ErrInvalidState)
	}
	return nil
}
