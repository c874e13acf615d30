// Package cache keeps TTL-refreshed snapshots of users, posts and comments so
// published records can be rendered without repeated provider lookups and
// after the live entity is gone.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"openmod/internal/content"
	"openmod/internal/platform/kv"
	"openmod/internal/platform/logger"
	"openmod/internal/platform/metrics"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// DefaultTTL is the sliding expiry applied on every write and read hit.
const DefaultTTL = 28 * 24 * time.Hour

// Key returns the store key of a thing's snapshot.
func Key(id domain.ThingID) string {
	return "cache:" + id.String()
}

// Cache reads through to the content provider on a miss.
type Cache struct {
	store    kv.Store
	provider content.Provider
	ttl      time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the sliding expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMetrics records hit, miss and gone lookups.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = l
	}
}

// New creates a Cache.
func New(store kv.Store, provider content.Provider, opts ...Option) (*Cache, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if provider == nil {
		return nil, errors.New("content provider is required")
	}

	c := &Cache{
		store:    store,
		provider: provider,
		ttl:      DefaultTTL,
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// lookup returns the cached fields for id, refreshing the TTL on a hit and
// calling fetch on a miss. A snapshot whose type tag disagrees with the id's
// kind is treated as a miss and overwritten.
func (c *Cache) lookup(ctx context.Context, id domain.ThingID, want Type, fetch func() (map[string]string, error)) (map[string]string, error) {
	key := Key(id)

	fields, err := c.store.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if Type(fields["type"]) == want {
		if _, err := c.store.Expire(ctx, key, c.ttl); err != nil {
			return nil, fmt.Errorf("refreshing %s: %w", key, err)
		}
		c.observe(want, "hit")
		return fields, nil
	}
	if len(fields) > 0 {
		c.logger.WarnContext(ctx, "cached snapshot has wrong type, refetching",
			"thing_id", id.String(),
			"cached_type", fields["type"],
		)
	}

	fields, err = fetch()
	if errors.Is(err, sentinel.ErrNotFound) {
		c.observe(want, "gone")
		return nil, fmt.Errorf("%s %s: %w", want, id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetching %s %s: %w", want, id, err)
	}
	c.observe(want, "miss")

	if err := c.store.HSet(ctx, key, fields, c.ttl); err != nil {
		return nil, fmt.Errorf("writing %s: %w", key, err)
	}
	return fields, nil
}

func (c *Cache) observe(t Type, result string) {
	if c.metrics != nil {
		c.metrics.ObserveCacheLookup(string(t), result)
	}
}

// GetUser returns the cached account, fetching it on a miss. A gone account
// that was never cached yields an error wrapping sentinel.ErrNotFound.
func (c *Cache) GetUser(ctx context.Context, id domain.UserID) (*User, error) {
	fields, err := c.lookup(ctx, id.Thing(), TypeUser, func() (map[string]string, error) {
		u, err := c.provider.GetUserByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return (&User{Username: u.Username, IsAdmin: u.IsAdmin, IsApp: u.IsApp}).fields(), nil
	})
	if err != nil {
		return nil, err
	}
	return userFrom(id, fields), nil
}

// GetPost returns the cached post, fetching it on a miss.
func (c *Cache) GetPost(ctx context.Context, id domain.LinkID) (*Post, error) {
	fields, err := c.lookup(ctx, id.Thing(), TypePost, func() (map[string]string, error) {
		p, err := c.provider.GetPostByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return PostFromContent(p).fields(), nil
	})
	if err != nil {
		return nil, err
	}
	return postFrom(id, fields), nil
}

// GetComment returns the cached comment, fetching it on a miss.
func (c *Cache) GetComment(ctx context.Context, id domain.CommentID) (*Comment, error) {
	fields, err := c.lookup(ctx, id.Thing(), TypeComment, func() (map[string]string, error) {
		cm, err := c.provider.GetCommentByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return CommentFromContent(cm).fields(), nil
	})
	if err != nil {
		return nil, err
	}
	return commentFrom(id, fields), nil
}

// PutUser writes a snapshot without consulting the provider.
func (c *Cache) PutUser(ctx context.Context, u *User) error {
	return c.put(ctx, u.ID.Thing(), u.fields())
}

// PutUserIfAbsent writes u only when no user snapshot is cached. Content
// events name their author without account flags, so they must not replace
// a snapshot fetched from the provider.
func (c *Cache) PutUserIfAbsent(ctx context.Context, u *User) (bool, error) {
	key := Key(u.ID.Thing())
	fields, err := c.store.HGetAll(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if Type(fields["type"]) == TypeUser {
		return false, nil
	}
	if err := c.PutUser(ctx, u); err != nil {
		return false, err
	}
	return true, nil
}

// PutPost writes a snapshot without consulting the provider.
func (c *Cache) PutPost(ctx context.Context, p *Post) error {
	return c.put(ctx, p.ID.Thing(), p.fields())
}

// PutComment writes a snapshot without consulting the provider.
func (c *Cache) PutComment(ctx context.Context, cm *Comment) error {
	return c.put(ctx, cm.ID.Thing(), cm.fields())
}

func (c *Cache) put(ctx context.Context, id domain.ThingID, fields map[string]string) error {
	if id.IsNil() {
		return fmt.Errorf("cache put without id: %w", sentinel.ErrInvalidState)
	}
	if err := c.store.HSet(ctx, Key(id), fields, c.ttl); err != nil {
		return fmt.Errorf("writing %s: %w", Key(id), err)
	}
	return nil
}

// Invalidate drops the snapshot so the next read re-fetches.
func (c *Cache) Invalidate(ctx context.Context, id domain.ThingID) error {
	if err := c.store.Del(ctx, Key(id)); err != nil {
		return fmt.Errorf("invalidating %s: %w", Key(id), err)
	}
	return nil
}

// PostFromContent converts a live post into a snapshot.
func PostFromContent(p *content.Post) *Post {
	return &Post{
		ID:        p.ID,
		Author:    p.AuthorID,
		Title:     p.Title,
		URL:       p.URL,
		Body:      p.Body,
		Permalink: p.Permalink,
	}
}

// CommentFromContent converts a live comment into a snapshot.
func CommentFromContent(cm *content.Comment) *Comment {
	return &Comment{
		ID:        cm.ID,
		Author:    cm.AuthorID,
		Body:      cm.Body,
		Permalink: cm.Permalink,
	}
}
