// Package dedup gates at-least-once deliveries so each inbound event is
// processed at most once.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"openmod/internal/platform/kv"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// DefaultTTL bounds how long a processed marker is remembered.
const DefaultTTL = 28 * 24 * time.Hour

const keyPrefix = "event:"

// Guard claims event keys with a single conditional set.
type Guard struct {
	store kv.Store
	ttl   time.Duration
}

// Option configures a Guard.
type Option func(*Guard)

// WithTTL overrides how long markers live.
func WithTTL(ttl time.Duration) Option {
	return func(g *Guard) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// New creates a Guard.
func New(store kv.Store, opts ...Option) (*Guard, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	g := &Guard{store: store, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// MarkAndCheck claims key and reports whether it was already claimed. Two
// concurrent callers with the same key never both get false.
func (g *Guard) MarkAndCheck(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("empty event key: %w", sentinel.ErrMalformedEvent)
	}
	wrote, err := g.store.SetNX(ctx, keyPrefix+key, "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("claiming event %s: %w", key, err)
	}
	return !wrote, nil
}

// Release forgets a claim so a redelivery is processed again. Handlers call
// it when processing fails after MarkAndCheck succeeded.
func (g *Guard) Release(ctx context.Context, key string) error {
	if err := g.store.Del(ctx, keyPrefix+key); err != nil {
		return fmt.Errorf("releasing event %s: %w", key, err)
	}
	return nil
}

// ModActionKey derives a stable key from the identity of a moderation
// action, since the platform provides no canonical event id.
func ModActionKey(moderator domain.UserID, action string, target domain.ThingID, actionedAt time.Time) (string, error) {
	if moderator.IsNil() || action == "" || target.IsNil() || actionedAt.IsZero() {
		return "", fmt.Errorf("mod action identity incomplete: %w", sentinel.ErrMalformedEvent)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		moderator.String(),
		action,
		target.String(),
		strconv.FormatInt(actionedAt.UnixMilli(), 10),
	}, "|")))
	return "modaction:" + hex.EncodeToString(sum[:]), nil
}

// ContentEventKey derives the key of a content submit, update or delete.
// Updates also carry the revision so successive edits are distinct events.
func ContentEventKey(thing domain.ThingID, kind, revision string) (string, error) {
	if thing.IsNil() || kind == "" {
		return "", fmt.Errorf("content event identity incomplete: %w", sentinel.ErrMalformedEvent)
	}
	key := kind + ":" + thing.String()
	if revision != "" {
		key += ":" + revision
	}
	return key, nil
}
