// Package kv is the narrow view of the backing store that every openmod
// component shares: single-key strings with TTL, hashes, and sorted sets
// keyed by timestamp scores.
//
// Each method is a single atomic mutation on one key. Nothing here spans keys
// transactionally; callers make multi-key sequences idempotent instead.
package kv

import (
	"context"
	"time"
)

// Member is one sorted-set entry.
type Member struct {
	Member string
	Score  float64
}

// Store is implemented by Redis and by an in-memory store for tests and
// single-process runs.
type Store interface {
	// Get returns sentinel.ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) (string, error)
	// SetNX writes value only if key is absent and reports whether it wrote.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Del removes keys; absent keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// Expire resets the TTL of key and reports whether the key exists.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// HGetAll returns an empty map when the key is absent.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	// HSet merges fields into the hash; a positive ttl resets its expiry.
	HSet(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error
	// HReplace atomically swaps the whole hash for fields.
	HReplace(ctx context.Context, key string, fields map[string]string) error

	// ZAdd inserts members or updates their scores.
	ZAdd(ctx context.Context, key string, members ...Member) error
	// ZAddNX inserts members that are not present and leaves existing scores alone.
	ZAddNX(ctx context.Context, key string, members ...Member) error
	// ZRange returns every member in ascending score order.
	ZRange(ctx context.Context, key string) ([]Member, error)
	// ZRangeByScore returns members with score <= max in ascending order.
	ZRangeByScore(ctx context.Context, key string, max float64) ([]Member, error)
	// ZRem removes members and returns how many were present.
	ZRem(ctx context.Context, key string, members ...string) (int64, error)
	// ZScore reports the score of member and whether it is present.
	ZScore(ctx context.Context, key, member string) (float64, bool, error)

	// Scan returns every key matching a glob pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
}
