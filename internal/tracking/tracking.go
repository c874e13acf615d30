// Package tracking owns the time-ordered association sets that tie users to
// the things they authored, things to the records published about them, and
// users to their next compliance check.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"openmod/internal/platform/kv"
	"openmod/internal/temporal"
	"openmod/pkg/domain"
)

const (
	userPrefix      = "user:"
	modActionPrefix = "mod-actions:"
	// CandidatesKey is the global compliance candidate set.
	CandidatesKey = "cdpComplianceUserList"
)

// UserKey returns the key of a user's authored-things set.
func UserKey(id domain.UserID) string { return userPrefix + id.String() }

// ModActionsKey returns the key of a thing's published-records set.
func ModActionsKey(id domain.ThingID) string { return modActionPrefix + id.String() }

// Entry is one member of a tracking set with its timestamp.
type Entry[T ~string] struct {
	ID T
	At time.Time
}

// Store reads and writes the tracking sets. Every mutation is a single
// sorted-set command, so repeating one is harmless.
type Store struct {
	kv kv.Store
}

// New creates a Store.
func New(store kv.Store) (*Store, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	return &Store{kv: store}, nil
}

func entries[T ~string](members []kv.Member) []Entry[T] {
	out := make([]Entry[T], 0, len(members))
	for _, m := range members {
		out = append(out, Entry[T]{ID: T(m.Member), At: temporal.FromScore(m.Score)})
	}
	return out
}

// -----------------------------------------------------------------------------
// User → Things
// -----------------------------------------------------------------------------

// TrackThing records that user authored thing. The first observation wins;
// later calls keep the original timestamp.
func (s *Store) TrackThing(ctx context.Context, user domain.UserID, thing domain.ThingID, at time.Time) error {
	err := s.kv.ZAddNX(ctx, UserKey(user), kv.Member{Member: thing.String(), Score: temporal.Score(at)})
	if err != nil {
		return fmt.Errorf("tracking %s for %s: %w", thing, user, err)
	}
	return nil
}

// Things returns every tracked thing of user, oldest first.
func (s *Store) Things(ctx context.Context, user domain.UserID) ([]Entry[domain.ThingID], error) {
	members, err := s.kv.ZRange(ctx, UserKey(user))
	if err != nil {
		return nil, fmt.Errorf("reading things of %s: %w", user, err)
	}
	return entries[domain.ThingID](members), nil
}

// DeleteThings drops the user's authored-things set.
func (s *Store) DeleteThings(ctx context.Context, user domain.UserID) error {
	if err := s.kv.Del(ctx, UserKey(user)); err != nil {
		return fmt.Errorf("deleting things of %s: %w", user, err)
	}
	return nil
}

// TrackedUsers lists every user with an authored-things set.
func (s *Store) TrackedUsers(ctx context.Context) ([]domain.UserID, error) {
	keys, err := s.kv.Scan(ctx, userPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("scanning tracked users: %w", err)
	}
	users := make([]domain.UserID, 0, len(keys))
	for _, k := range keys {
		users = append(users, domain.UserID(strings.TrimPrefix(k, userPrefix)))
	}
	return users, nil
}

// -----------------------------------------------------------------------------
// Thing → Extract ids
// -----------------------------------------------------------------------------

// AddExtract associates a published record with the thing it describes.
func (s *Store) AddExtract(ctx context.Context, thing domain.ThingID, extract domain.LinkID, at time.Time) error {
	err := s.kv.ZAdd(ctx, ModActionsKey(thing), kv.Member{Member: extract.String(), Score: temporal.Score(at)})
	if err != nil {
		return fmt.Errorf("adding extract %s to %s: %w", extract, thing, err)
	}
	return nil
}

// Extracts returns every record published about thing, oldest first.
func (s *Store) Extracts(ctx context.Context, thing domain.ThingID) ([]Entry[domain.LinkID], error) {
	members, err := s.kv.ZRange(ctx, ModActionsKey(thing))
	if err != nil {
		return nil, fmt.Errorf("reading extracts of %s: %w", thing, err)
	}
	return entries[domain.LinkID](members), nil
}

// DeleteExtracts drops the thing's published-records set.
func (s *Store) DeleteExtracts(ctx context.Context, thing domain.ThingID) error {
	if err := s.kv.Del(ctx, ModActionsKey(thing)); err != nil {
		return fmt.Errorf("deleting extracts of %s: %w", thing, err)
	}
	return nil
}

// -----------------------------------------------------------------------------
// Compliance candidates
// -----------------------------------------------------------------------------

// AddCandidate queues user for a liveness check at due. A user already queued
// keeps the earlier due time.
func (s *Store) AddCandidate(ctx context.Context, user domain.UserID, due time.Time) error {
	err := s.kv.ZAddNX(ctx, CandidatesKey, kv.Member{Member: user.String(), Score: temporal.Score(due)})
	if err != nil {
		return fmt.Errorf("queueing candidate %s: %w", user, err)
	}
	return nil
}

// RenewCandidates moves every user's next check to due.
func (s *Store) RenewCandidates(ctx context.Context, due time.Time, users ...domain.UserID) error {
	if len(users) == 0 {
		return nil
	}
	members := make([]kv.Member, 0, len(users))
	for _, u := range users {
		members = append(members, kv.Member{Member: u.String(), Score: temporal.Score(due)})
	}
	if err := s.kv.ZAdd(ctx, CandidatesKey, members...); err != nil {
		return fmt.Errorf("renewing %d candidates: %w", len(users), err)
	}
	return nil
}

// DueCandidates returns candidates due at or before now, earliest first.
func (s *Store) DueCandidates(ctx context.Context, now time.Time) ([]Entry[domain.UserID], error) {
	members, err := s.kv.ZRangeByScore(ctx, CandidatesKey, temporal.Score(now))
	if err != nil {
		return nil, fmt.Errorf("reading due candidates: %w", err)
	}
	return entries[domain.UserID](members), nil
}

// RemoveCandidates takes users out of the candidate set.
func (s *Store) RemoveCandidates(ctx context.Context, users ...domain.UserID) error {
	if len(users) == 0 {
		return nil
	}
	members := make([]string, 0, len(users))
	for _, u := range users {
		members = append(members, u.String())
	}
	if _, err := s.kv.ZRem(ctx, CandidatesKey, members...); err != nil {
		return fmt.Errorf("removing %d candidates: %w", len(users), err)
	}
	return nil
}

// IsCandidate reports whether user is queued.
func (s *Store) IsCandidate(ctx context.Context, user domain.UserID) (bool, error) {
	_, ok, err := s.kv.ZScore(ctx, CandidatesKey, user.String())
	if err != nil {
		return false, fmt.Errorf("checking candidate %s: %w", user, err)
	}
	return ok, nil
}
