package sentinel

import "errors"

// Sentinel errors for infrastructure and pipeline facts. Stores, caches and
// collaborators return these (optionally wrapped) so callers can branch with
// errors.Is instead of matching strings.
//
// - ErrNotFound: the entity is gone and no cached snapshot exists
// - ErrMalformedEvent: an inbound event lacks a required field
// - ErrActorResolution: a legacy record names a moderator that cannot be resolved
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: service or resource temporarily unavailable
var (
	ErrNotFound        = errors.New("not found")
	ErrMalformedEvent  = errors.New("malformed event")
	ErrActorResolution = errors.New("actor resolution failed")
	ErrInvalidState    = errors.New("invalid state")
	ErrUnavailable     = errors.New("unavailable")
)
