// Package domain holds the identifier types shared by every openmod package.
//
// Platform things are addressed by a type-tagged id: "t1_" for comments,
// "t2_" for accounts and "t3_" for posts. The tag never changes for a given
// id and decides which cache snapshot and extract variant applies to it.
package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"openmod/pkg/platform/sentinel"
)

// Kind is the type tag carried by a ThingID.
type Kind string

const (
	KindComment Kind = "t1"
	KindUser    Kind = "t2"
	KindLink    Kind = "t3"
)

const maxIDLength = 64

// ThingID is any tagged platform identifier.
type ThingID string

// CommentID identifies a comment (t1_).
type CommentID string

// UserID identifies an account (t2_).
type UserID string

// LinkID identifies a post (t3_).
type LinkID string

// ParseThingID validates the tag prefix and the id body.
func ParseThingID(s string) (ThingID, error) {
	if !utf8.ValidString(s) || len(s) > maxIDLength {
		return "", fmt.Errorf("thing id %q: %w", s, sentinel.ErrInvalidState)
	}
	prefix, body, ok := strings.Cut(s, "_")
	if !ok || body == "" {
		return "", fmt.Errorf("thing id %q has no tag: %w", s, sentinel.ErrInvalidState)
	}
	switch Kind(prefix) {
	case KindComment, KindUser, KindLink:
	default:
		return "", fmt.Errorf("thing id %q has unknown tag %q: %w", s, prefix, sentinel.ErrInvalidState)
	}
	for _, r := range body {
		if !isBase36(r) {
			return "", fmt.Errorf("thing id %q has invalid body: %w", s, sentinel.ErrInvalidState)
		}
	}
	return ThingID(s), nil
}

func isBase36(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z')
}

// Kind returns the tag of the id, or "" when the id is untagged.
func (t ThingID) Kind() Kind {
	prefix, _, ok := strings.Cut(string(t), "_")
	if !ok {
		return ""
	}
	switch k := Kind(prefix); k {
	case KindComment, KindUser, KindLink:
		return k
	}
	return ""
}

func (t ThingID) String() string { return string(t) }

// IsNil reports whether the id is empty.
func (t ThingID) IsNil() bool { return t == "" }

// User narrows the id to a UserID when it carries the account tag.
func (t ThingID) User() (UserID, bool) {
	if t.Kind() != KindUser {
		return "", false
	}
	return UserID(t), true
}

// Link narrows the id to a LinkID when it carries the post tag.
func (t ThingID) Link() (LinkID, bool) {
	if t.Kind() != KindLink {
		return "", false
	}
	return LinkID(t), true
}

// Comment narrows the id to a CommentID when it carries the comment tag.
func (t ThingID) Comment() (CommentID, bool) {
	if t.Kind() != KindComment {
		return "", false
	}
	return CommentID(t), true
}

func (id UserID) String() string    { return string(id) }
func (id UserID) Thing() ThingID    { return ThingID(id) }
func (id UserID) IsNil() bool       { return id == "" }
func (id LinkID) String() string    { return string(id) }
func (id LinkID) Thing() ThingID    { return ThingID(id) }
func (id LinkID) IsNil() bool       { return id == "" }
func (id CommentID) String() string { return string(id) }
func (id CommentID) Thing() ThingID { return ThingID(id) }
func (id CommentID) IsNil() bool    { return id == "" }
