// Package extract models the persisted "who did what to whom" record behind
// every published moderation post, and migrates the legacy record shape on
// read.
package extract

import (
	"fmt"

	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// ActionType is a moderation action as named by the platform.
type ActionType string

const (
	RemoveLink     ActionType = "removelink"
	SpamLink       ActionType = "spamlink"
	ApproveLink    ActionType = "approvelink"
	RemoveComment  ActionType = "removecomment"
	SpamComment    ActionType = "spamcomment"
	ApproveComment ActionType = "approvecomment"
	BanUser        ActionType = "banuser"
	UnbanUser      ActionType = "unbanuser"
	MuteUser       ActionType = "muteuser"
	UnmuteUser     ActionType = "unmuteuser"
)

// Kind is the record variant an action type maps to.
type Kind string

const (
	// KindLink carries a target user and a post.
	KindLink Kind = "link"
	// KindComment carries a target user and a comment.
	KindComment Kind = "comment"
	// KindSanction carries a target user and an optional duration.
	KindSanction Kind = "sanction"
	// KindRevocation carries a target user only.
	KindRevocation Kind = "revocation"
)

// Kind returns the variant of a, or "" for actions that cannot be disclosed.
func (a ActionType) Kind() Kind {
	switch a {
	case RemoveLink, SpamLink, ApproveLink:
		return KindLink
	case RemoveComment, SpamComment, ApproveComment:
		return KindComment
	case BanUser, MuteUser:
		return KindSanction
	case UnbanUser, UnmuteUser:
		return KindRevocation
	}
	return ""
}

// Supported reports whether a maps to a record variant.
func (a ActionType) Supported() bool { return a.Kind() != "" }

// Extract is the current record shape. Which of Link, Comment and Length are
// meaningful is decided by Type.Kind(); the others stay zero.
type Extract struct {
	Type    ActionType
	Actor   domain.UserID
	Target  domain.UserID
	Link    domain.LinkID
	Comment domain.CommentID
	Length  string
}

// HasTarget reports whether the variant names a target user.
func (x *Extract) HasTarget() bool {
	switch x.Type.Kind() {
	case KindLink, KindComment, KindSanction, KindRevocation:
		return true
	}
	return false
}

// HasLink reports whether the variant names a post.
func (x *Extract) HasLink() bool { return x.Type.Kind() == KindLink }

// HasComment reports whether the variant names a comment.
func (x *Extract) HasComment() bool { return x.Type.Kind() == KindComment }

// Thing returns the entity the action was taken on: the post, the comment,
// or for user actions the target account.
func (x *Extract) Thing() domain.ThingID {
	switch {
	case x.HasLink():
		return x.Link.Thing()
	case x.HasComment():
		return x.Comment.Thing()
	case x.HasTarget():
		return x.Target.Thing()
	}
	return ""
}

// Validate checks that the fields required by the variant are present.
func (x *Extract) Validate() error {
	if x.Actor.IsNil() {
		return fmt.Errorf("extract %s without actor: %w", x.Type, sentinel.ErrInvalidState)
	}
	switch x.Type.Kind() {
	case "":
		return fmt.Errorf("unsupported action %q: %w", x.Type, sentinel.ErrInvalidState)
	case KindLink:
		if x.Link.IsNil() {
			return fmt.Errorf("extract %s without link: %w", x.Type, sentinel.ErrInvalidState)
		}
	case KindComment:
		if x.Comment.IsNil() {
			return fmt.Errorf("extract %s without comment: %w", x.Type, sentinel.ErrInvalidState)
		}
	}
	if x.Target.IsNil() {
		return fmt.Errorf("extract %s without target: %w", x.Type, sentinel.ErrInvalidState)
	}
	return nil
}

// Legacy is the first-generation record shape: the actor is a username and
// the acted-upon thing is stored raw.
type Legacy struct {
	Type      ActionType
	Actor     string
	ThingID   domain.ThingID
	Permalink string
	CreatedAt string
}
