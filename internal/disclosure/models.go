package disclosure

import (
	"time"

	"openmod/pkg/domain"
)

// Actor identifies an account as delivered in an event.
type Actor struct {
	ID   domain.UserID
	Name string
}

// PostRef is the post an action targeted.
type PostRef struct {
	ID        domain.LinkID
	Permalink string
}

// CommentRef is the comment an action targeted.
type CommentRef struct {
	ID        domain.CommentID
	Permalink string
}

// ModAction is a moderation action as delivered by the event surface.
type ModAction struct {
	Moderator     Actor
	Action        string
	TargetUser    Actor
	TargetPost    PostRef
	TargetComment CommentRef
	ActionedAt    time.Time
	// Details carries the ban or mute duration when the platform reports one.
	Details string
}
