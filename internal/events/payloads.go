package events

import (
	"encoding/json"
	"fmt"
	"time"

	"openmod/internal/cache"
	"openmod/internal/disclosure"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// ContentKind distinguishes the three content events.
type ContentKind string

const (
	ContentSubmit ContentKind = "submit"
	ContentUpdate ContentKind = "update"
	ContentDelete ContentKind = "delete"
)

// SourceUser marks a deletion made by the author.
const SourceUser = "user"

// ContentEvent is a decoded submit, update or delete.
type ContentEvent struct {
	Kind  ContentKind
	Thing domain.ThingID
	// UserInitiated is set on deletions the author made.
	UserInitiated bool
	Author        *cache.User
	Post          *cache.Post
	Comment       *cache.Comment
	At            time.Time
}

type actorPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type refPayload struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
}

type modActionPayload struct {
	Moderator     actorPayload `json:"moderator"`
	Action        string       `json:"action"`
	TargetUser    actorPayload `json:"targetUser"`
	TargetPost    refPayload   `json:"targetPost"`
	TargetComment refPayload   `json:"targetComment"`
	ActionedAt    time.Time    `json:"actionedAt"`
	Details       string       `json:"details,omitempty"`
}

type postPayload struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`
}

type commentPayload struct {
	ID        string `json:"id"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`
}

type contentPayload struct {
	Event        string          `json:"event"`
	Source       string          `json:"source,omitempty"`
	Author       *actorPayload   `json:"author,omitempty"`
	Post         *postPayload    `json:"post,omitempty"`
	Comment      *commentPayload `json:"comment,omitempty"`
	PreviousBody *string         `json:"previousBody,omitempty"`
	EventAt      time.Time       `json:"eventAt"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel.ErrMalformedEvent)
}

// optionalID parses a possibly empty id and checks its tag.
func optionalID(raw string, want domain.Kind) (domain.ThingID, error) {
	if raw == "" {
		return "", nil
	}
	id, err := domain.ParseThingID(raw)
	if err != nil {
		return "", malformed("id %q", raw)
	}
	if id.Kind() != want {
		return "", malformed("id %q is not a %s", raw, want)
	}
	return id, nil
}

// DecodeModAction parses a moderation action message.
func DecodeModAction(raw []byte) (*disclosure.ModAction, error) {
	var p modActionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("mod action payload: %v", err)
	}

	moderator, err := optionalID(p.Moderator.ID, domain.KindUser)
	if err != nil {
		return nil, err
	}
	target, err := optionalID(p.TargetUser.ID, domain.KindUser)
	if err != nil {
		return nil, err
	}
	post, err := optionalID(p.TargetPost.ID, domain.KindLink)
	if err != nil {
		return nil, err
	}
	comment, err := optionalID(p.TargetComment.ID, domain.KindComment)
	if err != nil {
		return nil, err
	}

	return &disclosure.ModAction{
		Moderator:     disclosure.Actor{ID: domain.UserID(moderator), Name: p.Moderator.Name},
		Action:        p.Action,
		TargetUser:    disclosure.Actor{ID: domain.UserID(target), Name: p.TargetUser.Name},
		TargetPost:    disclosure.PostRef{ID: domain.LinkID(post), Permalink: p.TargetPost.Permalink},
		TargetComment: disclosure.CommentRef{ID: domain.CommentID(comment), Permalink: p.TargetComment.Permalink},
		ActionedAt:    p.ActionedAt,
		Details:       p.Details,
	}, nil
}

// DecodeContent parses a content message. A submit carrying the previous
// body is an update.
func DecodeContent(raw []byte) (*ContentEvent, error) {
	var p contentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, malformed("content payload: %v", err)
	}

	ev := &ContentEvent{At: p.EventAt}
	switch p.Event {
	case "submit":
		ev.Kind = ContentSubmit
		if p.PreviousBody != nil {
			ev.Kind = ContentUpdate
		}
	case "delete":
		ev.Kind = ContentDelete
		ev.UserInitiated = p.Source == SourceUser
	default:
		return nil, malformed("content event %q", p.Event)
	}

	var author domain.UserID
	if p.Author != nil {
		id, err := optionalID(p.Author.ID, domain.KindUser)
		if err != nil {
			return nil, err
		}
		author = domain.UserID(id)
		if !author.IsNil() {
			ev.Author = &cache.User{ID: author, Username: p.Author.Name}
		}
	}

	switch {
	case p.Comment != nil:
		id, err := optionalID(p.Comment.ID, domain.KindComment)
		if err != nil {
			return nil, err
		}
		ev.Thing = id
		ev.Comment = &cache.Comment{
			ID:        domain.CommentID(id),
			Author:    author,
			Body:      p.Comment.Body,
			Permalink: p.Comment.Permalink,
		}
	case p.Post != nil:
		id, err := optionalID(p.Post.ID, domain.KindLink)
		if err != nil {
			return nil, err
		}
		ev.Thing = id
		ev.Post = &cache.Post{
			ID:        domain.LinkID(id),
			Author:    author,
			Title:     p.Post.Title,
			URL:       p.Post.URL,
			Body:      p.Post.Body,
			Permalink: p.Post.Permalink,
		}
	}
	if ev.Thing.IsNil() {
		return nil, malformed("content event names no thing")
	}
	return ev, nil
}
