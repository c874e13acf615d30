package content

//go:generate mockgen -source=provider.go -destination=mocks/mocks.go -package=mocks Provider

import (
	"context"

	"openmod/pkg/domain"
)

// Provider is the identity/content collaborator.
//
// Lookups return an error wrapping sentinel.ErrNotFound for deleted,
// suspended or nonexistent entities. That error is the designed "gone"
// signal, not a fault.
type Provider interface {
	GetUserByID(ctx context.Context, id domain.UserID) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetPostByID(ctx context.Context, id domain.LinkID) (*Post, error)
	GetCommentByID(ctx context.Context, id domain.CommentID) (*Comment, error)
	SubmitPost(ctx context.Context, community, title, body string) (*Post, error)
	EditPost(ctx context.Context, id domain.LinkID, body string) error
}
