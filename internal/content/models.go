// Package content describes the identity/content provider openmod reads
// users, posts and comments from and publishes its public record to.
package content

import "openmod/pkg/domain"

// User is a live account as returned by the provider.
type User struct {
	ID       domain.UserID
	Username string
	IsAdmin  bool
	IsApp    bool
}

// Post is a live post as returned by the provider.
type Post struct {
	ID        domain.LinkID
	AuthorID  domain.UserID
	Title     string
	URL       string
	Body      string
	Permalink string
}

// Comment is a live comment as returned by the provider.
type Comment struct {
	ID        domain.CommentID
	AuthorID  domain.UserID
	Body      string
	Permalink string
}
