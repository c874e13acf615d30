package cache

import (
	"strconv"

	"openmod/pkg/domain"
)

// Type tags the snapshot variant stored under a cache key.
type Type string

const (
	TypeUser    Type = "user"
	TypePost    Type = "post"
	TypeComment Type = "comment"
)

// User is a cached account snapshot.
type User struct {
	ID       domain.UserID
	Username string
	IsAdmin  bool
	IsApp    bool
}

// Post is a cached post snapshot.
type Post struct {
	ID        domain.LinkID
	Author    domain.UserID
	Title     string
	URL       string
	Body      string
	Permalink string
}

// Comment is a cached comment snapshot.
type Comment struct {
	ID        domain.CommentID
	Author    domain.UserID
	Body      string
	Permalink string
}

// Every variant writes its full field set so an HSet merge never leaves
// stale fields behind.

func (u *User) fields() map[string]string {
	return map[string]string{
		"type":     string(TypeUser),
		"username": u.Username,
		"isAdmin":  strconv.FormatBool(u.IsAdmin),
		"isApp":    strconv.FormatBool(u.IsApp),
	}
}

func (p *Post) fields() map[string]string {
	return map[string]string{
		"type":      string(TypePost),
		"author":    p.Author.String(),
		"title":     p.Title,
		"url":       p.URL,
		"body":      p.Body,
		"permalink": p.Permalink,
	}
}

func (c *Comment) fields() map[string]string {
	return map[string]string{
		"type":      string(TypeComment),
		"author":    c.Author.String(),
		"body":      c.Body,
		"permalink": c.Permalink,
	}
}

func userFrom(id domain.UserID, f map[string]string) *User {
	admin, _ := strconv.ParseBool(f["isAdmin"])
	app, _ := strconv.ParseBool(f["isApp"])
	return &User{ID: id, Username: f["username"], IsAdmin: admin, IsApp: app}
}

func postFrom(id domain.LinkID, f map[string]string) *Post {
	return &Post{
		ID:        id,
		Author:    domain.UserID(f["author"]),
		Title:     f["title"],
		URL:       f["url"],
		Body:      f["body"],
		Permalink: f["permalink"],
	}
}

func commentFrom(id domain.CommentID, f map[string]string) *Comment {
	return &Comment{
		ID:        id,
		Author:    domain.UserID(f["author"]),
		Body:      f["body"],
		Permalink: f["permalink"],
	}
}
