// Package contenttest provides an in-memory content provider for tests that
// exercise several pipeline stages together.
package contenttest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"openmod/internal/content"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

// Submission is a post published through the fake.
type Submission struct {
	ID        domain.LinkID
	Community string
	Title     string
	Body      string
	Edits     []string
}

// Fake is a thread-safe in-memory Provider.
type Fake struct {
	mu          sync.Mutex
	users       map[domain.UserID]*content.User
	posts       map[domain.LinkID]*content.Post
	comments    map[domain.CommentID]*content.Comment
	submissions map[domain.LinkID]*Submission
	order       []domain.LinkID
	failing     map[domain.UserID]error
	calls       map[string]int
	nextID      int
}

// NewFake creates an empty provider.
func NewFake() *Fake {
	return &Fake{
		users:       make(map[domain.UserID]*content.User),
		posts:       make(map[domain.LinkID]*content.Post),
		comments:    make(map[domain.CommentID]*content.Comment),
		submissions: make(map[domain.LinkID]*Submission),
		failing:     make(map[domain.UserID]error),
		calls:       make(map[string]int),
	}
}

// AddUser registers a live account.
func (f *Fake) AddUser(u content.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = &u
}

// AddPost registers a live post.
func (f *Fake) AddPost(p content.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[p.ID] = &p
}

// AddComment registers a live comment.
func (f *Fake) AddComment(c content.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[c.ID] = &c
}

// RemoveUser makes the account unresolvable.
func (f *Fake) RemoveUser(id domain.UserID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.users, id)
}

// RemovePost makes the post unresolvable.
func (f *Fake) RemovePost(id domain.LinkID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.posts, id)
}

// FailUser makes lookups of id return err instead of a result. A nil err
// clears the failure.
func (f *Fake) FailUser(id domain.UserID, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failing, id)
		return
	}
	f.failing[id] = err
}

// Submissions returns published posts in publish order.
func (f *Fake) Submissions() []Submission {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Submission, 0, len(f.order))
	for _, id := range f.order {
		s := *f.submissions[id]
		s.Edits = append([]string(nil), s.Edits...)
		out = append(out, s)
	}
	return out
}

// Submission returns one published post.
func (f *Fake) Submission(id domain.LinkID) (Submission, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.submissions[id]
	if !ok {
		return Submission{}, false
	}
	out := *s
	out.Edits = append([]string(nil), s.Edits...)
	return out, true
}

// Calls reports how often method was invoked.
func (f *Fake) Calls(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *Fake) GetUserByID(_ context.Context, id domain.UserID) (*content.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetUserByID"]++

	if err, ok := f.failing[id]; ok {
		return nil, err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
	}
	out := *u
	return &out, nil
}

func (f *Fake) GetUserByUsername(_ context.Context, username string) (*content.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetUserByUsername"]++

	for _, u := range f.users {
		if strings.EqualFold(u.Username, username) {
			out := *u
			return &out, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, sentinel.ErrNotFound)
}

func (f *Fake) GetPostByID(_ context.Context, id domain.LinkID) (*content.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetPostByID"]++

	p, ok := f.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %s: %w", id, sentinel.ErrNotFound)
	}
	out := *p
	return &out, nil
}

func (f *Fake) GetCommentByID(_ context.Context, id domain.CommentID) (*content.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["GetCommentByID"]++

	c, ok := f.comments[id]
	if !ok {
		return nil, fmt.Errorf("comment %s: %w", id, sentinel.ErrNotFound)
	}
	out := *c
	return &out, nil
}

// SubmitPost publishes with sequential ids t3_pub1, t3_pub2, ...
func (f *Fake) SubmitPost(_ context.Context, community, title, body string) (*content.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["SubmitPost"]++

	f.nextID++
	id := domain.LinkID("t3_pub" + strconv.Itoa(f.nextID))
	f.submissions[id] = &Submission{ID: id, Community: community, Title: title, Body: body}
	f.order = append(f.order, id)
	return &content.Post{ID: id, Title: title, Body: body}, nil
}

func (f *Fake) EditPost(_ context.Context, id domain.LinkID, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["EditPost"]++

	s, ok := f.submissions[id]
	if !ok {
		return fmt.Errorf("post %s: %w", id, sentinel.ErrNotFound)
	}
	s.Body = body
	s.Edits = append(s.Edits, body)
	return nil
}

var _ content.Provider = (*Fake)(nil)
