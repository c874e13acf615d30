package disclosure

import (
	"context"
	"errors"
	"fmt"

	"openmod/internal/cache"
	"openmod/internal/extract"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
	pstrings "openmod/pkg/platform/strings"
)

func containsFold(values []string, target string) bool {
	return pstrings.ContainsFold(values, target)
}

func validate(ev *ModAction) error {
	switch {
	case ev.Moderator.ID.IsNil():
		return fmt.Errorf("mod action without moderator: %w", sentinel.ErrMalformedEvent)
	case ev.Action == "":
		return fmt.Errorf("mod action without action type: %w", sentinel.ErrMalformedEvent)
	case ev.ActionedAt.IsZero():
		return fmt.Errorf("mod action without timestamp: %w", sentinel.ErrMalformedEvent)
	}
	return nil
}

// resolveModerator returns the acting account. Special platform accounts
// cannot be looked up, so their snapshot is written eagerly.
func (s *Service) resolveModerator(ctx context.Context, actor Actor) (*cache.User, error) {
	if special, ok := SpecialAccount(actor.Name); ok {
		u := &cache.User{ID: actor.ID, Username: special.Name, IsAdmin: true}
		if err := s.things.PutUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}
	u, err := s.things.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("resolving moderator %s: %w", actor.ID, err)
	}
	return u, nil
}

// resolveTarget returns the target account. When the account is already gone
// but the event named it, the event's name is captured instead.
func (s *Service) resolveTarget(ctx context.Context, id domain.UserID, named Actor) (*cache.User, error) {
	u, err := s.things.GetUser(ctx, id)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) || named.ID != id || named.Name == "" {
		return nil, fmt.Errorf("resolving target %s: %w", id, err)
	}

	u = &cache.User{ID: id, Username: named.Name}
	if special, ok := SpecialAccount(named.Name); ok {
		u.Username, u.IsAdmin = special.Name, true
	}
	if err := s.things.PutUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// distil builds the record variant for ev. Post and comment targets are the
// cached authors, so the content must still be resolvable.
func (s *Service) distil(ctx context.Context, ev *ModAction, actor domain.UserID) (*extract.Extract, error) {
	x := &extract.Extract{Type: extract.ActionType(ev.Action), Actor: actor}

	switch x.Type.Kind() {
	case extract.KindLink:
		if ev.TargetPost.ID.IsNil() {
			return nil, fmt.Errorf("%s without target post: %w", ev.Action, sentinel.ErrMalformedEvent)
		}
		post, err := s.things.GetPost(ctx, ev.TargetPost.ID)
		if err != nil {
			return nil, err
		}
		x.Link = ev.TargetPost.ID
		x.Target = firstUser(post.Author, ev.TargetUser.ID)
	case extract.KindComment:
		if ev.TargetComment.ID.IsNil() {
			return nil, fmt.Errorf("%s without target comment: %w", ev.Action, sentinel.ErrMalformedEvent)
		}
		comment, err := s.things.GetComment(ctx, ev.TargetComment.ID)
		if err != nil {
			return nil, err
		}
		x.Comment = ev.TargetComment.ID
		x.Target = firstUser(comment.Author, ev.TargetUser.ID)
	case extract.KindSanction, extract.KindRevocation:
		if ev.TargetUser.ID.IsNil() {
			return nil, fmt.Errorf("%s without target user: %w", ev.Action, sentinel.ErrMalformedEvent)
		}
		x.Target = ev.TargetUser.ID
		if x.Type.Kind() == extract.KindSanction {
			x.Length = ev.Details
		}
	}
	return x, nil
}

func firstUser(ids ...domain.UserID) domain.UserID {
	for _, id := range ids {
		if !id.IsNil() {
			return id
		}
	}
	return ""
}

func (s *Service) account(ctx context.Context, id domain.UserID) (Account, error) {
	u, err := s.things.GetUser(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if special, ok := SpecialAccount(u.Username); ok {
		return special, nil
	}
	return Account{Name: u.Username, IsAdmin: u.IsAdmin}, nil
}

// view gathers fresh cached context for x.
func (s *Service) view(ctx context.Context, x *extract.Extract) (View, error) {
	v := View{Action: x.Type, Length: x.Length}

	var err error
	if v.Moderator, err = s.account(ctx, x.Actor); err != nil {
		return View{}, fmt.Errorf("moderator %s: %w", x.Actor, err)
	}
	if v.Author, err = s.account(ctx, x.Target); err != nil {
		return View{}, fmt.Errorf("author %s: %w", x.Target, err)
	}

	switch {
	case x.HasLink():
		post, err := s.things.GetPost(ctx, x.Link)
		if err != nil {
			return View{}, err
		}
		v.Permalink = post.Permalink
	case x.HasComment():
		comment, err := s.things.GetComment(ctx, x.Comment)
		if err != nil {
			return View{}, err
		}
		v.Permalink = comment.Permalink
	}
	return v, nil
}
