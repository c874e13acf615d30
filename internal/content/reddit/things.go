package reddit

import (
	"context"
	"fmt"

	"openmod/internal/content"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

const (
	infoPath      = "/api/info"
	aboutPath     = "/user/{username}/about"
	accountsPath  = "/api/user_data_by_account_ids"
	submitPath    = "/api/submit"
	editPath      = "/api/editusertext"
	deletedAuthor = "[deleted]"
)

type thingData struct {
	Name      string `json:"name"`
	AuthorID  string `json:"author_fullname"`
	Author    string `json:"author"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	SelfText  string `json:"selftext"`
	Body      string `json:"body"`
	Permalink string `json:"permalink"`
	IsSelf    bool   `json:"is_self"`
}

type listing struct {
	Data struct {
		Children []struct {
			Kind string    `json:"kind"`
			Data thingData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

func (c *Client) info(ctx context.Context, id domain.ThingID) (*thingData, error) {
	req, err := c.r(ctx)
	if err != nil {
		return nil, err
	}
	res, err := req.
		SetQueryParam("id", id.String()).
		SetQueryParam("raw_json", "1").
		SetResult(&listing{}).
		Get(infoPath)
	if err := c.check(res, err, "info "+id.String()); err != nil {
		return nil, err
	}

	children := res.Result().(*listing).Data.Children
	if len(children) == 0 || children[0].Data.Name != id.String() {
		return nil, fmt.Errorf("thing %s: %w", id, sentinel.ErrNotFound)
	}
	d := children[0].Data
	if d.Author == deletedAuthor {
		return nil, fmt.Errorf("thing %s deleted: %w", id, sentinel.ErrNotFound)
	}
	return &d, nil
}

func (c *Client) GetPostByID(ctx context.Context, id domain.LinkID) (*content.Post, error) {
	d, err := c.info(ctx, id.Thing())
	if err != nil {
		return nil, err
	}
	post := &content.Post{
		ID:        id,
		AuthorID:  domain.UserID(d.AuthorID),
		Title:     d.Title,
		Body:      d.SelfText,
		Permalink: d.Permalink,
	}
	if !d.IsSelf {
		post.URL = d.URL
	}
	return post, nil
}

func (c *Client) GetCommentByID(ctx context.Context, id domain.CommentID) (*content.Comment, error) {
	d, err := c.info(ctx, id.Thing())
	if err != nil {
		return nil, err
	}
	return &content.Comment{
		ID:        id,
		AuthorID:  domain.UserID(d.AuthorID),
		Body:      d.Body,
		Permalink: d.Permalink,
	}, nil
}
