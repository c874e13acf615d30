package reddit

import (
	"context"
	"fmt"
	"strings"

	"openmod/internal/content"
	"openmod/pkg/domain"
)

type jsonReply struct {
	JSON struct {
		Errors [][]any `json:"errors"`
		Data   struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"data"`
	} `json:"json"`
}

func (r *jsonReply) err() error {
	if len(r.JSON.Errors) == 0 {
		return nil
	}
	parts := make([]string, 0, len(r.JSON.Errors))
	for _, e := range r.JSON.Errors {
		parts = append(parts, fmt.Sprint(e...))
	}
	return fmt.Errorf("reddit rejected request: %s", strings.Join(parts, "; "))
}

// SubmitPost publishes a self post to community.
func (c *Client) SubmitPost(ctx context.Context, community, title, body string) (*content.Post, error) {
	req, err := c.r(ctx)
	if err != nil {
		return nil, err
	}
	res, err := req.
		SetFormData(map[string]string{
			"api_type": "json",
			"kind":     "self",
			"sr":       community,
			"title":    title,
			"text":     body,
		}).
		SetResult(&jsonReply{}).
		Post(submitPath)
	if err := c.check(res, err, "submit to "+community); err != nil {
		return nil, err
	}

	reply := res.Result().(*jsonReply)
	if err := reply.err(); err != nil {
		return nil, err
	}
	return &content.Post{
		ID:    domain.LinkID(reply.JSON.Data.Name),
		Title: title,
		URL:   reply.JSON.Data.URL,
		Body:  body,
	}, nil
}

// EditPost replaces the body of a self post.
func (c *Client) EditPost(ctx context.Context, id domain.LinkID, body string) error {
	req, err := c.r(ctx)
	if err != nil {
		return err
	}
	res, err := req.
		SetFormData(map[string]string{
			"api_type": "json",
			"thing_id": id.String(),
			"text":     body,
		}).
		SetResult(&jsonReply{}).
		Post(editPath)
	if err := c.check(res, err, "edit "+id.String()); err != nil {
		return err
	}
	return res.Result().(*jsonReply).err()
}
