package reddit

import (
	"context"
	"fmt"

	"openmod/internal/content"
	"openmod/pkg/domain"
	"openmod/pkg/platform/sentinel"
)

type about struct {
	Kind string `json:"kind"`
	Data struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		IsEmployee  bool   `json:"is_employee"`
		IsSuspended bool   `json:"is_suspended"`
		IsApp       bool   `json:"is_app"`
	} `json:"data"`
}

type accountData struct {
	Name string `json:"name"`
}

// GetUserByUsername resolves a live account. Suspended accounts are gone.
func (c *Client) GetUserByUsername(ctx context.Context, username string) (*content.User, error) {
	req, err := c.r(ctx)
	if err != nil {
		return nil, err
	}
	res, err := req.
		SetPathParam("username", username).
		SetResult(&about{}).
		Get(aboutPath)
	if err := c.check(res, err, "user "+username); err != nil {
		return nil, err
	}

	a := res.Result().(*about)
	if a.Data.ID == "" || a.Data.IsSuspended {
		return nil, fmt.Errorf("user %s: %w", username, sentinel.ErrNotFound)
	}
	return &content.User{
		ID:       domain.UserID(string(domain.KindUser) + "_" + a.Data.ID),
		Username: a.Data.Name,
		IsAdmin:  a.Data.IsEmployee,
		IsApp:    a.Data.IsApp,
	}, nil
}

// GetUserByID resolves the username for id and then the full account.
func (c *Client) GetUserByID(ctx context.Context, id domain.UserID) (*content.User, error) {
	req, err := c.r(ctx)
	if err != nil {
		return nil, err
	}
	res, err := req.
		SetQueryParam("ids", id.String()).
		SetResult(&map[string]accountData{}).
		Get(accountsPath)
	if err := c.check(res, err, "user "+id.String()); err != nil {
		return nil, err
	}

	accounts := *res.Result().(*map[string]accountData)
	acct, ok := accounts[id.String()]
	if !ok || acct.Name == "" {
		return nil, fmt.Errorf("user %s: %w", id, sentinel.ErrNotFound)
	}

	user, err := c.GetUserByUsername(ctx, acct.Name)
	if err != nil {
		return nil, err
	}
	user.ID = id
	return user, nil
}
