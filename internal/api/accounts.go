package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for a bearer token. The call itself is
// anonymous; the caller is responsible for persisting the token.
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/login", creds, &resp); err != nil {
		return "", err
	}
	return resp.AccessToken, nil
}

// Register creates a new account. A duplicate username surfaces as a
// ValidationError.
func (c *Client) Register(ctx context.Context, creds Credentials) error {
	return c.doJSON(ctx, http.MethodPost, "/api/register", creds, nil)
}

// Me fetches the authenticated user snapshot.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.doJSON(ctx, http.MethodGet, "/api/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile saves the editable account fields. It does not return the
// updated user; callers re-fetch via Me to observe the change.
func (c *Client) UpdateProfile(ctx context.Context, update ProfileUpdate) error {
	return c.doJSON(ctx, http.MethodPut, "/api/me/update", update, nil)
}
