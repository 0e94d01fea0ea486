package invsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Login exchanges a username and password for a token pair and stores it.
// The login endpoint is never intercepted: a 401 here is reported as
// ErrInvalidCredentials.
func (c *Client) Login(ctx context.Context, username, password string) (*TokenPair, error) {
	req := LoginRequest{Username: username, Password: password}
	if err := c.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	payload, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/token/", payload, "")
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := decodeJSON(resp, &pair, http.StatusOK); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			if apiErr.Detail != "" {
				return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Detail)
			}
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if pair.Access == "" || pair.Refresh == "" {
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: "login response is missing tokens"}
	}

	c.Tokens.Set(TokenAccess, pair.Access)
	c.Tokens.Set(TokenRefresh, pair.Refresh)
	c.cache.reset()
	c.Events.Publish(EventLogin)

	return &pair, nil
}

// Logout forgets both tokens and every cached list. The API keeps no session
// state, so nothing is sent.
func (c *Client) Logout() {
	c.Tokens.Clear()
	c.cache.reset()
	c.Events.Publish(EventLogout)
}

// Me returns the identity behind the stored access token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/me/", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}

	return &user, nil
}
