package invsdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Refresh exchanges the stored refresh token for a new access token, stores
// it and returns it.
//
// Concurrent callers share one call to the refresh endpoint. Every failure
// clears both tokens and publishes EventUnauthorized once per shared call:
// ErrNoRefreshToken when none is stored, ErrRefreshExpired when the API
// rejects it, *NetworkError for anything else. A caller whose ctx ends stops
// waiting; the shared call still completes and still publishes.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refreshFrom(ctx, c.Tokens.Get(TokenAccess))
}

// refreshFrom refreshes on behalf of a request that was rejected while
// carrying the access token sent. Callers that saw the same token share one
// flight; a caller arriving after the token was already replaced gets the new
// one without another network call.
func (c *Client) refreshFrom(ctx context.Context, sent string) (string, error) {
	ch := c.refreshGroup.DoChan("refresh:"+sent, func() (any, error) {
		rctx := context.WithoutCancel(ctx)
		if c.RefreshTimeout > 0 {
			var cancel context.CancelFunc
			rctx, cancel = context.WithTimeout(rctx, c.RefreshTimeout)
			defer cancel()
		}
		token, err := c.refresh(rctx, sent)
		if err != nil {
			c.cache.reset()
			c.Events.Publish(EventUnauthorized)
			return nil, err
		}
		return token, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) refresh(ctx context.Context, sent string) (string, error) {
	if current := c.Tokens.Get(TokenAccess); current != "" && current != sent {
		return current, nil
	}

	refreshToken := c.Tokens.Get(TokenRefresh)
	if refreshToken == "" {
		c.Tokens.Clear()
		return "", ErrNoRefreshToken
	}

	payload, err := encodeBody(refreshRequest{Refresh: refreshToken})
	if err != nil {
		c.Tokens.Clear()
		return "", err
	}

	resp, err := c.send(ctx, http.MethodPost, "/api/token/refresh/", payload, "")
	if err != nil {
		c.Tokens.Clear()
		return "", err
	}

	var out refreshResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		c.Tokens.Clear()
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			if apiErr.Detail != "" {
				return "", fmt.Errorf("%w: %s", ErrRefreshExpired, apiErr.Detail)
			}
			return "", ErrRefreshExpired
		}
		var netErr *NetworkError
		if errors.As(err, &netErr) {
			return "", err
		}
		return "", &NetworkError{Op: "refresh", Err: err}
	}

	if out.Access == "" {
		c.Tokens.Clear()
		return "", &NetworkError{Op: "refresh", Err: errors.New("response carried no access token")}
	}

	c.Tokens.Set(TokenAccess, out.Access)
	c.Tokens.Set(TokenRefresh, out.Refresh)
	c.Logger.Debug("access token refreshed", "rotated", out.Refresh != "")

	return out.Access, nil
}
