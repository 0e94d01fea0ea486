package invsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// ListUsers returns every application user. The endpoint answers either with
// a page envelope or a plain list depending on server pagination settings;
// both are accepted. Results are cached until a role change.
func (c *Client) ListUsers(ctx context.Context) ([]AppUser, error) {
	return cachedList(c.cache, cacheUsers, func() ([]AppUser, error) {
		resp, err := c.do(ctx, http.MethodGet, "/api/users/", nil)
		if err != nil {
			return nil, err
		}

		var raw json.RawMessage
		if err := decodeJSON(resp, &raw, http.StatusOK); err != nil {
			return nil, err
		}

		if bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			var users []AppUser
			if err := json.Unmarshal(raw, &users); err != nil {
				return nil, fmt.Errorf("failed to decode users: %w", err)
			}
			return users, nil
		}

		var page Page[AppUser]
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("failed to decode users: %w", err)
		}
		if page.Next == nil {
			return page.Results, nil
		}
		// More than one page: walk them with the generic pager.
		return listAll[AppUser](ctx, c, "/api/users/")
	})
}

// SetUserRole assigns role to the user with the given id.
func (c *Client) SetUserRole(ctx context.Context, userID int64, role string) (*SetRoleResponse, error) {
	if err := c.validate.Var(role, "required,oneof=admin manager viewer"); err != nil {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}

	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/users/%d/set-role/", userID), setRoleRequest{Role: role})
	if err != nil {
		return nil, err
	}

	var out SetRoleResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}

	c.cache.invalidate(cacheUsers)
	return &out, nil
}
