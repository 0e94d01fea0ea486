package invsdk

import (
	"context"
	"fmt"
	"net/http"
)

// maxPages stops a misbehaving server from paging forever.
const maxPages = 1000

// listAll follows the page cursor of a paginated list endpoint.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s?page=%d", path, page), nil)
		if err != nil {
			return nil, err
		}

		var p Page[T]
		if err := decodeJSON(resp, &p, http.StatusOK); err != nil {
			return nil, err
		}
		all = append(all, p.Results...)

		if p.Next == nil || len(p.Results) == 0 {
			return all, nil
		}
	}
	return all, nil
}

// ListItems returns every item. Results are cached until a mutation.
func (c *Client) ListItems(ctx context.Context) ([]Item, error) {
	return cachedList(c.cache, cacheItems, func() ([]Item, error) {
		return listAll[Item](ctx, c, "/api/inventory/items/")
	})
}

// GetItem returns a single item, bypassing the list cache.
func (c *Client) GetItem(ctx context.Context, id int64) (*Item, error) {
	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/inventory/items/%d/", id), nil)
	if err != nil {
		return nil, err
	}

	var item Item
	if err := decodeJSON(resp, &item, http.StatusOK); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem creates an item.
func (c *Client) CreateItem(ctx context.Context, in ItemWrite) (*Item, error) {
	if err := c.validateRequest(in); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/inventory/items/", in)
	if err != nil {
		return nil, err
	}

	var item Item
	if err := decodeJSON(resp, &item, http.StatusCreated, http.StatusOK); err != nil {
		return nil, err
	}

	c.cache.invalidate(cacheItems)
	return &item, nil
}

// UpdateItem replaces an item.
func (c *Client) UpdateItem(ctx context.Context, id int64, in ItemWrite) (*Item, error) {
	if err := c.validateRequest(in); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/inventory/items/%d/", id), in)
	if err != nil {
		return nil, err
	}

	var item Item
	if err := decodeJSON(resp, &item, http.StatusOK); err != nil {
		return nil, err
	}

	c.cache.invalidate(cacheItems)
	return &item, nil
}

// DeleteItem deletes an item.
func (c *Client) DeleteItem(ctx context.Context, id int64) error {
	resp, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/inventory/items/%d/", id), nil)
	if err != nil {
		return err
	}
	if err := checkStatus(resp, http.StatusNoContent, http.StatusOK); err != nil {
		return err
	}

	c.cache.invalidate(cacheItems)
	return nil
}

// AdjustStock records a single stock movement for an item.
func (c *Client) AdjustStock(ctx context.Context, id int64, in AdjustStockRequest) (*Transaction, error) {
	if in.Item == 0 {
		in.Item = id
	}
	if err := c.validateRequest(in); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/inventory/items/%d/adjust_stock/", id), in)
	if err != nil {
		return nil, err
	}

	var tx Transaction
	if err := decodeJSON(resp, &tx, http.StatusCreated, http.StatusOK); err != nil {
		return nil, err
	}

	c.cache.invalidate(cacheItems)
	return &tx, nil
}

// BulkAdjustStock posts a batch of adjustments in one request and returns the
// transactions the API created. The API validates the whole batch: field
// errors come back as a *ValidationError indexed by adjustment position.
func (c *Client) BulkAdjustStock(ctx context.Context, in BulkAdjustRequest) ([]Transaction, error) {
	if err := c.validateRequest(in); err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/inventory/items/bulk_adjust_stock/", in)
	if err != nil {
		return nil, err
	}

	var txs []Transaction
	if err := decodeJSON(resp, &txs, http.StatusCreated, http.StatusOK); err != nil {
		return nil, err
	}

	c.cache.invalidate(cacheItems)
	return txs, nil
}

// ListCategories returns every category. Results are cached.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	return cachedList(c.cache, cacheCategories, func() ([]Category, error) {
		return listAll[Category](ctx, c, "/api/inventory/categories/")
	})
}
