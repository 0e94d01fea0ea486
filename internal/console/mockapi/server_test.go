package mockapi_test

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/stockroom/internal/console/mockapi"
	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

func newServer(t *testing.T, cfg mockapi.Config) (*mockapi.Server, *invsdk.Client, *invsdk.MemoryTokenStore) {
	t.Helper()

	cfg.Seed = true
	cfg.Logger = slogx.Discard()
	api, err := mockapi.New(cfg)
	require.NoError(t, err)

	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	tokens := invsdk.NewMemoryTokenStore()
	client := invsdk.NewClient(ts.URL, tokens, invsdk.WithHTTPClient(ts.Client()), invsdk.WithLogger(slogx.Discard()))
	return api, client, tokens
}

func login(t *testing.T, c *invsdk.Client, username string) {
	t.Helper()
	_, err := c.Login(context.Background(), username, "password")
	require.NoError(t, err)
}

func TestLoginAndMe(t *testing.T) {
	t.Parallel()

	_, client, tokens := newServer(t, mockapi.Config{})

	_, err := client.Login(context.Background(), "test.user", "wrong")
	require.ErrorIs(t, err, invsdk.ErrInvalidCredentials)
	require.Empty(t, tokens.Get(invsdk.TokenAccess))

	login(t, client, "test.user")
	me, err := client.Me(context.Background())
	require.NoError(t, err)
	require.Equal(t, "test.user", me.Username)
	require.Equal(t, "manager", me.Role)
	require.True(t, me.HasPerm("inventory.change_item"))
	require.False(t, me.HasPerm("users.change_user"))
}

func TestExpiredAccessIsRefreshed(t *testing.T) {
	t.Parallel()

	api, client, tokens := newServer(t, mockapi.Config{RotateRefresh: true})
	login(t, client, "test.user")
	before := tokens.Get(invsdk.TokenRefresh)

	api.ExpireAccessTokens()
	items, err := client.ListItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, int64(1), api.RefreshCalls())
	require.NotEqual(t, before, tokens.Get(invsdk.TokenRefresh), "refresh token rotated")

	// The rotated-out refresh token is blacklisted.
	tokens.Set(invsdk.TokenRefresh, before)
	_, err = client.Refresh(context.Background())
	require.ErrorIs(t, err, invsdk.ErrRefreshExpired)
}

func TestConcurrentUnauthorizedShareOneRefresh(t *testing.T) {
	t.Parallel()

	const callers = 10

	api, client, _ := newServer(t, mockapi.Config{})
	login(t, client, "test.user")
	api.ExpireAccessTokens()
	api.HoldRefresh(callers)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = client.Me(context.Background())
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, int64(1), api.RefreshCalls())
	require.Equal(t, int64(callers), api.Unauthorized())
}

func TestRefreshOutageClearsSession(t *testing.T) {
	t.Parallel()

	api, client, tokens := newServer(t, mockapi.Config{})
	login(t, client, "test.user")
	api.ExpireAccessTokens()
	api.FailRefresh(1)

	var events []invsdk.Event
	client.Events.Subscribe(func(ev invsdk.Event) { events = append(events, ev) })

	_, err := client.Me(context.Background())
	var netErr *invsdk.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Empty(t, tokens.Get(invsdk.TokenAccess))
	require.Empty(t, tokens.Get(invsdk.TokenRefresh))
	require.Equal(t, []invsdk.Event{invsdk.EventUnauthorized}, events)
}

func TestItemLifecycle(t *testing.T) {
	t.Parallel()

	api, client, _ := newServer(t, mockapi.Config{})
	login(t, client, "test.user")
	ctx := context.Background()

	cats, err := client.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)

	created, err := client.CreateItem(ctx, invsdk.ItemWrite{Name: "Wrench", Price: "12.00", LowStockThreshold: 2, CategoryID: cats[0].ID})
	require.NoError(t, err)
	require.Equal(t, "Tools", created.Category.Name)
	require.Equal(t, "12.00", created.Price.String())

	tx, err := client.AdjustStock(ctx, created.ID, invsdk.AdjustStockRequest{Delta: 4, Reason: "init"})
	require.NoError(t, err)
	require.Equal(t, "test.user", tx.PerformedByUsername)
	qty, _ := api.Quantity(created.ID)
	require.Equal(t, 4, qty)

	_, err = client.AdjustStock(ctx, created.ID, invsdk.AdjustStockRequest{Delta: -10})
	var verr *invsdk.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Error(), "Only 4 available")

	updated, err := client.UpdateItem(ctx, created.ID, invsdk.ItemWrite{Name: "Big Wrench", Price: "15.00", CategoryID: cats[0].ID})
	require.NoError(t, err)
	require.Equal(t, "Big Wrench", updated.Name)

	items, err := client.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 4)

	require.NoError(t, client.DeleteItem(ctx, created.ID))
	items, err = client.ListItems(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, 4, client.InvalidationCount("items"))

	err = client.DeleteItem(ctx, created.ID)
	var apiErr *invsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 404, apiErr.StatusCode)
}

func TestBulkAdjustIsAllOrNothing(t *testing.T) {
	t.Parallel()

	api, client, _ := newServer(t, mockapi.Config{})
	login(t, client, "test.user")
	ctx := context.Background()

	items, err := client.ListItems(ctx)
	require.NoError(t, err)
	hammer := items[0]

	_, err = client.BulkAdjustStock(ctx, invsdk.BulkAdjustRequest{
		Adjustments: []invsdk.Adjustment{{Item: hammer.ID, Delta: 1}, {Item: 999, Delta: 1}},
		Reason:      "csv",
	})
	var verr *invsdk.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, map[int]string{1: `Invalid pk "999" - object does not exist.`}, verr.IndexedErrors("adjustments"))
	qty, _ := api.Quantity(hammer.ID)
	require.Equal(t, hammer.Quantity, qty)

	txs, err := client.BulkAdjustStock(ctx, invsdk.BulkAdjustRequest{
		Adjustments: []invsdk.Adjustment{{Item: hammer.ID, Delta: 5}, {Item: hammer.ID, Delta: -2}},
		Reason:      "csv",
	})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	require.Equal(t, "csv", txs[0].Reason)
	qty, _ = api.Quantity(hammer.ID)
	require.Equal(t, hammer.Quantity+3, qty)
}

func TestRoleGates(t *testing.T) {
	t.Parallel()

	_, viewer, _ := newServer(t, mockapi.Config{})
	login(t, viewer, "viewer")
	ctx := context.Background()

	_, err := viewer.ListItems(ctx)
	require.NoError(t, err)

	_, err = viewer.BulkAdjustStock(ctx, invsdk.BulkAdjustRequest{Adjustments: []invsdk.Adjustment{{Item: 3, Delta: 1}}})
	var apiErr *invsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 403, apiErr.StatusCode)

	_, err = viewer.ListUsers(ctx)
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, 403, apiErr.StatusCode)

	api, admin, _ := newServer(t, mockapi.Config{})
	login(t, admin, "admin")
	users, err := admin.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	_, err = admin.SetUserRole(ctx, users[2].ID, "manager")
	require.NoError(t, err)
	require.Equal(t, 1, admin.InvalidationCount("users"))

	role, _ := api.Role(users[2].ID)
	require.Equal(t, "manager", role)
}
