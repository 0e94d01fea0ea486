package session_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/stockroom/internal/console/mockapi"
	"github.com/aussiebroadwan/stockroom/internal/console/session"
	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

type fakeNavigator struct {
	mu      sync.Mutex
	current string
	visits  []string
}

func (n *fakeNavigator) Current() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *fakeNavigator) Navigate(view string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = view
	n.visits = append(n.visits, view)
}

func (n *fakeNavigator) Visits() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.visits...)
}

type fixture struct {
	api     *mockapi.Server
	client  *invsdk.Client
	tokens  *invsdk.MemoryTokenStore
	nav     *fakeNavigator
	manager *session.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	api, err := mockapi.New(mockapi.Config{Seed: true, Logger: slogx.Discard()})
	require.NoError(t, err)
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	tokens := invsdk.NewMemoryTokenStore()
	client := invsdk.NewClient(ts.URL, tokens, invsdk.WithHTTPClient(ts.Client()), invsdk.WithLogger(slogx.Discard()))
	nav := &fakeNavigator{current: "items"}
	m := session.New(session.Config{
		API:       client,
		Tokens:    tokens,
		Events:    client.Events,
		Navigator: nav,
		Logger:    slogx.Discard(),
	})
	t.Cleanup(m.Close)

	return &fixture{api: api, client: client, tokens: tokens, nav: nav, manager: m}
}

// signIn stores a fresh token pair for username without touching the manager.
func (f *fixture) signIn(t *testing.T, username string) {
	t.Helper()
	_, err := f.client.Login(context.Background(), username, "password")
	require.NoError(t, err)
}

func TestStart(t *testing.T) {
	t.Parallel()

	t.Run("no tokens", func(t *testing.T) {
		t.Parallel()
		api := &countingAPI{}
		m := session.New(session.Config{API: api, Tokens: invsdk.NewMemoryTokenStore(), Events: invsdk.NewBus(), Logger: slogx.Discard()})
		defer m.Close()

		require.Equal(t, session.Initializing, m.Snapshot().State)
		require.True(t, m.Snapshot().Loading)

		snap := m.Start(context.Background())
		require.Equal(t, session.Unauthenticated, snap.State)
		require.False(t, snap.Loading)
		require.Zero(t, api.calls)
	})

	t.Run("valid access token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.signIn(t, "admin")

		snap := f.manager.Start(context.Background())
		require.Equal(t, session.Authenticated, snap.State)
		require.Equal(t, "admin", snap.User.Username)
		require.Zero(t, f.api.RefreshCalls())
	})

	t.Run("expired access token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.signIn(t, "viewer")
		f.api.ExpireAccessTokens()

		snap := f.manager.Start(context.Background())
		require.Equal(t, session.Authenticated, snap.State)
		require.Equal(t, "viewer", snap.User.Username)
		require.Equal(t, int64(1), f.api.RefreshCalls())
	})

	t.Run("refresh token only", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.signIn(t, "viewer")
		refresh := f.tokens.Get(invsdk.TokenRefresh)
		f.tokens.Clear()
		f.tokens.Set(invsdk.TokenRefresh, refresh)

		snap := f.manager.Start(context.Background())
		require.Equal(t, session.Authenticated, snap.State)
		require.Equal(t, int64(1), f.api.RefreshCalls())
		require.NotEmpty(t, f.tokens.Get(invsdk.TokenAccess))
	})

	t.Run("unusable tokens", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.tokens.Set(invsdk.TokenAccess, "bogus")
		f.tokens.Set(invsdk.TokenRefresh, "bogus")

		snap := f.manager.Start(context.Background())
		require.Equal(t, session.Unauthenticated, snap.State)
		require.Nil(t, snap.User)
		require.Empty(t, f.tokens.Get(invsdk.TokenAccess))
		require.Empty(t, f.tokens.Get(invsdk.TokenRefresh))
		require.Empty(t, f.nav.Visits(), "startup failures do not navigate")
	})
}

func TestLogin(t *testing.T) {
	t.Parallel()

	t.Run("bad credentials", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.manager.Start(context.Background())

		var states []session.State
		unsubscribe := f.manager.Subscribe(func(s session.Snapshot) { states = append(states, s.State) })
		defer unsubscribe()

		snap, err := f.manager.Login(context.Background(), "admin", "nope")
		require.ErrorIs(t, err, invsdk.ErrInvalidCredentials)
		require.Equal(t, session.Unauthenticated, snap.State)
		require.Contains(t, snap.Err, "invalid credentials")
		require.Equal(t, []session.State{session.Unauthenticated, session.Error, session.Unauthenticated}, states)
		require.Empty(t, f.tokens.Get(invsdk.TokenAccess))
	})

	t.Run("success then logout", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.manager.Start(context.Background())
		_, _ = f.manager.Login(context.Background(), "admin", "nope")

		snap, err := f.manager.Login(context.Background(), "test.user", "password")
		require.NoError(t, err)
		require.Equal(t, session.Authenticated, snap.State)
		require.Empty(t, snap.Err, "a new attempt clears the previous error")
		require.Equal(t, "manager", snap.User.Role)

		snap = f.manager.Logout()
		require.Equal(t, session.Unauthenticated, snap.State)
		require.Nil(t, snap.User)
		require.Empty(t, f.tokens.Get(invsdk.TokenAccess))
		require.Empty(t, f.tokens.Get(invsdk.TokenRefresh))
	})
}

func TestUnauthorizedEvent(t *testing.T) {
	t.Parallel()

	t.Run("ignored while user and tokens are held", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.signIn(t, "admin")
		f.manager.Start(context.Background())

		f.client.Events.Publish(invsdk.EventUnauthorized)
		require.Equal(t, session.Authenticated, f.manager.Snapshot().State)
		require.Empty(t, f.nav.Visits())
	})

	t.Run("failed refresh drops the session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.signIn(t, "admin")
		f.manager.Start(context.Background())

		f.api.ExpireAccessTokens()
		f.api.FailRefresh(1)
		_, err := f.client.ListItems(context.Background())
		var netErr *invsdk.NetworkError
		require.ErrorAs(t, err, &netErr)

		snap := f.manager.Snapshot()
		require.Equal(t, session.Unauthenticated, snap.State)
		require.Nil(t, snap.User)
		require.Equal(t, []string{session.ViewLogin}, f.nav.Visits())
	})

	t.Run("no navigation when already on login", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.signIn(t, "admin")
		f.manager.Start(context.Background())
		f.nav.current = session.ViewLogin

		f.tokens.Clear()
		f.client.Events.Publish(invsdk.EventUnauthorized)
		require.Equal(t, session.Unauthenticated, f.manager.Snapshot().State)
		require.Empty(t, f.nav.Visits())
	})

	t.Run("close unsubscribes", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.signIn(t, "admin")
		f.manager.Start(context.Background())
		require.Equal(t, 1, f.client.Events.Len())

		f.manager.Close()
		require.Zero(t, f.client.Events.Len())

		f.tokens.Clear()
		f.client.Events.Publish(invsdk.EventUnauthorized)
		require.Equal(t, session.Authenticated, f.manager.Snapshot().State)
	})
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.signIn(t, "admin")
	snap := f.manager.Start(context.Background())
	snap.User.Username = "mallory"
	if len(snap.User.Perms) > 0 {
		snap.User.Perms[0] = "x"
	}

	again := f.manager.Snapshot()
	require.Equal(t, "admin", again.User.Username)
	require.NotContains(t, again.User.Perms, "x")
}

type countingAPI struct{ calls int }

var errUnexpected = errors.New("unexpected call")

func (a *countingAPI) Login(context.Context, string, string) (*invsdk.TokenPair, error) {
	a.calls++
	return nil, errUnexpected
}

func (a *countingAPI) Logout() { a.calls++ }

func (a *countingAPI) Me(context.Context) (*invsdk.User, error) {
	a.calls++
	return nil, errUnexpected
}

func (a *countingAPI) Refresh(context.Context) (string, error) {
	a.calls++
	return "", errUnexpected
}
