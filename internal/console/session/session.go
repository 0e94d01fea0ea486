// Package session tracks who is signed in to the console.
//
// A Manager moves between four states. It starts Initializing, settles on
// Authenticated or Unauthenticated once the stored tokens have been checked,
// and passes through Error when a login fails. Any component can push it to
// Unauthenticated by publishing invsdk.EventUnauthorized on the shared bus.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
)

// State of a session.
type State uint8

const (
	Initializing State = iota
	Authenticated
	Unauthenticated
	Error
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Snapshot is a point in time copy of the session.
type Snapshot struct {
	State   State
	User    *invsdk.User
	Loading bool
	// Err is the last login failure. It survives the move to Unauthenticated.
	Err string
}

// ViewLogin is the view a Navigator is sent to when the session is lost.
const ViewLogin = "login"

// Navigator switches the active view.
type Navigator interface {
	Current() string
	Navigate(view string)
}

// API is the part of the inventory client a Manager drives.
type API interface {
	Login(ctx context.Context, username, password string) (*invsdk.TokenPair, error)
	Logout()
	Me(ctx context.Context) (*invsdk.User, error)
	Refresh(ctx context.Context) (string, error)
}

// Config wires a Manager. API, Tokens and Events are required.
type Config struct {
	API       API
	Tokens    invsdk.TokenStore
	Events    *invsdk.Bus
	Navigator Navigator
	Logger    *slog.Logger
}

// Manager owns the session state. It is safe for concurrent use.
type Manager struct {
	api    API
	tokens invsdk.TokenStore
	events *invsdk.Bus
	nav    Navigator
	logger *slog.Logger

	mu          sync.Mutex
	snap        Snapshot
	unsubscribe func()
	nextID      int
	observers   map[int]func(Snapshot)
}

// New returns a Manager in the Initializing state.
func New(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		api:       cfg.API,
		tokens:    cfg.Tokens,
		events:    cfg.Events,
		nav:       cfg.Navigator,
		logger:    logger,
		snap:      Snapshot{State: Initializing, Loading: true},
		observers: make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current session.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	s := m.snap
	if s.User != nil {
		u := *s.User
		u.Perms = slices.Clone(u.Perms)
		s.User = &u
	}
	return s
}

// Subscribe registers fn to receive every transition. The returned function
// removes it.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.observers[id] = fn
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.observers, id)
			m.mu.Unlock()
		})
	}
}

// transition applies fn under the lock and notifies observers outside it.
func (m *Manager) transition(fn func(s *Snapshot)) Snapshot {
	m.mu.Lock()
	fn(&m.snap)
	snap := m.snapshotLocked()
	ids := make([]int, 0, len(m.observers))
	for id := range m.observers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, m.observers[id])
	}
	m.mu.Unlock()

	for _, f := range fns {
		f(snap)
	}
	return snap
}

// Start subscribes to the event bus and resolves the stored tokens into a
// user. Failures are not returned: they leave the session Unauthenticated
// with the tokens cleared.
func (m *Manager) Start(ctx context.Context) Snapshot {
	m.mu.Lock()
	if m.unsubscribe == nil {
		m.unsubscribe = m.events.Subscribe(m.onEvent)
	}
	m.mu.Unlock()

	m.transition(func(s *Snapshot) {
		*s = Snapshot{State: Initializing, Loading: true}
	})

	user, err := m.resume(ctx)
	if err != nil {
		m.logger.Info("stored session not resumed", "error", err)
		m.tokens.Clear()
		return m.transition(func(s *Snapshot) {
			*s = Snapshot{State: Unauthenticated}
		})
	}

	m.logger.Info("session resumed", "user", user.Username, "role", user.Role)
	return m.transition(func(s *Snapshot) {
		*s = Snapshot{State: Authenticated, User: user}
	})
}

var errNoTokens = errors.New("no stored tokens")

func (m *Manager) resume(ctx context.Context) (*invsdk.User, error) {
	access := m.tokens.Get(invsdk.TokenAccess)
	refresh := m.tokens.Get(invsdk.TokenRefresh)

	switch {
	case access == "" && refresh == "":
		return nil, errNoTokens
	case access != "":
		user, err := m.api.Me(ctx)
		if err == nil {
			return user, nil
		}
		if ctx.Err() != nil || m.tokens.Get(invsdk.TokenRefresh) == "" {
			return nil, err
		}
		m.logger.Debug("current user fetch failed, refreshing", "error", err)
	}

	if _, err := m.api.Refresh(ctx); err != nil {
		return nil, err
	}
	return m.api.Me(ctx)
}

// Login signs in and fetches the user. On failure the tokens are cleared, the
// session passes through Error and settles on Unauthenticated keeping the
// message.
func (m *Manager) Login(ctx context.Context, username, password string) (Snapshot, error) {
	m.transition(func(s *Snapshot) {
		s.Loading = true
		s.Err = ""
	})

	user, err := m.login(ctx, username, password)
	if err != nil {
		m.tokens.Clear()
		msg := err.Error()
		m.transition(func(s *Snapshot) {
			*s = Snapshot{State: Error, Err: msg}
		})
		snap := m.transition(func(s *Snapshot) {
			*s = Snapshot{State: Unauthenticated, Err: msg}
		})
		return snap, err
	}

	m.logger.Info("logged in", "user", user.Username, "role", user.Role)
	return m.transition(func(s *Snapshot) {
		*s = Snapshot{State: Authenticated, User: user}
	}), nil
}

func (m *Manager) login(ctx context.Context, username, password string) (*invsdk.User, error) {
	if _, err := m.api.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return m.api.Me(ctx)
}

// Logout forgets the tokens and the user.
func (m *Manager) Logout() Snapshot {
	m.api.Logout()
	return m.transition(func(s *Snapshot) {
		*s = Snapshot{State: Unauthenticated}
	})
}

// Close detaches the Manager from the event bus.
func (m *Manager) Close() {
	m.mu.Lock()
	unsubscribe := m.unsubscribe
	m.unsubscribe = nil
	m.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (m *Manager) onEvent(ev invsdk.Event) {
	if ev == invsdk.EventUnauthorized {
		m.handleUnauthorized()
	}
}

// handleUnauthorized drops the session unless it still holds a user and both
// tokens, which means the signal came from a request that lost a race with a
// refresh or a new login. While Initializing, Start settles the state itself.
func (m *Manager) handleUnauthorized() {
	haveTokens := m.tokens.Get(invsdk.TokenAccess) != "" && m.tokens.Get(invsdk.TokenRefresh) != ""

	m.mu.Lock()
	prev := m.snap.State
	ignore := prev == Initializing || (m.snap.User != nil && haveTokens)
	m.mu.Unlock()
	if ignore {
		return
	}

	m.logger.Info("session lost", "previous_state", prev.String())
	m.transition(func(s *Snapshot) {
		*s = Snapshot{State: Unauthenticated, Err: s.Err}
	})

	if prev == Authenticated && m.nav != nil && m.nav.Current() != ViewLogin {
		m.nav.Navigate(ViewLogin)
	}
}
