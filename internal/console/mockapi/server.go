// Package mockapi is an in-memory stand-in for the inventory REST API. The
// console is developed and tested against it; it honours the same paths,
// bodies and status codes, and issues real HS256 JWTs.
package mockapi

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/stockroom/internal/console/roles"
	"github.com/aussiebroadwan/stockroom/pkg/cryptox"
	"github.com/aussiebroadwan/stockroom/pkg/httpx"
	"github.com/aussiebroadwan/stockroom/pkg/jwtx"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

// PageSize is the number of results per list page.
const PageSize = 50

// Config tunes the mock.
type Config struct {
	// Secret signs tokens. A random secret is generated when empty.
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// RotateRefresh makes the refresh endpoint return a new refresh token and
	// blacklist the old one.
	RotateRefresh bool
	// PasswordParams defaults to cryptox.FastParams.
	PasswordParams *cryptox.Argon2Params
	Logger         *slog.Logger
	// Seed loads the demo user, categories and items.
	Seed bool
}

// Server implements http.Handler.
type Server struct {
	cfg    Config
	signer *jwtx.HS256
	logger *slog.Logger
	mux    *http.ServeMux
	root   http.Handler

	mu         sync.Mutex
	users      map[int64]*userRecord
	categories map[int64]*categoryRecord
	items      map[int64]*itemRecord
	txs        []transactionJSON
	nextID     int64
	// liveAccess holds the jti of every access token not yet revoked.
	liveAccess map[string]struct{}
	// revokedRefresh holds the jti of rotated refresh tokens.
	revokedRefresh map[string]struct{}

	refreshCalls atomic.Int64
	unauthorized atomic.Int64
	itemReads    atomic.Int64
	holdRefresh  atomic.Int64
	failRefresh  atomic.Int64
}

// New builds a mock API.
func New(cfg Config) (*Server, error) {
	if len(cfg.Secret) == 0 {
		cfg.Secret = make([]byte, 32)
		if _, err := rand.Read(cfg.Secret); err != nil {
			return nil, fmt.Errorf("mockapi: generate secret: %w", err)
		}
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = jwtx.DefaultAccessTokenTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = jwtx.DefaultRefreshTokenTTL
	}
	if cfg.PasswordParams == nil {
		cfg.PasswordParams = &cryptox.FastParams
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	s := &Server{
		cfg:            cfg,
		signer:         jwtx.NewHS256(cfg.Secret),
		logger:         cfg.Logger,
		mux:            http.NewServeMux(),
		users:          make(map[int64]*userRecord),
		categories:     make(map[int64]*categoryRecord),
		items:          make(map[int64]*itemRecord),
		liveAccess:     make(map[string]struct{}),
		revokedRefresh: make(map[string]struct{}),
	}

	if cfg.Seed {
		if err := s.seed(); err != nil {
			return nil, err
		}
	}

	s.routes()
	s.root = httpx.Chain(s.mux,
		slogx.HTTPMiddleware(s.logger),
		s.countUnauthorized,
	)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.root.ServeHTTP(w, r)
}

func (s *Server) routes() {
	authn := httpx.AuthnMiddleware(accessVerifier{s})
	secured := func(min roles.Role, h http.HandlerFunc) http.Handler {
		return authn(s.requireRole(min, h))
	}

	s.mux.HandleFunc("POST /api/token/{$}", s.handleLogin)
	s.mux.HandleFunc("POST /api/token/refresh/{$}", s.handleRefresh)
	s.mux.Handle("GET /api/me/{$}", secured(roles.None, s.handleMe))

	s.mux.Handle("GET /api/inventory/items/{$}", secured(roles.Viewer, s.handleListItems))
	s.mux.Handle("POST /api/inventory/items/{$}", secured(roles.MinItemWrite, s.handleCreateItem))
	s.mux.Handle("GET /api/inventory/items/{id}/{$}", secured(roles.Viewer, s.handleGetItem))
	s.mux.Handle("PUT /api/inventory/items/{id}/{$}", secured(roles.MinItemWrite, s.handleUpdateItem))
	s.mux.Handle("DELETE /api/inventory/items/{id}/{$}", secured(roles.MinItemWrite, s.handleDeleteItem))
	s.mux.Handle("POST /api/inventory/items/{id}/adjust_stock/{$}", secured(roles.MinItemWrite, s.handleAdjustStock))
	s.mux.Handle("POST /api/inventory/items/bulk_adjust_stock/{$}", secured(roles.MinBulkUpload, s.handleBulkAdjust))
	s.mux.Handle("GET /api/inventory/categories/{$}", secured(roles.Viewer, s.handleListCategories))

	s.mux.Handle("GET /api/users/{$}", secured(roles.MinRoleAssign, s.handleListUsers))
	s.mux.Handle("POST /api/users/{id}/set-role/{$}", secured(roles.MinRoleAssign, s.handleSetRole))
}

// ============================================================================
// Test hooks
// ============================================================================

// RefreshCalls reports how many times the refresh endpoint was hit.
func (s *Server) RefreshCalls() int64 { return s.refreshCalls.Load() }

// Unauthorized reports how many 401 responses were sent.
func (s *Server) Unauthorized() int64 { return s.unauthorized.Load() }

// ItemReads reports how many item list pages were served.
func (s *Server) ItemReads() int64 { return s.itemReads.Load() }

// HoldRefresh makes the refresh endpoint wait until n 401 responses have been
// sent in total (or two seconds pass) before answering.
func (s *Server) HoldRefresh(n int64) { s.holdRefresh.Store(n) }

// FailRefresh makes the next n refresh calls answer with status 503.
func (s *Server) FailRefresh(n int64) { s.failRefresh.Store(n) }

// ExpireAccessTokens revokes every access token issued so far, as if they
// had all reached their expiry.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	clear(s.liveAccess)
	s.mu.Unlock()
}

// Quantity returns the current stock of an item.
func (s *Server) Quantity(itemID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return 0, false
	}
	return it.quantity, true
}

// Role returns the current role of a user.
func (s *Server) Role(userID int64) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return "", false
	}
	return u.role.String(), true
}

// ============================================================================
// Middleware
// ============================================================================

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) countUnauthorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status == http.StatusUnauthorized && r.URL.Path != "/api/token/" && r.URL.Path != "/api/token/refresh/" {
			s.unauthorized.Add(1)
		}
	})
}

// requireRole answers 403 unless the authenticated user ranks at least min.
func (s *Server) requireRole(min roles.Role, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := s.currentUser(r)
		if !ok {
			httpx.WriteDetail(w, http.StatusUnauthorized, "User not found")
			return
		}
		if !u.role.AtLeast(min) {
			httpx.WriteDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next(w, r)
	})
}

func (s *Server) currentUser(r *http.Request) (userRecord, bool) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		return userRecord{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[claims.UserID]
	if !ok {
		return userRecord{}, false
	}
	return *u, true
}
