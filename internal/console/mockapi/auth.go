package mockapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/stockroom/pkg/cryptox"
	"github.com/aussiebroadwan/stockroom/pkg/httpx"
	"github.com/aussiebroadwan/stockroom/pkg/jwtx"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

// accessVerifier accepts signed, unexpired access tokens that have not been
// revoked through ExpireAccessTokens.
type accessVerifier struct{ s *Server }

func (v accessVerifier) Verify(token string, want jwtx.TokenType) (jwtx.Claims, error) {
	claims, err := v.s.signer.Verify(token, want)
	if err != nil {
		return jwtx.Claims{}, err
	}
	v.s.mu.Lock()
	_, live := v.s.liveAccess[claims.ID]
	v.s.mu.Unlock()
	if !live {
		return jwtx.Claims{}, jwtx.ErrExpired
	}
	return claims, nil
}

// issue signs a token for userID and records access tokens as live.
func (s *Server) issue(typ jwtx.TokenType, userID int64) (string, error) {
	ttl := s.cfg.AccessTTL
	if typ == jwtx.TypeRefresh {
		ttl = s.cfg.RefreshTTL
	}
	claims := jwtx.NewClaims(typ, userID, ttl, time.Now())
	token, err := s.signer.Sign(claims)
	if err != nil {
		return "", err
	}
	if typ == jwtx.TypeAccess {
		s.mu.Lock()
		s.liveAccess[claims.ID] = struct{}{}
		s.mu.Unlock()
	}
	return token, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string][]string{
			"username": {"This field is required."},
			"password": {"This field is required."},
		})
		return
	}

	var found *userRecord
	s.mu.Lock()
	for _, u := range s.users {
		if u.username == req.Username {
			cp := *u
			found = &cp
			break
		}
	}
	s.mu.Unlock()

	if found == nil || cryptox.VerifyPassword(req.Password, found.passwordHash) != nil {
		log.Info("login rejected", "username", req.Username)
		httpx.WriteDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	access, err := s.issue(jwtx.TypeAccess, found.id)
	if err != nil {
		httpx.WriteDetail(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	refresh, err := s.issue(jwtx.TypeRefresh, found.id)
	if err != nil {
		httpx.WriteDetail(w, http.StatusInternalServerError, "token issue failed")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{
		"access":  access,
		"refresh": refresh,
		"status":  "success",
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.refreshCalls.Add(1)

	if hold := s.holdRefresh.Load(); hold > 0 {
		deadline := time.Now().Add(2 * time.Second)
		for s.unauthorized.Load() < hold && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}
	if s.failRefresh.Add(-1) >= 0 {
		httpx.WriteDetail(w, http.StatusServiceUnavailable, "Service unavailable")
		return
	}
	s.failRefresh.CompareAndSwap(-1, 0)

	var req refreshRequest
	if err := httpx.DecodeJSON(r, &req); err != nil || req.Refresh == "" {
		httpx.WriteJSON(w, http.StatusBadRequest, map[string][]string{"refresh": {"This field is required."}})
		return
	}

	claims, err := s.signer.Verify(req.Refresh, jwtx.TypeRefresh)
	if err != nil {
		detail := "Token is invalid or expired"
		if errors.Is(err, jwtx.ErrWrongTokenType) {
			detail = "Token has wrong type"
		}
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": detail, "code": "token_not_valid"})
		return
	}

	s.mu.Lock()
	_, revoked := s.revokedRefresh[claims.ID]
	_, exists := s.users[claims.UserID]
	if !revoked && exists && s.cfg.RotateRefresh {
		s.revokedRefresh[claims.ID] = struct{}{}
	}
	s.mu.Unlock()
	if revoked || !exists {
		httpx.WriteJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Token is blacklisted", "code": "token_not_valid"})
		return
	}

	access, err := s.issue(jwtx.TypeAccess, claims.UserID)
	if err != nil {
		httpx.WriteDetail(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	out := map[string]string{"access": access}
	if s.cfg.RotateRefresh {
		refresh, err := s.issue(jwtx.TypeRefresh, claims.UserID)
		if err != nil {
			httpx.WriteDetail(w, http.StatusInternalServerError, "token issue failed")
			return
		}
		out["refresh"] = refresh
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := s.currentUser(r)
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"id":       u.id,
		"username": u.username,
		"role":     u.role.String(),
		"perms":    permsFor(u.role),
	})
}
