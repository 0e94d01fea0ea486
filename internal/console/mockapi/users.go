package mockapi

import (
	"maps"
	"net/http"
	"slices"

	"github.com/aussiebroadwan/stockroom/internal/console/roles"
	"github.com/aussiebroadwan/stockroom/pkg/httpx"
)

// handleListUsers answers with a plain list, the shape the API uses when
// pagination is off for this endpoint.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	ids := slices.Sorted(maps.Keys(s.users))
	out := make([]userJSON, 0, len(ids))
	for _, id := range ids {
		u := s.users[id]
		out = append(out, userJSON{ID: u.id, Username: u.username, Email: u.email, Role: u.role.String()})
	}
	s.mu.Unlock()

	httpx.WriteJSON(w, http.StatusOK, out)
}

type setRoleRequest struct {
	Role string `json:"role"`
}

func (s *Server) handleSetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)

	var req setRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteDetail(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return
	}
	role, err := roles.Parse(req.Role)
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadRequest, fieldErrors{"role": {"\"" + req.Role + "\" is not a valid choice."}})
		return
	}

	s.mu.Lock()
	u, found := s.users[id]
	if found {
		u.role = role
	}
	s.mu.Unlock()

	if !ok || !found {
		httpx.WriteDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "role": role.String()})
}
