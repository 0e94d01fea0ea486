// Package roles models the inventory API's role hierarchy and the staged role
// changes an administrator applies in one go.
package roles

import (
	"cmp"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
)

// ErrUnknownRole is returned by Parse for names outside the hierarchy.
var ErrUnknownRole = errors.New("unknown role")

// Role is a position in the total order viewer < manager < admin. The zero
// value is None and ranks below every real role.
type Role uint8

const (
	None Role = iota
	Viewer
	Manager
	Admin
)

// Minimum roles for gated console actions.
const (
	MinItemWrite  = Manager
	MinBulkUpload = Manager
	MinRoleAssign = Admin
)

// All lists the assignable roles in ascending order.
func All() []Role { return []Role{Viewer, Manager, Admin} }

func (r Role) String() string {
	switch r {
	case Viewer:
		return "viewer"
	case Manager:
		return "manager"
	case Admin:
		return "admin"
	default:
		return "none"
	}
}

// Parse maps an API role name to a Role. Matching ignores case and
// surrounding space.
func Parse(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "viewer":
		return Viewer, nil
	case "manager":
		return Manager, nil
	case "admin":
		return Admin, nil
	}
	return None, fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// Compare returns -1, 0 or +1 as a ranks below, equal to or above b.
func Compare(a, b Role) int {
	return cmp.Compare(a, b)
}

// AtLeast reports whether r ranks at or above min.
func (r Role) AtLeast(min Role) bool {
	return Compare(r, min) >= 0
}

// Of returns the role of user, or None for a nil user or unknown role name.
func Of(user *invsdk.User) Role {
	if user == nil {
		return None
	}
	r, err := Parse(user.Role)
	if err != nil {
		return None
	}
	return r
}

// Allowed reports whether user may perform an action gated at min.
func Allowed(user *invsdk.User, min Role) bool {
	return Of(user).AtLeast(min)
}
