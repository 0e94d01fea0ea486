package roles

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
)

// RoleSetter assigns a role to a user on the API.
type RoleSetter interface {
	SetUserRole(ctx context.Context, userID int64, role string) (*invsdk.SetRoleResponse, error)
}

// Change is one staged assignment.
type Change struct {
	UserID int64
	Role   Role
}

// Pending stages role changes per user until they are applied together.
// Staging the same user twice keeps the last role.
type Pending struct {
	mu      sync.Mutex
	changes map[int64]Role
}

func NewPending() *Pending {
	return &Pending{changes: make(map[int64]Role)}
}

// Stage records role for userID. Staging a user's current role drops any
// staged change instead, since applying it would be a no-op.
func (p *Pending) Stage(userID int64, current, role Role) error {
	if role == None {
		return fmt.Errorf("%w: none", ErrUnknownRole)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if role == current {
		delete(p.changes, userID)
		return nil
	}
	p.changes[userID] = role
	return nil
}

// Unstage drops the staged change for userID.
func (p *Pending) Unstage(userID int64) {
	p.mu.Lock()
	delete(p.changes, userID)
	p.mu.Unlock()
}

// Draft returns the staged role for userID, falling back to current.
func (p *Pending) Draft(userID int64, current Role) Role {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.changes[userID]; ok {
		return r
	}
	return current
}

func (p *Pending) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.changes)
}

// Changes returns the staged changes ordered by user id.
func (p *Pending) Changes() []Change {
	p.mu.Lock()
	defer p.mu.Unlock()

	ids := slices.Sorted(maps.Keys(p.changes))
	out := make([]Change, 0, len(ids))
	for _, id := range ids {
		out = append(out, Change{UserID: id, Role: p.changes[id]})
	}
	return out
}

// Apply sends the staged changes one at a time in user id order. Each change
// that succeeds is removed from the set; the first failure stops the run and
// leaves it and the remaining changes staged.
func (p *Pending) Apply(ctx context.Context, setter RoleSetter) (applied int, err error) {
	for _, c := range p.Changes() {
		if _, err := setter.SetUserRole(ctx, c.UserID, c.Role.String()); err != nil {
			return applied, fmt.Errorf("set role of user %d to %s: %w", c.UserID, c.Role, err)
		}
		p.mu.Lock()
		if p.changes[c.UserID] == c.Role {
			delete(p.changes, c.UserID)
		}
		p.mu.Unlock()
		applied++
	}
	return applied, nil
}
