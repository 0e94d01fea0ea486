package invsdk

import (
	"encoding/json"
	"time"
)

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /token/.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenPair is returned by POST /token/.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
	Status  string `json:"status,omitempty"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse carries a rotated refresh token when the API rotates them.
type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// User is the identity returned by GET /me/.
type User struct {
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Role     string   `json:"role"`
	Perms    []string `json:"perms"`
}

// HasPerm reports whether the user holds the named model permission
// (e.g. "inventory.change_item").
func (u *User) HasPerm(perm string) bool {
	if u == nil {
		return false
	}
	for _, p := range u.Perms {
		if p == perm {
			return true
		}
	}
	return false
}

// ============================================================================
// Inventory Types
// ============================================================================

// Page is the paginated list envelope used by every list endpoint.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// Category groups items.
type Category struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Item is a stocked inventory item. Quantity is computed server side from the
// transaction ledger and is read only.
type Item struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Quantity          int         `json:"quantity"`
	Price             json.Number `json:"price"`
	LowStockThreshold int         `json:"low_stock_threshold"`
	Category          *Category   `json:"category"`
}

// LowStock reports whether the item is at or below its threshold.
func (i Item) LowStock() bool {
	return i.Quantity <= i.LowStockThreshold
}

// ItemWrite is the write shape for creating and replacing items. Price is a
// decimal string because the API stores it as a fixed point decimal.
type ItemWrite struct {
	Name              string `json:"name" validate:"required,max=200"`
	Price             string `json:"price" validate:"required,numeric"`
	LowStockThreshold int    `json:"low_stock_threshold" validate:"gte=0"`
	CategoryID        int64  `json:"category_id" validate:"required,gt=0"`
}

// AdjustStockRequest is the body of POST /inventory/items/{id}/adjust_stock/.
type AdjustStockRequest struct {
	Item   int64  `json:"item,omitempty"`
	Delta  int    `json:"delta" validate:"ne=0"`
	Note   string `json:"note"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=32"`
}

// Adjustment is one entry of a bulk adjustment batch.
type Adjustment struct {
	Item  int64  `json:"item"`
	Delta int    `json:"delta"`
	Note  string `json:"note"`
}

// BulkAdjustRequest is the body of POST /inventory/items/bulk_adjust_stock/.
type BulkAdjustRequest struct {
	Adjustments []Adjustment `json:"adjustments" validate:"dive"`
	Reason      string       `json:"reason"`
}

// Transaction is one ledger entry created by a stock adjustment.
type Transaction struct {
	ID                  int64     `json:"id"`
	Item                int64     `json:"item"`
	ItemName            string    `json:"item_name,omitempty"`
	Delta               int       `json:"delta"`
	Reason              string    `json:"reason"`
	PerformedBy         *int64    `json:"performed_by,omitempty"`
	PerformedByUsername string    `json:"performed_by_username,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// ============================================================================
// User Administration Types
// ============================================================================

// AppUser is an entry of GET /users/.
type AppUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

// SetRoleResponse is returned by POST /users/{id}/set-role/.
type SetRoleResponse struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}
