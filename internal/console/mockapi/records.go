package mockapi

import (
	"fmt"
	"time"

	"github.com/aussiebroadwan/stockroom/internal/console/roles"
	"github.com/aussiebroadwan/stockroom/pkg/cryptox"
)

type userRecord struct {
	id           int64
	username     string
	email        string
	role         roles.Role
	passwordHash string
}

type categoryRecord struct {
	id         int64
	name       string
	createdAt  time.Time
	modifiedAt time.Time
}

type itemRecord struct {
	id                int64
	name              string
	price             string
	lowStockThreshold int
	categoryID        int64
	quantity          int
}

// Wire shapes. They mirror what the real API serialises.

type categoryJSON struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type itemJSON struct {
	ID                int64         `json:"id"`
	Name              string        `json:"name"`
	Category          *categoryJSON `json:"category"`
	Price             string        `json:"price"`
	LowStockThreshold int           `json:"low_stock_threshold"`
	Quantity          int           `json:"quantity"`
}

type transactionJSON struct {
	ID                  int64     `json:"id"`
	Item                int64     `json:"item"`
	ItemName            string    `json:"item_name"`
	Delta               int       `json:"delta"`
	Reason              string    `json:"reason"`
	PerformedBy         int64     `json:"performed_by"`
	PerformedByUsername string    `json:"performed_by_username"`
	CreatedAt           time.Time `json:"created_at"`
}

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

type pageJSON[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// id allocates the next identifier. Callers hold s.mu.
func (s *Server) id() int64 {
	s.nextID++
	return s.nextID
}

// AddUser registers a user and returns its id.
func (s *Server) AddUser(username, password, role string) (int64, error) {
	r, err := roles.Parse(role)
	if err != nil {
		return 0, err
	}
	hash, err := cryptox.HashPassword(password, *s.cfg.PasswordParams)
	if err != nil {
		return 0, fmt.Errorf("mockapi: hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.username == username {
			return 0, fmt.Errorf("mockapi: user %q already exists", username)
		}
	}
	id := s.id()
	s.users[id] = &userRecord{
		id:           id,
		username:     username,
		email:        username + "@example.com",
		role:         r,
		passwordHash: hash,
	}
	return id, nil
}

// AddCategory creates a category and returns its id.
func (s *Server) AddCategory(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	id := s.id()
	s.categories[id] = &categoryRecord{id: id, name: name, createdAt: now, modifiedAt: now}
	return id
}

// AddItem creates an item with an initial stock level and returns its id.
func (s *Server) AddItem(name, price string, categoryID int64, quantity, lowStockThreshold int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.items[id] = &itemRecord{
		id:                id,
		name:              name,
		price:             price,
		lowStockThreshold: lowStockThreshold,
		categoryID:        categoryID,
		quantity:          quantity,
	}
	return id
}

// seed loads the demo data: one user per role (all with password
// "password") and a small catalogue.
func (s *Server) seed() error {
	for _, u := range []struct{ name, role string }{
		{"test.user", "manager"},
		{"admin", "admin"},
		{"viewer", "viewer"},
	} {
		if _, err := s.AddUser(u.name, "password", u.role); err != nil {
			return err
		}
	}

	tools := s.AddCategory("Tools")
	parts := s.AddCategory("Parts")
	s.AddItem("Hammer", "19.99", tools, 12, 5)
	s.AddItem("Screwdriver", "7.50", tools, 3, 5)
	s.AddItem("M4 Bolt", "0.10", parts, 1500, 200)
	return nil
}

// Callers hold s.mu.
func (s *Server) itemView(it *itemRecord) itemJSON {
	out := itemJSON{
		ID:                it.id,
		Name:              it.name,
		Price:             it.price,
		LowStockThreshold: it.lowStockThreshold,
		Quantity:          it.quantity,
	}
	if c, ok := s.categories[it.categoryID]; ok {
		out.Category = &categoryJSON{ID: c.id, Name: c.name, CreatedAt: c.createdAt, ModifiedAt: c.modifiedAt}
	}
	return out
}

// permsFor lists the model permissions the API reports for a role.
func permsFor(r roles.Role) []string {
	perms := []string{"inventory.view_item", "inventory.view_category"}
	if r.AtLeast(roles.Manager) {
		perms = append(perms, "inventory.change_item", "inventory.add_item", "inventory.delete_item")
	}
	if r.AtLeast(roles.Admin) {
		perms = append(perms, "inventory.change_category", "users.change_user")
	}
	return perms
}
