package invsdk

import "sync"

// TokenKind names one of the two persisted credentials. The values double as
// the storage keys.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenStore persists the access/refresh pair. An empty string means absent.
//
// Implementations must be safe for concurrent use. Storage failures are the
// implementation's to log; they are never returned, so a broken store reads
// as "no token" and the client falls back to the unauthenticated path.
type TokenStore interface {
	Get(kind TokenKind) string
	// Set stores token under kind. An empty token is ignored.
	Set(kind TokenKind, token string)
	// Clear removes both tokens.
	Clear()
}

// MemoryTokenStore is a process-local TokenStore.
type MemoryTokenStore struct {
	mu     sync.RWMutex
	tokens map[TokenKind]string
}

// NewMemoryTokenStore returns an empty in-memory store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{tokens: make(map[TokenKind]string, 2)}
}

func (m *MemoryTokenStore) Get(kind TokenKind) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens[kind]
}

func (m *MemoryTokenStore) Set(kind TokenKind, token string) {
	if token == "" {
		return
	}
	m.mu.Lock()
	m.tokens[kind] = token
	m.mu.Unlock()
}

func (m *MemoryTokenStore) Clear() {
	m.mu.Lock()
	clear(m.tokens)
	m.mu.Unlock()
}
