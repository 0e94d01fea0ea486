package invsdk

import (
	"slices"
	"sync"
)

// Event is an authentication lifecycle notification.
type Event string

const (
	// EventUnauthorized is published when the API rejected the session and it
	// could not be recovered by a refresh. Tokens are already cleared.
	EventUnauthorized Event = "auth:unauthorized"
	// EventLogin is published after a successful login stored new tokens.
	EventLogin Event = "auth:login"
	// EventLogout is published after tokens were cleared by an explicit logout.
	EventLogout Event = "auth:logout"
)

// Bus is a typed publish/subscribe channel for auth events. Handlers run
// synchronously on the publishing goroutine, outside the bus lock, so a
// handler may unsubscribe or publish without deadlocking.
//
// A nil *Bus is valid and drops every event.
type Bus struct {
	mu   sync.Mutex
	next uint64
	subs map[uint64]func(Event)
}

// NewBus returns an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]func(Event))}
}

// Subscribe registers fn and returns the function that removes it. The
// returned function is idempotent.
func (b *Bus) Subscribe(fn func(Event)) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers ev to every current subscriber in subscription order.
func (b *Bus) Publish(ev Event) {
	if b == nil {
		return
	}

	b.mu.Lock()
	ids := make([]uint64, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	handlers := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Len returns the number of live subscriptions.
func (b *Bus) Len() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
