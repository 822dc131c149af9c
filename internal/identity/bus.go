package identity

import (
	"context"
	"errors"
	"sync"
)

// Event names an identity lifecycle notification.
type Event string

const (
	// Changed is published after the identity of a session changed (login, logout).
	Changed Event = "identity-changed"
	// Loaded is published on every request once the identity was rebuilt from the session.
	Loaded Event = "identity-loaded"
)

// Handler reacts to an identity event. Request scoped state travels in ctx.
type Handler func(ctx context.Context, id *Identity) error

// Bus dispatches identity events to subscribed handlers in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Event][]Handler
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{handlers: make(map[Event][]Handler)}
}

// Subscribe registers h for the event.
func (b *Bus) Subscribe(event Event, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[event] = append(b.handlers[event], h)
}

// Publish runs every handler of the event. All handlers run even if one fails,
// the returned error joins the individual failures.
func (b *Bus) Publish(ctx context.Context, event Event, id *Identity) error {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event]))
	copy(handlers, b.handlers[event])
	b.mu.RUnlock()

	var errs []error

	for _, h := range handlers {
		if err := h(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
