package messaging

import (
	"context"
	"errors"
	"sync"
)

// Handler consumes one event published on a Bus.
type Handler func(ctx context.Context, event Event) error

// Bus is an in-process Publisher. Publish runs the handlers subscribed to the
// event subject synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

var _ Publisher = (*Bus)(nil)

func NewBus() *Bus {
	return &Bus{handlers: make(map[string][]Handler)}
}

// Subscribe registers h for subject.
func (b *Bus) Subscribe(subject string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[subject] = append(b.handlers[subject], h)
}

// Publish delivers event to every handler of its subject and joins their errors.
// A failing handler does not stop the others.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Subject()]...)
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
