package events

import (
	"context"
	"fmt"
	"sync"

	"address_search_backend/platform/logger"
)

// InMemoryBus is a process-local Bus. Asynchronous deliveries are tracked so
// that Wait can drain them on shutdown.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	inflight sync.WaitGroup
	log      *logger.Logger
}

var _ Bus = (*InMemoryBus)(nil)

// NewInMemoryBus creates an empty bus. A nil logger discards handler errors.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	if log == nil {
		log = logger.Discard()
	}
	return &InMemoryBus{
		handlers: make(map[string][]Handler),
		log:      log,
	}
}

func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *InMemoryBus) snapshot(eventName string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	hs := b.handlers[eventName]
	out := make([]Handler, len(hs))
	copy(out, hs)
	return out
}

// Publish runs each handler on its own goroutine. The context passed to the
// handlers is detached from ctx cancellation so a finished HTTP request does
// not abort delivery.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	handlers := b.snapshot(event.EventName())
	if len(handlers) == 0 {
		return
	}

	detached := context.WithoutCancel(ctx)
	for _, h := range handlers {
		b.inflight.Add(1)
		go func(h Handler) {
			defer b.inflight.Done()
			b.invoke(detached, h, event)
		}(h)
	}
}

func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var firstErr error
	for _, h := range b.snapshot(event.EventName()) {
		if err := b.invoke(ctx, h, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (b *InMemoryBus) invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("event handler panic: %v", r)
		}
		if err != nil {
			b.log.Error("event handler failed", "event", event.EventName(), "error", err)
		}
	}()
	return h.Handle(ctx, event)
}

// Wait blocks until every asynchronous delivery started by Publish returned.
func (b *InMemoryBus) Wait() {
	b.inflight.Wait()
}
