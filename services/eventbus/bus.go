package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/trezcool/ratiba/core"
)

type subscription struct {
	id      uint64
	handler core.EventHandler
}

// Bus fans events out synchronously, in subscription order.
// A panicking handler is logged and does not stop delivery to the others.
type Bus struct {
	logger core.Logger

	mu     sync.RWMutex
	nextID uint64
	subs   map[string][]subscription
}

var _ core.EventBus = (*Bus)(nil)

func New(logger core.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[string][]subscription),
	}
}

func (b *Bus) Subscribe(name string, handler core.EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, handler: handler})

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(name, id) })
	}
}

func (b *Bus) remove(name string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[name]
	for i, s := range subs {
		if s.id == id {
			kept := make([]subscription, 0, len(subs)-1)
			kept = append(kept, subs[:i]...)
			b.subs[name] = append(kept, subs[i+1:]...)
			break
		}
	}
	if len(b.subs[name]) == 0 {
		delete(b.subs, name)
	}
}

func (b *Bus) Publish(ctx context.Context, evt core.Event) {
	b.mu.RLock()
	subs := b.subs[evt.Name] // never mutated in place
	b.mu.RUnlock()

	for _, s := range subs {
		b.deliver(ctx, s, evt)
	}
}

func (b *Bus) deliver(ctx context.Context, s subscription, evt core.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error(fmt.Sprintf("event handler for %q panicked", evt.Name), r)
		}
	}()
	s.handler(ctx, evt)
}

// Len returns the number of handlers subscribed to name.
func (b *Bus) Len(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[name])
}
