package perception

import (
	"context"
	"sync"
	"sync/atomic"
)

// Mailbox is a capacity-one handoff cell with overwrite semantics: a
// Put never blocks, and a value that was never taken is replaced by
// the next one. Consumers always see the freshest value, which is
// what a live pipeline wants when it falls behind.
type Mailbox[T any] struct {
	mu     sync.Mutex
	val    T
	full   bool
	notify chan struct{}
	drops  atomic.Uint64
}

// NewMailbox creates an empty mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Put stores v, replacing any unconsumed value. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	if m.full {
		m.drops.Add(1)
	}
	m.val = v
	m.full = true
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Take removes and returns the stored value, blocking until one is
// available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, error) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.notify:
		}
	}
}

// TryTake removes and returns the stored value without blocking.
func (m *Mailbox[T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.full {
		var zero T
		return zero, false
	}
	v := m.val
	var zero T
	m.val = zero
	m.full = false
	return v, true
}

// Len reports the number of stored values, 0 or 1.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return 1
	}
	return 0
}

// Drops returns how many unconsumed values were overwritten.
func (m *Mailbox[T]) Drops() uint64 {
	return m.drops.Load()
}
