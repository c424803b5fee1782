package player

import "sync"

// mailbox is an unbounded FIFO queue with a wake-up channel. Pushes never
// block, so a slow consumer can never stall the engine, and nothing is dropped.
type mailbox[T any] struct {
	mu     sync.Mutex
	items  []T
	ready  chan struct{}
	closed bool
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{ready: make(chan struct{}, 1)}
}

// push appends v and wakes the consumer. It reports false once closed.
func (m *mailbox[T]) push(v T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.items = append(m.items, v)
	m.notify()
	return true
}

// pop removes the oldest item. closed is true only once the mailbox is closed and empty.
func (m *mailbox[T]) pop() (v T, ok bool, closed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.items) == 0 {
		return v, false, m.closed
	}

	v = m.items[0]
	var zero T
	m.items[0] = zero
	m.items = m.items[1:]
	return v, true, false
}

// drain removes and returns everything queued.
func (m *mailbox[T]) drain() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := m.items
	m.items = nil
	return items
}

// wait returns the wake-up channel. It fires at least once after any push or close.
func (m *mailbox[T]) wait() <-chan struct{} {
	return m.ready
}

func (m *mailbox[T]) close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.notify()
}

func (m *mailbox[T]) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// notify must be called with mu held.
func (m *mailbox[T]) notify() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
