package console

import "sync"

// history is a bounded, recent-first sequence. Push and snapshot are safe on
// the history's own lock; bulk tail trims additionally serialize through the
// console's shared trim mutex because two concurrent trims computing "how
// many to remove" against the same target would over-evict.
type history[T any] struct {
	mu      sync.RWMutex
	entries []T // oldest first; snapshots reverse
}

func newHistory[T any]() *history[T] {
	return &history[T]{entries: nil}
}

// Push appends the newest entry.
func (h *history[T]) Push(v T) {
	h.mu.Lock()
	h.entries = append(h.entries, v)
	h.mu.Unlock()
}

// Len returns the current number of entries.
func (h *history[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

// SnapshotNewestFirst returns a copy of the entries, newest first. Readers
// never block writers beyond the copy itself.
func (h *history[T]) SnapshotNewestFirst() []T {
	h.mu.RLock()
	out := make([]T, len(h.entries))
	for i, v := range h.entries {
		out[len(h.entries)-1-i] = v
	}
	h.mu.RUnlock()
	return out
}

// TrimOldest evicts up to n entries from the tail and reports how many were
// removed.
func (h *history[T]) TrimOldest(n int) int {
	if n <= 0 {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.entries) {
		n = len(h.entries)
	}
	h.entries = h.entries[n:]
	return n
}

// Clear drops every entry.
func (h *history[T]) Clear() {
	h.mu.Lock()
	h.entries = nil
	h.mu.Unlock()
}
