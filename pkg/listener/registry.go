// Package listener provides an ordered, goroutine-safe set of subscribers.
package listener

import (
	"fmt"
	"log/slog"
	"sync"
)

// Handle identifies one registration. Registering the same listener twice
// yields two distinct handles.
type Handle uint64

type entry[T any] struct {
	handle Handle
	value  T
}

// Registry keeps listeners in registration order. Mutations replace the
// backing slice, so a fan-out pass always walks a stable snapshot and never
// holds the lock while a listener runs.
type Registry[T any] struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	entries []entry[T]
	next    Handle
}

func New[T any](name string, logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{name: name, logger: logger}
}

func (r *Registry[T]) Add(v T) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	entries := make([]entry[T], len(r.entries), len(r.entries)+1)
	copy(entries, r.entries)
	r.entries = append(entries, entry[T]{handle: r.next, value: v})
	return r.next
}

// Remove drops the registration for h and reports whether it was present.
func (r *Registry[T]) Remove(h Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.handle != h {
			continue
		}
		entries := make([]entry[T], 0, len(r.entries)-1)
		entries = append(entries, r.entries[:i]...)
		r.entries = append(entries, r.entries[i+1:]...)
		return true
	}
	return false
}

func (r *Registry[T]) Clear() {
	r.mu.Lock()
	r.entries = nil
	r.mu.Unlock()
}

func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

func (r *Registry[T]) snapshot() []entry[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries
}

// Notify calls fn once per registered listener, in registration order, on the
// calling goroutine. A panicking listener is logged and skipped; the rest of
// the pass still runs. It returns the number of listeners that panicked.
func (r *Registry[T]) Notify(fn func(T)) int {
	faults := 0
	for _, e := range r.snapshot() {
		if err := r.call(fn, e); err != nil {
			faults++
			r.logger.Error("listener panicked", "registry", r.name, "handle", uint64(e.handle), "err", err)
		}
	}
	return faults
}

func (r *Registry[T]) call(fn func(T), e entry[T]) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	fn(e.value)
	return nil
}
