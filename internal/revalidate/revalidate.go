// Package revalidate fans out cache-invalidation notifications after
// successful writes. Delivery is best-effort: a failing or panicking
// subscriber must never fail the save that triggered it.
package revalidate

import (
	"log/slog"
	"sync"
)

// Notifier receives the logical view paths made stale by a write.
type Notifier interface {
	Invalidate(paths []string)
}

// Nop is the Notifier used when no cache layer exists.
type Nop struct{}

func (Nop) Invalidate([]string) {}

// Hub distributes invalidations to registered subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   []func(paths []string)
	logger *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{logger: logger}
}

// Subscribe registers fn to be called on every invalidation. Subscribers
// run synchronously on the writer's goroutine and should be fast.
func (h *Hub) Subscribe(fn func(paths []string)) {
	h.mu.Lock()
	h.subs = append(h.subs, fn)
	h.mu.Unlock()
}

// Invalidate delivers paths to every subscriber. Panics are contained
// and logged; the data is already durably committed by the time this
// runs, so staleness is the worst outcome.
func (h *Hub) Invalidate(paths []string) {
	if len(paths) == 0 {
		return
	}
	h.mu.RLock()
	subs := make([]func([]string), len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					h.logger.Warn("revalidation subscriber panicked",
						slog.Any("panic", r))
				}
			}()
			fn(paths)
		}()
	}
	h.logger.Debug("revalidated", slog.Any("paths", paths))
}
