// Package navigation holds the process's current location, the way a
// browser tab holds window.location.
package navigation

import (
	"sync"

	"github.com/yndnr/dashlink/internal/core/domain"
)

// Listener is called after every navigation with the old and new location.
type Listener func(from, to domain.Location)

// Browser is a concurrency-safe current location with history.
type Browser struct {
	mu        sync.RWMutex
	current   domain.Location
	history   []domain.Location
	listeners []Listener
}

// New creates a browser positioned at start.
func New(start string) *Browser {
	return &Browser{current: domain.ParseLocation(start)}
}

// Current returns the current location.
func (b *Browser) Current() domain.Location {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.current
}

// Navigate replaces the current location with path (which may carry a
// query) and notifies listeners.
func (b *Browser) Navigate(path string) {
	to := domain.ParseLocation(path)

	b.mu.Lock()
	from := b.current
	b.history = append(b.history, from)
	b.current = to
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(from, to)
	}
}

// OnNavigate registers fn for future navigations.
func (b *Browser) OnNavigate(fn Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// History returns previous locations, oldest first.
func (b *Browser) History() []domain.Location {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]domain.Location(nil), b.history...)
}

// Back returns to the previous location. It reports false when there is
// no history.
func (b *Browser) Back() bool {
	b.mu.Lock()
	if len(b.history) == 0 {
		b.mu.Unlock()
		return false
	}
	from := b.current
	b.current = b.history[len(b.history)-1]
	b.history = b.history[:len(b.history)-1]
	to := b.current
	listeners := append([]Listener(nil), b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(from, to)
	}
	return true
}
