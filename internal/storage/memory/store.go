package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yndnr/dashlink/internal/core/domain"
)

type entry struct {
	value   string
	expires time.Time // zero means no expiry
}

// Store is a concurrency-safe map with optional per-entry TTL.
type Store struct {
	mu     sync.RWMutex
	items  map[string]entry
	ttl    time.Duration
	clock  clockwork.Clock
	closed bool
}

// Option configures the Store.
type Option func(*Store)

// WithTTL sets the lifetime of every entry. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithClock sets the clock used for expiry.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		s.clock = clock
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		items: make(map[string]entry),
		clock: clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value for key, or domain.ErrKeyNotFound when it is
// missing or expired.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", domain.ErrStorageClosed
	}
	e, ok := s.items[key]
	if !ok || s.expired(e) {
		return "", domain.ErrKeyNotFound
	}
	return e.value, nil
}

// Set stores value under key, restarting its TTL.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStorageClosed
	}
	e := entry{value: value}
	if s.ttl > 0 {
		e.expires = s.clock.Now().Add(s.ttl)
	}
	s.items[key] = e
	return nil
}

// Delete removes key.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrStorageClosed
	}
	delete(s.items, key)
	return nil
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.items {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

// Sweep drops expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for k, e := range s.items {
		if s.expired(e) {
			delete(s.items, k)
			removed++
		}
	}
	return removed
}

// Close discards every entry. Further calls fail with ErrStorageClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.items = nil
	return nil
}

func (s *Store) expired(e entry) bool {
	return !e.expires.IsZero() && !s.clock.Now().Before(e.expires)
}
