// v0
// internal/store/memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

// MemoryStore keeps events in process memory. It backs tests and demo mode.
type MemoryStore struct {
	mu     sync.RWMutex
	events []scan.Event
	closed bool
	now    func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Append validates and records e.
func (s *MemoryStore) Append(ctx context.Context, e scan.Event) (scan.Event, error) {
	if err := ctx.Err(); err != nil {
		return scan.Event{}, err
	}
	e, err := prepare(e, s.now)
	if err != nil {
		return scan.Event{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return scan.Event{}, ErrClosed
	}
	s.events = append(s.events, e)
	return e, nil
}

// Query returns a copy of the matching events.
func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]scan.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}
	out := make([]scan.Event, 0, len(s.events))
	for _, e := range s.events {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// Clear drops every event.
func (s *MemoryStore) Clear(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.events))
	s.events = nil
	return n, nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
