// v0
// internal/httpserver/health.go
package httpserver

import "sync"

// HealthState tracks readiness of the HTTP API. Liveness is always true while
// the process runs; readiness flips on once every dependency is wired and off
// again when shutdown starts.
type HealthState struct {
	mu    sync.RWMutex
	ready bool
}

// NewHealthState returns a state that reports not ready.
func NewHealthState() *HealthState {
	return &HealthState{}
}

// SetReady flips the readiness flag.
func (h *HealthState) SetReady(value bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = value
}

// Ready reports whether the server accepts traffic.
func (h *HealthState) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}
