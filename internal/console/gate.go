package console

import "sync"

// Gate is the one-operation-in-flight guard for the interactive surface.
// A new submission is rejected, not queued, while a prior one is still
// running. Release is safe to call from a deferred statement regardless of
// how the worker exits.
type Gate struct {
	mu   sync.Mutex
	busy bool
}

// TryAcquire claims the gate. It returns false without blocking when an
// operation is already in flight.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

// Release frees the gate. Releasing an idle gate is a no-op.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.busy = false
}

// Busy reports whether an operation is in flight.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}
