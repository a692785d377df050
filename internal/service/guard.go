package service

import (
	"sync"
)

// WarehouseGuard serializes drop against in-flight item operations, per
// warehouse name. Item operations hold the shared side for their duration;
// drop takes the exclusive side, so once a drop begins no new operation is
// admitted for that name and in-flight operations finish first.
//
// Entries live for the life of the process: a recreated warehouse must keep
// using the same mutex, otherwise a caller still holding a reference to the
// old one could overlap a later drop.
type WarehouseGuard struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

// NewWarehouseGuard creates an empty guard
func NewWarehouseGuard() *WarehouseGuard {
	return &WarehouseGuard{
		locks: make(map[string]*sync.RWMutex),
	}
}

// lockFor returns the lock for a warehouse name, creating it on first use
func (g *WarehouseGuard) lockFor(name string) *sync.RWMutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.locks[name]
	if !ok {
		lock = &sync.RWMutex{}
		g.locks[name] = lock
	}
	return lock
}
