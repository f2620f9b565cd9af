package service

import "sync"

// lockMap hands out one mutex per aggregate key so operations on the same
// team, sector, war, or alliance serialize while unrelated aggregates
// proceed in parallel. Locks are never reclaimed; the key space is bounded
// by the number of live aggregates.
type lockMap struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockMap() *lockMap {
	return &lockMap{locks: make(map[string]*sync.Mutex)}
}

func (m *lockMap) get(key string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	return l
}

// Lock acquires the aggregate lock for key and returns the unlock func
func (m *lockMap) Lock(key string) func() {
	l := m.get(key)
	l.Lock()
	return l.Unlock
}
