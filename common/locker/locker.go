// Package locker serializes the commit-and-update-cache step of chain
// mutations per queue key. It covers a single process; cross-process
// deployments need an external coordination point such as a distributed lock.
package locker

import "sync"

// KeyedMutex provides one mutex per string key
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates an empty keyed mutex
func New() *KeyedMutex {
	return &KeyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutex for the key and returns its unlock function
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
