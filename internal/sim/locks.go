package sim

import "sync"

// KeyedLocks provides one mutex per entity id. Engine stores are not
// safe for concurrent writers against the same id, so every mutating
// operation takes the key lock first (single-writer per entity). Locks
// are created on first use and never removed; the key space is the set
// of populations/settlements, which is small and stable.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Lock acquires the mutex for id, allocating it if needed, and returns
// the unlock function.
func (k *KeyedLocks) Lock(id string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
