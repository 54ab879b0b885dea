package dialog

import "sync"

// keyedMutex serializes turns of the same user. An entry lives only
// while its lock is held or waited on, so the map is bounded by
// in-flight turns rather than by every user ever seen.
type keyedMutex struct {
	mu   sync.Mutex
	held map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{held: make(map[string]*keyedLock)}
}

// lock blocks until the key is free and returns the matching unlock.
func (km *keyedMutex) lock(key string) func() {
	km.mu.Lock()
	l, ok := km.held[key]
	if !ok {
		l = &keyedLock{}
		km.held[key] = l
	}
	l.refs++
	km.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		km.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(km.held, key)
		}
		km.mu.Unlock()
	}
}

// size returns the number of live entries.
func (km *keyedMutex) size() int {
	km.mu.Lock()
	defer km.mu.Unlock()
	return len(km.held)
}
