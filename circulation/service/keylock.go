package service

import (
	"sync"
)

// keyLock is a table of mutexes keyed by string. Entries exist only while someone holds or
// waits for them.
type keyLock struct {
	mu      sync.Mutex
	entries map[string]*keyLockEntry
}

type keyLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{entries: make(map[string]*keyLockEntry)}
}

// Lock blocks until the key is free and returns the function that frees it.
func (l *keyLock) Lock(key string) (unlock func()) {
	l.mu.Lock()
	entry, exists := l.entries[key]
	if !exists {
		entry = &keyLockEntry{}
		l.entries[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.entries, key)
		}
		l.mu.Unlock()
	}
}

func (l *keyLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}
