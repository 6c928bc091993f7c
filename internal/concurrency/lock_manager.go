package concurrency

import (
	"sync"
)

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// LockManager hands out one mutex per key. Entries are reference counted and
// dropped when the last holder unlocks, so short-lived keys do not accumulate.
type LockManager struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

// NewLockManager creates a new LockManager
func NewLockManager() *LockManager {
	return &LockManager{locks: make(map[string]*keyedLock)}
}

// Lock blocks until the mutex for key is held and returns its unlock function
func (lm *LockManager) Lock(key string) (unlock func()) {
	lm.mu.Lock()
	l, ok := lm.locks[key]
	if !ok {
		l = &keyedLock{}
		lm.locks[key] = l
	}
	l.refs++
	lm.mu.Unlock()

	l.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			lm.mu.Lock()
			l.refs--
			if l.refs == 0 {
				delete(lm.locks, key)
			}
			lm.mu.Unlock()
		})
	}
}

// WithLock runs fn while holding the mutex for key
func (lm *LockManager) WithLock(key string, fn func()) {
	unlock := lm.Lock(key)
	defer unlock()
	fn()
}

// Len returns the number of keys currently held or waited on
func (lm *LockManager) Len() int {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	return len(lm.locks)
}
