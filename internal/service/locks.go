package service

import "sync"

// RequestLocks serializes mutations per request id. Operations on distinct
// ids proceed fully in parallel.
type RequestLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRequestLocks builds an empty lock set.
func NewRequestLocks() *RequestLocks {
	return &RequestLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given request id.
func (l *RequestLocks) Lock(requestID string) {
	l.get(requestID).Lock()
}

// Unlock releases the mutex for the given request id.
func (l *RequestLocks) Unlock(requestID string) {
	l.get(requestID).Unlock()
}

// LockPair acquires both ids in lexical order to avoid deadlock between
// concurrent pairwise operations.
func (l *RequestLocks) LockPair(a, b string) {
	if b < a {
		a, b = b, a
	}
	l.Lock(a)
	if a != b {
		l.Lock(b)
	}
}

// UnlockPair releases both ids.
func (l *RequestLocks) UnlockPair(a, b string) {
	if b < a {
		a, b = b, a
	}
	if a != b {
		l.Unlock(b)
	}
	l.Unlock(a)
}

func (l *RequestLocks) get(requestID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[requestID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[requestID] = lock
	}
	return lock
}
