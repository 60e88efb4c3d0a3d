package service

import "sync"

// ownerLocks admits one photo operation per owner at a time.
type ownerLocks struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

func newOwnerLocks() *ownerLocks {
	return &ownerLocks{busy: make(map[string]struct{})}
}

// TryAcquire marks ownerID busy. It returns false if the owner already is.
func (l *ownerLocks) TryAcquire(ownerID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.busy[ownerID]; ok {
		return false
	}
	l.busy[ownerID] = struct{}{}
	return true
}

func (l *ownerLocks) Release(ownerID string) {
	l.mu.Lock()
	delete(l.busy, ownerID)
	l.mu.Unlock()
}
