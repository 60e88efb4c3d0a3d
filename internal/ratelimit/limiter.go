// Package ratelimit caps how many photos an owner may upload per window.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrLimitExceeded is returned by Reserve when the request would exceed the
// owner's budget for the current window.
var ErrLimitExceeded = errors.New("upload rate limit exceeded")

// Window is one owner's usage within a fixed window.
type Window struct {
	Start time.Time
	Count int
}

// Store persists windows by owner. Implementations need not be safe for
// concurrent use; Limiter serializes access.
type Store interface {
	Get(ownerID string) (Window, bool)
	Put(ownerID string, w Window)
}

// Limiter enforces Limit uploads per owner per Window using fixed windows.
type Limiter struct {
	mu     sync.Mutex
	store  Store
	limit  int
	window time.Duration
	now    func() time.Time
}

// New returns a Limiter. A limit of zero or less disables limiting.
func New(store Store, limit int, window time.Duration) *Limiter {
	return &Limiter{store: store, limit: limit, window: window, now: time.Now}
}

// Reservation identifies uploads counted by Reserve. The zero value releases nothing.
type Reservation struct {
	owner string
	start time.Time
	count int
}

// Reserve records n uploads for ownerID, or returns ErrLimitExceeded and
// records nothing.
func (l *Limiter) Reserve(ownerID string, n int) (Reservation, error) {
	if l == nil || l.limit <= 0 || n <= 0 {
		return Reservation{}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.store.Get(ownerID)
	if !ok || now.Sub(w.Start) >= l.window {
		w = Window{Start: now}
	}
	if w.Count+n > l.limit {
		return Reservation{}, fmt.Errorf("%w: %d of %d used, retry after %s",
			ErrLimitExceeded, w.Count, l.limit, w.Start.Add(l.window).Sub(now).Round(time.Second))
	}
	w.Count += n
	l.store.Put(ownerID, w)
	return Reservation{owner: ownerID, start: w.Start, count: n}, nil
}

// Release gives back up to n uploads of r, for files that failed. Nothing is
// released once r's window has ended.
func (l *Limiter) Release(r Reservation, n int) {
	if l == nil || r.count == 0 || n <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.store.Get(r.owner)
	if !ok || !w.Start.Equal(r.start) {
		return
	}
	w.Count = max(w.Count-min(n, r.count), 0)
	l.store.Put(r.owner, w)
}

// LRUStore keeps windows for the most recently active owners in memory.
type LRUStore struct {
	cache *lru.Cache[string, Window]
}

// NewLRUStore holds at most size owners; the least recently active is evicted first.
func NewLRUStore(size int) (*LRUStore, error) {
	cache, err := lru.New[string, Window](size)
	if err != nil {
		return nil, fmt.Errorf("rate limit store: %w", err)
	}
	return &LRUStore{cache: cache}, nil
}

func (s *LRUStore) Get(ownerID string) (Window, bool) { return s.cache.Get(ownerID) }

func (s *LRUStore) Put(ownerID string, w Window) { s.cache.Add(ownerID, w) }
