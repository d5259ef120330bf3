// Package lock guards jobs against overlapping runs across worker replicas.
package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrLocked is returned when another holder owns the lock
var ErrLocked = errors.New("lock held by another worker")

// Locker acquires named, expiring locks. The returned release func is safe to
// call more than once.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (release func(), err error)
}

// Local is an in-process Locker for single-replica deployments and tests
type Local struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

// NewLocal creates an in-process Locker
func NewLocal() *Local {
	return &Local{held: make(map[string]time.Time), now: time.Now}
}

// Acquire takes the named lock until release or ttl expiry
func (l *Local) Acquire(_ context.Context, name string, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if expiry, ok := l.held[name]; ok && now.Before(expiry) {
		return nil, ErrLocked
	}
	expiry := now.Add(ttl)
	l.held[name] = expiry

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// A lock that expired and was re-taken belongs to the new holder
			if l.held[name].Equal(expiry) {
				delete(l.held, name)
			}
		})
	}, nil
}
