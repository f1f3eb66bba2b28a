// Package attemptlock serializes score-changing work on a single attempt.
// Different attempts never contend.
package attemptlock

import (
	"context"
	"sync"
)

// Locker hands out an exclusive scope per attempt id. Lock blocks until the
// scope is free or ctx is done; the returned func releases it.
type Locker interface {
	Lock(ctx context.Context, attemptID string) (unlock func(), err error)
}

// Local is an in-process Locker. Entries are reference counted and dropped
// when nobody holds or waits for them.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{} // buffered(1): a token in the channel means held
	refs int
}

func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

func (l *Local) Lock(ctx context.Context, attemptID string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[attemptID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[attemptID] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(attemptID, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.release(attemptID, s)
		})
	}, nil
}

func (l *Local) release(id string, s *slot) {
	l.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
	l.mu.Unlock()
}

// held reports how many attempt ids currently have a slot.
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}
