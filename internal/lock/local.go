package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// LocalLocker is an in-process keyed mutex. It only serializes writers of one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
	wait  time.Duration
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocalLocker creates a locker. wait <= 0 waits until ctx is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{
		slots: make(map[string]*slot),
		wait:  wait,
	}
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, fmt.Errorf("%s: %w", key, model.ErrLockTimeout)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}
