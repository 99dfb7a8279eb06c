package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker serialises callers inside a single process.
type LocalLocker struct {
	wait  time.Duration
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocalLocker builds an in-process locker. A non-positive wait blocks until ctx is done.
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{wait: wait, slots: make(map[string]chan struct{})}
}

// Acquire blocks until key is free, ctx is cancelled or the wait budget runs out.
func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	slot := l.slot(key)

	var timeout <-chan time.Time
	if l.wait > 0 {
		timer := time.NewTimer(l.wait)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timeout:
		return nil, ErrTimeout
	}

	var once sync.Once
	return func(context.Context) error {
		once.Do(func() { <-slot })
		return nil
	}, nil
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}
