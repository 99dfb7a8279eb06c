// Package lock provides keyed mutual exclusion used to serialise
// check-then-write sequences on a shared resource such as a room.
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a lock could not be obtained within the wait budget.
var ErrTimeout = errors.New("lock: timed out waiting for lock")

// ErrLockLost is returned by Release when the lock expired or was taken over
// before the holder gave it back.
var ErrLockLost = errors.New("lock: lock lost before release")

// Release gives the lock back. It is safe to call more than once.
type Release func(ctx context.Context) error

// Locker hands out exclusive, keyed locks.
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}
