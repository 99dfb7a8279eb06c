package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockerSerialisesSameKey(t *testing.T) {
	locker := NewLocalLocker(0)
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "room:1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				prev := atomic.LoadInt32(&maxInside)
				if n <= prev || atomic.CompareAndSwapInt32(&maxInside, prev, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			assert.NoError(t, release(context.Background()))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
}

func TestLocalLockerTimeout(t *testing.T) {
	locker := NewLocalLocker(20 * time.Millisecond)
	release, err := locker.Acquire(context.Background(), "room:1")
	require.NoError(t, err)

	_, err = locker.Acquire(context.Background(), "room:1")
	assert.ErrorIs(t, err, ErrTimeout)

	other, err := locker.Acquire(context.Background(), "room:2")
	require.NoError(t, err)
	require.NoError(t, other(context.Background()))

	require.NoError(t, release(context.Background()))
	require.NoError(t, release(context.Background()))

	again, err := locker.Acquire(context.Background(), "room:1")
	require.NoError(t, err)
	require.NoError(t, again(context.Background()))
}

func TestLocalLockerContextCancel(t *testing.T) {
	locker := NewLocalLocker(0)
	release, err := locker.Acquire(context.Background(), "room:1")
	require.NoError(t, err)
	defer release(context.Background()) //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Acquire(ctx, "room:1")
	assert.ErrorIs(t, err, context.Canceled)
}
