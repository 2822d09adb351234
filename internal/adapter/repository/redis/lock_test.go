package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockerMutualExclusion(t *testing.T) {
	client, _ := newTestRedisClient(t)

	locker := NewLocker(client, LockOptions{Expiry: 2 * time.Second, Tries: 200, RetryDelay: 2 * time.Millisecond})

	var (
		wg      sync.WaitGroup
		holders int32
		maxSeen int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), "envelope:e1")
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&holders, 1)
			for {
				m := atomic.LoadInt32(&maxSeen)
				if n <= m || atomic.CompareAndSwapInt32(&maxSeen, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&holders, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxSeen)
}

func TestLockerGivesUpWhenHeld(t *testing.T) {
	client, _ := newTestRedisClient(t)

	locker := NewLocker(client, LockOptions{Expiry: time.Minute, Tries: 2, RetryDelay: time.Millisecond})

	unlock, err := locker.Lock(context.Background(), "envelope:e1")
	require.NoError(t, err)
	defer unlock()

	_, err = locker.Lock(context.Background(), "envelope:e1")
	require.Error(t, err)

	other, err := locker.Lock(context.Background(), "envelope:e2")
	require.NoError(t, err)
	other()
}
