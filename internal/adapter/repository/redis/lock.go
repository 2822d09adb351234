package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// LockOptions configures Locker.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions suits claim transactions, which finish well within a second.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     5 * time.Second,
		Tries:      20,
		RetryDelay: 25 * time.Millisecond,
	}
}

// Locker implements usecase.Locker with redsync, so the per-envelope lock holds
// across server instances.
type Locker struct {
	rs     *redsync.Redsync
	prefix string
	opts   LockOptions
}

// NewLocker creates a Locker on top of an existing client.
func NewLocker(client redis.UniversalClient, opts LockOptions) *Locker {
	return &Locker{
		rs:     redsync.New(goredis.NewPool(client)),
		prefix: "hongbao:lock:",
		opts:   opts,
	}
}

// Lock blocks until key is held, the tries run out, or ctx ends.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	mutex := l.rs.NewMutex(l.prefix+key,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}

	return func() {
		// An expired lock needs no release.
		_, _ = mutex.UnlockContext(context.WithoutCancel(ctx))
	}, nil
}
