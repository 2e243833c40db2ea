package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of the same session across replicas, so two
// servers never advance one conversation concurrently.
type DistributedLocker interface {
	// Lock blocks until the key is held or ctx is done. The lock expires after ttl
	// if the holder dies. The returned UnlockFunc must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
