package interfaces

import (
	"context"
	"time"
)

// LockRepository provides named leases shared by every process using the same backend
type LockRepository interface {
	// TryAcquire takes the lease name for holder until ttl elapses. It never waits:
	// when another holder owns an unexpired lease it returns false.
	TryAcquire(ctx context.Context, name, holder string, ttl time.Duration) (bool, error)

	// Release drops the lease if holder still owns it
	Release(ctx context.Context, name, holder string) error
}
