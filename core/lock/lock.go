package lock

import (
	"context"
	"errors"
)

// ErrNotObtained is returned by TryAcquire when another holder owns the key.
var ErrNotObtained = errors.New("lock: not obtained")

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive, non-blocking leases keyed by string.
type Locker interface {
	TryAcquire(ctx context.Context, key string) (Lease, error)
}
