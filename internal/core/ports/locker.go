package ports

import "context"

// UnlockFunc releases a lock obtained from Locker.
type UnlockFunc func(ctx context.Context) error

// Locker serializes work on a key (a patient) across callers.
type Locker interface {
	Lock(ctx context.Context, key string) (UnlockFunc, error)
}
