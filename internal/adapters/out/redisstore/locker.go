package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinicalorders/internal/core/ports"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLockTTL       = 30 * time.Second
	DefaultRetryInterval = 25 * time.Millisecond
)

// ErrLockNotHeld is returned on unlock when the lock expired and another holder
// took it in the meantime.
var ErrLockNotHeld = errors.New("redis lock is no longer held")

// releaseScript deletes the key only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

var _ ports.Locker = (*Locker)(nil)

// Locker is a SET NX lock with a random token per holder. The TTL bounds how long a
// crashed holder can block a patient.
type Locker struct {
	client        redis.UniversalClient
	ttl           time.Duration
	retryInterval time.Duration
}

type LockerOption func(*Locker)

func WithTTL(ttl time.Duration) LockerOption {
	return func(l *Locker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithRetryInterval(interval time.Duration) LockerOption {
	return func(l *Locker) {
		if interval > 0 {
			l.retryInterval = interval
		}
	}
}

func NewLocker(client redis.UniversalClient, opts ...LockerOption) *Locker {
	l := &Locker{client: client, ttl: DefaultLockTTL, retryInterval: DefaultRetryInterval}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock blocks until the key is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, key string) (ports.UnlockFunc, error) {
	token := uuid.NewString()
	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if acquired {
			return l.unlockFunc(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

func (l *Locker) unlockFunc(key, token string) ports.UnlockFunc {
	return func(ctx context.Context) error {
		released, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
		if err != nil {
			return fmt.Errorf("release lock %s: %w", key, err)
		}
		if released == 0 {
			return fmt.Errorf("%w: %s", ErrLockNotHeld, key)
		}
		return nil
	}
}
