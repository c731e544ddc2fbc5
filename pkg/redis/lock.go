package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultLockTTL is how long a beat lock survives without renewal.
const DefaultLockTTL = 30 * time.Second

// acquireScript takes the lock when free and renews it when already held
// by the same owner.
var acquireScript = redis.NewScript(`
local cur = redis.call("GET", KEYS[1])
if not cur then
	redis.call("SET", KEYS[1], ARGV[1], "PX", ARGV[2])
	return 1
end
if cur == ARGV[1] then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
	return 1
end
return 0
`)

// releaseScript deletes the lock only if it is still owned by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Lock is a single-owner lease in Redis. It implements scheduler.Locker so
// that only one beat replica dispatches at a time.
type Lock struct {
	client redis.UniversalClient
	key    string
	owner  string
	ttl    time.Duration
}

// LockOption configures a Lock.
type LockOption func(*Lock)

// WithLockTTL sets the lease duration. It must exceed the dispatch loop
// interval by a comfortable margin. Defaults to 30s.
func WithLockTTL(d time.Duration) LockOption {
	return func(l *Lock) {
		if d > 0 {
			l.ttl = d
		}
	}
}

// WithLockOwner overrides the random owner token.
func WithLockOwner(owner string) LockOption {
	return func(l *Lock) {
		if owner != "" {
			l.owner = owner
		}
	}
}

// NewLock creates a lock on key.
func NewLock(client redis.UniversalClient, key string, opts ...LockOption) (*Lock, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if key == "" {
		return nil, ErrLockKeyRequired
	}

	l := &Lock{
		client: client,
		key:    key,
		owner:  uuid.NewString(),
		ttl:    DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Owner returns the token identifying this lock holder.
func (l *Lock) Owner() string {
	return l.owner
}

// Acquire takes or renews the lease. It returns false when another owner
// holds it.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	n, err := acquireScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release gives up the lease if this owner still holds it.
func (l *Lock) Release(ctx context.Context) error {
	err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}
