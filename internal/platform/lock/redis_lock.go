package lock

import (
	"context"
	"fmt"
	"time"

	"algoarena/internal/common"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Compare-and-delete so a holder never releases a lock that expired and was re-taken.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

const retryInterval = 25 * time.Millisecond

// RedisLocker serializes work per user with SET NX PX locks.
type RedisLocker struct {
	rdb  *redis.Client
	ttl  time.Duration
	wait time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, wait: wait}
}

func UserKey(userID string) string {
	return "lock:user:" + userID
}

// LockUser blocks until the user's lock is held or the wait elapses, in which
// case it returns common.ErrLockFailed. The returned func releases the lock.
func (l *RedisLocker) LockUser(ctx context.Context, userID string) (func(context.Context) error, error) {
	key := UserKey(userID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func(ctx context.Context) error {
				return release(ctx, l.rdb, key, token)
			}, nil
		}
		if !time.Now().Add(retryInterval).Before(deadline) {
			return nil, fmt.Errorf("%s busy: %w", key, common.ErrLockFailed)
		}

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func release(ctx context.Context, rdb *redis.Client, key, token string) error {
	deleted, err := releaseScript.Run(ctx, rdb, []string{key}, token).Int64()
	if err != nil {
		return fmt.Errorf("release %s: %w", key, err)
	}
	if deleted == 0 {
		return fmt.Errorf("release %s: lock expired or taken over: %w", key, common.ErrLockFailed)
	}
	return nil
}
