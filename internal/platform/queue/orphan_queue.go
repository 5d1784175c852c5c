package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// OrphanQueue holds ids of submissions whose judging failed before a verdict
// was written. Producers LPUSH, the reconciler BRPOPs.
type OrphanQueue struct {
	rdb  *redis.Client
	name string
}

func NewOrphanQueue(rdb *redis.Client, name string) *OrphanQueue {
	return &OrphanQueue{rdb: rdb, name: name}
}

func (q *OrphanQueue) Push(ctx context.Context, submissionID string) error {
	if err := q.rdb.LPush(ctx, q.name, submissionID).Err(); err != nil {
		return fmt.Errorf("push orphan %s: %w", submissionID, err)
	}
	return nil
}

// Pop blocks up to timeout. ok is false when the wait expired with nothing queued.
func (q *OrphanQueue) Pop(ctx context.Context, timeout time.Duration) (id string, ok bool, err error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	// [queueName, value]
	if len(res) < 2 || res[1] == "" {
		return "", false, nil
	}
	return res[1], true, nil
}
