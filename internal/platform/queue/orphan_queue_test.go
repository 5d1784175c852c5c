package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestOrphanQueueFIFO(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := NewOrphanQueue(rdb, "orphans_test")
	ctx := context.Background()

	for _, id := range []string{"s1", "s2"} {
		if err := q.Push(ctx, id); err != nil {
			t.Fatalf("Push(%s): %v", id, err)
		}
	}
	if n, _ := rdb.LLen(ctx, "orphans_test").Result(); n != 2 {
		t.Fatalf("expected 2 queued, got %d", n)
	}

	for _, want := range []string{"s1", "s2"} {
		got, ok, err := q.Pop(ctx, 100*time.Millisecond)
		if err != nil || !ok {
			t.Fatalf("Pop: ok=%v err=%v", ok, err)
		}
		if got != want {
			t.Fatalf("expected %s, got %s", want, got)
		}
	}
}

func TestOrphanQueuePopEmpty(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	q := NewOrphanQueue(rdb, "orphans_empty")
	_, ok, err := q.Pop(context.Background(), 50*time.Millisecond)
	if err != nil {
		t.Fatalf("Pop: %v", err)
	}
	if ok {
		t.Fatalf("expected empty pop")
	}
}
