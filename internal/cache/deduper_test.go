package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func TestAcquireOnce_FailsOpen(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	d := NewDeduper(rdb, time.Minute, nil)
	for i := 0; i < 2; i++ {
		if !d.AcquireOnce(context.Background(), "create_task", "k") {
			t.Fatalf("attempt %d: AcquireOnce = false with redis down, want true", i)
		}
	}
}

// TestAcquireOnce_Live runs against a real server when TASKHUB_TEST_REDIS_ADDR is set.
func TestAcquireOnce_Live(t *testing.T) {
	addr := os.Getenv("TASKHUB_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TASKHUB_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	rdb, err := NewClient(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer rdb.Close()

	d := NewDeduper(rdb, time.Minute, nil)
	key := uuid.NewString()
	if !d.AcquireOnce(ctx, "test", key) {
		t.Fatal("first AcquireOnce = false")
	}
	if d.AcquireOnce(ctx, "test", key) {
		t.Fatal("second AcquireOnce = true")
	}
	d.Release(ctx, "test", key)
	if !d.AcquireOnce(ctx, "test", key) {
		t.Error("AcquireOnce after Release = false")
	}
	d.Release(ctx, "test", key)
}
