package spawn

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/gopin/internal/testutil"
	"github.com/vnykmshr/gopin/pkg/common/errors"
)

// testRedis returns a client against the local test server, skipping the
// test when none is reachable.
func testRedis(t *testing.T) *redis.Client {
	t.Helper()

	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // dedicated test database
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}

	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func newTestDistributed(t *testing.T, limit int, window time.Duration) *Distributed {
	t.Helper()

	d, err := NewDistributed(DistributedConfig{
		Redis:  testRedis(t),
		Key:    fmt.Sprintf("gopin:test:%s:%d", t.Name(), time.Now().UnixNano()),
		Limit:  limit,
		Window: window,
	})
	testutil.AssertNoError(t, err)

	t.Cleanup(func() {
		d.Reset(context.Background())
		d.Close()
	})
	return d
}

func TestNewDistributedValidation(t *testing.T) {
	if _, err := NewDistributed(DistributedConfig{Key: "k", Limit: 1}); err == nil {
		t.Error("expected error for nil redis client")
	} else if !errors.IsValidationError(err) {
		t.Errorf("expected ValidationError, got %T", err)
	}

	rdb := testRedis(t)
	if _, err := NewDistributed(DistributedConfig{Redis: rdb, Limit: 1}); err == nil {
		t.Error("expected error for empty key")
	}
	if _, err := NewDistributed(DistributedConfig{Redis: rdb, Key: "k", Limit: 0}); err == nil {
		t.Error("expected error for zero limit")
	}
}

func TestDistributedWindowBudget(t *testing.T) {
	d := newTestDistributed(t, 5, time.Minute)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if !d.Allow(ctx) {
			t.Fatalf("allow %d should succeed within window budget", i)
		}
	}
	if d.Allow(ctx) {
		t.Fatal("allow beyond window budget should fail")
	}
}

func TestDistributedAllowN(t *testing.T) {
	d := newTestDistributed(t, 10, time.Minute)

	ctx := context.Background()
	testutil.AssertEqual(t, d.AllowN(ctx, 7), true)
	testutil.AssertEqual(t, d.AllowN(ctx, 4), false)
	testutil.AssertEqual(t, d.AllowN(ctx, 3), true)
	testutil.AssertEqual(t, d.AllowN(ctx, 0), true)
}

func TestDistributedNewWindowResetsBudget(t *testing.T) {
	d := newTestDistributed(t, 2, 200*time.Millisecond)

	ctx := context.Background()
	testutil.AssertEqual(t, d.AllowN(ctx, 2), true)
	testutil.AssertEqual(t, d.Allow(ctx), false)

	time.Sleep(250 * time.Millisecond)
	testutil.AssertEqual(t, d.Allow(ctx), true)
}

func TestDistributedWait(t *testing.T) {
	d := newTestDistributed(t, 1, 200*time.Millisecond)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	testutil.AssertNoError(t, d.Wait(ctx))
	// Budget spent; the next wait rides over into a following window.
	testutil.AssertNoError(t, d.Wait(ctx))
}

func TestDistributedWaitNBeyondLimit(t *testing.T) {
	d := newTestDistributed(t, 2, time.Minute)

	if err := d.WaitN(context.Background(), 3); err == nil {
		t.Error("expected error waiting for more than the window limit")
	}
}

func TestDistributedStats(t *testing.T) {
	d := newTestDistributed(t, 2, time.Minute)

	ctx := context.Background()
	d.Allow(ctx)
	d.Allow(ctx)
	d.Allow(ctx) // denied

	stats, err := d.Stats(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, stats.TotalRequests, int64(3))
	testutil.AssertEqual(t, stats.AllowedRequests, int64(2))
	testutil.AssertEqual(t, stats.DeniedRequests, int64(1))
}
