package fiber

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vnykmshr/gopin/internal/testutil"
	gperrors "github.com/vnykmshr/gopin/pkg/common/errors"
)

// testPolicy is a minimal single-queue FIFO policy used to exercise the
// runtime without the pinned scheduler.
type testPolicy struct {
	mu   sync.Mutex
	q    []*Context
	wake chan struct{}
}

func newTestPolicy() *testPolicy {
	return &testPolicy{wake: make(chan struct{}, 1)}
}

func (p *testPolicy) NewProperties(*Context) Properties { return nil }

func (p *testPolicy) Awakened(c *Context, _ Properties) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !c.IsPinned() {
		c.Detach()
	}
	p.q = append(p.q, c)
}

func (p *testPolicy) PickNext() *Context {
	p.mu.Lock()
	if len(p.q) == 0 {
		p.mu.Unlock()
		return nil
	}
	c := p.q[0]
	p.q = p.q[1:]
	p.mu.Unlock()

	if !c.IsPinned() {
		c.Attach(p)
	}
	return c
}

func (p *testPolicy) HasReadyFibers() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.q) > 0
}

func (p *testPolicy) SuspendUntil(deadline time.Time) {
	if deadline.IsZero() {
		<-p.wake
		return
	}
	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()
	select {
	case <-p.wake:
	case <-timer.C:
	}
}

func (p *testPolicy) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// startWorker runs w in its own goroutine and returns a channel closed when
// Run returns.
func startWorker(t *testing.T, w *Worker) <-chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := w.Run(); err != nil {
			t.Errorf("worker run: %v", err)
		}
	}()
	return done
}

func TestSpawnRunsToCompletion(t *testing.T) {
	rt := New()
	w := rt.Adopt(newTestPolicy(), WithIndex(0))
	done := startWorker(t, w)

	var executed int32
	_, err := w.Spawn(func(f *F) {
		atomic.AddInt32(&executed, 1)
	})
	testutil.AssertNoError(t, err)

	rt.Wait()
	testutil.AssertEqual(t, atomic.LoadInt32(&executed), int32(1))

	rt.Shutdown()
	testutil.WaitClosed(t, done, time.Second)
}

func TestSleepSuspendsAndResumes(t *testing.T) {
	rt := New()
	w := rt.Adopt(newTestPolicy())
	done := startWorker(t, w)

	var iterations int32
	start := time.Now()
	_, err := w.Spawn(func(f *F) {
		for i := 0; i < 3; i++ {
			f.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&iterations, 1)
		}
	})
	testutil.AssertNoError(t, err)

	rt.Wait()
	testutil.AssertEqual(t, atomic.LoadInt32(&iterations), int32(3))
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected at least 30ms of sleeping, got %v", elapsed)
	}

	rt.Shutdown()
	testutil.WaitClosed(t, done, time.Second)
}

func TestYieldPreservesFIFOOrder(t *testing.T) {
	rt := New()
	w := rt.Adopt(newTestPolicy())

	var mu sync.Mutex
	var order []string
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	// Spawn before starting the worker so the queue order is deterministic.
	_, err := w.Spawn(func(f *F) {
		record("A1")
		f.Yield()
		record("A2")
	})
	testutil.AssertNoError(t, err)
	_, err = w.Spawn(func(f *F) {
		record("B")
	})
	testutil.AssertNoError(t, err)

	done := startWorker(t, w)
	rt.Wait()
	rt.Shutdown()
	testutil.WaitClosed(t, done, time.Second)

	mu.Lock()
	defer mu.Unlock()
	want := []string{"A1", "B", "A2"}
	if len(order) != len(want) {
		t.Fatalf("got order %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got order %v, want %v", order, want)
		}
	}
}

func TestWorkerLocalVisibleToFibers(t *testing.T) {
	rt := New()
	w := rt.Adopt(newTestPolicy(), WithIndex(7))
	w.SetLocal("worker-7")
	done := startWorker(t, w)

	var sawLocal interface{}
	var sawIndex int
	_, err := w.Spawn(func(f *F) {
		sawLocal = f.Worker().Local()
		sawIndex = f.Worker().Index()
	})
	testutil.AssertNoError(t, err)

	rt.Wait()
	testutil.AssertEqual(t, sawLocal.(string), "worker-7")
	testutil.AssertEqual(t, sawIndex, 7)

	rt.Shutdown()
	testutil.WaitClosed(t, done, time.Second)
}

func TestSpawnPinnedKeepsOwner(t *testing.T) {
	rt := New()
	p := newTestPolicy()
	w := rt.Adopt(p)
	done := startWorker(t, w)

	var workers []*Worker
	ctx, err := w.SpawnPinned(func(f *F) {
		for i := 0; i < 3; i++ {
			workers = append(workers, f.Worker())
			f.Sleep(time.Millisecond)
		}
	})
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, ctx.IsPinned(), true)

	rt.Wait()
	for _, got := range workers {
		if got != w {
			t.Fatal("pinned fiber observed a different worker")
		}
	}

	rt.Shutdown()
	testutil.WaitClosed(t, done, time.Second)
}

func TestSpawnValidation(t *testing.T) {
	rt := New()
	w := rt.Adopt(newTestPolicy())

	if _, err := w.Spawn(nil); err == nil {
		t.Error("expected error for nil body")
	}

	rt.Shutdown()
	if _, err := w.Spawn(func(f *F) {}); !errors.Is(err, gperrors.ErrShutdown) {
		t.Errorf("expected ErrShutdown, got %v", err)
	}
}

func TestShutdownUnblocksIdleWorker(t *testing.T) {
	rt := New()
	w := rt.Adopt(newTestPolicy())
	done := startWorker(t, w)

	// Give the worker a moment to reach its idle wait, then shut down.
	time.Sleep(10 * time.Millisecond)
	rt.Shutdown()
	testutil.WaitClosed(t, done, time.Second)
}

func TestAdoptNilPolicyPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	New().Adopt(nil)
}

func TestLifecycleCallbacks(t *testing.T) {
	var spawned, completed int32
	rt := NewWithConfig(Config{
		OnSpawn:    func(*Context) { atomic.AddInt32(&spawned, 1) },
		OnComplete: func(*Context) { atomic.AddInt32(&completed, 1) },
	})
	w := rt.Adopt(newTestPolicy())
	done := startWorker(t, w)

	for i := 0; i < 5; i++ {
		_, err := w.Spawn(func(f *F) {})
		testutil.AssertNoError(t, err)
	}

	rt.Wait()
	testutil.AssertEqual(t, atomic.LoadInt32(&spawned), int32(5))
	testutil.AssertEqual(t, atomic.LoadInt32(&completed), int32(5))

	rt.Shutdown()
	testutil.WaitClosed(t, done, time.Second)
}
