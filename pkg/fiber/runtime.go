package fiber

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vnykmshr/gopin/pkg/affinity"
	gperrors "github.com/vnykmshr/gopin/pkg/common/errors"
)

// Config holds configuration options for creating a runtime.
type Config struct {
	// OnSpawn is called after a fiber has been created, before its first
	// awakening. Useful for instrumentation.
	OnSpawn func(*Context)

	// OnComplete is called when a fiber's body has returned.
	OnComplete func(*Context)
}

// Runtime owns fiber lifecycle accounting for one pool of workers. Policies
// are adopted per worker thread; the runtime itself never decides placement.
type Runtime struct {
	cfg    Config
	nextID atomic.Uint64
	live   sync.WaitGroup
	down   atomic.Bool

	mu       sync.Mutex
	policies []Policy
}

// New creates a runtime with default configuration.
func New() *Runtime {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a runtime with the given configuration.
func NewWithConfig(cfg Config) *Runtime {
	return &Runtime{cfg: cfg}
}

// Worker is one OS thread's participation in a runtime: an adopted policy
// plus the resume loop that drives fibers on this thread.
type Worker struct {
	rt     *Runtime
	policy Policy
	index  int
	cpu    int

	// local is worker-local storage, the per-thread state fibers may consult
	// through F.Worker. Must be set before Run and before any fiber can land
	// here.
	local interface{}
}

// WorkerOption customizes a worker at adoption time.
type WorkerOption func(*Worker)

// WithIndex assigns a caller-chosen worker index, reported by Index.
func WithIndex(i int) WorkerOption {
	return func(w *Worker) { w.index = i }
}

// WithCPU pins the worker's OS thread to the given logical CPU when Run
// starts. If pinning fails, including on platforms pkg/affinity does not
// support, Run returns an error without running any fiber.
func WithCPU(cpu int) WorkerOption {
	return func(w *Worker) { w.cpu = cpu }
}

// Adopt registers a policy for the calling thread's worker and returns the
// worker handle. The handle is what spawns fibers and runs the resume loop.
func (rt *Runtime) Adopt(p Policy, opts ...WorkerOption) *Worker {
	if p == nil {
		panic("policy cannot be nil")
	}

	w := &Worker{rt: rt, policy: p, index: -1, cpu: -1}
	for _, opt := range opts {
		opt(w)
	}

	rt.mu.Lock()
	rt.policies = append(rt.policies, p)
	rt.mu.Unlock()

	return w
}

// Index returns the index assigned with WithIndex, or -1.
func (w *Worker) Index() int { return w.index }

// SetLocal stores worker-local state readable by fibers running here. Call
// before Run.
func (w *Worker) SetLocal(v interface{}) { w.local = v }

// Local returns the worker-local state set with SetLocal.
func (w *Worker) Local() interface{} { return w.local }

// Policy returns the policy adopted by this worker.
func (w *Worker) Policy() Policy { return w.policy }

// Run locks the calling goroutine to its OS thread and drives the worker's
// resume loop until the runtime is shut down and the local queue is drained.
func (w *Worker) Run() error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if w.cpu >= 0 {
		if err := affinity.Pin(w.cpu); err != nil {
			return gperrors.NewOperationError("fiber", "Run", err).
				WithContext(fmt.Sprintf("pinning worker %d to cpu %d", w.index, w.cpu))
		}
	}

	for {
		ctx := w.policy.PickNext()
		if ctx == nil {
			if w.rt.down.Load() {
				return nil
			}
			w.policy.SuspendUntil(time.Time{})
			continue
		}
		w.resumeFiber(ctx)
	}
}

// resumeFiber switches to ctx and handles the reason it handed control back.
func (w *Worker) resumeFiber(c *Context) {
	c.worker = w
	c.resume <- struct{}{}
	switch <-c.yield {
	case yieldDone:
		w.rt.finish(c)
	case yieldReady:
		// Cooperative yield: this worker is the notifying thread.
		w.policy.Awakened(c, c.props)
	case yieldSleeping:
		// The sleep timer re-awakens the context through its owning policy.
	}
}

// Spawn creates a fiber and reports its first awakening to this worker's
// policy, which decides where it will run.
func (w *Worker) Spawn(body Body) (*Context, error) {
	return w.spawn(body, false)
}

// SpawnPinned creates a fiber whose context is pinned: it is always enqueued
// on the notifying thread's policy and never migrates off this worker.
func (w *Worker) SpawnPinned(body Body) (*Context, error) {
	return w.spawn(body, true)
}

func (w *Worker) spawn(body Body, pinned bool) (*Context, error) {
	if body == nil {
		return nil, fmt.Errorf("fiber body cannot be nil")
	}
	if w.rt.down.Load() {
		return nil, fmt.Errorf("cannot spawn fiber: %w", gperrors.ErrShutdown)
	}

	c := &Context{
		id:     w.rt.nextID.Add(1),
		pinned: pinned,
		rt:     w.rt,
		body:   body,
		resume: make(chan struct{}),
		yield:  make(chan yieldKind),
	}
	c.props = w.policy.NewProperties(c)
	if pinned {
		c.owner = w.policy
	}

	w.rt.live.Add(1)
	if w.rt.cfg.OnSpawn != nil {
		w.rt.cfg.OnSpawn(c)
	}
	go c.run()

	w.policy.Awakened(c, c.props)
	w.policy.Notify()
	return c, nil
}

// ready delivers a re-awakening for a previously-run fiber to the policy
// owning its context, then nudges that policy's worker out of its idle wait.
func (rt *Runtime) ready(c *Context) {
	p := c.owner
	if p == nil {
		panic("fiber: ready called for a detached context")
	}
	p.Awakened(c, c.props)
	p.Notify()
}

func (rt *Runtime) finish(c *Context) {
	if rt.cfg.OnComplete != nil {
		rt.cfg.OnComplete(c)
	}
	rt.live.Done()
}

// Wait blocks until every fiber spawned so far has run to completion.
func (rt *Runtime) Wait() {
	rt.live.Wait()
}

// Shutdown marks the runtime as stopping and wakes every adopted policy so
// idle workers can observe the state and return from Run. Queued fibers are
// still drained before a worker exits.
func (rt *Runtime) Shutdown() {
	rt.down.Store(true)

	rt.mu.Lock()
	policies := make([]Policy, len(rt.policies))
	copy(policies, rt.policies)
	rt.mu.Unlock()

	for _, p := range policies {
		p.Notify()
	}
}
