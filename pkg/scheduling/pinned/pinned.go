package pinned

import (
	"time"

	"github.com/eapache/queue"

	"github.com/vnykmshr/gopin/pkg/fiber"
)

// Policy is one thread's pinned scheduler. The first time a fiber awakens it
// is handed to the next worker in round-robin order; every later awakening
// stays in that worker's local queue, so the fiber never migrates again.
type Policy struct {
	domain *Domain

	// localQueue holds the contexts ready to run on this thread, FIFO.
	// Guarded by domain.mu.
	localQueue *queue.Queue

	// wake carries at most one pending wake-up token; Notify deposits it and
	// SuspendUntil consumes it. The buffered token replaces the
	// condition-variable-plus-flag pairing a lock-based scheduler would use.
	wake chan struct{}

	slot   int
	driver bool
}

var _ fiber.Policy = (*Policy)(nil)

// New constructs a worker policy, claims the next registry slot, and blocks
// on the construction barrier until every participant of the domain has been
// constructed.
func New(d *Domain) *Policy {
	return newPolicy(d, false)
}

// NewDriver constructs the driver policy. It participates in the
// construction barrier but takes no registry slot: fibers are never
// dispatched to the driver, leaving it free to spawn work and coordinate.
func NewDriver(d *Domain) *Policy {
	return newPolicy(d, true)
}

func newPolicy(d *Domain, driver bool) *Policy {
	if d == nil {
		panic("domain cannot be nil")
	}
	p := &Policy{
		domain:     d,
		localQueue: queue.New(),
		wake:       make(chan struct{}, 1),
		slot:       -1,
		driver:     driver,
	}
	if !driver {
		d.register(p)
	}
	d.join()
	return p
}

// Slot returns the registry slot this policy occupies, or -1 for the driver.
func (p *Policy) Slot() int { return p.slot }

// IsDriver reports whether this is the driver policy.
func (p *Policy) IsDriver() bool { return p.driver }

// NewProperties attaches a fresh awakening record to ctx.
func (p *Policy) NewProperties(ctx *fiber.Context) fiber.Properties {
	return &Props{}
}

// Awakened informs the policy that ctx is ready to run. Pinned contexts and
// previously-awakened fibers are queued locally; a first-ever awakening
// detaches the context and dispatches it to the next worker in round-robin
// order.
func (p *Policy) Awakened(ctx *fiber.Context, props fiber.Properties) {
	fp, ok := props.(*Props)
	if !ok {
		panic("pinned: context carries foreign scheduler properties")
	}

	d := p.domain
	d.mu.Lock()
	if ctx.IsPinned() {
		p.localQueue.Add(ctx)
		d.mu.Unlock()
		return
	}

	ctx.Detach()
	if fp.WasPreviouslyAwakened() {
		p.localQueue.Add(ctx)
		d.mu.Unlock()
		return
	}

	target := d.nextTarget()
	// accept takes the same mutex; it must be released before calling into
	// the target.
	d.mu.Unlock()

	fp.SetPreviouslyAwakened()
	target.accept(ctx)
	target.Notify()
}

// accept receives a context handed off from another thread's first-wake
// dispatch. This is the only path by which a foreign context enters a
// worker's queue; the sender issues the wake notification afterwards.
func (p *Policy) accept(ctx *fiber.Context) {
	p.domain.mu.Lock()
	p.localQueue.Add(ctx)
	p.domain.mu.Unlock()
}

// PickNext pops the next ready context, re-owning it if it arrived through a
// cross-thread hand-off. Returns nil when the local queue is empty.
func (p *Policy) PickNext() *fiber.Context {
	d := p.domain
	d.mu.Lock()
	if p.localQueue.Length() == 0 {
		d.mu.Unlock()
		return nil
	}
	ctx := p.localQueue.Remove().(*fiber.Context)
	d.mu.Unlock()

	if !ctx.IsPinned() {
		ctx.Attach(p)
	}
	return ctx
}

// HasReadyFibers reports whether the local queue is non-empty.
func (p *Policy) HasReadyFibers() bool {
	p.domain.mu.Lock()
	defer p.domain.mu.Unlock()
	return p.localQueue.Length() > 0
}

// SuspendUntil blocks the worker thread until Notify deposits a wake token
// or the deadline passes. The zero deadline means wait indefinitely. An
// early or spurious return is harmless: the worker re-polls PickNext.
func (p *Policy) SuspendUntil(deadline time.Time) {
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

// Notify wakes this policy's worker out of SuspendUntil. Tokens coalesce: a
// worker that was already nudged is not nudged twice.
func (p *Policy) Notify() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// queueDepth reports the local queue length. Used by the metrics wrapper.
func (p *Policy) queueDepth() int {
	p.domain.mu.Lock()
	defer p.domain.mu.Unlock()
	return p.localQueue.Length()
}
