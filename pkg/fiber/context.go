package fiber

import (
	"time"
)

// Properties is an opaque per-fiber record owned by the scheduling policy.
// The runtime attaches one to every context at spawn time by calling the
// policy's NewProperties and hands it back on every Awakened call.
type Properties interface{}

// Body is the entry function of a fiber. The F handle is only valid for the
// duration of the call and must not be retained or shared with other fibers.
type Body func(*F)

// yieldKind tells the worker loop why a fiber handed control back.
type yieldKind uint8

const (
	yieldDone yieldKind = iota
	yieldReady
	yieldSleeping
)

// Context is the runtime's handle for one fiber's execution state. Policies
// receive contexts from Awakened, queue them, and hand them back from
// PickNext; they hold non-owning references only.
type Context struct {
	id     uint64
	pinned bool
	rt     *Runtime
	body   Body
	props  Properties

	// owner is the policy the context is currently attached to. Written via
	// Attach/Detach under the policy's queue discipline; read by the runtime
	// when a suspended fiber becomes ready again. Visibility is provided by
	// the resume/yield channel pair: a context is attached before it is
	// resumed, and it can only suspend (and later wake) after being resumed.
	owner Policy

	// worker that most recently resumed this context. Stable once a fiber is
	// pinned to its worker.
	worker *Worker

	resume chan struct{}
	yield  chan yieldKind
}

// ID returns the runtime-unique fiber id.
func (c *Context) ID() uint64 { return c.id }

// IsPinned reports whether the context must never migrate off the worker it
// was created on.
func (c *Context) IsPinned() bool { return c.pinned }

// Properties returns the policy-owned record attached at spawn time.
func (c *Context) Properties() Properties { return c.props }

// Attach records p as the context's owning policy. A context transferred
// between threads is detached by its sender and must be re-owned before the
// runtime will resume it. Pinned contexts never change owner.
func (c *Context) Attach(p Policy) { c.owner = p }

// Detach clears the owning policy so another thread may attach the context.
func (c *Context) Detach() { c.owner = nil }

// run is the fiber goroutine. It stays parked until the first resume, runs
// the body to completion, and reports done to the resuming worker.
func (c *Context) run() {
	<-c.resume
	f := &F{ctx: c}
	c.body(f)
	c.yield <- yieldDone
}

// park hands control back to the resuming worker and blocks until the next
// resume.
func (c *Context) park(k yieldKind) {
	c.yield <- k
	<-c.resume
}

// F is the in-fiber handle passed to a fiber body. All methods must be called
// from within the fiber itself.
type F struct {
	ctx *Context
}

// ID returns the fiber's runtime-unique id.
func (f *F) ID() uint64 { return f.ctx.id }

// Worker returns the worker currently running this fiber. Under a policy that
// never migrates fibers, such as pkg/scheduling/pinned, it does not change
// after the fiber's first run.
func (f *F) Worker() *Worker { return f.ctx.worker }

// Sleep suspends the fiber for at least d. The worker thread is free to run
// other fibers in the meantime; when the timer fires the fiber is re-awakened
// on the policy that owns its context. A non-positive d degenerates to Yield.
func (f *F) Sleep(d time.Duration) {
	if d <= 0 {
		f.Yield()
		return
	}
	c := f.ctx
	time.AfterFunc(d, func() { c.rt.ready(c) })
	c.park(yieldSleeping)
}

// Yield re-enqueues the fiber on its current worker and suspends it, letting
// fibers already queued there run first.
func (f *F) Yield() {
	f.ctx.park(yieldReady)
}
