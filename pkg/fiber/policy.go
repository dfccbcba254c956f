package fiber

import "time"

// Policy decides, per worker thread, which ready fiber runs next and where a
// newly awakened fiber lands. One instance is adopted per worker; instances
// coordinate among themselves for cross-thread hand-off.
//
// SuspendUntil receives the zero time.Time as the "wait forever" sentinel;
// any other value is a monotonic-clock deadline. Spurious or early wake-ups
// are tolerated because the worker loop re-polls PickNext afterwards.
type Policy interface {
	// NewProperties builds the per-fiber record the policy wants attached to
	// ctx. Called once per fiber, at spawn time.
	NewProperties(ctx *Context) Properties

	// Awakened informs the policy that ctx is ready to run. Called on the
	// thread that made the fiber ready.
	Awakened(ctx *Context, props Properties)

	// PickNext returns the next fiber to resume on this worker, or nil if
	// none is ready.
	PickNext() *Context

	// HasReadyFibers reports whether PickNext would return a fiber.
	HasReadyFibers() bool

	// SuspendUntil blocks the calling worker thread until the deadline
	// passes or Notify is called, whichever comes first.
	SuspendUntil(deadline time.Time)

	// Notify wakes the worker blocked in SuspendUntil, if any. Safe to call
	// from any thread.
	Notify()
}
