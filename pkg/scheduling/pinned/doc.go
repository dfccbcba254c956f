/*
Package pinned implements a thread-pinning scheduling policy for the fiber
runtime.

The aim of the policy is that once a fiber has started running, it remains on
the worker thread it started on. Each worker's policy keeps its own ready
queue; newly awakened fibers are distributed across those queues in
round-robin fashion, and every awakening after the first goes back to the
same queue. Code inside a fiber can therefore rely on worker-local state not
changing between suspensions.

Setup:

A pool is described by a Domain sized for all participating threads, the
workers plus the driver. Every thread constructs its policy against the same
Domain and adopts it into the runtime:

	rt := fiber.New()
	domain := pinned.NewDomain(5) // 4 workers + driver

	for i := 0; i < 4; i++ {
		go func(i int) {
			w := rt.Adopt(pinned.New(domain), fiber.WithIndex(i))
			w.Run()
		}(i)
	}

	driver := rt.Adopt(pinned.NewDriver(domain))

Policy constructors block on a construction barrier until every participant
has registered. Policies on independent threads are constructed in a
non-deterministic order; without the barrier, a fiber awakened early could be
dispatched toward a slot that has not been written yet.

The driver:

The driver's policy joins the barrier but takes no registry slot, so the
round-robin rotation never selects it. Fibers spawned through the driver are
handed to workers on their first awakening; the driver thread stays free for
coordination.

Hand-off:

A first-ever awakening detaches the fiber's context from the notifying
thread, advances the shared cursor by exactly one step, and appends the
context to the chosen worker's queue, then wakes that worker. When the worker
picks the context it re-attaches it locally; from then on the fiber is
pinned. Contexts the runtime marks as pinned (SpawnPinned) skip the rotation
entirely and always queue on the notifying thread.

Locking:

A single mutex per Domain serializes all queue mutations, cursor advances,
and registry writes. Dispatch is a cross-queue operation (one queue is
examined, the registry is indexed, another queue is mutated) and the single
lock keeps it atomic without a multi-lock ordering protocol. The mutex is
released before the sender calls into the target policy, which acquires it
again for its own queue append.

Limitations:

A Domain describes exactly one pool. Policies cannot be re-registered, the
worker count is fixed at construction, and there is no rebalancing: a fiber
never migrates after its first dispatch, even if its worker is busier than
its peers.
*/
package pinned
