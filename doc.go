/*
Package gopin provides thread-pinned cooperative fiber scheduling for Go.

Fibers are lightweight cooperative tasks gated onto a fixed set of worker
threads. The first time a fiber becomes runnable it is dispatched to a worker
in round-robin order; from then on it stays on that worker for its whole
lifetime, so worker-local state observed by the fiber never changes under it.

Fiber Runtime (pkg/fiber):
  - fiber: cooperative contexts, worker loops, and the pluggable Policy contract

Scheduling (pkg/scheduling):
  - pinned: the thread-pinning scheduling policy and its shared registry
  - cronspawn: cron and interval-driven fiber launching

Rate Limiting (pkg/ratelimit):
  - spawn: spawn admission control, local token bucket or Redis-backed window

Support:
  - affinity: pin worker OS threads to logical CPUs
  - metrics: Prometheus instrumentation for all components

Example usage:

	import (
		"github.com/vnykmshr/gopin/pkg/fiber"
		"github.com/vnykmshr/gopin/pkg/scheduling/pinned"
	)

	rt := fiber.New()
	domain := pinned.NewDomain(5) // 4 workers + driver

	for i := 0; i < 4; i++ {
		go func() {
			w := rt.Adopt(pinned.New(domain))
			w.Run()
		}()
	}

	driver := rt.Adopt(pinned.NewDriver(domain))
	driver.Spawn(func(f *fiber.F) {
		// runs on one worker, forever
	})
*/
package gopin
