/*
Package fiber provides a minimal cooperative fiber runtime with pluggable
scheduling.

A fiber is a lightweight task that runs exclusively on one worker thread at a
time and suspends only at explicit points (Sleep, Yield). Each worker thread
adopts a scheduling Policy; the policy decides which ready fiber the worker
resumes next and where a newly awakened fiber should land. The runtime itself
only provides the machinery: contexts, suspension and resumption, lifecycle
accounting.

Basic usage with the thread-pinning policy:

	rt := fiber.New()
	domain := pinned.NewDomain(workers + 1)

	for i := 0; i < workers; i++ {
		go func(i int) {
			w := rt.Adopt(pinned.New(domain), fiber.WithIndex(i))
			w.Run()
		}(i)
	}

	driver := rt.Adopt(pinned.NewDriver(domain))
	driver.Spawn(func(f *fiber.F) {
		for i := 0; i < 5; i++ {
			f.Sleep(10 * time.Millisecond)
		}
	})

	rt.Wait()
	rt.Shutdown()

Scheduling model:

Each worker runs at most one fiber at a time; a fiber's body executes as its
own goroutine but is gated so it only makes progress between a worker's resume
and the fiber's next suspension. Switches happen only at suspension points.
Whether fibers migrate between workers is entirely up to the adopted Policy;
the pinned policy in pkg/scheduling/pinned guarantees they never do after
their first run.

Worker-local state:

SetLocal/Local stand in for thread-local storage. A fiber that stays on one
worker (as under the pinned policy) observes a stable value from
F.Worker().Local() across all of its suspensions.
*/
package fiber
