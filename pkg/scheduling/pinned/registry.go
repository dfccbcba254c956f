package pinned

import (
	"fmt"
	"sync"
)

// Domain is the shared registry for one pool of pinned schedulers. It holds
// a slot per worker policy, the round-robin dispatch cursor, and the single
// mutex that serializes every queue and registry mutation in the pool.
//
// All policies of a pool are constructed against the same Domain; the
// construction barrier releases them together once every participant has
// registered, so no fiber can be dispatched toward an unregistered slot.
type Domain struct {
	threads int

	// mu serializes all local-queue mutations, cursor advances, and registry
	// writes across every policy in the pool. Dispatch reads one queue,
	// indexes the registry, and mutates another queue; a single lock keeps
	// that one logical operation without a multi-lock protocol.
	mu sync.Mutex

	workers    []*Policy
	cursor     int
	dispatches []uint64

	joined  int
	barrier sync.WaitGroup
}

// NewDomain creates the registry for a pool of threads participants: one
// driver plus threads-1 workers. Panics if threads leaves no room for a
// worker.
func NewDomain(threads int) *Domain {
	if threads < 2 {
		panic("thread count must be at least 2 (one worker plus the driver)")
	}
	d := &Domain{
		threads:    threads,
		workers:    make([]*Policy, 0, threads-1),
		dispatches: make([]uint64, threads-1),
	}
	d.barrier.Add(threads)
	return d
}

// Threads returns the participant count the domain was sized for, driver
// included.
func (d *Domain) Threads() int { return d.threads }

// Workers returns the number of worker slots (threads minus the driver).
func (d *Domain) Workers() int { return d.threads - 1 }

// Dispatches returns a snapshot of how many first-wake dispatches each
// worker slot has received.
func (d *Domain) Dispatches() []uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]uint64, len(d.dispatches))
	copy(out, d.dispatches)
	return out
}

// register claims the next worker slot for p. Slots are assigned in
// registration order and written exactly once.
func (d *Domain) register(p *Policy) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.workers) == d.threads-1 {
		panic(fmt.Sprintf("pinned: all %d worker slots already registered", d.threads-1))
	}
	p.slot = len(d.workers)
	d.workers = append(d.workers, p)
}

// join enters the construction barrier. Construction of policies on
// independent threads is unordered; nobody proceeds until the registry is
// fully populated.
func (d *Domain) join() {
	d.mu.Lock()
	if d.joined == d.threads {
		d.mu.Unlock()
		panic("pinned: domain is already fully constructed")
	}
	d.joined++
	d.mu.Unlock()

	d.barrier.Done()
	d.barrier.Wait()
}

// nextTarget advances the round-robin cursor by exactly one step and returns
// the worker policy at the new position. Caller must hold d.mu.
func (d *Domain) nextTarget() *Policy {
	if len(d.workers) == 0 {
		panic("pinned: dispatch before any worker registered")
	}
	d.cursor = (d.cursor + 1) % len(d.workers)
	t := d.workers[d.cursor]
	if t == nil {
		panic(fmt.Sprintf("pinned: worker slot %d is not registered", d.cursor))
	}
	d.dispatches[d.cursor]++
	return t
}
