/*
Package spawn provides admission control for fiber creation.

Uncontrolled spawning can bury a pinned worker pool: every new fiber is
dispatched round-robin and then stays put, so a burst of launches turns into
long local queues that never rebalance. A spawn limiter sits in front of the
launch path and shapes that burst.

Local limiting uses a token bucket:

	limiter := spawn.New(100, 20) // 100 spawns/sec, burst of 20

	if limiter.Allow() {
		driver.Spawn(body)
	}

Multi-process deployments that share a spawn budget can coordinate through
Redis instead:

	limiter, err := spawn.NewDistributed(spawn.DistributedConfig{
		Redis: rdb,
		Key:   "ingest:spawns",
		Limit: 500, // per window, across all instances
	})

The cronspawn package accepts any Limiter through its Config. Distributed
takes a context on every call and does not implement Limiter.
*/
package spawn
