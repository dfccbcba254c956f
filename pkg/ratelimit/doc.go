/*
Package ratelimit provides admission control primitives for gopin.

Its single concern here is spawn admission: shaping how fast new fibers may
enter a worker pool whose placement is permanent.

Local token bucket:

	limiter := spawn.New(100, 20) // 100 spawns/sec, burst of 20
	if limiter.Allow() {
		driver.Spawn(body)
	}

Redis-coordinated budget across processes:

	limiter, err := spawn.NewDistributed(spawn.DistributedConfig{
		Redis: rdb,
		Key:   "ingest:spawns",
		Limit: 500,
	})

All limiters are safe for concurrent use and integrate with the context
package for cancellation and timeouts.
*/
package ratelimit
