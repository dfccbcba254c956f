/*
Package cronspawn launches fibers on schedules.

A Spawner tracks launch entries (one-time, repeating, or cron-based) and
starts each one through a Launcher when it comes due. Under the pinned
scheduling policy every launch goes through the normal first-wake dispatch,
so scheduled fibers spread round-robin across the worker pool and then stay
put like any other fiber.

Basic usage:

	spawner := cronspawn.New(driver) // driver is a *fiber.Worker

	spawner.ScheduleAfter("warmup", warmupFiber, time.Second)
	spawner.ScheduleRepeating("heartbeat", heartbeatFiber, 5*time.Second)
	spawner.ScheduleCron("nightly", "0 0 3 * * *", reportFiber)

	spawner.Start()
	defer func() { <-spawner.Stop() }()

Cron expressions use six fields with seconds enabled, in the spawner's
configured Location.

Spawn limiting:

A spawn.Limiter in the Config gates every launch. Entries denied by the
limiter are not dropped; they stay due and are retried on the next tick, so
bursts of simultaneous schedules drain at the admitted rate.
*/
package cronspawn
