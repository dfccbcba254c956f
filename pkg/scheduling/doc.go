/*
Package scheduling provides fiber placement and launch scheduling for gopin.

This package groups the two scheduling concerns of the library:

  - pinned: the thread-pinning policy that places each fiber on a worker
    thread once and keeps it there
  - cronspawn: time-based fiber launching, one-shot, repeating, or cron

Thread-Pinning Policy:

The pinned policy distributes first-time awakenings round-robin across a
fixed pool of workers and keeps every later awakening local:

	domain := pinned.NewDomain(5) // 4 workers + driver

	// on each worker thread
	w := rt.Adopt(pinned.New(domain))
	w.Run()

	// on the driver thread
	driver := rt.Adopt(pinned.NewDriver(domain))
	driver.Spawn(body)

Launch Scheduling:

The cron spawner feeds fibers into the pool on a schedule:

	spawner := cronspawn.New(driver)
	spawner.ScheduleRepeating("heartbeat", heartbeat, 5*time.Second)
	spawner.ScheduleCron("nightly", "0 0 3 * * *", report)
	spawner.Start()

Both components are safe for concurrent use; the pinned policy is what makes
worker-local state safe for the fibers themselves.
*/
package scheduling
