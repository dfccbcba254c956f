// Package metrics provides Prometheus instrumentation for gopin components.
//
// This package enables monitoring and observability for the fiber runtime,
// the pinned scheduler, spawn limiting, and the cron spawner.
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	// Pinned worker policy with metrics
//	policy := pinned.NewWithMetrics(domain, "worker_0")
//
//	// Spawn limiter with metrics
//	limiter := spawn.NewWithMetrics(100, 20, "ingest")
//
//	// Cron spawner with metrics
//	spawner := cronspawn.NewWithMetrics(driver, "jobs")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//	policy := pinned.NewWithConfigAndMetrics(domain, "worker_0", config)
//
// # Available Metrics
//
// ## Fiber Runtime Metrics
//
//   - gopin_fiber_spawned_total: Total number of fibers spawned
//   - gopin_fiber_completed_total: Total number of fibers run to completion
//
// ## Pinned Scheduler Metrics
//
//   - gopin_sched_awakened_total: Fiber awakenings observed by a scheduler
//   - gopin_sched_picks_total: Fibers picked to run
//   - gopin_sched_notifies_total: Wake-up notifications delivered
//   - gopin_sched_queue_depth: Ready fibers in a scheduler's local queue
//   - gopin_sched_dispatches: First-wake dispatches received per worker slot
//   - gopin_sched_suspend_duration_seconds: Time a worker spent idle
//
// ## Spawn Limiting Metrics
//
//   - gopin_spawnlimit_requests_total: Spawn admission requests
//   - gopin_spawnlimit_allowed_total: Allowed spawn requests
//   - gopin_spawnlimit_denied_total: Denied spawn requests
//   - gopin_spawnlimit_wait_duration_seconds: Time waiting for admission
//
// ## Cron Spawner Metrics
//
//   - gopin_cronspawn_scheduled_total: Launch entries scheduled
//   - gopin_cronspawn_launched_total: Fibers launched by a spawner
//   - gopin_cronspawn_denied_total: Launches deferred by spawn limiting
//
// # Labels
//
// Metrics include relevant labels for filtering and aggregation:
//
//   - runtime: User-provided name for the fiber runtime
//   - scheduler: User-provided name for the policy instance
//   - slot: Worker slot index within a scheduling domain
//   - limiter: User-provided name for the limiter instance
//   - spawner: User-provided name for the cron spawner instance
//
// # Runtime Control
//
// Components implementing the Instrumentable interface support runtime control:
//
//	policy := pinned.NewWithMetrics(domain, "worker_0")
//	policy.DisableMetrics()            // Stop collecting metrics
//	policy.EnableMetrics(config)       // Re-enable with new config
//	enabled := policy.MetricsEnabled() // Check current state
package metrics
