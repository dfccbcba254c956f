// Package metrics provides Prometheus instrumentation for gopin components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for gopin components.
type Registry struct {
	// Fiber Runtime Metrics
	FibersSpawned   *prometheus.CounterVec
	FibersCompleted *prometheus.CounterVec

	// Pinned Scheduler Metrics
	SchedulerAwakened   *prometheus.CounterVec
	SchedulerPicks      *prometheus.CounterVec
	SchedulerNotifies   *prometheus.CounterVec
	SchedulerQueueDepth *prometheus.GaugeVec
	SchedulerDispatches *prometheus.GaugeVec
	SuspendDuration     *prometheus.HistogramVec

	// Spawn Limiting Metrics
	SpawnRequests *prometheus.CounterVec
	SpawnAllowed  *prometheus.CounterVec
	SpawnDenied   *prometheus.CounterVec
	SpawnWaitTime *prometheus.HistogramVec

	// Cron Spawner Metrics
	CronScheduled *prometheus.CounterVec
	CronLaunched  *prometheus.CounterVec
	CronDenied    *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by gopin components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		FibersSpawned: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "fiber",
				Name:      "spawned_total",
				Help:      "Total number of fibers spawned",
			},
			[]string{"runtime"},
		),

		FibersCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "fiber",
				Name:      "completed_total",
				Help:      "Total number of fibers run to completion",
			},
			[]string{"runtime"},
		),

		SchedulerAwakened: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "sched",
				Name:      "awakened_total",
				Help:      "Total number of fiber awakenings observed by a scheduler",
			},
			[]string{"scheduler"},
		),

		SchedulerPicks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "sched",
				Name:      "picks_total",
				Help:      "Total number of fibers picked to run",
			},
			[]string{"scheduler"},
		),

		SchedulerNotifies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "sched",
				Name:      "notifies_total",
				Help:      "Total number of wake-up notifications delivered",
			},
			[]string{"scheduler"},
		),

		SchedulerQueueDepth: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gopin",
				Subsystem: "sched",
				Name:      "queue_depth",
				Help:      "Number of ready fibers in a scheduler's local queue",
			},
			[]string{"scheduler"},
		),

		SchedulerDispatches: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gopin",
				Subsystem: "sched",
				Name:      "dispatches",
				Help:      "First-wake dispatches received per worker slot",
			},
			[]string{"scheduler", "slot"},
		),

		SuspendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gopin",
				Subsystem: "sched",
				Name:      "suspend_duration_seconds",
				Help:      "Time a worker spent blocked in its idle wait",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"scheduler"},
		),

		SpawnRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "spawnlimit",
				Name:      "requests_total",
				Help:      "Total number of spawn admission requests",
			},
			[]string{"limiter"},
		),

		SpawnAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "spawnlimit",
				Name:      "allowed_total",
				Help:      "Total number of allowed spawn requests",
			},
			[]string{"limiter"},
		),

		SpawnDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "spawnlimit",
				Name:      "denied_total",
				Help:      "Total number of denied spawn requests",
			},
			[]string{"limiter"},
		),

		SpawnWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gopin",
				Subsystem: "spawnlimit",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for spawn admission",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"limiter"},
		),

		CronScheduled: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "cronspawn",
				Name:      "scheduled_total",
				Help:      "Total number of launch entries scheduled",
			},
			[]string{"spawner"},
		),

		CronLaunched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "cronspawn",
				Name:      "launched_total",
				Help:      "Total number of fibers launched by a spawner",
			},
			[]string{"spawner"},
		),

		CronDenied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gopin",
				Subsystem: "cronspawn",
				Name:      "denied_total",
				Help:      "Total number of launches deferred by spawn limiting",
			},
			[]string{"spawner"},
		),
	}
}
