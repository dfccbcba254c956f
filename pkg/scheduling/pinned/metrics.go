package pinned

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/gopin/pkg/fiber"
	"github.com/vnykmshr/gopin/pkg/metrics"
)

// MetricsPolicy wraps a pinned Policy with Prometheus metrics collection.
// Cross-thread hand-offs still target the wrapped policy directly, so the
// counters reflect what this thread's runtime interface observed.
type MetricsPolicy struct {
	policy   *Policy
	name     string
	registry *metrics.Registry
	enabled  bool
}

var _ fiber.Policy = (*MetricsPolicy)(nil)

// NewWithMetrics constructs a worker policy with metrics enabled.
func NewWithMetrics(d *Domain, name string) *MetricsPolicy {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}
	return NewWithConfigAndMetrics(d, name, config)
}

// NewWithConfigAndMetrics constructs a worker policy with custom metrics
// configuration.
func NewWithConfigAndMetrics(d *Domain, name string, metricsConfig metrics.Config) *MetricsPolicy {
	base := New(d)

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	mp := &MetricsPolicy{
		policy:   base,
		name:     name,
		registry: registry,
		enabled:  metricsConfig.Enabled,
	}
	mp.updateMetrics()
	return mp
}

// Unwrap returns the wrapped policy.
func (mp *MetricsPolicy) Unwrap() *Policy { return mp.policy }

func (mp *MetricsPolicy) updateMetrics() {
	if !mp.enabled {
		return
	}

	mp.registry.SchedulerQueueDepth.WithLabelValues(mp.name).Set(float64(mp.policy.queueDepth()))
	for slot, n := range mp.policy.domain.Dispatches() {
		mp.registry.SchedulerDispatches.WithLabelValues(mp.name, strconv.Itoa(slot)).Set(float64(n))
	}
}

// NewProperties delegates to the wrapped policy.
func (mp *MetricsPolicy) NewProperties(ctx *fiber.Context) fiber.Properties {
	return mp.policy.NewProperties(ctx)
}

// Awakened records the awakening and delegates.
func (mp *MetricsPolicy) Awakened(ctx *fiber.Context, props fiber.Properties) {
	mp.policy.Awakened(ctx, props)
	if mp.enabled {
		mp.registry.SchedulerAwakened.WithLabelValues(mp.name).Inc()
		mp.updateMetrics()
	}
}

// PickNext delegates and counts successful picks.
func (mp *MetricsPolicy) PickNext() *fiber.Context {
	ctx := mp.policy.PickNext()
	if ctx != nil && mp.enabled {
		mp.registry.SchedulerPicks.WithLabelValues(mp.name).Inc()
		mp.updateMetrics()
	}
	return ctx
}

// HasReadyFibers delegates to the wrapped policy.
func (mp *MetricsPolicy) HasReadyFibers() bool {
	return mp.policy.HasReadyFibers()
}

// SuspendUntil delegates and records how long the worker was blocked.
func (mp *MetricsPolicy) SuspendUntil(deadline time.Time) {
	if !mp.enabled {
		mp.policy.SuspendUntil(deadline)
		return
	}

	start := time.Now()
	mp.policy.SuspendUntil(deadline)
	mp.registry.SuspendDuration.WithLabelValues(mp.name).Observe(time.Since(start).Seconds())
}

// Notify delegates and counts the notification.
func (mp *MetricsPolicy) Notify() {
	mp.policy.Notify()
	if mp.enabled {
		mp.registry.SchedulerNotifies.WithLabelValues(mp.name).Inc()
	}
}

// EnableMetrics enables metrics collection.
func (mp *MetricsPolicy) EnableMetrics(config metrics.Config) error {
	mp.enabled = config.Enabled
	if config.Registry != nil {
		mp.registry = metrics.NewRegistry(config.Registry)
	}
	if mp.enabled {
		mp.updateMetrics()
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPolicy) DisableMetrics() {
	mp.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPolicy) MetricsEnabled() bool {
	return mp.enabled
}
