package fiber

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/gopin/pkg/metrics"
)

// NewWithMetrics creates a runtime that records fiber spawn and completion
// counts under the given name.
func NewWithMetrics(name string) *Runtime {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}
	return NewWithConfigAndMetrics(Config{}, name, config)
}

// NewWithConfigAndMetrics creates a runtime with custom config and metrics.
// The instrumentation chains onto any lifecycle callbacks already present in
// cfg.
func NewWithConfigAndMetrics(cfg Config, name string, metricsConfig metrics.Config) *Runtime {
	if !metricsConfig.Enabled {
		return NewWithConfig(cfg)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	onSpawn := cfg.OnSpawn
	cfg.OnSpawn = func(c *Context) {
		registry.FibersSpawned.WithLabelValues(name).Inc()
		if onSpawn != nil {
			onSpawn(c)
		}
	}

	onComplete := cfg.OnComplete
	cfg.OnComplete = func(c *Context) {
		registry.FibersCompleted.WithLabelValues(name).Inc()
		if onComplete != nil {
			onComplete(c)
		}
	}

	return NewWithConfig(cfg)
}
