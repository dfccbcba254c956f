package spawn

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vnykmshr/gopin/pkg/metrics"
)

// MetricsLimiter wraps a Limiter with Prometheus metrics collection.
type MetricsLimiter struct {
	limiter  Limiter
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a token bucket limiter with metrics enabled.
func NewWithMetrics(rate Limit, burst int, name string) Limiter {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}
	return NewWithConfigAndMetrics(Config{Rate: rate, Burst: burst}, name, config)
}

// NewWithConfigAndMetrics creates a limiter with custom config and metrics.
func NewWithConfigAndMetrics(cfg Config, name string, metricsConfig metrics.Config) Limiter {
	base, err := NewWithConfig(cfg)
	if err != nil {
		panic(err.Error())
	}

	if !metricsConfig.Enabled {
		return base
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	return &MetricsLimiter{
		limiter:  base,
		name:     name,
		registry: registry,
		enabled:  true,
	}
}

func (ml *MetricsLimiter) Allow() bool {
	return ml.AllowN(1)
}

func (ml *MetricsLimiter) AllowN(n int) bool {
	ok := ml.limiter.AllowN(n)
	if ml.enabled {
		ml.registry.SpawnRequests.WithLabelValues(ml.name).Inc()
		if ok {
			ml.registry.SpawnAllowed.WithLabelValues(ml.name).Inc()
		} else {
			ml.registry.SpawnDenied.WithLabelValues(ml.name).Inc()
		}
	}
	return ok
}

func (ml *MetricsLimiter) Wait(ctx context.Context) error {
	return ml.WaitN(ctx, 1)
}

func (ml *MetricsLimiter) WaitN(ctx context.Context, n int) error {
	start := time.Now()
	err := ml.limiter.WaitN(ctx, n)
	if ml.enabled {
		ml.registry.SpawnRequests.WithLabelValues(ml.name).Inc()
		ml.registry.SpawnWaitTime.WithLabelValues(ml.name).Observe(time.Since(start).Seconds())
		if err == nil {
			ml.registry.SpawnAllowed.WithLabelValues(ml.name).Inc()
		} else {
			ml.registry.SpawnDenied.WithLabelValues(ml.name).Inc()
		}
	}
	return err
}

func (ml *MetricsLimiter) Tokens() float64 {
	return ml.limiter.Tokens()
}

// EnableMetrics enables metrics collection.
func (ml *MetricsLimiter) EnableMetrics(config metrics.Config) error {
	ml.enabled = config.Enabled
	if config.Registry != nil {
		ml.registry = metrics.NewRegistry(config.Registry)
	}
	return nil
}

// DisableMetrics disables metrics collection.
func (ml *MetricsLimiter) DisableMetrics() {
	ml.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ml *MetricsLimiter) MetricsEnabled() bool {
	return ml.enabled
}
