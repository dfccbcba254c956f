package cronspawn

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	gperrors "github.com/vnykmshr/gopin/pkg/common/errors"
	"github.com/vnykmshr/gopin/pkg/common/validation"
	"github.com/vnykmshr/gopin/pkg/fiber"
	"github.com/vnykmshr/gopin/pkg/metrics"
	"github.com/vnykmshr/gopin/pkg/ratelimit/spawn"
)

// Entry describes a scheduled fiber launch.
type Entry struct {
	ID       string
	RunAt    time.Time
	Interval time.Duration // Zero for one-time launches
	Created  time.Time
}

// Launcher is anything that can start a fiber. *fiber.Worker satisfies it;
// launches scheduled here first awaken on the launcher's policy, which under
// the pinned scheduler dispatches them round-robin like any other spawn.
type Launcher interface {
	Spawn(body fiber.Body) (*fiber.Context, error)
}

// Spawner launches fibers on schedules: at a point in time, after a delay,
// on an interval, or on a cron expression.
type Spawner interface {
	// Basic scheduling
	Schedule(id string, body fiber.Body, runAt time.Time) error
	ScheduleAfter(id string, body fiber.Body, delay time.Duration) error
	ScheduleRepeating(id string, body fiber.Body, interval time.Duration) error

	// Cron scheduling
	ScheduleCron(id string, cronExpr string, body fiber.Body) error

	// Entry management
	Cancel(id string) bool
	CancelAll()
	List() []Entry

	// Lifecycle
	Start() error
	Stop() <-chan struct{}
}

// Config holds spawner configuration.
type Config struct {
	// Launcher starts the scheduled fibers. Required.
	Launcher Launcher

	// Limiter, when set, gates every launch. A denied launch stays due and
	// is retried on the next tick.
	Limiter spawn.Limiter

	// Location is the time zone for cron schedules. Defaults to time.Local.
	Location *time.Location

	// TickInterval is how often due entries are checked (default: 50ms).
	TickInterval time.Duration

	// MaxEntries bounds the number of tracked entries (default: 10000).
	MaxEntries int
}

type entry struct {
	id           string
	body         fiber.Body
	runAt        time.Time
	interval     time.Duration
	cronSchedule cron.Schedule
	created      time.Time
}

type spawner struct {
	launcher   Launcher
	limiter    spawn.Limiter
	location   *time.Location
	tick       time.Duration
	maxEntries int
	cronParser cron.Parser

	// metrics registry; nil when instrumentation is disabled
	registry *metrics.Registry
	name     string

	mu      sync.RWMutex
	entries map[string]*entry
	ticker  *time.Ticker
	done    chan struct{}
	stopped chan struct{}
	running bool
}

// New creates a spawner that launches through l with default configuration.
func New(l Launcher) Spawner {
	return NewWithConfig(Config{Launcher: l})
}

// NewWithMetrics creates a spawner with metrics enabled.
func NewWithMetrics(l Launcher, name string) Spawner {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}
	return NewWithConfigAndMetrics(Config{Launcher: l}, name, config)
}

// NewWithConfigAndMetrics creates a spawner with custom config and metrics.
func NewWithConfigAndMetrics(cfg Config, name string, metricsConfig metrics.Config) Spawner {
	s := NewWithConfig(cfg).(*spawner)
	if !metricsConfig.Enabled {
		return s
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}
	s.registry = registry
	s.name = name
	return s
}

// NewWithConfig creates a spawner with custom configuration.
func NewWithConfig(cfg Config) Spawner {
	if cfg.Launcher == nil {
		panic("launcher cannot be nil")
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}

	tick := cfg.TickInterval
	if tick <= 0 {
		tick = 50 * time.Millisecond
	}

	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}

	return &spawner{
		launcher:   cfg.Launcher,
		limiter:    cfg.Limiter,
		location:   location,
		tick:       tick,
		maxEntries: maxEntries,
		cronParser: cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		entries:    make(map[string]*entry),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
}

func (s *spawner) add(e *entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[e.id]; exists {
		return fmt.Errorf("entry %q already scheduled", e.id)
	}
	if len(s.entries) >= s.maxEntries {
		return gperrors.NewOperationError("cronspawn", "Schedule", gperrors.ErrCapacityExceeded).
			WithContext(fmt.Sprintf("exceeded capacity of %d", s.maxEntries))
	}
	s.entries[e.id] = e
	if s.registry != nil {
		s.registry.CronScheduled.WithLabelValues(s.name).Inc()
	}
	return nil
}

func (s *spawner) validate(id string, body fiber.Body) error {
	if err := validation.ValidateNotEmpty("cronspawn", "id", id); err != nil {
		return err
	}
	if body == nil {
		return gperrors.NewValidationError("cronspawn", "body", nil, "cannot be nil")
	}
	return nil
}

// Schedule launches body once at runAt.
func (s *spawner) Schedule(id string, body fiber.Body, runAt time.Time) error {
	if err := s.validate(id, body); err != nil {
		return err
	}
	return s.add(&entry{id: id, body: body, runAt: runAt, created: time.Now()})
}

// ScheduleAfter launches body once after delay.
func (s *spawner) ScheduleAfter(id string, body fiber.Body, delay time.Duration) error {
	return s.Schedule(id, body, time.Now().Add(delay))
}

// ScheduleRepeating launches body every interval until canceled.
func (s *spawner) ScheduleRepeating(id string, body fiber.Body, interval time.Duration) error {
	if err := s.validate(id, body); err != nil {
		return err
	}
	if interval <= 0 {
		return gperrors.NewValidationError("cronspawn", "interval", interval, "must be positive")
	}
	return s.add(&entry{
		id:       id,
		body:     body,
		runAt:    time.Now().Add(interval),
		interval: interval,
		created:  time.Now(),
	})
}

// ScheduleCron launches body on a 6-field cron schedule (seconds enabled).
func (s *spawner) ScheduleCron(id string, cronExpr string, body fiber.Body) error {
	if err := s.validate(id, body); err != nil {
		return err
	}

	sched, err := s.cronParser.Parse(cronExpr)
	if err != nil {
		return gperrors.NewValidationError("cronspawn", "cron", cronExpr, err.Error())
	}

	now := time.Now().In(s.location)
	return s.add(&entry{
		id:           id,
		body:         body,
		runAt:        sched.Next(now),
		cronSchedule: sched,
		created:      time.Now(),
	})
}

// Cancel removes the entry with the given id, reporting whether it existed.
func (s *spawner) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[id]; !exists {
		return false
	}
	delete(s.entries, id)
	return true
}

// CancelAll removes every entry.
func (s *spawner) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*entry)
}

// List returns a snapshot of scheduled entries, ordered by id.
func (s *spawner) List() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Entry{
			ID:       e.id,
			RunAt:    e.runAt,
			Interval: e.interval,
			Created:  e.created,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Start begins the tick loop. Returns an error if already running.
func (s *spawner) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("spawner is already running")
	}
	s.running = true
	s.ticker = time.NewTicker(s.tick)
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.loop(s.done, s.stopped, s.ticker)
	return nil
}

// Stop halts the tick loop. The returned channel closes once the loop has
// exited; scheduled entries are kept and resume if Start is called again.
func (s *spawner) Stop() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ch := make(chan struct{})
		close(ch)
		return ch
	}

	s.running = false
	close(s.done)
	s.done = make(chan struct{})
	return s.stopped
}

func (s *spawner) loop(done <-chan struct{}, stopped chan struct{}, ticker *time.Ticker) {
	defer func() {
		ticker.Stop()
		close(stopped)
	}()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			s.launchDue(now)
		}
	}
}

// launchDue starts every entry whose runAt has passed. Entries denied by the
// limiter stay due and are retried on the next tick.
func (s *spawner) launchDue(now time.Time) {
	s.mu.Lock()
	var due []*entry
	for _, e := range s.entries {
		if !e.runAt.After(now) {
			due = append(due, e)
		}
	}
	s.mu.Unlock()

	for _, e := range due {
		if s.limiter != nil && !s.limiter.Allow() {
			if s.registry != nil {
				s.registry.CronDenied.WithLabelValues(s.name).Inc()
			}
			continue
		}

		if _, err := s.launcher.Spawn(e.body); err != nil {
			// The launcher is gone (runtime shut down); drop the entry.
			s.Cancel(e.id)
			continue
		}
		if s.registry != nil {
			s.registry.CronLaunched.WithLabelValues(s.name).Inc()
		}
		s.reschedule(e, now)
	}
}

// reschedule advances a repeating or cron entry, or retires a one-shot.
func (s *spawner) reschedule(e *entry, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case e.cronSchedule != nil:
		e.runAt = e.cronSchedule.Next(now.In(s.location))
	case e.interval > 0:
		e.runAt = now.Add(e.interval)
	default:
		delete(s.entries, e.id)
	}
}
