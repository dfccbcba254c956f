package spawn

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	gpcontext "github.com/vnykmshr/gopin/pkg/common/context"
	gperrors "github.com/vnykmshr/gopin/pkg/common/errors"
	"github.com/vnykmshr/gopin/pkg/common/validation"
)

// luaWindowCheckAndIncrement atomically admits n spawns within the current
// window if the shared budget allows, setting the window key's expiry on
// first use.
const luaWindowCheckAndIncrement = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local n = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])

local current = tonumber(redis.call('GET', key) or '0')
if current + n > limit then
	return 0
end

current = redis.call('INCRBY', key, n)
if current == n then
	redis.call('EXPIRE', key, ttl)
end
return 1
`

// DistributedConfig holds configuration for a Redis-backed spawn limiter.
type DistributedConfig struct {
	// Redis is the client shared by all cooperating instances. Required.
	Redis *redis.Client

	// Key is the namespace prefix for limiter state. Required.
	Key string

	// Limit is the number of spawns admitted per window across all
	// instances. Must be positive.
	Limit int

	// Window is the budget interval. Defaults to one second.
	Window time.Duration

	// InstanceID identifies this process in the instance registry. Defaults
	// to host:pid.
	InstanceID string

	// RedisTimeout bounds each Redis operation. Defaults to 100ms.
	RedisTimeout time.Duration
}

// Distributed is a fixed-window spawn limiter shared by multiple processes
// through Redis. Methods take a context because admission is a network
// operation; on Redis errors the limiter fails closed and denies the spawn.
type Distributed struct {
	cfg    DistributedConfig
	script *redis.Script
	keys   map[string]string
}

// NewDistributed validates cfg, registers the instance, and returns the
// limiter.
func NewDistributed(cfg DistributedConfig) (*Distributed, error) {
	if cfg.Redis == nil {
		return nil, gperrors.NewValidationError("spawn", "redis", nil, "cannot be nil").
			WithHint("provide a connected *redis.Client")
	}
	if err := validation.ValidateNotEmpty("spawn", "key", cfg.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("spawn", "limit", cfg.Limit); err != nil {
		return nil, err
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.RedisTimeout <= 0 {
		cfg.RedisTimeout = 100 * time.Millisecond
	}
	if cfg.InstanceID == "" {
		host, _ := os.Hostname()
		cfg.InstanceID = fmt.Sprintf("%s:%d", host, os.Getpid())
	}

	d := &Distributed{
		cfg:    cfg,
		script: redis.NewScript(luaWindowCheckAndIncrement),
		keys: map[string]string{
			"windows":   cfg.Key + ":windows",
			"stats":     cfg.Key + ":stats",
			"instances": cfg.Key + ":instances",
		},
	}

	if err := d.initialize(context.Background()); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Distributed) initialize(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.RedisTimeout)
	defer cancel()

	pipe := d.cfg.Redis.Pipeline()
	pipe.SAdd(ctx, d.keys["instances"], d.cfg.InstanceID)
	pipe.Expire(ctx, d.keys["instances"], 10*d.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return gperrors.NewOperationError("spawn", "NewDistributed", err).
			WithContext("registering instance " + d.cfg.InstanceID)
	}
	return nil
}

// windowKey returns the Redis key for the window containing t.
func (d *Distributed) windowKey(t time.Time) string {
	windowStart := t.UnixNano() / int64(d.cfg.Window)
	return fmt.Sprintf("%s:%d", d.keys["windows"], windowStart)
}

// Allow reports whether one spawn may happen now across all instances.
func (d *Distributed) Allow(ctx context.Context) bool {
	return d.AllowN(ctx, 1)
}

// AllowN reports whether n spawns may happen now across all instances.
func (d *Distributed) AllowN(ctx context.Context, n int) bool {
	if n <= 0 {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, d.cfg.RedisTimeout)
	defer cancel()

	ttl := int64(2 * d.cfg.Window / time.Second)
	if ttl < 1 {
		ttl = 1
	}

	ok, err := d.script.Run(ctx, d.cfg.Redis,
		[]string{d.windowKey(time.Now())},
		d.cfg.Limit, n, ttl,
	).Int()
	if err != nil {
		// Fail closed: an unreachable budget store admits nothing.
		return false
	}

	d.recordStats(n, ok == 1)
	return ok == 1
}

// Wait blocks until a spawn is admitted or ctx is done, retrying every tenth
// of a window.
func (d *Distributed) Wait(ctx context.Context) error {
	return d.WaitN(ctx, 1)
}

// WaitN blocks until n spawns are admitted or ctx is done.
func (d *Distributed) WaitN(ctx context.Context, n int) error {
	if n > d.cfg.Limit {
		return fmt.Errorf("spawn: waiting for %d exceeds window limit %d", n, d.cfg.Limit)
	}

	for {
		if gpcontext.IsCanceled(ctx) {
			return ctx.Err()
		}
		if d.AllowN(ctx, n) {
			return nil
		}

		timer := time.NewTimer(d.cfg.Window / 10)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

// Stats holds distributed spawn limiter statistics.
type Stats struct {
	TotalRequests   int64
	AllowedRequests int64
	DeniedRequests  int64
}

func (d *Distributed) recordStats(n int, allowed bool) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.RedisTimeout)
	defer cancel()

	pipe := d.cfg.Redis.Pipeline()
	pipe.HIncrBy(ctx, d.keys["stats"], "total_requests", int64(n))
	if allowed {
		pipe.HIncrBy(ctx, d.keys["stats"], "allowed_requests", int64(n))
	} else {
		pipe.HIncrBy(ctx, d.keys["stats"], "denied_requests", int64(n))
	}
	_, _ = pipe.Exec(ctx)
}

// Stats returns the shared request counters.
func (d *Distributed) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.RedisTimeout)
	defer cancel()

	vals, err := d.cfg.Redis.HGetAll(ctx, d.keys["stats"]).Result()
	if err != nil {
		return nil, gperrors.NewOperationError("spawn", "Stats", err)
	}

	var s Stats
	fmt.Sscanf(vals["total_requests"], "%d", &s.TotalRequests)
	fmt.Sscanf(vals["allowed_requests"], "%d", &s.AllowedRequests)
	fmt.Sscanf(vals["denied_requests"], "%d", &s.DeniedRequests)
	return &s, nil
}

// Reset clears the limiter state. Useful for testing.
func (d *Distributed) Reset(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.cfg.RedisTimeout)
	defer cancel()

	iter := d.cfg.Redis.Scan(ctx, 0, d.cfg.Key+":*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return gperrors.NewOperationError("spawn", "Reset", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := d.cfg.Redis.Del(ctx, keys...).Err(); err != nil {
		return gperrors.NewOperationError("spawn", "Reset", err)
	}
	return nil
}

// Close removes this instance from the registry.
func (d *Distributed) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.RedisTimeout)
	defer cancel()

	if err := d.cfg.Redis.SRem(ctx, d.keys["instances"], d.cfg.InstanceID).Err(); err != nil {
		return gperrors.NewOperationError("spawn", "Close", err)
	}
	return nil
}
