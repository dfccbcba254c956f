package spawn

import (
	"context"
	"fmt"
	"sync"
	"time"

	gpcontext "github.com/vnykmshr/gopin/pkg/common/context"
	"github.com/vnykmshr/gopin/pkg/common/validation"
)

// Limit is the admitted spawn rate in fibers per second.
type Limit float64

// Clock abstracts time for testing.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Limiter gates fiber creation.
type Limiter interface {
	// Allow reports whether one spawn may happen now.
	Allow() bool

	// AllowN reports whether n spawns may happen now.
	AllowN(n int) bool

	// Wait blocks until one spawn is admitted or ctx is done.
	Wait(ctx context.Context) error

	// WaitN blocks until n spawns are admitted or ctx is done.
	WaitN(ctx context.Context, n int) error

	// Tokens returns the number of spawns currently admissible.
	Tokens() float64
}

// Config holds token bucket configuration.
type Config struct {
	// Rate is the sustained spawn rate in fibers per second. Must be positive.
	Rate Limit

	// Burst is the bucket capacity. Must be positive.
	Burst int

	// Clock overrides the time source. Nil means the real clock.
	Clock Clock
}

// tokenBucket implements Limiter with a classic token bucket.
type tokenBucket struct {
	mu     sync.Mutex
	limit  Limit
	burst  int
	tokens float64
	last   time.Time
	clock  Clock
}

// New creates a token bucket limiter. Panics on invalid parameters; use
// NewSafe for error returns.
func New(rate Limit, burst int) Limiter {
	l, err := NewSafe(rate, burst)
	if err != nil {
		panic(err.Error())
	}
	return l
}

// NewSafe creates a token bucket limiter, validating its parameters.
func NewSafe(rate Limit, burst int) (Limiter, error) {
	return NewWithConfig(Config{Rate: rate, Burst: burst})
}

// NewWithConfig creates a token bucket limiter from a Config.
func NewWithConfig(cfg Config) (Limiter, error) {
	if err := validation.ValidatePositiveFloat("spawn", "rate", float64(cfg.Rate)); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("spawn", "burst", cfg.Burst); err != nil {
		return nil, err
	}

	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}

	return &tokenBucket{
		limit:  cfg.Rate,
		burst:  cfg.Burst,
		tokens: float64(cfg.Burst),
		last:   clock.Now(),
		clock:  clock,
	}, nil
}

// advance refills tokens for the time elapsed since the last update.
// Caller must hold tb.mu.
func (tb *tokenBucket) advance(now time.Time) {
	elapsed := now.Sub(tb.last)
	if elapsed <= 0 {
		return
	}
	tb.last = now

	tb.tokens += elapsed.Seconds() * float64(tb.limit)
	if tb.tokens > float64(tb.burst) {
		tb.tokens = float64(tb.burst)
	}
}

func (tb *tokenBucket) Allow() bool {
	return tb.AllowN(1)
}

func (tb *tokenBucket) AllowN(n int) bool {
	if n <= 0 {
		return true
	}

	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.advance(tb.clock.Now())
	if tb.tokens < float64(n) {
		return false
	}
	tb.tokens -= float64(n)
	return true
}

func (tb *tokenBucket) Wait(ctx context.Context) error {
	return tb.WaitN(ctx, 1)
}

func (tb *tokenBucket) WaitN(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > tb.burst {
		return fmt.Errorf("spawn: waiting for %d exceeds burst capacity %d", n, tb.burst)
	}

	for {
		if gpcontext.IsCanceled(ctx) {
			return ctx.Err()
		}

		tb.mu.Lock()
		now := tb.clock.Now()
		tb.advance(now)
		if tb.tokens >= float64(n) {
			tb.tokens -= float64(n)
			tb.mu.Unlock()
			return nil
		}
		need := float64(n) - tb.tokens
		delay := time.Duration(need / float64(tb.limit) * float64(time.Second))
		tb.mu.Unlock()

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
}

func (tb *tokenBucket) Tokens() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.advance(tb.clock.Now())
	return tb.tokens
}
