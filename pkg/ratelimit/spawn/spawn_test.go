package spawn

import (
	"context"
	"testing"
	"time"

	"github.com/vnykmshr/gopin/internal/testutil"
	"github.com/vnykmshr/gopin/pkg/common/errors"
)

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		rate      Limit
		burst     int
		wantError bool
	}{
		{"valid", 10, 5, false},
		{"small rate", 0.5, 1, false},
		{"zero rate", 0, 5, true},
		{"negative rate", -1, 5, true},
		{"zero burst", 10, 0, true},
		{"negative burst", 10, -2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewSafe(tt.rate, tt.burst)
			if tt.wantError {
				testutil.AssertError(t, err)
				if !errors.IsValidationError(err) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			} else {
				testutil.AssertNoError(t, err)
				if l == nil {
					t.Fatal("expected limiter")
				}
			}
		})
	}
}

func TestNewPanicsOnInvalid(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic")
		}
	}()
	New(0, 10)
}

func TestAllowDrainsBurst(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	l, err := NewWithConfig(Config{Rate: 10, Burst: 3, Clock: clock})
	testutil.AssertNoError(t, err)

	for i := 0; i < 3; i++ {
		if !l.Allow() {
			t.Fatalf("allow %d should succeed within burst", i)
		}
	}
	if l.Allow() {
		t.Fatal("allow beyond burst should fail")
	}
}

func TestTokensRefillOverTime(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	l, err := NewWithConfig(Config{Rate: 10, Burst: 5, Clock: clock})
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, l.AllowN(5), true)
	testutil.AssertEqual(t, l.Allow(), false)

	// 10 spawns/sec refills one token every 100ms.
	clock.Advance(250 * time.Millisecond)
	testutil.AssertEqual(t, l.AllowN(2), true)
	testutil.AssertEqual(t, l.Allow(), false)
}

func TestTokensCapAtBurst(t *testing.T) {
	clock := testutil.NewMockClock(time.Time{})
	l, err := NewWithConfig(Config{Rate: 100, Burst: 4, Clock: clock})
	testutil.AssertNoError(t, err)

	clock.Advance(time.Hour)
	if got := l.Tokens(); got != 4 {
		t.Errorf("Tokens() = %v, want burst cap 4", got)
	}
}

func TestAllowNZeroOrNegative(t *testing.T) {
	l := New(1, 1)
	testutil.AssertEqual(t, l.AllowN(0), true)
	testutil.AssertEqual(t, l.AllowN(-5), true)
}

func TestWaitAdmitsAfterRefill(t *testing.T) {
	l := New(100, 1)
	testutil.AssertEqual(t, l.Allow(), true)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	// Bucket is empty; 100/sec refills within ~10ms.
	start := time.Now()
	testutil.AssertNoError(t, l.Wait(ctx))
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("wait took %v", elapsed)
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := New(0.001, 1)
	testutil.AssertEqual(t, l.Allow(), true)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestWaitNBeyondBurstFails(t *testing.T) {
	l := New(10, 2)

	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	if err := l.WaitN(ctx, 3); err == nil {
		t.Error("expected error waiting for more than burst")
	}
}

func TestMetricsLimiter(t *testing.T) {
	l := NewWithMetrics(10, 2, "test")

	testutil.AssertEqual(t, l.Allow(), true)
	testutil.AssertEqual(t, l.Allow(), true)
	testutil.AssertEqual(t, l.Allow(), false)

	ml, ok := l.(*MetricsLimiter)
	if !ok {
		t.Fatalf("expected *MetricsLimiter, got %T", l)
	}
	testutil.AssertEqual(t, ml.MetricsEnabled(), true)
	ml.DisableMetrics()
	testutil.AssertEqual(t, ml.MetricsEnabled(), false)
}
