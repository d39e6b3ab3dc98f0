package retry

import (
	"testing"
	"time"
)

func TestExponentialBackoff_DefaultValues(t *testing.T) {
	// A random value of 0.5 cancels the default jitter out.
	strategy := NewExponentialBackoff(3, WithJitterFunc(func() float64 { return 0.5 }))

	if delay := strategy.NextDelay(0); delay != 100*time.Millisecond {
		t.Errorf("NextDelay(0) = %v, want 100ms initial delay", delay)
	}
	if delay := strategy.NextDelay(1); delay != 200*time.Millisecond {
		t.Errorf("NextDelay(1) = %v, want 200ms with multiplier 2", delay)
	}
	if delay := strategy.NextDelay(20); delay != 30*time.Second {
		t.Errorf("NextDelay(20) = %v, want 30s cap", delay)
	}

	low := NewExponentialBackoff(3, WithJitterFunc(func() float64 { return 0 }))
	if delay := low.NextDelay(0); delay != 90*time.Millisecond {
		t.Errorf("NextDelay(0) with lowest jitter = %v, want 90ms (10%% jitter)", delay)
	}
	if strategy.MaxAttempts() != 3 {
		t.Errorf("Expected MaxAttempts=3, got %v", strategy.MaxAttempts())
	}
}

func TestExponentialBackoff_WriteSchedule(t *testing.T) {
	strategy := NewExponentialBackoff(3,
		WithInitialDelay(2*time.Second),
		WithJitter(0),
	)

	tests := []struct {
		attempt       int
		expectedDelay time.Duration
	}{
		{attempt: 0, expectedDelay: 2 * time.Second}, // 2^1
		{attempt: 1, expectedDelay: 4 * time.Second}, // 2^2
		{attempt: 2, expectedDelay: 8 * time.Second}, // 2^3
	}

	for _, tt := range tests {
		if delay := strategy.NextDelay(tt.attempt); delay != tt.expectedDelay {
			t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, delay, tt.expectedDelay)
		}
	}
}

func TestExponentialBackoff_NextDelay_MaxDelayCap(t *testing.T) {
	strategy := NewExponentialBackoff(10,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(1*time.Second),
		WithJitter(0),
	)

	// 100ms * 2^10 = 102.4s, capped at 1s
	if delay := strategy.NextDelay(10); delay != 1*time.Second {
		t.Errorf("NextDelay(10) = %v, want %v", delay, 1*time.Second)
	}
}

func TestExponentialBackoff_NextDelay_NegativeAttempt(t *testing.T) {
	strategy := NewExponentialBackoff(3, WithInitialDelay(time.Second), WithJitter(0))

	if delay := strategy.NextDelay(-1); delay != time.Second {
		t.Errorf("NextDelay(-1) = %v, want %v", delay, time.Second)
	}
}

func TestExponentialBackoff_NextDelay_WithJitter(t *testing.T) {
	tests := []struct {
		random float64
		want   time.Duration
	}{
		{random: 0.0, want: 90 * time.Millisecond},  // 100ms * (1 - 0.1)
		{random: 0.5, want: 100 * time.Millisecond}, // no offset
		{random: 1.0, want: 110 * time.Millisecond}, // 100ms * (1 + 0.1)
	}

	for _, tt := range tests {
		random := tt.random
		strategy := NewExponentialBackoff(3,
			WithInitialDelay(100*time.Millisecond),
			WithJitter(0.1),
			WithJitterFunc(func() float64 { return random }),
		)
		if delay := strategy.NextDelay(0); delay != tt.want {
			t.Errorf("jitter random=%v: NextDelay(0) = %v, want %v", tt.random, delay, tt.want)
		}
	}
}

func TestExponentialBackoff_NextDelay_DefaultJitterStaysInBounds(t *testing.T) {
	strategy := NewExponentialBackoff(3, WithInitialDelay(time.Second), WithJitter(0.2))

	for i := 0; i < 100; i++ {
		delay := strategy.NextDelay(0)
		if delay < 800*time.Millisecond || delay > 1200*time.Millisecond {
			t.Fatalf("NextDelay(0) = %v, outside +/-20%% of 1s", delay)
		}
	}
}
