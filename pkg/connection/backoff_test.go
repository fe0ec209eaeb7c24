package connection

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff(t *testing.T) {
	t.Run("DefaultSequence", func(t *testing.T) {
		b := NewBackoff()
		expected := []time.Duration{
			1 * time.Second,
			2 * time.Second,
			4 * time.Second,
			8 * time.Second,
			16 * time.Second,
			32 * time.Second,
			60 * time.Second,
			60 * time.Second,
		}
		for i, exp := range expected {
			if base := b.Current(); base != exp {
				t.Errorf("attempt %d: base = %v, want %v", i, base, exp)
			}
			_ = b.Next()
		}
		if b.Attempts() != len(expected) {
			t.Errorf("Attempts() = %d", b.Attempts())
		}
	})

	t.Run("JitterRange", func(t *testing.T) {
		b := NewBackoff()
		for i := 0; i < 20; i++ {
			b.Reset()
			d := b.Next()
			if d < time.Second || d > 1250*time.Millisecond {
				t.Fatalf("delay %v out of [1s, 1.25s]", d)
			}
		}
	})

	t.Run("NoJitter", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{Initial: 10 * time.Millisecond, Max: 25 * time.Millisecond})
		got := []time.Duration{b.Next(), b.Next(), b.Next()}
		want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 25 * time.Millisecond}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Next() #%d = %v, want %v", i, got[i], want[i])
			}
		}
	})

	t.Run("WaitHonoursContext", func(t *testing.T) {
		b := NewBackoffWithConfig(BackoffConfig{Initial: time.Hour})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := b.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Wait() = %v", err)
		}
	})
}

func TestReconnector(t *testing.T) {
	r := NewReconnector(BackoffConfig{Initial: time.Millisecond, Max: 4 * time.Millisecond})

	var delays []time.Duration
	r.OnRetry = func(attempt int, delay time.Duration, err error) {
		delays = append(delays, delay)
	}

	// Two refused attempts, one that connected, one refused, then stop.
	results := []bool{false, false, true, false}
	calls := 0
	err := r.Run(context.Background(), func(ctx context.Context) (bool, error) {
		if calls == len(results) {
			return false, ErrReconnectStopped
		}
		connected := results[calls]
		calls++
		return connected, errors.New("connection lost")
	})
	if err != nil {
		t.Fatalf("Run() = %v", err)
	}

	want := []time.Duration{1, 2, 1, 2}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v", delays)
	}
	for i := range want {
		if delays[i] != want[i]*time.Millisecond {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i]*time.Millisecond)
		}
	}
}

func TestReconnectorStopsOnContext(t *testing.T) {
	r := NewReconnector(BackoffConfig{Initial: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	err := r.Run(ctx, func(ctx context.Context) (bool, error) {
		cancel()
		return false, errors.New("refused")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
}
