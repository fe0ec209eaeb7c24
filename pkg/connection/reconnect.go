package connection

import (
	"context"
	"errors"
	"time"
)

// ErrReconnectStopped is returned by Run when the attempt function asks to stop.
var ErrReconnectStopped = errors.New("reconnection stopped")

// AttemptFunc runs one connection lifetime. It reports whether a session
// reached CONNECTED before it ended, and the error that ended it.
// Returning ErrReconnectStopped ends Run.
type AttemptFunc func(ctx context.Context) (connected bool, err error)

// Reconnector keeps a connection alive by rerunning an AttemptFunc.
type Reconnector struct {
	backoff *Backoff

	// OnRetry, when set, is called before each delay.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// NewReconnector creates a reconnector with the given backoff settings.
func NewReconnector(cfg BackoffConfig) *Reconnector {
	return &Reconnector{backoff: NewBackoffWithConfig(cfg)}
}

// Run calls attempt until ctx is done or attempt returns
// ErrReconnectStopped. The backoff resets after every attempt that
// reached CONNECTED.
func (r *Reconnector) Run(ctx context.Context, attempt AttemptFunc) error {
	for {
		connected, err := attempt(ctx)
		if errors.Is(err, ErrReconnectStopped) {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			r.backoff.Reset()
		}

		delay := r.backoff.Next()
		if r.OnRetry != nil {
			r.OnRetry(r.backoff.Attempts(), delay, err)
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
