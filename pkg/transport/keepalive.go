package transport

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultPingInterval is the default interval between pings.
	DefaultPingInterval = 20 * time.Second

	// DefaultPongTimeout is the default timeout waiting for a pong.
	DefaultPongTimeout = 10 * time.Second

	// DefaultMaxMissedPongs is the default number of missed pongs before
	// the connection is considered dead.
	DefaultMaxMissedPongs = 2
)

// KeepAliveConfig configures keep-alive behavior.
type KeepAliveConfig struct {
	PingInterval   time.Duration `yaml:"ping_interval"`
	PongTimeout    time.Duration `yaml:"pong_timeout"`
	MaxMissedPongs int           `yaml:"max_missed_pongs"`
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		PingInterval:   DefaultPingInterval,
		PongTimeout:    DefaultPongTimeout,
		MaxMissedPongs: DefaultMaxMissedPongs,
	}
}

// DetectionDelay is the longest time a dead connection goes unnoticed.
func (c KeepAliveConfig) DetectionDelay() time.Duration {
	return c.PingInterval*time.Duration(c.MaxMissedPongs) + c.PongTimeout
}

func (c KeepAliveConfig) withDefaults() KeepAliveConfig {
	if c.PingInterval == 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongTimeout == 0 {
		c.PongTimeout = DefaultPongTimeout
	}
	if c.MaxMissedPongs == 0 {
		c.MaxMissedPongs = DefaultMaxMissedPongs
	}
	return c
}

// KeepAlive sends numbered pings and declares the connection dead after
// MaxMissedPongs consecutive pings go unanswered.
type KeepAlive struct {
	config    KeepAliveConfig
	sendPing  func(seq uint32) error
	onTimeout func()

	sequence     atomic.Uint32
	missedPongs  int
	lastPingTime time.Time
	latency      time.Duration
	pendingPing  uint32
	hasPending   bool

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	pongCh  chan uint32
}

// NewKeepAlive creates a keep-alive monitor. onTimeout is called once, from
// the monitor's goroutine, after which the monitor stops.
func NewKeepAlive(config KeepAliveConfig, sendPing func(seq uint32) error, onTimeout func()) *KeepAlive {
	return &KeepAlive{
		config:    config.withDefaults(),
		sendPing:  sendPing,
		onTimeout: onTimeout,
		stopCh:    make(chan struct{}),
		pongCh:    make(chan uint32, 1),
	}
}

// Start begins monitoring until ctx is done or Stop is called.
func (ka *KeepAlive) Start(ctx context.Context) {
	ka.mu.Lock()
	if ka.running {
		ka.mu.Unlock()
		return
	}
	ka.running = true
	ka.stopCh = make(chan struct{})
	stopCh := ka.stopCh
	ka.mu.Unlock()

	go ka.loop(ctx, stopCh)
}

// Stop stops monitoring.
func (ka *KeepAlive) Stop() {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if !ka.running {
		return
	}
	ka.running = false
	close(ka.stopCh)
}

// PongReceived reports a pong carrying seq.
func (ka *KeepAlive) PongReceived(seq uint32) {
	select {
	case ka.pongCh <- seq:
	default:
	}
}

// IsRunning reports whether monitoring is active.
func (ka *KeepAlive) IsRunning() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.running
}

// Latency returns the round trip of the last answered ping.
func (ka *KeepAlive) Latency() time.Duration {
	ka.mu.Lock()
	defer ka.mu.Unlock()
	return ka.latency
}

func (ka *KeepAlive) loop(ctx context.Context, stopCh chan struct{}) {
	ticker := time.NewTicker(ka.config.PingInterval)
	defer ticker.Stop()

	ka.ping()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			if ka.expired() {
				ka.Stop()
				if ka.onTimeout != nil {
					ka.onTimeout()
				}
				return
			}
			ka.ping()
		case seq := <-ka.pongCh:
			ka.pong(seq)
		}
	}
}

func (ka *KeepAlive) ping() {
	seq := ka.sequence.Add(1)

	ka.mu.Lock()
	ka.lastPingTime = time.Now()
	ka.pendingPing = seq
	ka.hasPending = true
	ka.mu.Unlock()

	// A failed send is left to the pong timeout.
	_ = ka.sendPing(seq)
}

// expired accounts for an unanswered ping and reports whether the miss
// limit has been reached.
func (ka *KeepAlive) expired() bool {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	if ka.hasPending && time.Since(ka.lastPingTime) >= ka.config.PongTimeout {
		ka.missedPongs++
		ka.hasPending = false
	}
	return ka.missedPongs >= ka.config.MaxMissedPongs
}

func (ka *KeepAlive) pong(seq uint32) {
	ka.mu.Lock()
	defer ka.mu.Unlock()

	// Pongs for earlier pings are late, not lost; ignore them.
	if ka.hasPending && seq == ka.pendingPing {
		ka.latency = time.Since(ka.lastPingTime)
		ka.hasPending = false
		ka.missedPongs = 0
	}
}
