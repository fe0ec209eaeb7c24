package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/openstuder/openstuder-go/pkg/log"
)

// StreamConfig configures length-prefixed stream connections.
type StreamConfig struct {
	// MaxMessageSize is the maximum frame payload (default: 64KB).
	MaxMessageSize uint32

	// DialTimeout bounds connection setup (default: 10s).
	DialTimeout time.Duration

	// SendRate limits outgoing frames per second. Zero disables pacing.
	SendRate  rate.Limit
	SendBurst int

	ProtocolLogger log.Logger
}

// DefaultStreamConfig returns the default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		MaxMessageSize: DefaultMaxMessageSize,
		DialTimeout:    10 * time.Second,
	}
}

// StreamDialer opens TCP stream connections.
type StreamDialer struct {
	config StreamConfig
}

// NewStreamDialer creates a stream dialer.
func NewStreamDialer(config StreamConfig) *StreamDialer {
	if config.DialTimeout == 0 {
		config.DialTimeout = DefaultStreamConfig().DialTimeout
	}
	return &StreamDialer{config: config}
}

// Dial connects to a host:port address.
func (d *StreamDialer) Dial(ctx context.Context, address string) (Conn, error) {
	dialer := &net.Dialer{Timeout: d.config.DialTimeout}
	nc, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return NewStreamConn(nc, d.config), nil
}

// StreamConn is a Conn over a net.Conn using length-prefixed frames.
type StreamConn struct {
	nc      net.Conn
	framer  *Framer
	id      string
	limiter *rate.Limiter
	rec     *log.Recorder

	readMu    sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}
}

// NewStreamConn wraps nc. Any net.Conn works, including net.Pipe ends.
func NewStreamConn(nc net.Conn, config StreamConfig) *StreamConn {
	c := &StreamConn{
		nc:      nc,
		framer:  NewFramerWithMaxSize(nc, config.MaxMessageSize),
		id:      uuid.New().String(),
		closeCh: make(chan struct{}),
	}
	remote := ""
	if addr := nc.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	c.rec = log.NewRecorder(config.ProtocolLogger, c.id, remote, "binary")
	c.framer.SetRecorder(c.rec)
	if config.SendRate > 0 {
		burst := config.SendBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(config.SendRate, burst)
	}
	return c
}

// ID returns the connection's capture id.
func (c *StreamConn) ID() string { return c.id }

// Send writes one frame, waiting for the send pacer first.
func (c *StreamConn) Send(ctx context.Context, data []byte) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	if d, ok := ctx.Deadline(); ok {
		_ = c.nc.SetWriteDeadline(d)
		defer c.nc.SetWriteDeadline(time.Time{})
	}
	if err := c.framer.WriteFrame(data); err != nil {
		return c.mapError(err)
	}
	return nil
}

// Receive reads one frame.
func (c *StreamConn) Receive(ctx context.Context) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if c.isClosed() {
		return nil, ErrConnectionClosed
	}

	deadline, _ := ctx.Deadline()
	_ = c.nc.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.nc.SetReadDeadline(time.Now())
	})
	defer stop()

	data, err := c.framer.ReadFrame()
	if err != nil {
		if ctx.Err() != nil {
			// A partially read frame leaves the stream unframed.
			c.Close()
			return nil, ctx.Err()
		}
		return nil, c.mapError(err)
	}
	return data, nil
}

// Close closes the connection.
func (c *StreamConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		err = c.nc.Close()
	})
	return err
}

func (c *StreamConn) isClosed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

func (c *StreamConn) mapError(err error) error {
	if c.isClosed() {
		return ErrConnectionClosed
	}
	if errors.Is(err, io.EOF) || errors.Is(err, ErrFrameTruncated) || errors.Is(err, io.ErrClosedPipe) {
		return fmt.Errorf("%w: %v", ErrRemoteClosed, err)
	}
	return err
}
