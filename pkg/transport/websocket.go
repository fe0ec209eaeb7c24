package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/openstuder/openstuder-go/pkg/log"
)

// DefaultPort is the gateway's WebSocket port.
const DefaultPort = 1987

// WebSocketConfig configures WebSocket connections.
type WebSocketConfig struct {
	// Binary sends frames as binary messages (binary codec). Text messages
	// are used otherwise.
	Binary bool

	// HandshakeTimeout bounds the opening handshake (default: 10s).
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each write (default: 10s).
	WriteTimeout time.Duration

	// MaxMessageSize limits received messages (default: 64KB).
	MaxMessageSize int64

	// KeepAlive enables ping/pong liveness monitoring when non-nil.
	KeepAlive *KeepAliveConfig

	// SendRate limits outgoing frames per second. Zero disables pacing.
	SendRate  rate.Limit
	SendBurst int

	Logger         *slog.Logger
	ProtocolLogger log.Logger
}

// DefaultWebSocketConfig returns the default WebSocket configuration.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     10 * time.Second,
		MaxMessageSize:   DefaultMaxMessageSize,
	}
}

// WebSocketDialer opens WebSocket connections to gateways.
type WebSocketDialer struct {
	config WebSocketConfig
	dialer *websocket.Dialer
}

// NewWebSocketDialer creates a dialer. Zero fields take their defaults.
func NewWebSocketDialer(config WebSocketConfig) *WebSocketDialer {
	def := DefaultWebSocketConfig()
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = def.HandshakeTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = def.MaxMessageSize
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &WebSocketDialer{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: config.HandshakeTimeout,
		},
	}
}

// WebSocketURL turns a gateway address into a ws:// URL. A bare host gets
// the default port.
func WebSocketURL(address string) (string, error) {
	if !strings.Contains(address, "://") {
		address = "ws://" + address
	}
	u, err := url.Parse(address)
	if err != nil {
		return "", fmt.Errorf("invalid gateway address: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid gateway address: unsupported scheme %q", u.Scheme)
	}
	if u.Port() == "" {
		u.Host = net.JoinHostPort(u.Hostname(), fmt.Sprint(DefaultPort))
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}

// Dial opens a connection to address.
func (d *WebSocketDialer) Dial(ctx context.Context, address string) (Conn, error) {
	target, err := WebSocketURL(address)
	if err != nil {
		return nil, err
	}
	ws, resp, err := d.dialer.DialContext(ctx, target, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	return NewWebSocketConn(ws, d.config), nil
}

// WebSocketConn is a Conn over a gorilla WebSocket connection.
type WebSocketConn struct {
	ws      *websocket.Conn
	id      string
	msgType int
	config  WebSocketConfig
	rec     *log.Recorder
	limiter *rate.Limiter
	logger  *slog.Logger

	keepAlive *KeepAlive
	cancelKA  context.CancelFunc

	writeMu   sync.Mutex
	readMu    sync.Mutex
	closeOnce sync.Once
	closeCh   chan struct{}

	mu      sync.Mutex
	failure error
}

// NewWebSocketConn wraps an established WebSocket connection.
func NewWebSocketConn(ws *websocket.Conn, config WebSocketConfig) *WebSocketConn {
	codec := "text"
	msgType := websocket.TextMessage
	if config.Binary {
		codec = "binary"
		msgType = websocket.BinaryMessage
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	c := &WebSocketConn{
		ws:      ws,
		id:      uuid.New().String(),
		msgType: msgType,
		config:  config,
		closeCh: make(chan struct{}),
	}
	c.rec = log.NewRecorder(config.ProtocolLogger, c.id, ws.RemoteAddr().String(), codec)
	c.logger = config.Logger.With("conn_id", c.id)
	if config.SendRate > 0 {
		burst := config.SendBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(config.SendRate, burst)
	}
	if config.MaxMessageSize > 0 {
		ws.SetReadLimit(config.MaxMessageSize)
	}

	ws.SetPongHandler(c.handlePong)
	ws.SetCloseHandler(func(code int, text string) error {
		c.rec.Control(log.DirectionIn, log.ControlMsgClose, 0)
		c.logger.Debug("gateway closed connection", "code", code, "reason", text)
		msg := websocket.FormatCloseMessage(code, "")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		return nil
	})

	if config.KeepAlive != nil {
		var ctx context.Context
		ctx, c.cancelKA = context.WithCancel(context.Background())
		c.keepAlive = NewKeepAlive(*config.KeepAlive, c.sendPing, func() {
			c.logger.Warn("keep-alive timeout")
			c.fail(ErrKeepAliveTimeout)
		})
		c.keepAlive.Start(ctx)
	}
	return c
}

// ID returns the connection's capture id.
func (c *WebSocketConn) ID() string { return c.id }

// Send writes one frame as a single WebSocket message.
func (c *WebSocketConn) Send(ctx context.Context, data []byte) error {
	if err := c.closedErr(); err != nil {
		return err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(c.config.WriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(c.msgType, data); err != nil {
		c.rec.Error(log.LayerTransport, err, "send")
		return c.mapError(err)
	}
	c.rec.Frame(log.DirectionOut, data)
	return nil
}

// Receive returns the next text or binary message.
func (c *WebSocketConn) Receive(ctx context.Context) ([]byte, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	if err := c.closedErr(); err != nil {
		return nil, err
	}

	// gorilla has no context support; an expired read deadline unblocks the
	// read but leaves the connection unusable.
	deadline, _ := ctx.Deadline()
	_ = c.ws.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		_ = c.ws.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				c.Close()
				return nil, ctx.Err()
			}
			return nil, c.mapError(err)
		}
		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}
		c.rec.Frame(log.DirectionIn, data)
		return data, nil
	}
}

// Close sends a normal-closure frame and closes the connection.
func (c *WebSocketConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if c.keepAlive != nil {
			c.keepAlive.Stop()
			c.cancelKA()
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); werr == nil {
			c.rec.Control(log.DirectionOut, log.ControlMsgClose, 0)
		}
		err = c.ws.Close()
	})
	return err
}

// Latency returns the last keep-alive round trip, or zero.
func (c *WebSocketConn) Latency() time.Duration {
	if c.keepAlive == nil {
		return 0
	}
	return c.keepAlive.Latency()
}

func (c *WebSocketConn) sendPing(seq uint32) error {
	var payload [4]byte
	binary.BigEndian.PutUint32(payload[:], seq)
	if err := c.ws.WriteControl(websocket.PingMessage, payload[:], time.Now().Add(c.config.WriteTimeout)); err != nil {
		return err
	}
	c.rec.Control(log.DirectionOut, log.ControlMsgPing, seq)
	return nil
}

func (c *WebSocketConn) handlePong(appData string) error {
	if len(appData) != 4 {
		return nil
	}
	seq := binary.BigEndian.Uint32([]byte(appData))
	c.rec.Control(log.DirectionIn, log.ControlMsgPong, seq)
	if c.keepAlive != nil {
		c.keepAlive.PongReceived(seq)
	}
	return nil
}

// fail records why the connection died and closes it.
func (c *WebSocketConn) fail(err error) {
	c.mu.Lock()
	if c.failure == nil {
		c.failure = err
	}
	c.mu.Unlock()
	c.rec.Error(log.LayerTransport, err, "keep-alive")
	c.Close()
}

func (c *WebSocketConn) closedErr() error {
	select {
	case <-c.closeCh:
	default:
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failure != nil {
		return c.failure
	}
	return ErrConnectionClosed
}

func (c *WebSocketConn) mapError(err error) error {
	if cerr := c.closedErr(); cerr != nil {
		return cerr
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return fmt.Errorf("%w: %v", ErrRemoteClosed, closeErr)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrRemoteClosed, err)
	}
	if errors.Is(err, net.ErrClosed) {
		return ErrConnectionClosed
	}
	return err
}
