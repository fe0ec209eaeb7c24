// Package gatewaytest provides a scripted in-memory gateway for client tests.
//
// Each Dial opens a net.Pipe. The client end is a transport.StreamConn; the
// gateway end decodes requests with a wire.GatewayCodec, records them and
// answers with whatever the Handler returns.
package gatewaytest

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/openstuder/openstuder-go/pkg/transport"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Handler returns the frames sent in answer to a request, in order. Frames
// that are not responses (updates, messages, errors) may be mixed in.
type Handler func(req wire.Request) []wire.Message

// ErrNotConnected is returned by Push when no client is connected.
var ErrNotConnected = errors.New("gatewaytest: no client connected")

// Gateway is a fake gateway. It is safe for concurrent use.
type Gateway struct {
	codec wire.GatewayCodec

	mu       sync.Mutex
	handler  Handler
	requests []wire.Request
	peer     *peer
	dials    int
	refuse   error

	received chan wire.Request
}

type peer struct {
	nc     net.Conn
	framer *transport.Framer
}

// New creates a gateway speaking codec. Connections are closed when the
// test ends.
func New(t testing.TB, codec wire.GatewayCodec) *Gateway {
	g := &Gateway{
		codec:    codec,
		handler:  Respond,
		received: make(chan wire.Request, 256),
	}
	t.Cleanup(g.Drop)
	return g
}

// SetHandler replaces the request handler. The default is Respond.
func (g *Gateway) SetHandler(h Handler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = h
}

// Refuse makes subsequent dials fail with err. Pass nil to accept again.
func (g *Gateway) Refuse(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refuse = err
}

// Dialer returns a dialer connecting to this gateway. The address is ignored.
func (g *Gateway) Dialer() transport.Dialer {
	return transport.DialerFunc(func(ctx context.Context, _ string) (transport.Conn, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		g.mu.Lock()
		defer g.mu.Unlock()
		g.dials++
		if g.refuse != nil {
			return nil, g.refuse
		}
		client, server := net.Pipe()
		p := &peer{nc: server, framer: transport.NewFramer(server)}
		if g.peer != nil {
			g.peer.nc.Close()
		}
		g.peer = p
		go g.serve(p)
		return transport.NewStreamConn(client, transport.DefaultStreamConfig()), nil
	})
}

func (g *Gateway) serve(p *peer) {
	for {
		frame, err := p.framer.ReadFrame()
		if err != nil {
			return
		}
		req, err := g.codec.DecodeRequest(frame)
		if err != nil {
			if g.write(p, &wire.ErrorMessage{Reason: err.Error()}) != nil {
				return
			}
			continue
		}

		g.mu.Lock()
		g.requests = append(g.requests, req)
		h := g.handler
		g.mu.Unlock()

		select {
		case g.received <- req:
		default:
		}

		for _, msg := range h(req) {
			if g.write(p, msg) != nil {
				return
			}
		}
	}
}

func (g *Gateway) write(p *peer, msg wire.Message) error {
	data, err := g.codec.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return p.framer.WriteFrame(data)
}

// Push sends an unsolicited frame to the connected client. It blocks until
// the client reads the frame.
func (g *Gateway) Push(msg wire.Message) error {
	data, err := g.codec.EncodeMessage(msg)
	if err != nil {
		return err
	}
	return g.PushRaw(data)
}

// PushRaw sends frame as-is, for example a malformed one.
func (g *Gateway) PushRaw(frame []byte) error {
	g.mu.Lock()
	p := g.peer
	g.mu.Unlock()
	if p == nil {
		return ErrNotConnected
	}
	return p.framer.WriteFrame(frame)
}

// Drop closes the gateway end of the current connection, as if the gateway
// went away.
func (g *Gateway) Drop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.peer != nil {
		g.peer.nc.Close()
		g.peer = nil
	}
}

// Requests returns every request received so far.
func (g *Gateway) Requests() []wire.Request {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]wire.Request(nil), g.requests...)
}

// Dials returns how often the client dialed.
func (g *Gateway) Dials() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dials
}

// Next waits for the next request. It fails the test after timeout.
func (g *Gateway) Next(t testing.TB, timeout time.Duration) wire.Request {
	t.Helper()
	select {
	case req := <-g.received:
		return req
	case <-time.After(timeout):
		t.Fatalf("gatewaytest: no request within %v", timeout)
		return nil
	}
}
