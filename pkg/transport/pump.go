package transport

import (
	"context"
	"errors"
	"sync"
)

// Handler receives frames pushed by a Pump.
type Handler interface {
	// OnMessage is called for every frame, in arrival order.
	OnMessage(data []byte)

	// OnClose is called once when the pump stops. err is nil when the
	// connection was closed locally or ctx was cancelled.
	OnClose(err error)
}

// Pump reads a Conn in a loop and pushes every frame to a Handler. All
// Handler calls happen on the goroutine running Run.
type Pump struct {
	conn    Conn
	handler Handler

	once sync.Once
	done chan struct{}
}

// NewPump creates a pump for conn.
func NewPump(conn Conn, handler Handler) *Pump {
	return &Pump{conn: conn, handler: handler, done: make(chan struct{})}
}

// Start runs the pump on a new goroutine.
func (p *Pump) Start(ctx context.Context) {
	go p.Run(ctx)
}

// Run reads until the connection fails or closes, then calls OnClose. It
// returns the terminal error reported to OnClose.
func (p *Pump) Run(ctx context.Context) error {
	var err error
	p.once.Do(func() {
		defer close(p.done)
		err = p.loop(ctx)
		p.handler.OnClose(err)
	})
	return err
}

func (p *Pump) loop(ctx context.Context) error {
	for {
		data, err := p.conn.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrConnectionClosed) || ctx.Err() != nil {
				return nil
			}
			p.conn.Close()
			return err
		}
		p.handler.OnMessage(data)
	}
}

// Done is closed after OnClose returns.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}
