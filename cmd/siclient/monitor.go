package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
	"time"

	"github.com/openstuder/openstuder-go/pkg/asyncclient"
	"github.com/openstuder/openstuder-go/pkg/connection"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

// monitor prints property updates and device messages as they arrive.
type monitor struct {
	asyncclient.BaseListener

	client   *asyncclient.Client
	ids      []string
	binary   bool
	messages bool
	out      io.Writer
	csv      *csv.Writer

	// connected is set once per connection that reached CONNECTED.
	connected atomic.Bool
}

func runMonitor(ctx context.Context, t *target, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("monitor", flag.ContinueOnError)
	csvPath := fs.String("csv", "", "Append updates to a CSV file")
	messages := fs.Bool("messages", false, "Print device messages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 && !*messages {
		return fmt.Errorf("monitor needs property ids or -messages")
	}

	m := &monitor{
		ids:      fs.Args(),
		binary:   t.codec.Binary(),
		messages: *messages,
		out:      out,
	}
	if *csvPath != "" {
		f, err := os.OpenFile(*csvPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", *csvPath, err)
		}
		defer f.Close()
		m.csv = csv.NewWriter(f)
	}
	return m.run(ctx, t)
}

// run connects and keeps the monitor connected until ctx is done. It only
// gives up early when the gateway speaks another protocol version.
func (m *monitor) run(ctx context.Context, t *target) error {
	m.client = asyncclient.New(m, t.asyncConfig())

	var fatal error
	attempt := func(ctx context.Context) (bool, error) {
		err := m.client.ConnectForeground(ctx, t.config.address(), t.config.User, t.config.Password)
		if errors.Is(err, wire.ErrProtocolVersion) {
			fatal = err
			return false, connection.ErrReconnectStopped
		}
		return m.connected.Swap(false), err
	}

	if !t.config.Reconnect.Enabled {
		_, err := attempt(ctx)
		if fatal != nil {
			return fatal
		}
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	r := connection.NewReconnector(t.config.Reconnect.BackoffConfig)
	r.OnRetry = func(n int, delay time.Duration, err error) {
		log.Printf("Connection lost (%v), retry %d in %s", err, n, delay.Round(time.Millisecond))
	}
	if err := r.Run(ctx, attempt); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return fatal
}

func (m *monitor) OnConnected(level wire.AccessLevel, gatewayVersion string) {
	m.connected.Store(true)
	log.Printf("Connected (gateway %s, access level %s)", gatewayVersion, level)
	if err := m.subscribe(); err != nil {
		log.Printf("Subscribe failed: %v", err)
	}
}

// subscribe sends the subscriptions for a new connection. The binary codec
// has no multi-property subscribe.
func (m *monitor) subscribe() error {
	if len(m.ids) == 0 {
		return nil
	}
	if len(m.ids) > 1 && !m.binary {
		return m.client.SubscribeToProperties(m.ids)
	}
	for _, id := range m.ids {
		if err := m.client.SubscribeToProperty(id); err != nil {
			return err
		}
	}
	return nil
}

func (m *monitor) OnDisconnected(err error) {
	if err != nil {
		log.Printf("Disconnected: %v", err)
		return
	}
	log.Println("Disconnected")
}

func (m *monitor) OnError(err error) {
	log.Printf("Gateway error: %v", err)
}

func (m *monitor) OnPropertySubscribed(msg *wire.PropertySubscribed) {
	m.reportSubscription(msg.ID, msg.Status)
}

func (m *monitor) OnPropertiesSubscribed(msg *wire.PropertiesSubscribed) {
	for _, r := range msg.Results {
		m.reportSubscription(r.ID, r.Status)
	}
}

func (m *monitor) reportSubscription(id string, status wire.Status) {
	if status != wire.StatusSuccess {
		log.Printf("Subscription to %s failed: %s", id, status)
	}
}

func (m *monitor) OnPropertyUpdated(msg *wire.PropertyUpdate) {
	now := time.Now()
	fmt.Fprintf(m.out, "%s  %-24s %s\n", now.Format(time.DateTime), msg.ID, msg.Value)
	if m.csv != nil {
		_ = m.csv.Write([]string{now.UTC().Format(time.RFC3339), msg.ID, msg.Value.String()})
		m.csv.Flush()
	}
}

func (m *monitor) OnDeviceMessage(msg *wire.DeviceMessage) {
	if !m.messages {
		return
	}
	fmt.Fprintf(m.out, "%s  %s.%s  message %d: %s\n",
		msg.Timestamp.Local().Format(time.DateTime), msg.AccessID, msg.DeviceID, msg.MessageID, msg.Message)
}
