// Command siclient talks to a gateway from the command line.
//
// It runs single commands, monitors property updates with the asynchronous
// client, or opens an interactive shell.
//
// Usage:
//
//	siclient [flags] <command> [args]
//
// Flags:
//
//	-config string         Configuration file path (YAML)
//	-host string           Gateway host name or address (default "localhost")
//	-port int              Gateway port (default 1987)
//	-user string           User name (empty for guest access)
//	-password string       Password
//	-transport string      Transport: websocket, stream (default "websocket")
//	-codec string          Codec: text, binary (default depends on transport)
//	-protocol-log string   File path for protocol capture (CBOR, read with silog)
//	-log-level string      Log level: debug, info, warn, error (default "info")
//	-timeout duration      Timeout of one-shot commands (default 10s)
//	-send-rate float       Maximum frames per second sent (0: unlimited)
//	-ping-interval dur     Keep-alive ping interval of monitor (0 disables)
//	-reconnect             Reconnect monitor after the connection was lost (default true)
//
// Commands:
//
//	info, enumerate, describe, read, write, datalog, messages, find, ext
//	monitor [-csv file] [-messages] <id>...
//	shell
//	version
//
// Examples:
//
//	# Read two properties as installer
//	siclient -host 192.168.1.10 -user installer -password secret read demo.inv.3136 demo.inv.3137
//
//	# Export one day of logged samples
//	siclient -host gw datalog -from 24h -csv power.csv demo.inv.3136
//
//	# Watch properties over the binary stream bridge, reconnecting forever
//	siclient -transport stream -host bridge -port 1988 monitor demo.inv.3136
//
//	# Interactive shell with a protocol capture
//	siclient -config /etc/siclient.yaml -protocol-log gateway.slog shell
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/time/rate"

	"github.com/openstuder/openstuder-go/cmd/siclient/commands"
	"github.com/openstuder/openstuder-go/cmd/siclient/interactive"
	"github.com/openstuder/openstuder-go/pkg/asyncclient"
	"github.com/openstuder/openstuder-go/pkg/cborwire"
	"github.com/openstuder/openstuder-go/pkg/client"
	protolog "github.com/openstuder/openstuder-go/pkg/log"
	"github.com/openstuder/openstuder-go/pkg/textwire"
	"github.com/openstuder/openstuder-go/pkg/transport"
	"github.com/openstuder/openstuder-go/pkg/version"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

const usage = `siclient - gateway command line client

Usage:
  siclient [flags] <command> [args]

Commands:
%s  monitor [-csv file] [-messages] <id>...   Print property updates and device messages
  shell                                       Interactive shell

Flags:
`

var config = defaultConfig()

func init() {
	registerFlags(flag.CommandLine, &config)
}

func printUsage() {
	var cmds string
	for _, cmd := range commands.All() {
		cmds += fmt.Sprintf("  %-43s %s\n", cmd.Usage, cmd.Help)
	}
	fmt.Fprintf(os.Stderr, usage, cmds)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if err := loadConfig(flag.CommandLine, &config); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if err := validateConfig(&config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	logger := setupLogging(config.LogLevel)

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	t, err := newTarget(&config, logger)
	if err != nil {
		log.Fatalf("Setup failed: %v", err)
	}
	if config.ProtocolLog != "" {
		log.Printf("Protocol logging to: %s", config.ProtocolLog)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, t, flag.Arg(0), flag.Args()[1:])
	stop()

	if cerr := t.Close(); cerr != nil {
		log.Printf("Error closing protocol log: %v", cerr)
	}
	if err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, t *target, cmd string, args []string) error {
	switch cmd {
	case "monitor":
		return runMonitor(ctx, t, args, os.Stdout)
	case "shell":
		return runShell(ctx, t)
	case "version":
		fmt.Printf("siclient %s (protocol %s)\n", version.Library, version.Protocol)
		return nil
	}

	if _, ok := commands.Lookup(cmd); !ok {
		return fmt.Errorf("unknown command: %s (run with -help for commands)", cmd)
	}

	ctx, cancel := t.withTimeout(ctx)
	defer cancel()

	c := client.New(t.clientConfig())
	if _, err := c.Connect(ctx, t.config.address(), t.config.User, t.config.Password); err != nil {
		return err
	}
	defer func() { _ = c.Disconnect() }()

	return commands.Run(ctx, c, cmd, args, os.Stdout)
}

func runShell(ctx context.Context, t *target) error {
	c := client.New(t.clientConfig())
	connect := func(ctx context.Context) error {
		ctx, cancel := t.withTimeout(ctx)
		defer cancel()
		level, err := c.Connect(ctx, t.config.address(), t.config.User, t.config.Password)
		if err != nil {
			return err
		}
		log.Printf("Connected to %s as %s", t.config.address(), level)
		return nil
	}
	if err := connect(ctx); err != nil {
		return err
	}
	defer func() { _ = c.Disconnect() }()

	sh, err := interactive.New(c, connect)
	if err != nil {
		return err
	}
	log.SetOutput(sh.Stdout())
	sh.Run(ctx)
	return nil
}

// target bundles what every command needs to reach the gateway.
type target struct {
	config         *Config
	codec          wire.Codec
	logger         *slog.Logger
	protocolLogger protolog.Logger
	capture        *protolog.FileLogger

	// dial builds the transport dialer; monitor asks for keep-alive.
	dial func(keepAlive bool) transport.Dialer
}

func newTarget(c *Config, logger *slog.Logger) (*target, error) {
	t := &target{config: c, logger: logger}
	if c.binary() {
		t.codec = cborwire.New()
	} else {
		t.codec = textwire.New()
	}

	// protocolLogger stays a nil interface without a capture file or debug
	// logging.
	var sinks []protolog.Logger
	if c.ProtocolLog != "" {
		fl, err := protolog.NewFileLogger(c.ProtocolLog)
		if err != nil {
			return nil, fmt.Errorf("failed to create protocol logger: %w", err)
		}
		t.capture = fl
		sinks = append(sinks, fl)
	}
	if c.LogLevel == "debug" {
		sinks = append(sinks, protolog.NewSlogAdapter(logger))
	}
	switch len(sinks) {
	case 0:
	case 1:
		t.protocolLogger = sinks[0]
	default:
		t.protocolLogger = protolog.NewMultiLogger(sinks...)
	}

	t.dial = t.newDialer
	return t, nil
}

func (t *target) newDialer(keepAlive bool) transport.Dialer {
	if t.config.Transport == TransportStream {
		sc := transport.DefaultStreamConfig()
		sc.SendRate = rate.Limit(t.config.SendRate)
		sc.SendBurst = 1
		sc.ProtocolLogger = t.protocolLogger
		return transport.NewStreamDialer(sc)
	}

	wc := transport.DefaultWebSocketConfig()
	wc.Binary = t.codec.Binary()
	wc.SendRate = rate.Limit(t.config.SendRate)
	wc.SendBurst = 1
	wc.Logger = t.logger
	wc.ProtocolLogger = t.protocolLogger
	if keepAlive && t.config.KeepAlive.PingInterval > 0 {
		ka := t.config.KeepAlive
		wc.KeepAlive = &ka
	}
	return transport.NewWebSocketDialer(wc)
}

func (t *target) clientConfig() client.Config {
	return client.Config{
		Codec:          t.codec,
		Dialer:         t.dial(false),
		Logger:         t.logger,
		ProtocolLogger: t.protocolLogger,
	}
}

func (t *target) asyncConfig() asyncclient.Config {
	return asyncclient.Config{
		Codec:          t.codec,
		Dialer:         t.dial(true),
		Logger:         t.logger,
		ProtocolLogger: t.protocolLogger,
	}
}

func (t *target) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.config.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.config.Timeout)
}

// Close closes the protocol capture file.
func (t *target) Close() error {
	if t.capture == nil {
		return nil
	}
	return t.capture.Close()
}

func setupLogging(level string) *slog.Logger {
	log.SetFlags(log.Ltime | log.Lmicroseconds)

	var lvl slog.Level
	switch level {
	case "debug":
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
		lvl = slog.LevelDebug
	case "warn":
		log.SetFlags(log.Ltime)
		lvl = slog.LevelWarn
	case "error":
		log.SetFlags(log.Ltime)
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
