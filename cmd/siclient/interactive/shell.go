// Package interactive provides the readline shell of siclient.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/openstuder/openstuder-go/cmd/siclient/commands"
	"github.com/openstuder/openstuder-go/pkg/client"
	"github.com/openstuder/openstuder-go/pkg/connection"
)

// Shell runs gateway commands typed at a prompt over one connected client.
type Shell struct {
	client *client.Client
	rl     *readline.Instance
	out    io.Writer

	// reconnect reopens the session after the transport was lost.
	reconnect func(ctx context.Context) error
}

// New creates a shell. reconnect is called by the "connect" command and
// may be nil.
func New(c *client.Client, reconnect func(ctx context.Context) error) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gateway> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Shell{client: c, rl: rl, out: rl.Stdout(), reconnect: reconnect}, nil
}

func completer() *readline.PrefixCompleter {
	items := []readline.PrefixCompleterInterface{
		readline.PcItem("help"),
		readline.PcItem("connect"),
		readline.PcItem("status"),
		readline.PcItem("quit"),
	}
	for _, cmd := range commands.All() {
		items = append(items, readline.PcItem(cmd.Name))
	}
	return readline.NewPrefixCompleter(items...)
}

// Stdout returns a writer that properly coordinates with the readline input.
func (s *Shell) Stdout() io.Writer {
	return s.rl.Stdout()
}

// Run reads commands until the user quits or ctx is done.
func (s *Shell) Run(ctx context.Context) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}

		if s.execute(ctx, line) {
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
	}
}

// execute runs one input line and reports whether the shell should exit.
func (s *Shell) execute(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "status", "s":
		s.printStatus()
	case "connect":
		s.cmdConnect(ctx)
	case "quit", "exit", "q":
		return true
	default:
		err := commands.Run(ctx, s.client, cmd, args, s.out)
		switch {
		case err == nil:
		case errors.Is(err, connection.ErrInvalidState):
			fmt.Fprintf(s.out, "Not connected (type 'connect' to reconnect)\n")
		default:
			fmt.Fprintf(s.out, "Error: %v\n", err)
		}
	}
	return false
}

func (s *Shell) cmdConnect(ctx context.Context) {
	if s.client.State() == connection.StateConnected {
		fmt.Fprintln(s.out, "Already connected")
		return
	}
	if s.reconnect == nil {
		fmt.Fprintln(s.out, "Reconnect not available")
		return
	}
	if err := s.reconnect(ctx); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	s.printStatus()
}

func (s *Shell) printStatus() {
	fmt.Fprintf(s.out, "State: %s\n", s.client.State())
	if s.client.State() == connection.StateConnected {
		fmt.Fprintf(s.out, "Access level: %s\n", s.client.AccessLevel())
		fmt.Fprintf(s.out, "Gateway version: %s\n", s.client.GatewayVersion())
	}
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, "Commands:")
	for _, cmd := range commands.All() {
		fmt.Fprintf(s.out, "  %-58s %s\n", cmd.Usage, cmd.Help)
	}
	fmt.Fprintf(s.out, "  %-58s %s\n", "connect", "Reconnect after the connection was lost")
	fmt.Fprintf(s.out, "  %-58s %s\n", "status", "Show the connection state")
	fmt.Fprintf(s.out, "  %-58s %s\n", "help", "Show this help")
	fmt.Fprintf(s.out, "  %-58s %s\n", "quit", "Exit the shell")
}
