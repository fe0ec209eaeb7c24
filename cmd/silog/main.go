// Command silog views and analyzes protocol capture files.
//
// Capture files are written by siclient when it runs with the
// -protocol-log flag, or by any program that sets a log.FileLogger as the
// ProtocolLogger of a client.
//
// Usage:
//
//	silog <command> [flags] <file.slog>
//
// Commands:
//
//	view     View capture file in human-readable format
//	export   Export capture file to JSON lines or CSV
//	filter   Filter capture file and write to new file
//	stats    Show statistics about the capture file
//
// Examples:
//
//	# View all events
//	silog view gateway.slog
//
//	# View only decoded frames
//	silog view --layer wire gateway.slog
//
//	# View everything that touched one property
//	silog view --property demo.inv.3136 gateway.slog
//
//	# Export to CSV
//	silog export --format csv -o gateway.csv gateway.slog
//
//	# Keep one connection only
//	silog filter --conn-id 1f0c4b2a -o one.slog gateway.slog
//
//	# Show statistics
//	silog stats gateway.slog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/openstuder/openstuder-go/cmd/silog/commands"
)

const usage = `silog - gateway protocol capture analyzer

Usage:
  silog <command> [flags] <file.slog>

Commands:
  view     View capture file in human-readable format
  export   Export capture file to JSON lines or CSV
  filter   Filter capture file and write to new file
  stats    Show statistics about the capture file

Use "silog <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `silog view - View capture file in human-readable format

Usage:
  silog view [flags] <file.slog>

Flags:
`)
		fs.PrintDefaults()
	}

	opts := filterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter, err := commands.BuildFilter(*opts)
	if err != nil {
		fail(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `silog export - Export capture file to JSON lines or CSV

Usage:
  silog export [flags] <file.slog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `silog filter - Filter capture file and write to new file

Usage:
  silog filter [flags] <file.slog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	opts := filterFlags(fs)

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := commands.BuildFilter(*opts)
	if err != nil {
		fail(err)
	}
	count, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", count, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `silog stats - Show statistics about the capture file

Usage:
  silog stats <file.slog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}

// filterFlags registers the selection flags shared by view and filter.
func filterFlags(fs *flag.FlagSet) *commands.FilterOptions {
	opts := &commands.FilterOptions{}
	fs.StringVar(&opts.ConnID, "conn-id", "", "Filter by connection ID (prefix)")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer (transport, wire, client)")
	fs.StringVar(&opts.Direction, "direction", "", "Filter by direction (in, out)")
	fs.StringVar(&opts.Category, "category", "", "Filter by category (message, control, state, error)")
	fs.StringVar(&opts.Operation, "operation", "", "Filter by operation, e.g. \"READ PROPERTY\"")
	fs.StringVar(&opts.PropertyID, "property", "", "Filter by property or element id")
	return opts
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: capture file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
