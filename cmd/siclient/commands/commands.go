// Package commands implements the gateway commands of siclient. Both the
// one-shot command line and the interactive shell dispatch through Run.
package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/openstuder/openstuder-go/pkg/client"
	"github.com/openstuder/openstuder-go/pkg/version"
	"github.com/openstuder/openstuder-go/pkg/wire"
)

// ErrUsage is returned when a command is called with bad arguments.
var ErrUsage = errors.New("usage")

// Command is one gateway command.
type Command struct {
	Name    string
	Aliases []string
	Usage   string
	Help    string
	Run     func(ctx context.Context, c *client.Client, args []string, w io.Writer) error
}

var table = []Command{
	{Name: "info", Usage: "info", Help: "Show access level, gateway version and extensions", Run: runInfo},
	{Name: "enumerate", Aliases: []string{"enum"}, Usage: "enumerate", Help: "Rescan the devices", Run: runEnumerate},
	{Name: "describe", Aliases: []string{"desc"}, Usage: "describe [-access] [-device] [-property] [-driver] [id]", Help: "Show the topology", Run: runDescribe},
	{Name: "read", Aliases: []string{"r"}, Usage: "read <id>...", Help: "Read property values", Run: runRead},
	{Name: "write", Aliases: []string{"w"}, Usage: "write [-permanent] <id> [value]", Help: "Write or trigger a property", Run: runWrite},
	{Name: "datalog", Aliases: []string{"log"}, Usage: "datalog [-from t] [-to t] [-limit n] [-csv file] [id]", Help: "Read logged samples, or list logged properties without id", Run: runDatalog},
	{Name: "messages", Aliases: []string{"msgs"}, Usage: "messages [-from t] [-to t] [-limit n] [-csv file]", Help: "Read stored device messages", Run: runMessages},
	{Name: "find", Usage: "find [-virtual true|false] [-filter a,b] <pattern>", Help: "Find property ids matching a wildcard pattern", Run: runFind},
	{Name: "ext", Usage: "ext [-body text] <extension> <command> [name=value]...", Help: "Call an extension command", Run: runExtension},
}

// All returns the commands sorted by name.
func All() []Command {
	out := make([]Command, len(table))
	copy(out, table)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds a command by name or alias.
func Lookup(name string) (Command, bool) {
	name = strings.ToLower(name)
	for _, cmd := range table {
		if cmd.Name == name {
			return cmd, true
		}
		for _, a := range cmd.Aliases {
			if a == name {
				return cmd, true
			}
		}
	}
	return Command{}, false
}

// Run executes the named command on a connected client.
func Run(ctx context.Context, c *client.Client, name string, args []string, w io.Writer) error {
	cmd, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	err := cmd.Run(ctx, c, args, w)
	if errors.Is(err, ErrUsage) {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
	}
	return err
}

// newFlagSet returns a flag set that reports errors instead of exiting.
func newFlagSet(name string, w io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(w)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	return nil
}

func runInfo(_ context.Context, c *client.Client, args []string, w io.Writer) error {
	if len(args) != 0 {
		return ErrUsage
	}
	fmt.Fprintf(w, "Access level:     %s\n", c.AccessLevel())
	fmt.Fprintf(w, "Gateway version:  %s", c.GatewayVersion())
	if v, err := version.Parse(c.GatewayVersion()); err == nil {
		fmt.Fprintf(w, " (build %d)", v.Build())
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Protocol version: %s\n", version.Protocol)
	if ext := c.AvailableExtensions(); len(ext) > 0 {
		fmt.Fprintf(w, "Extensions:       %s\n", strings.Join(ext, ", "))
	}
	return nil
}

func runEnumerate(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	if len(args) != 0 {
		return ErrUsage
	}
	m, err := c.Enumerate(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d devices\n", m.Status, m.DeviceCount)
	return nil
}

func runDescribe(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	fs := newFlagSet("describe", w)
	access := fs.Bool("access", false, "include access information")
	device := fs.Bool("device", false, "include device information")
	property := fs.Bool("property", false, "include property information")
	driver := fs.Bool("driver", false, "include driver information")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return ErrUsage
	}

	var req wire.DescribeRequest
	if fs.NArg() == 1 {
		parts := strings.SplitN(fs.Arg(0), ".", 3)
		req.AccessID = parts[0]
		if len(parts) > 1 {
			req.DeviceID = parts[1]
		}
		if len(parts) > 2 {
			req.PropertyID = parts[2]
		}
	}
	for _, f := range []struct {
		set  bool
		flag wire.DescriptionFlags
	}{
		{*access, wire.IncludeAccessInformation},
		{*device, wire.IncludeDeviceInformation},
		{*property, wire.IncludePropertyInformation},
		{*driver, wire.IncludeDriverInformation},
	} {
		if f.set {
			req.Flags |= f.flag
		}
	}

	m, err := c.Describe(ctx, req)
	if err != nil {
		return err
	}
	if m.Status != wire.StatusSuccess {
		fmt.Fprintf(w, "%s: %s\n", m.Status, m.ID)
		return nil
	}
	out, err := json.MarshalIndent(m.Description, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format description: %w", err)
	}
	fmt.Fprintln(w, string(out))
	return nil
}

func runRead(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	switch len(args) {
	case 0:
		return ErrUsage
	case 1:
		m, err := c.ReadProperty(ctx, args[0])
		if err != nil {
			return err
		}
		printProperty(w, m.Status, m.ID, m.Value)
		return nil
	}

	m, err := c.ReadProperties(ctx, args)
	if err != nil {
		return err
	}
	for _, r := range m.Results {
		printProperty(w, r.Status, r.ID, r.Value)
	}
	return nil
}

func printProperty(w io.Writer, status wire.Status, id string, value wire.Value) {
	if status != wire.StatusSuccess || value.IsAbsent() {
		fmt.Fprintf(w, "%-24s %s\n", id, status)
		return
	}
	fmt.Fprintf(w, "%-24s %s\n", id, value)
}

func runWrite(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	fs := newFlagSet("write", w)
	permanent := fs.Bool("permanent", false, "persist the value on the device")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		return ErrUsage
	}

	value := wire.Absent()
	if fs.NArg() == 2 {
		value = wire.ParseTextValue(fs.Arg(1))
	}
	var flags *wire.WriteFlags
	if *permanent {
		flags = wire.WriteFlagPermanent.Ptr()
	}

	m, err := c.WriteProperty(ctx, fs.Arg(0), value, flags)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%-24s %s\n", m.ID, m.Status)
	return nil
}

func runDatalog(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	fs := newFlagSet("datalog", w)
	tr := timeRangeFlags(fs)
	csvPath := fs.String("csv", "", "write samples to a CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return ErrUsage
	}
	from, to, err := tr.resolve(time.Now())
	if err != nil {
		return err
	}

	if fs.NArg() == 0 {
		m, err := c.ReadDatalogProperties(ctx, from, to)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: %d properties\n", m.Status, m.Count)
		for _, id := range m.Properties {
			fmt.Fprintf(w, "  %s\n", id)
		}
		return nil
	}

	m, err := c.ReadDatalog(ctx, wire.ReadDatalogRequest{ID: fs.Arg(0), From: from, To: to, Limit: *tr.limit})
	if err != nil {
		return err
	}
	samples, err := m.Samples()
	if err != nil {
		return err
	}
	if *csvPath != "" {
		if err := WriteDatalogCSVFile(*csvPath, m.ID, samples); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: wrote %d samples to %s\n", m.Status, len(samples), *csvPath)
		return nil
	}
	fmt.Fprintf(w, "%s: %d samples of %s\n", m.Status, m.Count, m.ID)
	for _, s := range samples {
		fmt.Fprintf(w, "  %s  %s\n", s.Timestamp.Local().Format(time.DateTime), s.Value)
	}
	return nil
}

func runMessages(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	fs := newFlagSet("messages", w)
	tr := timeRangeFlags(fs)
	csvPath := fs.String("csv", "", "write messages to a CSV file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return ErrUsage
	}
	from, to, err := tr.resolve(time.Now())
	if err != nil {
		return err
	}

	m, err := c.ReadMessages(ctx, wire.ReadMessagesRequest{From: from, To: to, Limit: *tr.limit})
	if err != nil {
		return err
	}
	if *csvPath != "" {
		if err := WriteMessagesCSVFile(*csvPath, m.Messages); err != nil {
			return err
		}
		fmt.Fprintf(w, "%s: wrote %d messages to %s\n", m.Status, len(m.Messages), *csvPath)
		return nil
	}
	fmt.Fprintf(w, "%s: %d messages\n", m.Status, m.Count)
	for _, msg := range m.Messages {
		printDeviceMessage(w, &msg)
	}
	return nil
}

func printDeviceMessage(w io.Writer, m *wire.DeviceMessage) {
	fmt.Fprintf(w, "  %s  %s.%s  [%d] %s\n",
		m.Timestamp.Local().Format(time.DateTime), m.AccessID, m.DeviceID, m.MessageID, m.Message)
}

func runFind(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	fs := newFlagSet("find", w)
	virtual := fs.String("virtual", "", "true or false to restrict to (non-)virtual devices")
	filter := fs.String("filter", "", "comma separated functional filter")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return ErrUsage
	}

	req := wire.FindPropertiesRequest{ID: fs.Arg(0)}
	switch *virtual {
	case "":
	case "true", "false":
		v := *virtual == "true"
		req.Virtual = &v
	default:
		return ErrUsage
	}
	if *filter != "" {
		req.FunctionalFilter = strings.Split(*filter, ",")
	}

	m, err := c.FindProperties(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s: %d properties match %s\n", m.Status, m.Count, m.ID)
	for _, id := range m.Properties {
		fmt.Fprintf(w, "  %s\n", id)
	}
	return nil
}

func runExtension(ctx context.Context, c *client.Client, args []string, w io.Writer) error {
	fs := newFlagSet("ext", w)
	body := fs.String("body", "", "request body")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return ErrUsage
	}

	req := wire.CallExtensionRequest{Extension: fs.Arg(0), Command: fs.Arg(1), Body: *body}
	for _, kv := range fs.Args()[2:] {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || name == "" {
			return ErrUsage
		}
		req.Params = append(req.Params, wire.Param{Name: name, Value: wire.ParseTextValue(value)})
	}

	m, err := c.CallExtension(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s: %s\n", m.Extension, m.Command, m.Status)
	for _, p := range m.Params {
		fmt.Fprintf(w, "  %s = %s\n", p.Name, p.Value)
	}
	if m.Body != "" {
		fmt.Fprintln(w, m.Body)
	}
	return nil
}
