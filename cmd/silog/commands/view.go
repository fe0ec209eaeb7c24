// Package commands implements the silog commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/openstuder/openstuder-go/pkg/log"
)

// RunView writes the events of path matching filter to output.
func RunView(path string, filter log.Filter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER label
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	layer := event.Layer.String()
	if event.Category == log.CategoryControl {
		layer = "CTRL"
	}
	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n",
		ts, shortenConnID(event.ConnectionID), event.Direction.String(), layer, eventLabel(event))

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame, event.Codec)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.ControlMsg != nil:
		formatControlDetails(w, event.ControlMsg)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w)
}

// eventLabel names the payload of an event.
func eventLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		return event.Message.Type.String() + " " + event.Message.Operation
	case event.StateChange != nil:
		return "State"
	case event.ControlMsg != nil:
		return event.ControlMsg.Type.String()
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenConnID returns the first 8 characters of the connection ID.
func shortenConnID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent, codec string) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if len(frame.Data) == 0 {
		return
	}
	if codec == "text" && utf8.Valid(frame.Data) {
		fmt.Fprintf(w, "  Data: %q", frame.Data)
	} else {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
	}
	if frame.Truncated {
		fmt.Fprint(w, " (truncated)")
	}
	fmt.Fprintln(w)
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.PropertyID != "" {
		fmt.Fprintf(w, "  ID: %s\n", msg.PropertyID)
	}
	if msg.Status != "" {
		fmt.Fprintf(w, "  Status: %s\n", msg.Status)
	}
	if msg.Count != nil {
		fmt.Fprintf(w, "  Count: %d\n", *msg.Count)
	}
	if msg.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", msg.Reason)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatControlDetails(w io.Writer, c *log.ControlMsgEvent) {
	switch c.Type {
	case log.ControlMsgPing, log.ControlMsgPong:
		fmt.Fprintf(w, "  Sequence: %d\n", c.Sequence)
	case log.ControlMsgClose:
		if c.CloseCode != nil {
			fmt.Fprintf(w, "  Code: %d\n", *c.CloseCode)
		}
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}
