package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/openstuder/openstuder-go/pkg/log"
)

// RunExport exports the capture file in the given format. An empty output
// writes to stdout.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open capture file: %w", err)
	}
	defer reader.Close()

	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(event); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
}

var csvHeader = []string{
	"timestamp", "connection_id", "remote", "codec", "direction", "layer", "category",
	"type", "operation", "id", "status", "count", "detail",
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := cw.Write(csvRow(event)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(event log.Event) []string {
	var typ, op, id, status, count, detail string
	switch {
	case event.Frame != nil:
		typ = "frame"
		detail = strconv.Itoa(event.Frame.Size)
	case event.Message != nil:
		typ = event.Message.Type.String()
		op = event.Message.Operation
		id = event.Message.PropertyID
		status = event.Message.Status
		if event.Message.Count != nil {
			count = strconv.Itoa(*event.Message.Count)
		}
		detail = event.Message.Reason
	case event.StateChange != nil:
		typ = "state"
		detail = event.StateChange.OldState + "->" + event.StateChange.NewState
	case event.ControlMsg != nil:
		typ = event.ControlMsg.Type.String()
		detail = strconv.FormatUint(uint64(event.ControlMsg.Sequence), 10)
	case event.Error != nil:
		typ = "error"
		detail = event.Error.Message
	default:
		typ = "unknown"
	}

	return []string{
		event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		event.ConnectionID,
		event.RemoteAddr,
		event.Codec,
		event.Direction.String(),
		event.Layer.String(),
		event.Category.String(),
		typ, op, id, status, count, detail,
	}
}
