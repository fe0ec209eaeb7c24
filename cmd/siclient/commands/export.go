package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// WriteDatalogCSV writes samples as "timestamp,id,value" rows.
func WriteDatalogCSV(w io.Writer, id string, samples []wire.DatalogEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "id", "value"}); err != nil {
		return err
	}
	for _, s := range samples {
		if err := cw.Write([]string{s.Timestamp.UTC().Format(time.RFC3339), id, s.Value.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteMessagesCSV writes device messages as CSV rows.
func WriteMessagesCSV(w io.Writer, msgs []wire.DeviceMessage) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "access_id", "device_id", "message_id", "message"}); err != nil {
		return err
	}
	for _, m := range msgs {
		row := []string{
			m.Timestamp.UTC().Format(time.RFC3339),
			m.AccessID,
			m.DeviceID,
			strconv.Itoa(m.MessageID),
			m.Message,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteDatalogCSVFile writes samples to a new file at path.
func WriteDatalogCSVFile(path, id string, samples []wire.DatalogEntry) error {
	return writeFile(path, func(w io.Writer) error { return WriteDatalogCSV(w, id, samples) })
}

// WriteMessagesCSVFile writes device messages to a new file at path.
func WriteMessagesCSVFile(path string, msgs []wire.DeviceMessage) error {
	return writeFile(path, func(w io.Writer) error { return WriteMessagesCSV(w, msgs) })
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
