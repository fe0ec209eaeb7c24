package wire

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"
)

// TimestampLayout is the second-precision local-naive ISO 8601 layout used
// by the text wire.
const TimestampLayout = "2006-01-02T15:04:05"

// FormatTimestamp formats t in its own location without zone suffix.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a text wire timestamp in the local time zone.
// Zoned RFC 3339 timestamps are accepted as well.
func ParseTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(TimestampLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}

// ParseDatalogCSV parses the "timestamp,value" lines of a text DATALOG READ body.
func ParseDatalogCSV(body string) ([]DatalogEntry, error) {
	r := csv.NewReader(strings.NewReader(body))
	r.FieldsPerRecord = 2

	var entries []DatalogEntry
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("datalog csv: %w", err)
		}
		ts, err := ParseTimestamp(rec[0])
		if err != nil {
			return nil, fmt.Errorf("datalog csv: %w", err)
		}
		entries = append(entries, DatalogEntry{Timestamp: ts, Value: ParseTextValue(rec[1])})
	}
	return entries, nil
}

// FormatDatalogCSV renders entries as a text DATALOG READ body.
func FormatDatalogCSV(entries []DatalogEntry) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	for _, e := range entries {
		_ = w.Write([]string{FormatTimestamp(e.Timestamp), e.Value.String()})
	}
	w.Flush()
	return strings.TrimSuffix(b.String(), "\n")
}
