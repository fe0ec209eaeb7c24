package log

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Filter selects events. Zero fields match everything.
type Filter struct {
	// ConnectionID matches connection IDs starting with this value.
	ConnectionID string
	Direction    *Direction
	Layer        *Layer
	Category     *Category

	// TimeStart is inclusive, TimeEnd exclusive.
	TimeStart *time.Time
	TimeEnd   *time.Time

	// Operation matches the text wire name of message events, ignoring case.
	Operation string

	// PropertyID matches message events addressing this id or a child of it.
	PropertyID string
}

// Matches reports whether event satisfies all criteria.
func (f *Filter) Matches(event Event) bool {
	if f.ConnectionID != "" && !strings.HasPrefix(event.ConnectionID, f.ConnectionID) {
		return false
	}
	if f.Direction != nil && event.Direction != *f.Direction {
		return false
	}
	if f.Layer != nil && event.Layer != *f.Layer {
		return false
	}
	if f.Category != nil && event.Category != *f.Category {
		return false
	}
	if f.TimeStart != nil && event.Timestamp.Before(*f.TimeStart) {
		return false
	}
	if f.TimeEnd != nil && !event.Timestamp.Before(*f.TimeEnd) {
		return false
	}
	if f.Operation != "" {
		if event.Message == nil || !strings.EqualFold(event.Message.Operation, f.Operation) {
			return false
		}
	}
	if f.PropertyID != "" {
		if event.Message == nil {
			return false
		}
		id := event.Message.PropertyID
		if id != f.PropertyID && !strings.HasPrefix(id, f.PropertyID+".") {
			return false
		}
	}
	return true
}

// Reader iterates the events of a capture stream.
type Reader struct {
	r       io.ReadCloser
	decoder *cbor.Decoder
	filter  Filter
}

// NewReader opens a capture file and reads all events.
func NewReader(path string) (*Reader, error) {
	return NewFilteredReader(path, Filter{})
}

// NewFilteredReader opens a capture file and reads events matching filter.
func NewFilteredReader(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return NewStreamReader(f, filter), nil
}

// NewStreamReader reads events matching filter from r.
func NewStreamReader(r io.ReadCloser, filter Filter) *Reader {
	return &Reader{r: r, decoder: NewDecoder(r), filter: filter}
}

// Next returns the next matching event, or io.EOF.
func (r *Reader) Next() (Event, error) {
	for {
		var event Event
		if err := r.decoder.Decode(&event); err != nil {
			if errors.Is(err, io.EOF) {
				return Event{}, io.EOF
			}
			return Event{}, err
		}
		if r.filter.Matches(event) {
			return event, nil
		}
	}
}

// Close closes the underlying stream.
func (r *Reader) Close() error {
	return r.r.Close()
}
