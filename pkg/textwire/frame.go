// Package textwire implements the text encoding of the gateway protocol.
//
// A frame is an operation line, zero or more key:value header lines, a
// blank line and an optional body:
//
//	READ PROPERTY
//	id:demo.inv.3136
//
// Header values may contain colons; a header is split on its first colon.
// Lines without a colon are ignored.
package textwire

import (
	"strings"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// Header is one key:value line.
type Header struct {
	Key   string
	Value string
}

// Frame is a parsed text frame. Headers keep their wire order.
type Frame struct {
	Operation string
	Headers   []Header
	Body      string
}

// NewFrame creates a frame for op.
func NewFrame(op wire.Operation) *Frame {
	return &Frame{Operation: op.String()}
}

// Set appends a header.
func (f *Frame) Set(key, value string) *Frame {
	f.Headers = append(f.Headers, Header{Key: key, Value: value})
	return f
}

// Get returns the value of key. If a key repeats, the last value wins.
func (f *Frame) Get(key string) (string, bool) {
	for i := len(f.Headers) - 1; i >= 0; i-- {
		if f.Headers[i].Key == key {
			return f.Headers[i].Value, true
		}
	}
	return "", false
}

// Has returns true if key is present.
func (f *Frame) Has(key string) bool {
	_, ok := f.Get(key)
	return ok
}

// Bytes renders the frame.
func (f *Frame) Bytes() []byte {
	var b strings.Builder
	b.WriteString(f.Operation)
	b.WriteByte('\n')
	for _, h := range f.Headers {
		b.WriteString(h.Key)
		b.WriteByte(':')
		b.WriteString(h.Value)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(f.Body)
	return []byte(b.String())
}

// ParseFrame splits raw bytes into operation, headers and body.
func ParseFrame(data []byte) (*Frame, error) {
	s := string(data)
	end := strings.Index(s, "\n\n")
	if end < 0 {
		return nil, wire.Malformed("missing header terminator")
	}

	lines := strings.Split(s[:end], "\n")
	f := &Frame{Operation: lines[0], Body: s[end+2:]}
	if f.Operation == "" {
		return nil, wire.Malformed("missing operation")
	}
	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		f.Headers = append(f.Headers, Header{Key: key, Value: value})
	}
	return f, nil
}

// PeekOperation returns the operation line of a frame.
func PeekOperation(data []byte) (wire.Operation, error) {
	s := string(data)
	line, _, ok := strings.Cut(s, "\n")
	if !ok || line == "" {
		return wire.OpUnknown, wire.Malformed("missing operation")
	}
	op, ok := wire.ParseOperation(line)
	if !ok {
		return wire.OpUnknown, wire.Malformed("unknown operation %q", line)
	}
	return op, nil
}
