package cborwire

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// writer appends CBOR items to a frame, keeping the first error.
type writer struct {
	buf bytes.Buffer
	enc *cbor.Encoder
	err error
}

func newWriter(code uint64) *writer {
	w := &writer{}
	w.enc = wire.NewEncoder(&w.buf)
	w.put(code)
	return w
}

func (w *writer) put(v any) {
	if w.err == nil {
		w.err = w.enc.Encode(v)
	}
}

// optText writes s, or null if s is empty.
func (w *writer) optText(s string) {
	if s == "" {
		w.put(nil)
		return
	}
	w.put(s)
}

// optTime writes t as epoch seconds, or null if t is zero.
func (w *writer) optTime(t time.Time) {
	if t.IsZero() {
		w.put(nil)
		return
	}
	w.put(t.Unix())
}

// optInt writes n, or null if n is not positive.
func (w *writer) optInt(n int) {
	if n <= 0 {
		w.put(nil)
		return
	}
	w.put(n)
}

func (w *writer) bytes() ([]byte, error) {
	if w.err != nil {
		return nil, w.err
	}
	return w.buf.Bytes(), nil
}

// reader consumes the positional fields of one frame, keeping the first error.
type reader struct {
	dec *cbor.Decoder
	op  wire.Operation
	err error
}

func newReader(data []byte) (*reader, uint64, error) {
	r := &reader{dec: wire.NewDecoder(bytes.NewReader(data))}
	var code uint64
	if err := r.dec.Decode(&code); err != nil {
		return nil, 0, wire.Malformed("missing opcode: %v", err)
	}
	return r, code, nil
}

func (r *reader) raw() cbor.RawMessage {
	if r.err != nil {
		return nil
	}
	var raw cbor.RawMessage
	if err := r.dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			r.err = wire.Malformed("%s: missing field", r.op)
		} else {
			r.err = wire.Malformed("%s: %v", r.op, err)
		}
		return nil
	}
	return raw
}

func (r *reader) into(raw cbor.RawMessage, v any) {
	if r.err != nil {
		return
	}
	if err := wire.Unmarshal(raw, v); err != nil {
		r.err = wire.Malformed("%s: %v", r.op, err)
	}
}

func isNull(raw cbor.RawMessage) bool {
	return len(raw) == 1 && (raw[0] == 0xf6 || raw[0] == 0xf7)
}

func (r *reader) text() string {
	var s string
	r.into(r.raw(), &s)
	return s
}

// optText reads a text field that may be null.
func (r *reader) optText() string {
	raw := r.raw()
	if r.err != nil || isNull(raw) {
		return ""
	}
	var s string
	r.into(raw, &s)
	return s
}

func (r *reader) integer() int64 {
	var n int64
	r.into(r.raw(), &n)
	return n
}

func (r *reader) status() wire.Status {
	return wire.StatusFromCode(r.integer())
}

func (r *reader) value() wire.Value {
	raw := r.raw()
	if r.err != nil {
		return wire.Value{}
	}
	var v wire.Value
	if err := v.UnmarshalCBOR(raw); err != nil {
		r.err = wire.Malformed("%s: %v", r.op, err)
	}
	return v
}

func (r *reader) any() any {
	raw := r.raw()
	if r.err != nil || isNull(raw) {
		return nil
	}
	var v any
	r.into(raw, &v)
	return v
}

func (r *reader) timestamp() time.Time {
	return r.timeOf(r.raw())
}

func (r *reader) optTimestamp() time.Time {
	raw := r.raw()
	if r.err != nil || isNull(raw) {
		return time.Time{}
	}
	return r.timeOf(raw)
}

func (r *reader) optInt() int {
	raw := r.raw()
	if r.err != nil || isNull(raw) {
		return 0
	}
	var n int
	r.into(raw, &n)
	return n
}

// timeOf accepts plain epoch seconds as well as tag 1 timestamps.
func (r *reader) timeOf(raw cbor.RawMessage) time.Time {
	if r.err != nil {
		return time.Time{}
	}
	var v any
	r.into(raw, &v)
	switch t := v.(type) {
	case uint64:
		return time.Unix(int64(t), 0)
	case int64:
		return time.Unix(t, 0)
	case float64:
		return time.Unix(int64(t), 0)
	case time.Time:
		return time.Unix(t.Unix(), 0)
	case cbor.Tag:
		if secs, ok := t.Content.(uint64); ok {
			return time.Unix(int64(secs), 0)
		}
	}
	if r.err == nil {
		r.err = wire.Malformed("%s: invalid timestamp", r.op)
	}
	return time.Time{}
}

func (r *reader) array() []cbor.RawMessage {
	raw := r.raw()
	if r.err != nil || isNull(raw) {
		return nil
	}
	var items []cbor.RawMessage
	r.into(raw, &items)
	return items
}
