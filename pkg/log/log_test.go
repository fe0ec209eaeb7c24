package log

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

type nopCloser struct{ io.ReadWriter }

func (nopCloser) Close() error { return nil }

func TestEventRoundTrip(t *testing.T) {
	count := 3
	original := Event{
		Timestamp:    time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		ConnectionID: "c1",
		Direction:    DirectionIn,
		Layer:        LayerWire,
		Category:     CategoryMessage,
		Codec:        "text",
		Message: &MessageEvent{
			Type:       MessageTypeResponse,
			Operation:  "PROPERTY READ",
			Status:     "Success",
			PropertyID: "xcom.11.3023",
			Count:      &count,
		},
	}

	data, err := EncodeEvent(original)
	if err != nil {
		t.Fatalf("EncodeEvent() error = %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent() error = %v", err)
	}

	if !decoded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", decoded.Timestamp, original.Timestamp)
	}
	if decoded.Message == nil || decoded.Message.Operation != "PROPERTY READ" {
		t.Fatalf("Message = %+v", decoded.Message)
	}
	if decoded.Message.Count == nil || *decoded.Message.Count != 3 {
		t.Errorf("Count = %v, want 3", decoded.Message.Count)
	}
	if decoded.Codec != "text" {
		t.Errorf("Codec = %q, want text", decoded.Codec)
	}
}

func TestDecodeEventRejectsOversizedRecords(t *testing.T) {
	wide := make(map[int]int)
	for i := range maxEventMapPairs + 4 {
		wide[i+20] = i
	}
	deep := map[int]any{11: map[int]any{2: []any{[]any{[]any{[]any{"x"}}}}}}

	for name, v := range map[string]any{"wide": wide, "deep": deep} {
		t.Run(name, func(t *testing.T) {
			data, err := cbor.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if _, err := DecodeEvent(data); err == nil {
				t.Error("DecodeEvent() succeeded, want error")
			}
			if err := NewDecoder(bytes.NewReader(data)).Decode(&Event{}); err == nil {
				t.Error("Decoder.Decode() succeeded, want error")
			}
		})
	}
}

func TestRecorderTruncatesFrames(t *testing.T) {
	c := &captureLogger{}
	r := NewRecorder(c, "c1", "gw:1987", "binary")

	r.Frame(DirectionOut, make([]byte, MaxFrameDataSize+10))
	r.Frame(DirectionIn, []byte{0x81})

	if len(c.events) != 2 {
		t.Fatalf("got %d events, want 2", len(c.events))
	}
	big := c.events[0].Frame
	if !big.Truncated || len(big.Data) != MaxFrameDataSize || big.Size != MaxFrameDataSize+10 {
		t.Errorf("large frame = size %d, data %d, truncated %v", big.Size, len(big.Data), big.Truncated)
	}
	if c.events[1].Frame.Truncated {
		t.Error("small frame marked truncated")
	}
	if c.events[0].ConnectionID != "c1" || c.events[0].RemoteAddr != "gw:1987" {
		t.Errorf("event not stamped: %+v", c.events[0])
	}
}

func TestRecorderNilSafe(t *testing.T) {
	var r *Recorder
	r.Frame(DirectionIn, []byte("x"))
	r.State("DISCONNECTED", "CONNECTING", "")
	r.Error(LayerClient, errors.New("boom"), "")
	if r.Enabled() {
		t.Error("nil recorder reports enabled")
	}

	NewRecorder(nil, "c", "", "").Control(DirectionOut, ControlMsgPing, 1)
}

func TestStreamRoundTripWithFilter(t *testing.T) {
	var buf bytes.Buffer
	fl := NewStreamLogger(nopCloser{&buf})
	r := NewRecorder(fl, "c1", "", "text")

	r.Message(DirectionOut, MessageEvent{Type: MessageTypeRequest, Operation: "READ PROPERTY", PropertyID: "xcom.11.3023"})
	r.Message(DirectionIn, MessageEvent{Type: MessageTypeUpdate, Operation: "PROPERTY UPDATE", PropertyID: "xcom.12.3000"})
	r.State("CONNECTING", "AUTHORIZING", "")
	if err := fl.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	fl.Log(Event{ConnectionID: "dropped"})

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 3},
		{"operation ignores case", Filter{Operation: "property update"}, 1},
		{"property subtree", Filter{PropertyID: "xcom.11"}, 1},
		{"property prefix is not a parent", Filter{PropertyID: "xcom.1"}, 0},
		{"category", Filter{Category: ptr(CategoryState)}, 1},
		{"direction", Filter{Direction: ptr(DirectionOut)}, 2},
		{"connection prefix", Filter{ConnectionID: "c"}, 3},
		{"other connection", Filter{ConnectionID: "c2"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rd := NewStreamReader(io.NopCloser(bytes.NewReader(buf.Bytes())), tt.filter)
			defer rd.Close()
			got := 0
			for {
				_, err := rd.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Next() error = %v", err)
				}
				got++
			}
			if got != tt.want {
				t.Errorf("matched %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMultiLoggerSkipsNil(t *testing.T) {
	a, b := &captureLogger{}, &captureLogger{}
	m := NewMultiLogger(a, nil, b)
	m.Log(Event{ConnectionID: "x"})
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("events = %d, %d; want 1, 1", len(a.events), len(b.events))
	}
}

func TestStringers(t *testing.T) {
	names := []string{
		DirectionOut.String(), LayerClient.String(), CategoryControl.String(),
		MessageTypeUpdate.String(), ControlMsgPong.String(), Layer(9).String(),
	}
	if got := strings.Join(names, ","); got != "OUT,CLIENT,CONTROL,UPDATE,PONG,UNKNOWN" {
		t.Errorf("names = %s", got)
	}
}

func ptr[T any](v T) *T { return &v }
