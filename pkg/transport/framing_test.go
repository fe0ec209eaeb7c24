package transport

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/openstuder/openstuder-go/pkg/log"
)

func TestFramerRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	f := NewFramer(&buf)

	frames := [][]byte{{0x02}, []byte("ENUMERATE\n\n"), bytes.Repeat([]byte{0xAB}, 1000)}
	for _, data := range frames {
		if err := f.WriteFrame(data); err != nil {
			t.Fatalf("WriteFrame() error = %v", err)
		}
	}
	for i, want := range frames {
		got, err := f.ReadFrame()
		if err != nil {
			t.Fatalf("ReadFrame() #%d error = %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("frame #%d = %x, want %x", i, got, want)
		}
	}
	if _, err := f.ReadFrame(); err != io.EOF {
		t.Errorf("ReadFrame() at end = %v, want io.EOF", err)
	}
}

func TestFramerWireFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := NewFramer(&buf).WriteFrame([]byte{0x18, 0x82}); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x00, 0x00, 0x00, 0x02, 0x18, 0x82}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("wire bytes = %x, want %x", buf.Bytes(), want)
	}
	if FrameSize(2) != 6 {
		t.Errorf("FrameSize(2) = %d", FrameSize(2))
	}
}

func TestFramerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  error
	}{
		{"empty frame", []byte{0, 0, 0, 0}, ErrMessageEmpty},
		{"too large", []byte{0, 0, 0, 9}, ErrMessageTooLarge},
		{"truncated prefix", []byte{0, 0}, ErrFrameTruncated},
		{"truncated payload", []byte{0, 0, 0, 4, 1, 2}, ErrFrameTruncated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFramerWithMaxSize(bytes.NewBuffer(tt.input), 8)
			_, err := f.ReadFrame()
			if !errors.Is(err, tt.want) {
				t.Errorf("ReadFrame() error = %v, want %v", err, tt.want)
			}
		})
	}

	f := NewFramerWithMaxSize(&bytes.Buffer{}, 2)
	if err := f.WriteFrame(nil); !errors.Is(err, ErrMessageEmpty) {
		t.Errorf("WriteFrame(nil) = %v", err)
	}
	if err := f.WriteFrame([]byte{1, 2, 3}); !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("WriteFrame(3 bytes) = %v", err)
	}
}

func TestFramerRecordsFrames(t *testing.T) {
	var events []log.Event
	rec := log.NewRecorder(log.LoggerFunc(func(e log.Event) { events = append(events, e) }), "c1", "", "binary")

	var buf bytes.Buffer
	f := NewFramer(&buf)
	f.SetRecorder(rec)
	_ = f.WriteFrame([]byte{0x02})
	_, _ = f.ReadFrame()

	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Direction != log.DirectionOut || events[1].Direction != log.DirectionIn {
		t.Errorf("directions = %v, %v", events[0].Direction, events[1].Direction)
	}
	if events[1].Frame.Size != 1 {
		t.Errorf("Frame.Size = %d, want 1", events[1].Frame.Size)
	}
}
