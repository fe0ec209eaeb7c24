package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/openstuder/openstuder-go/pkg/log"
)

const (
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4

	// DefaultMaxMessageSize is the default maximum message size (64 KB).
	DefaultMaxMessageSize = 65536
)

// Framer reads and writes length-prefixed frames on a byte stream.
// WriteFrame may be called concurrently; ReadFrame may not.
type Framer struct {
	rw             io.ReadWriter
	maxMessageSize uint32
	rec            *log.Recorder

	writeMu   sync.Mutex
	lengthBuf [LengthPrefixSize]byte
}

// NewFramer creates a framer with DefaultMaxMessageSize.
func NewFramer(rw io.ReadWriter) *Framer {
	return NewFramerWithMaxSize(rw, DefaultMaxMessageSize)
}

// NewFramerWithMaxSize creates a framer with a custom max message size.
func NewFramerWithMaxSize(rw io.ReadWriter, maxSize uint32) *Framer {
	if maxSize == 0 {
		maxSize = DefaultMaxMessageSize
	}
	return &Framer{rw: rw, maxMessageSize: maxSize}
}

// SetRecorder configures frame capture. Pass nil to disable it.
func (f *Framer) SetRecorder(rec *log.Recorder) {
	f.rec = rec
}

// WriteFrame writes one length-prefixed frame.
func (f *Framer) WriteFrame(data []byte) error {
	if len(data) == 0 {
		return ErrMessageEmpty
	}
	if uint32(len(data)) > f.maxMessageSize {
		return fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, len(data), f.maxMessageSize)
	}

	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	// Prefix and payload go out in one write so a concurrent reader on a
	// pipe never observes a prefix without its payload.
	buf := make([]byte, LengthPrefixSize+len(data))
	binary.BigEndian.PutUint32(buf, uint32(len(data)))
	copy(buf[LengthPrefixSize:], data)
	if _, err := f.rw.Write(buf); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	f.rec.Frame(log.DirectionOut, data)
	return nil
}

// ReadFrame reads one frame and returns its payload.
func (f *Framer) ReadFrame() ([]byte, error) {
	if _, err := io.ReadFull(f.rw, f.lengthBuf[:]); err != nil {
		if err == io.EOF {
			return nil, err
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read length prefix: %w", err)
	}

	length := binary.BigEndian.Uint32(f.lengthBuf[:])
	if length == 0 {
		return nil, ErrMessageEmpty
	}
	if length > f.maxMessageSize {
		return nil, fmt.Errorf("%w: %d > %d", ErrMessageTooLarge, length, f.maxMessageSize)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(f.rw, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || err == io.EOF {
			return nil, ErrFrameTruncated
		}
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	f.rec.Frame(log.DirectionIn, payload)
	return payload, nil
}

// FrameSize returns the total frame size including the length prefix.
func FrameSize(payloadSize int) int {
	return LengthPrefixSize + payloadSize
}
