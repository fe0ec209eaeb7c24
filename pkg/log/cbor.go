package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Limits for decoding capture records. An Event is a map with at most a
// dozen keys whose payload is one more map of scalars, so anything larger
// is a corrupt file.
const (
	maxEventNesting  = 4
	maxEventMapPairs = 16
)

// Capture files use their own modes: RFC3339Nano keeps nanosecond
// timestamps, which the wire's unix-seconds mode would drop.
var (
	logEncMode cbor.EncMode
	logDecMode cbor.DecMode
)

func init() {
	var err error

	logEncMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR encoder mode: %v", err))
	}

	logDecMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		MaxNestedLevels:   maxEventNesting,
		MaxMapPairs:       maxEventMapPairs,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create log CBOR decoder mode: %v", err))
	}
}

// EncodeEvent encodes one capture record.
func EncodeEvent(event Event) ([]byte, error) {
	return logEncMode.Marshal(event)
}

// DecodeEvent decodes one capture record. Records nested deeper or wider
// than an Event can be are rejected.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := logDecMode.Unmarshal(data, &event); err != nil {
		return Event{}, err
	}
	return event, nil
}

// NewEncoder returns an encoder appending records to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return logEncMode.NewEncoder(w)
}

// NewDecoder returns a decoder reading records from r with the same limits
// as DecodeEvent.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return logDecMode.NewDecoder(r)
}
