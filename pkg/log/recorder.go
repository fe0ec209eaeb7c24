package log

import "time"

// MaxFrameDataSize is the most frame bytes kept in a FrameEvent.
const MaxFrameDataSize = 4096

// Recorder stamps the events of one connection and hands them to a Logger.
// A nil *Recorder or one without a Logger records nothing.
type Recorder struct {
	logger Logger
	connID string
	remote string
	codec  string
	now    func() time.Time
}

// NewRecorder returns a Recorder for the connection connID to remote.
func NewRecorder(logger Logger, connID, remote, codec string) *Recorder {
	return &Recorder{logger: logger, connID: connID, remote: remote, codec: codec, now: time.Now}
}

// ConnectionID returns the connection id stamped on every event.
func (r *Recorder) ConnectionID() string {
	if r == nil {
		return ""
	}
	return r.connID
}

// Enabled reports whether events reach a Logger.
func (r *Recorder) Enabled() bool {
	return r != nil && r.logger != nil
}

func (r *Recorder) emit(e Event) {
	e.Timestamp = r.now()
	e.ConnectionID = r.connID
	e.RemoteAddr = r.remote
	e.Codec = r.codec
	r.logger.Log(e)
}

// Frame records raw frame bytes at the transport layer.
func (r *Recorder) Frame(dir Direction, data []byte) {
	if !r.Enabled() {
		return
	}
	fe := &FrameEvent{Size: len(data)}
	if len(data) > MaxFrameDataSize {
		fe.Data = append([]byte(nil), data[:MaxFrameDataSize]...)
		fe.Truncated = true
	} else {
		fe.Data = append([]byte(nil), data...)
	}
	r.emit(Event{Direction: dir, Layer: LayerTransport, Category: CategoryMessage, Frame: fe})
}

// Message records a decoded frame at the wire layer.
func (r *Recorder) Message(dir Direction, msg MessageEvent) {
	if !r.Enabled() {
		return
	}
	r.emit(Event{Direction: dir, Layer: LayerWire, Category: CategoryMessage, Message: &msg})
}

// State records a session state transition.
func (r *Recorder) State(oldState, newState, reason string) {
	if !r.Enabled() {
		return
	}
	r.emit(Event{
		Layer:       LayerClient,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{OldState: oldState, NewState: newState, Reason: reason},
	})
}

// Control records a keep-alive or close control frame.
func (r *Recorder) Control(dir Direction, typ ControlMsgType, seq uint32) {
	if !r.Enabled() {
		return
	}
	r.emit(Event{
		Direction:  dir,
		Layer:      LayerTransport,
		Category:   CategoryControl,
		ControlMsg: &ControlMsgEvent{Type: typ, Sequence: seq},
	})
}

// Error records err at layer. Nil errors are ignored.
func (r *Recorder) Error(layer Layer, err error, context string) {
	if !r.Enabled() || err == nil {
		return
	}
	r.emit(Event{
		Layer:    layer,
		Category: CategoryError,
		Error:    &ErrorEventData{Layer: layer, Message: err.Error(), Context: context},
	})
}
