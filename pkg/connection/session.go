package connection

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/openstuder/openstuder-go/pkg/wire"
)

// State is the session state.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthorizing
	StateConnected
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateAuthorizing:
		return "AUTHORIZING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// ErrInvalidState matches every *StateError.
var ErrInvalidState = errors.New("invalid state")

// StateError reports an operation invoked in the wrong session state.
// It is raised locally; nothing is sent to the gateway.
type StateError struct {
	Op       string
	Required State
	Actual   State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s requires %s state, session is %s", e.Op, e.Required, e.Actual)
}

// Is reports whether target is ErrInvalidState.
func (e *StateError) Is(target error) bool {
	return target == ErrInvalidState
}

// Session tracks one client's connection state and what authorization
// granted. It is safe for concurrent use.
type Session struct {
	mu             sync.RWMutex
	state          State
	accessLevel    wire.AccessLevel
	gatewayVersion string
	extensions     []string

	onStateChange func(oldState, newState State, reason string)
}

// NewSession returns a DISCONNECTED session.
func NewSession() *Session {
	return &Session{}
}

// OnStateChange registers fn to be called after every transition.
func (s *Session) OnStateChange(fn func(oldState, newState State, reason string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStateChange = fn
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AccessLevel returns the access level granted by the gateway, or
// AccessLevelNone when not connected.
func (s *Session) AccessLevel() wire.AccessLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessLevel
}

// GatewayVersion returns the version reported at authorization.
func (s *Session) GatewayVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gatewayVersion
}

// Extensions returns the extensions the gateway announced.
func (s *Session) Extensions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.extensions)
}

// HasExtension reports whether the gateway announced the named extension.
func (s *Session) HasExtension(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.extensions, name)
}

// BeginConnect moves DISCONNECTED to CONNECTING.
func (s *Session) BeginConnect() error {
	return s.transition("connect", StateDisconnected, StateConnecting, "")
}

// BeginAuthorize moves CONNECTING to AUTHORIZING once the transport is open.
func (s *Session) BeginAuthorize() error {
	return s.transition("authorize", StateConnecting, StateAuthorizing, "")
}

// Authorized moves AUTHORIZING to CONNECTED and records the grant.
func (s *Session) Authorized(m *wire.Authorized) error {
	s.mu.Lock()
	if s.state != StateAuthorizing {
		err := &StateError{Op: "authorized", Required: StateAuthorizing, Actual: s.state}
		s.mu.Unlock()
		return err
	}
	s.state = StateConnected
	s.accessLevel = m.AccessLevel
	s.gatewayVersion = m.GatewayVersion
	s.extensions = slices.Clone(m.Extensions)
	fn := s.onStateChange
	s.mu.Unlock()

	if fn != nil {
		fn(StateAuthorizing, StateConnected, "")
	}
	return nil
}

// Require returns a *StateError unless the session is CONNECTED.
func (s *Session) Require(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateConnected {
		return &StateError{Op: op, Required: StateConnected, Actual: s.state}
	}
	return nil
}

// Reset returns the session to DISCONNECTED from any state, clearing the
// grant. It returns the state the session was in.
func (s *Session) Reset(reason string) State {
	s.mu.Lock()
	old := s.state
	s.state = StateDisconnected
	s.accessLevel = wire.AccessLevelNone
	s.gatewayVersion = ""
	s.extensions = nil
	fn := s.onStateChange
	s.mu.Unlock()

	if fn != nil && old != StateDisconnected {
		fn(old, StateDisconnected, reason)
	}
	return old
}

func (s *Session) transition(op string, from, to State, reason string) error {
	s.mu.Lock()
	if s.state != from {
		err := &StateError{Op: op, Required: from, Actual: s.state}
		s.mu.Unlock()
		return err
	}
	s.state = to
	fn := s.onStateChange
	s.mu.Unlock()

	if fn != nil {
		fn(from, to, reason)
	}
	return nil
}
