package hermes

import (
	"encoding/json"

	"github.com/wippyai/hermes-ffi/errors"
)

// InitType is the foreign discriminant of a session-initiation mode.
type InitType int32

const (
	InitAction       InitType = 1
	InitNotification InitType = 2
)

func (t InitType) String() string {
	switch t {
	case InitAction:
		return "action"
	case InitNotification:
		return "notification"
	default:
		return "unknown"
	}
}

// SessionInit is how a session starts: SessionInitAction or
// SessionInitNotification. No other implementations exist.
type SessionInit interface {
	InitType() InitType
	sessionInit()
}

// SessionInitAction starts a session that expects a user answer.
type SessionInitAction struct {
	Text          *string
	IntentFilter  []string
	CanBeEnqueued bool
}

// SessionInitNotification starts a session that only speaks Text.
type SessionInitNotification struct {
	Text string
}

func (*SessionInitAction) InitType() InitType       { return InitAction }
func (*SessionInitNotification) InitType() InitType { return InitNotification }
func (*SessionInitAction) sessionInit()             {}
func (*SessionInitNotification) sessionInit()       {}

// TerminationReason is why a session ended.
type TerminationReason int32

const (
	TerminationNominal TerminationReason = iota + 1
	TerminationSiteUnavailable
	TerminationAbortedByUser
	TerminationIntentNotRecognized
	TerminationTimeout
	TerminationError
)

var terminationNames = [...]string{
	TerminationNominal:             "nominal",
	TerminationSiteUnavailable:     "siteUnavailable",
	TerminationAbortedByUser:       "abortedByUser",
	TerminationIntentNotRecognized: "intentNotRecognized",
	TerminationTimeout:             "timeout",
	TerminationError:               "error",
}

// Valid reports whether r is a known reason.
func (r TerminationReason) Valid() bool {
	return r >= TerminationNominal && r <= TerminationError
}

func (r TerminationReason) String() string {
	if !r.Valid() {
		return "unknown"
	}
	return terminationNames[r]
}

// MarshalText implements encoding.TextMarshaler.
func (r TerminationReason) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, errors.InvalidEnum(errors.PhaseCodec, []string{"termination", "reason"}, int32(r), "hermes.TerminationReason")
	}
	return []byte(terminationNames[r]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *TerminationReason) UnmarshalText(text []byte) error {
	for v := TerminationNominal; v <= TerminationError; v++ {
		if terminationNames[v] == string(text) {
			*r = v
			return nil
		}
	}
	return errors.NotFound(errors.PhaseCodec, "termination reason", string(text))
}

// SessionTermination describes how a session ended. Error is only
// meaningful, and only carried across the boundary, for TerminationError.
type SessionTermination struct {
	Reason TerminationReason `json:"reason"`
	Error  string            `json:"error,omitempty"`
}

type sessionInitWire struct {
	Type          string   `json:"type"`
	Text          *string  `json:"text,omitempty"`
	IntentFilter  []string `json:"intentFilter"`
	CanBeEnqueued bool     `json:"canBeEnqueued,omitempty"`
}

type startSessionWire struct {
	Init       *sessionInitWire `json:"init"`
	CustomData *string          `json:"customData,omitempty"`
	SiteID     *string          `json:"siteId,omitempty"`
}

func (m *StartSessionMessage) wire() (startSessionWire, error) {
	w := startSessionWire{CustomData: m.CustomData, SiteID: m.SiteID}
	switch init := m.Init.(type) {
	case *SessionInitAction:
		w.Init = &sessionInitWire{
			Type:          InitAction.String(),
			Text:          init.Text,
			IntentFilter:  init.IntentFilter,
			CanBeEnqueued: init.CanBeEnqueued,
		}
	case *SessionInitNotification:
		w.Init = &sessionInitWire{Type: InitNotification.String(), Text: &init.Text}
	default:
		return w, errors.InvalidData(errors.PhaseCodec, []string{"init"}, "session init is required")
	}
	return w, nil
}

func (m *StartSessionMessage) fromWire(w startSessionWire) error {
	if w.Init == nil {
		return errors.InvalidData(errors.PhaseCodec, []string{"init"}, "session init is required")
	}
	switch w.Init.Type {
	case InitAction.String():
		m.Init = &SessionInitAction{
			Text:          w.Init.Text,
			IntentFilter:  w.Init.IntentFilter,
			CanBeEnqueued: w.Init.CanBeEnqueued,
		}
	case InitNotification.String():
		if w.Init.Text == nil {
			return errors.InvalidData(errors.PhaseCodec, []string{"init", "text"}, "notification requires text")
		}
		m.Init = &SessionInitNotification{Text: *w.Init.Text}
	default:
		return errors.NotFound(errors.PhaseCodec, "session init type", w.Init.Type)
	}
	m.CustomData = w.CustomData
	m.SiteID = w.SiteID
	return nil
}

// MarshalJSON implements json.Marshaler.
func (m *StartSessionMessage) MarshalJSON() ([]byte, error) {
	w, err := m.wire()
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *StartSessionMessage) UnmarshalJSON(data []byte) error {
	var w startSessionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	return m.fromWire(w)
}

// MarshalCBOR implements cbor.Marshaler.
func (m *StartSessionMessage) MarshalCBOR() ([]byte, error) {
	w, err := m.wire()
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (m *StartSessionMessage) UnmarshalCBOR(data []byte) error {
	var w startSessionWire
	if err := decMode.Unmarshal(data, &w); err != nil {
		return err
	}
	return m.fromWire(w)
}
