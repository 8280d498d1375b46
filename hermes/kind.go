package hermes

import (
	"github.com/wippyai/hermes-ffi/errors"
)

// Kind identifies a protocol message and its foreign record.
type Kind uint8

const (
	KindSite Kind = iota + 1
	KindHotwordDetected
	KindTextCaptured
	KindNluQuery
	KindNluSlotQuery
	KindPlayBytes
	KindAudioFrame
	KindPlayFinished
	KindSay
	KindSayFinished
	KindNluSlot
	KindNluIntentNotRecognized
	KindNluIntent
	KindIntent
	KindStartSession
	KindSessionStarted
	KindSessionQueued
	KindContinueSession
	KindEndSession
	KindSessionEnded
	KindVersion
	KindError

	kindCount = iota
)

var kindNames = [...]string{
	KindSite:                   "site",
	KindHotwordDetected:        "hotword_detected",
	KindTextCaptured:           "text_captured",
	KindNluQuery:               "nlu_query",
	KindNluSlotQuery:           "nlu_slot_query",
	KindPlayBytes:              "play_bytes",
	KindAudioFrame:             "audio_frame",
	KindPlayFinished:           "play_finished",
	KindSay:                    "say",
	KindSayFinished:            "say_finished",
	KindNluSlot:                "nlu_slot",
	KindNluIntentNotRecognized: "nlu_intent_not_recognized",
	KindNluIntent:              "nlu_intent",
	KindIntent:                 "intent",
	KindStartSession:           "start_session",
	KindSessionStarted:         "session_started",
	KindSessionQueued:          "session_queued",
	KindContinueSession:        "continue_session",
	KindEndSession:             "end_session",
	KindSessionEnded:           "session_ended",
	KindVersion:                "version",
	KindError:                  "error",
}

// Kinds returns every message kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, kindCount)
	for k := KindSite; k <= KindError; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Valid reports whether k names a known message.
func (k Kind) Valid() bool {
	return k >= KindSite && k <= KindError
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind resolves a kind by its envelope name.
func ParseKind(name string) (Kind, error) {
	for k := KindSite; k <= KindError; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return 0, errors.NotFound(errors.PhaseCodec, "message kind", name)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, errors.InvalidEnum(errors.PhaseCodec, nil, uint8(k), "hermes.Kind")
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// New returns a pointer to a zero message of the given kind.
func New(k Kind) (Message, error) {
	switch k {
	case KindSite:
		return &SiteMessage{}, nil
	case KindHotwordDetected:
		return &HotwordDetectedMessage{}, nil
	case KindTextCaptured:
		return &TextCapturedMessage{}, nil
	case KindNluQuery:
		return &NluQueryMessage{}, nil
	case KindNluSlotQuery:
		return &NluSlotQueryMessage{}, nil
	case KindPlayBytes:
		return &PlayBytesMessage{}, nil
	case KindAudioFrame:
		return &AudioFrameMessage{}, nil
	case KindPlayFinished:
		return &PlayFinishedMessage{}, nil
	case KindSay:
		return &SayMessage{}, nil
	case KindSayFinished:
		return &SayFinishedMessage{}, nil
	case KindNluSlot:
		return &NluSlotMessage{}, nil
	case KindNluIntentNotRecognized:
		return &NluIntentNotRecognizedMessage{}, nil
	case KindNluIntent:
		return &NluIntentMessage{}, nil
	case KindIntent:
		return &IntentMessage{}, nil
	case KindStartSession:
		return &StartSessionMessage{}, nil
	case KindSessionStarted:
		return &SessionStartedMessage{}, nil
	case KindSessionQueued:
		return &SessionQueuedMessage{}, nil
	case KindContinueSession:
		return &ContinueSessionMessage{}, nil
	case KindEndSession:
		return &EndSessionMessage{}, nil
	case KindSessionEnded:
		return &SessionEndedMessage{}, nil
	case KindVersion:
		return &VersionMessage{}, nil
	case KindError:
		return &ErrorMessage{}, nil
	default:
		return nil, errors.InvalidEnum(errors.PhaseCodec, nil, uint8(k), "hermes.Kind")
	}
}
