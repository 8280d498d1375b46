package hermes

import (
	"github.com/wippyai/hermes-ffi/ontology"
)

// Example returns a populated message of kind k with every optional
// field present, or nil for an unknown kind.
func Example(k Kind) Message {
	switch k {
	case KindSite:
		return &SiteMessage{SiteID: "kitchen", SessionID: Some("abc123")}
	case KindHotwordDetected:
		return &HotwordDetectedMessage{SiteID: "kitchen", ModelID: "hey_snips"}
	case KindTextCaptured:
		return &TextCapturedMessage{
			Text:       "turn on the lights",
			Likelihood: 0.92,
			Seconds:    1.5,
			SiteID:     "kitchen",
			SessionID:  Some("abc123"),
		}
	case KindNluQuery:
		return &NluQueryMessage{
			Input:        "turn on the lights",
			IntentFilter: []string{"lightsOn", "lightsOff"},
			ID:           Some("q-1"),
			SessionID:    Some("abc123"),
		}
	case KindNluSlotQuery:
		return &NluSlotQueryMessage{
			Input:      "in the kitchen",
			IntentName: "lightsOn",
			SlotName:   "room",
			ID:         Some("q-2"),
			SessionID:  Some("abc123"),
		}
	case KindPlayBytes:
		return &PlayBytesMessage{
			ID:        "sound-1",
			WavBytes:  []byte("RIFF\x24\x00\x00\x00WAVE"),
			SiteID:    "kitchen",
			SessionID: Some("abc123"),
		}
	case KindAudioFrame:
		return &AudioFrameMessage{WavFrame: []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01}, SiteID: "kitchen"}
	case KindPlayFinished:
		return &PlayFinishedMessage{ID: "sound-1", SiteID: "kitchen", SessionID: Some("abc123")}
	case KindSay:
		return &SayMessage{
			Text:      "The lights are on",
			Lang:      Some("en"),
			ID:        Some("say-1"),
			SiteID:    "kitchen",
			SessionID: Some("abc123"),
		}
	case KindSayFinished:
		return &SayFinishedMessage{ID: Some("say-1"), SessionID: Some("abc123")}
	case KindNluSlot:
		return &NluSlotMessage{
			ID:         Some("q-2"),
			Input:      "in the kitchen",
			IntentName: "lightsOn",
			Slot:       exampleSlot(),
			SessionID:  Some("abc123"),
		}
	case KindNluIntentNotRecognized:
		return &NluIntentNotRecognizedMessage{Input: "sing a song", ID: Some("q-3"), SessionID: Some("abc123")}
	case KindNluIntent:
		return &NluIntentMessage{
			ID:        Some("q-1"),
			Input:     "turn on the lights in the kitchen",
			Intent:    ontology.IntentClassifierResult{IntentName: "lightsOn", Probability: 0.95},
			Slots:     ontology.SlotList{*exampleSlot()},
			SessionID: Some("abc123"),
		}
	case KindIntent:
		return &IntentMessage{
			SessionID:  "abc123",
			CustomData: Some("{\"origin\":\"panel\"}"),
			SiteID:     "kitchen",
			Input:      "turn on the lights in the kitchen",
			Intent:     ontology.IntentClassifierResult{IntentName: "lightsOn", Probability: 0.95},
			Slots:      ontology.SlotList{*exampleSlot()},
		}
	case KindStartSession:
		return &StartSessionMessage{
			Init: &SessionInitAction{
				Text:          Some("What can I do for you?"),
				IntentFilter:  []string{"lightsOn", "lightsOff"},
				CanBeEnqueued: true,
			},
			CustomData: Some("ctx-42"),
			SiteID:     Some("kitchen"),
		}
	case KindSessionStarted:
		return &SessionStartedMessage{
			SessionID:                "abc123",
			CustomData:               Some("ctx-42"),
			SiteID:                   "kitchen",
			ReactivatedFromSessionID: Some("abc122"),
		}
	case KindSessionQueued:
		return &SessionQueuedMessage{SessionID: "abc123", CustomData: Some("ctx-42"), SiteID: "kitchen"}
	case KindContinueSession:
		return &ContinueSessionMessage{SessionID: "abc123", Text: "Which room?", IntentFilter: []string{"lightsOn"}}
	case KindEndSession:
		return &EndSessionMessage{SessionID: "abc123", Text: Some("Goodbye")}
	case KindSessionEnded:
		return &SessionEndedMessage{
			SessionID:   "abc123",
			CustomData:  Some("ctx-42"),
			Termination: SessionTermination{Reason: TerminationError, Error: "dialogue manager unavailable"},
			SiteID:      "kitchen",
		}
	case KindVersion:
		return &VersionMessage{Version: Version{Major: 0, Minor: 64, Patch: 0}}
	case KindError:
		return &ErrorMessage{SessionID: Some("abc123"), Error: "boom", Context: Some("nlu")}
	default:
		return nil
	}
}

func exampleSlot() *ontology.Slot {
	return &ontology.Slot{
		RawValue:   "kitchen",
		Value:      "kitchen",
		Entity:     "room",
		SlotName:   "room",
		RangeStart: 27,
		RangeEnd:   34,
	}
}
