package hermes

import (
	"github.com/wippyai/hermes-ffi/ontology"
)

// Message is a native Hermes protocol message.
type Message interface {
	Kind() Kind
}

// Some returns a pointer to s, for populating optional string fields.
func Some(s string) *string {
	return &s
}

type SiteMessage struct {
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type HotwordDetectedMessage struct {
	SiteID  string `json:"siteId"`
	ModelID string `json:"modelId"`
}

type TextCapturedMessage struct {
	Text       string  `json:"text"`
	Likelihood float32 `json:"likelihood"`
	Seconds    float32 `json:"seconds"`
	SiteID     string  `json:"siteId"`
	SessionID  *string `json:"sessionId,omitempty"`
}

// NluQueryMessage asks the NLU to classify input. A nil IntentFilter means
// no filter; an empty one is present and empty.
type NluQueryMessage struct {
	Input        string   `json:"input"`
	IntentFilter []string `json:"intentFilter"`
	ID           *string  `json:"id,omitempty"`
	SessionID    *string  `json:"sessionId,omitempty"`
}

type NluSlotQueryMessage struct {
	Input      string  `json:"input"`
	IntentName string  `json:"intentName"`
	SlotName   string  `json:"slotName"`
	ID         *string `json:"id,omitempty"`
	SessionID  *string `json:"sessionId,omitempty"`
}

type PlayBytesMessage struct {
	ID        string  `json:"id"`
	WavBytes  []byte  `json:"wavBytes"`
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type AudioFrameMessage struct {
	WavFrame []byte `json:"wavFrame"`
	SiteID   string `json:"siteId"`
}

type PlayFinishedMessage struct {
	ID        string  `json:"id"`
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type SayMessage struct {
	Text      string  `json:"text"`
	Lang      *string `json:"lang,omitempty"`
	ID        *string `json:"id,omitempty"`
	SiteID    string  `json:"siteId"`
	SessionID *string `json:"sessionId,omitempty"`
}

type SayFinishedMessage struct {
	ID        *string `json:"id,omitempty"`
	SessionID *string `json:"sessionId,omitempty"`
}

type NluSlotMessage struct {
	ID         *string        `json:"id,omitempty"`
	Input      string         `json:"input"`
	IntentName string         `json:"intentName"`
	Slot       *ontology.Slot `json:"slot,omitempty"`
	SessionID  *string        `json:"sessionId,omitempty"`
}

type NluIntentNotRecognizedMessage struct {
	Input     string  `json:"input"`
	ID        *string `json:"id,omitempty"`
	SessionID *string `json:"sessionId,omitempty"`
}

// NluIntentMessage carries a classification result. A nil Slots means
// the slot list is absent.
type NluIntentMessage struct {
	ID        *string                         `json:"id,omitempty"`
	Input     string                          `json:"input"`
	Intent    ontology.IntentClassifierResult `json:"intent"`
	Slots     ontology.SlotList               `json:"slots"`
	SessionID *string                         `json:"sessionId,omitempty"`
}

type IntentMessage struct {
	SessionID  string                          `json:"sessionId"`
	CustomData *string                         `json:"customData,omitempty"`
	SiteID     string                          `json:"siteId"`
	Input      string                          `json:"input"`
	Intent     ontology.IntentClassifierResult `json:"intent"`
	Slots      ontology.SlotList               `json:"slots"`
}

// StartSessionMessage starts a dialogue session. Init is required.
type StartSessionMessage struct {
	Init       SessionInit
	CustomData *string
	SiteID     *string
}

type SessionStartedMessage struct {
	SessionID                string  `json:"sessionId"`
	CustomData               *string `json:"customData,omitempty"`
	SiteID                   string  `json:"siteId"`
	ReactivatedFromSessionID *string `json:"reactivatedFromSessionId,omitempty"`
}

type SessionQueuedMessage struct {
	SessionID  string  `json:"sessionId"`
	CustomData *string `json:"customData,omitempty"`
	SiteID     string  `json:"siteId"`
}

type ContinueSessionMessage struct {
	SessionID    string   `json:"sessionId"`
	Text         string   `json:"text"`
	IntentFilter []string `json:"intentFilter"`
}

type EndSessionMessage struct {
	SessionID string  `json:"sessionId"`
	Text      *string `json:"text,omitempty"`
}

type SessionEndedMessage struct {
	SessionID   string             `json:"sessionId"`
	CustomData  *string            `json:"customData,omitempty"`
	Termination SessionTermination `json:"termination"`
	SiteID      string             `json:"siteId"`
}

// Version is a semantic version triple.
type Version struct {
	Major uint64 `json:"major"`
	Minor uint64 `json:"minor"`
	Patch uint64 `json:"patch"`
}

type VersionMessage struct {
	Version Version `json:"version"`
}

type ErrorMessage struct {
	SessionID *string `json:"sessionId,omitempty"`
	Error     string  `json:"error"`
	Context   *string `json:"context,omitempty"`
}

func (*SiteMessage) Kind() Kind                   { return KindSite }
func (*HotwordDetectedMessage) Kind() Kind        { return KindHotwordDetected }
func (*TextCapturedMessage) Kind() Kind           { return KindTextCaptured }
func (*NluQueryMessage) Kind() Kind               { return KindNluQuery }
func (*NluSlotQueryMessage) Kind() Kind           { return KindNluSlotQuery }
func (*PlayBytesMessage) Kind() Kind              { return KindPlayBytes }
func (*AudioFrameMessage) Kind() Kind             { return KindAudioFrame }
func (*PlayFinishedMessage) Kind() Kind           { return KindPlayFinished }
func (*SayMessage) Kind() Kind                    { return KindSay }
func (*SayFinishedMessage) Kind() Kind            { return KindSayFinished }
func (*NluSlotMessage) Kind() Kind                { return KindNluSlot }
func (*NluIntentNotRecognizedMessage) Kind() Kind { return KindNluIntentNotRecognized }
func (*NluIntentMessage) Kind() Kind              { return KindNluIntent }
func (*IntentMessage) Kind() Kind                 { return KindIntent }
func (*StartSessionMessage) Kind() Kind           { return KindStartSession }
func (*SessionStartedMessage) Kind() Kind         { return KindSessionStarted }
func (*SessionQueuedMessage) Kind() Kind          { return KindSessionQueued }
func (*ContinueSessionMessage) Kind() Kind        { return KindContinueSession }
func (*EndSessionMessage) Kind() Kind             { return KindEndSession }
func (*SessionEndedMessage) Kind() Kind           { return KindSessionEnded }
func (*VersionMessage) Kind() Kind                { return KindVersion }
func (*ErrorMessage) Kind() Kind                  { return KindError }
