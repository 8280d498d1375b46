package transcoder

import (
	"github.com/wippyai/hermes-ffi/hermes"
	"github.com/wippyai/hermes-ffi/transcoder/layout"
)

// Opaque ontology type names referenced by record layouts.
const (
	opaqueIntentClassifierResult = "IntentClassifierResult"
	opaqueSlot                   = "Slot"
	opaqueSlotList               = "SlotList"
)

var (
	actionSessionInitLayout = layout.MustRecord("CActionSessionInit",
		layout.OptStr("text"),
		layout.Strings("intent_filter", true),
		layout.Scalar("can_be_enqueued", layout.Bool),
	)

	sessionInitLayout = layout.MustRecord("CSessionInit",
		layout.EnumOf("init_type", int32(hermes.InitNotification)),
		layout.UnionOf("value", "init_type",
			layout.Variant{Name: "action", Shape: layout.RecordPtr, Elem: actionSessionInitLayout},
			layout.Variant{Name: "notification", Shape: layout.String},
		),
	)

	sessionTerminationLayout = layout.MustRecord("CSessionTermination",
		layout.EnumOf("termination_type", int32(hermes.TerminationError)),
		layout.OptStr("data"),
	)
)

var records = [...]*layout.Record{
	hermes.KindSite: layout.MustRecord("CSiteMessage",
		layout.Str("site_id"),
		layout.OptStr("session_id"),
	),
	hermes.KindHotwordDetected: layout.MustRecord("CHotwordDetectedMessage",
		layout.Str("site_id"),
		layout.Str("model_id"),
	),
	hermes.KindTextCaptured: layout.MustRecord("CTextCapturedMessage",
		layout.Str("text"),
		layout.Scalar("likelihood", layout.F32),
		layout.Scalar("seconds", layout.F32),
		layout.Str("site_id"),
		layout.OptStr("session_id"),
	),
	hermes.KindNluQuery: layout.MustRecord("CNluQueryMessage",
		layout.Str("input"),
		layout.Strings("intent_filter", true),
		layout.OptStr("id"),
		layout.OptStr("session_id"),
	),
	hermes.KindNluSlotQuery: layout.MustRecord("CNluSlotQueryMessage",
		layout.Str("input"),
		layout.Str("intent_name"),
		layout.Str("slot_name"),
		layout.OptStr("id"),
		layout.OptStr("session_id"),
	),
	hermes.KindPlayBytes: layout.MustRecord("CPlayBytesMessage",
		layout.Str("id"),
		layout.Buf("wav_bytes", "wav_bytes_len"),
		layout.Len("wav_bytes_len"),
		layout.Str("site_id"),
		layout.OptStr("session_id"),
	),
	hermes.KindAudioFrame: layout.MustRecord("CAudioFrameMessage",
		layout.Buf("wav_frame", "wav_frame_len"),
		layout.Len("wav_frame_len"),
		layout.Str("site_id"),
	),
	hermes.KindPlayFinished: layout.MustRecord("CPlayFinishedMessage",
		layout.Str("id"),
		layout.Str("site_id"),
		layout.OptStr("session_id"),
	),
	hermes.KindSay: layout.MustRecord("CSayMessage",
		layout.Str("text"),
		layout.OptStr("lang"),
		layout.OptStr("id"),
		layout.Str("site_id"),
		layout.OptStr("session_id"),
	),
	hermes.KindSayFinished: layout.MustRecord("CSayFinishedMessage",
		layout.OptStr("id"),
		layout.OptStr("session_id"),
	),
	hermes.KindNluSlot: layout.MustRecord("CNluSlotMessage",
		layout.OptStr("id"),
		layout.Str("input"),
		layout.Str("intent_name"),
		layout.OpaqueOf("slot", opaqueSlot, true),
		layout.OptStr("session_id"),
	),
	hermes.KindNluIntentNotRecognized: layout.MustRecord("CNluIntentNotRecognizedMessage",
		layout.Str("input"),
		layout.OptStr("id"),
		layout.OptStr("session_id"),
	),
	hermes.KindNluIntent: layout.MustRecord("CNluIntentMessage",
		layout.OptStr("id"),
		layout.Str("input"),
		layout.OpaqueOf("intent", opaqueIntentClassifierResult, false),
		layout.OpaqueOf("slots", opaqueSlotList, true),
		layout.OptStr("session_id"),
	),
	hermes.KindIntent: layout.MustRecord("CIntentMessage",
		layout.Str("session_id"),
		layout.OptStr("custom_data"),
		layout.Str("site_id"),
		layout.Str("input"),
		layout.OpaqueOf("intent", opaqueIntentClassifierResult, false),
		layout.OpaqueOf("slots", opaqueSlotList, true),
	),
	hermes.KindStartSession: layout.MustRecord("CStartSessionMessage",
		layout.Inline("init", sessionInitLayout),
		layout.OptStr("custom_data"),
		layout.OptStr("site_id"),
	),
	hermes.KindSessionStarted: layout.MustRecord("CSessionStartedMessage",
		layout.Str("session_id"),
		layout.OptStr("custom_data"),
		layout.Str("site_id"),
		layout.OptStr("reactivated_from_session_id"),
	),
	hermes.KindSessionQueued: layout.MustRecord("CSessionQueuedMessage",
		layout.Str("session_id"),
		layout.OptStr("custom_data"),
		layout.Str("site_id"),
	),
	hermes.KindContinueSession: layout.MustRecord("CContinueSessionMessage",
		layout.Str("session_id"),
		layout.Str("text"),
		layout.Strings("intent_filter", true),
	),
	hermes.KindEndSession: layout.MustRecord("CEndSessionMessage",
		layout.Str("session_id"),
		layout.OptStr("text"),
	),
	hermes.KindSessionEnded: layout.MustRecord("CSessionEndedMessage",
		layout.Str("session_id"),
		layout.OptStr("custom_data"),
		layout.Inline("termination", sessionTerminationLayout),
		layout.Str("site_id"),
	),
	hermes.KindVersion: layout.MustRecord("CVersionMessage",
		layout.Scalar("major", layout.U64),
		layout.Scalar("minor", layout.U64),
		layout.Scalar("patch", layout.U64),
	),
	hermes.KindError: layout.MustRecord("CErrorMessage",
		layout.OptStr("session_id"),
		layout.Str("error"),
		layout.OptStr("context"),
	),
}

// Layout returns the foreign record layout for kind.
func Layout(kind hermes.Kind) (*layout.Record, bool) {
	if !kind.Valid() || int(kind) >= len(records) || records[kind] == nil {
		return nil, false
	}
	return records[kind], true
}

// Reversible reports whether records of kind can be copied back out.
// The intent-result family holds ontology structures that have no
// copy-out routine.
func Reversible(kind hermes.Kind) bool {
	switch kind {
	case hermes.KindNluSlot, hermes.KindNluIntent, hermes.KindIntent:
		return false
	}
	return kind.Valid()
}
