// Package hermes defines the native representation of Hermes protocol messages.
//
// Every message is a plain Go struct implementing Message. Absent optional
// values are nil: *string for optional strings, a nil slice for an optional
// intent filter or slot list (an empty non-nil slice is present and empty).
// The session-initiation mode is a sealed sum type (SessionInitAction or
// SessionInitNotification), so a mode carrying the payload of the other
// variant cannot be built.
//
// # Envelopes
//
// Messages travel on the transport wrapped in an envelope naming their kind:
//
//	{"kind": "say", "message": {"text": "hello", "siteId": "default"}}
//
// Marshal and Unmarshal encode envelopes as JSON (the Hermes JSON API,
// camelCase field names) or as deterministic CBOR.
package hermes
