package hermes

import (
	"encoding/json"

	"github.com/fxamacker/cbor/v2"

	"github.com/wippyai/hermes-ffi/errors"
)

// Format selects the envelope encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCBOR Format = "cbor"
)

// ParseFormat resolves a format name.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatJSON, FormatCBOR:
		return Format(name), nil
	default:
		return "", errors.NotFound(errors.PhaseCodec, "format", name)
	}
}

// encMode uses Core Deterministic Encoding, so equal messages always
// produce identical bytes. Kinds and termination reasons are text strings.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.TextMarshaler = cbor.TextMarshalerTextString
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("hermes: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("hermes: CBOR decoder initialization failed: " + err.Error())
	}
}

type envelope struct {
	Kind    Kind    `json:"kind"`
	Message Message `json:"message"`
}

type jsonEnvelope struct {
	Kind    Kind            `json:"kind"`
	Message json.RawMessage `json:"message"`
}

type cborEnvelope struct {
	Kind    Kind            `json:"kind"`
	Message cbor.RawMessage `json:"message"`
}

// Marshal wraps msg in an envelope and encodes it.
func Marshal(format Format, msg Message) ([]byte, error) {
	if msg == nil {
		return nil, errors.NilPointer(errors.PhaseCodec, []string{"message"}, "hermes.Message")
	}
	env := envelope{Kind: msg.Kind(), Message: msg}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.Marshal(env)
	case FormatCBOR:
		data, err = encMode.Marshal(env)
	default:
		return nil, errors.NotFound(errors.PhaseCodec, "format", string(format))
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "encode "+msg.Kind().String())
	}
	return data, nil
}

// Unmarshal decodes an envelope and returns the message it carries.
func Unmarshal(format Format, data []byte) (Message, error) {
	var (
		kind Kind
		raw  []byte
	)
	switch format {
	case FormatJSON:
		var env jsonEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "decode envelope")
		}
		kind, raw = env.Kind, env.Message
	case FormatCBOR:
		var env cborEnvelope
		if err := decMode.Unmarshal(data, &env); err != nil {
			return nil, errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "decode envelope")
		}
		kind, raw = env.Kind, env.Message
	default:
		return nil, errors.NotFound(errors.PhaseCodec, "format", string(format))
	}

	msg, err := New(kind)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.InvalidData(errors.PhaseCodec, []string{"message"}, "envelope has no message")
	}

	switch format {
	case FormatJSON:
		err = json.Unmarshal(raw, msg)
	case FormatCBOR:
		err = decMode.Unmarshal(raw, msg)
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCodec, errors.KindInvalidData, err, "decode "+kind.String())
	}
	return msg, nil
}
