package queue

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EnvelopeKey is the top-level key the caller payload is wrapped under.
const EnvelopeKey = "data"

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// EncodeEnvelope wraps the payload as {"data": payload} and base64-encodes it.
func EncodeEnvelope(payload any) ([]byte, error) {
	if payload == nil {
		return nil, ErrPayloadNil
	}

	raw, err := json.Marshal(map[string]any{EnvelopeKey: payload})
	if err != nil {
		return nil, fmt.Errorf("%w: %T: %w", ErrPayloadMarshal, payload, err)
	}

	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out, nil
}

// DecodeEnvelope returns the caller payload from a task body.
// Both the base64 form produced by EncodeEnvelope and the plain JSON form delivered
// by push transports are accepted.
func DecodeEnvelope(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrInvalidEnvelope)
	}

	raw := body
	if body[0] != '{' {
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(body)))
		n, err := base64.StdEncoding.Decode(decoded, body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
		}
		raw = decoded[:n]
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if len(env.Data) == 0 {
		return nil, fmt.Errorf("%w: missing %q key", ErrInvalidEnvelope, EnvelopeKey)
	}

	return env.Data, nil
}
