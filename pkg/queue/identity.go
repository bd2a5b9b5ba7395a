package queue

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DeriveIdentity returns a deterministic content fingerprint of the payload.
//
// Strings and raw byte payloads are hashed as-is. Everything else is hashed over its
// JSON encoding, which sorts map keys and keeps struct field order, so equal content
// always yields the same fingerprint. HTML characters are not escaped, so "<", ">" and
// "&" hash as themselves. The hash guards against accidental collisions
// only; it is a deduplication key, not a security boundary.
func DeriveIdentity(payload any) (string, error) {
	if payload == nil {
		return "", ErrPayloadNil
	}

	var data []byte
	switch v := payload.(type) {
	case string:
		data = []byte(v)
	case json.RawMessage:
		data = v
	case []byte:
		data = v
	default:
		b, err := canonicalJSON(payload)
		if err != nil {
			return "", fmt.Errorf("%w: %T: %w", ErrPayloadMarshal, payload, err)
		}
		data = b
	}

	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
