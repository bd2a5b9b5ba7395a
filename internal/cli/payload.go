package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	errEmptyPayload = errors.New("empty payload")
	errTrailingData = errors.New("decode payload: trailing data after JSON value")
)

// readPayload decodes a JSON payload from arg, or from r when arg is empty or "-".
// Objects decode into maps so the fingerprint does not depend on key order.
func readPayload(arg string, r io.Reader) (any, error) {
	var data []byte
	if arg == "" || arg == "-" {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}
		data = b
	} else {
		data = []byte(arg)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errEmptyPayload
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errTrailingData
	}
	return payload, nil
}
