package queue_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

func TestEncodeEnvelope(t *testing.T) {
	t.Parallel()

	body, err := queue.EncodeEnvelope(map[string]string{"email": "test@example.com"})
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(string(body))
	require.NoError(t, err)
	assert.JSONEq(t, `{"data":{"email":"test@example.com"}}`, string(raw))

	_, err = queue.EncodeEnvelope(nil)
	assert.ErrorIs(t, err, queue.ErrPayloadNil)

	_, err = queue.EncodeEnvelope(make(chan int))
	assert.ErrorIs(t, err, queue.ErrPayloadMarshal)
}

func TestDecodeEnvelope(t *testing.T) {
	t.Parallel()

	encoded, err := queue.EncodeEnvelope(map[string]int{"n": 1})
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    []byte
		want    string
		wantErr bool
	}{
		{name: "base64", body: encoded, want: `{"n":1}`},
		{name: "plain json", body: []byte(`{"data":{"n":1}}`), want: `{"n":1}`},
		{name: "surrounding whitespace", body: []byte("  {\"data\":[1,2]}\n"), want: `[1,2]`},
		{name: "empty", body: nil, wantErr: true},
		{name: "missing key", body: []byte(`{"payload":{}}`), wantErr: true},
		{name: "not base64", body: []byte("%%%"), wantErr: true},
		{name: "broken json", body: []byte(`{"data":`), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := queue.DecodeEnvelope(tt.body)
			if tt.wantErr {
				assert.ErrorIs(t, err, queue.ErrInvalidEnvelope)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}
