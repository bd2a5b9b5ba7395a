package queue_test

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

func md5Hex(b []byte) string {
	sum := md5.Sum(b)
	return hex.EncodeToString(sum[:])
}

type identityPayload struct {
	Email string `json:"email"`
	Count int    `json:"count"`
}

func TestDeriveIdentity(t *testing.T) {
	t.Parallel()

	t.Run("deterministic for equal content", func(t *testing.T) {
		t.Parallel()

		a, err := queue.DeriveIdentity(identityPayload{Email: "a@example.com", Count: 1})
		require.NoError(t, err)
		b, err := queue.DeriveIdentity(identityPayload{Email: "a@example.com", Count: 1})
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a, 32)
	})

	t.Run("different content yields different fingerprint", func(t *testing.T) {
		t.Parallel()

		a, err := queue.DeriveIdentity(identityPayload{Email: "a@example.com", Count: 1})
		require.NoError(t, err)
		b, err := queue.DeriveIdentity(identityPayload{Email: "a@example.com", Count: 2})
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})

	t.Run("map key order does not matter", func(t *testing.T) {
		t.Parallel()

		a, err := queue.DeriveIdentity(map[string]any{"a": 1, "b": "x", "c": true})
		require.NoError(t, err)
		b, err := queue.DeriveIdentity(map[string]any{"c": true, "b": "x", "a": 1})
		require.NoError(t, err)

		assert.Equal(t, a, b)
	})

	t.Run("md5 of canonical json", func(t *testing.T) {
		t.Parallel()

		payload := map[string]string{"email": "test@example.com"}
		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		id, err := queue.DeriveIdentity(payload)
		require.NoError(t, err)
		assert.Equal(t, md5Hex(raw), id)
	})

	t.Run("html characters are not escaped", func(t *testing.T) {
		t.Parallel()

		id, err := queue.DeriveIdentity(map[string]string{"q": "a<b&c>"})
		require.NoError(t, err)
		assert.Equal(t, md5Hex([]byte(`{"q":"a<b&c>"}`)), id)
	})

	t.Run("strings are hashed without re-serialization", func(t *testing.T) {
		t.Parallel()

		id, err := queue.DeriveIdentity("hello world")
		require.NoError(t, err)
		assert.Equal(t, md5Hex([]byte("hello world")), id)
	})

	t.Run("raw json is hashed as-is", func(t *testing.T) {
		t.Parallel()

		raw := json.RawMessage(`{"b":1,"a":2}`)
		id, err := queue.DeriveIdentity(raw)
		require.NoError(t, err)
		assert.Equal(t, md5Hex(raw), id)
	})

	t.Run("nil payload", func(t *testing.T) {
		t.Parallel()

		_, err := queue.DeriveIdentity(nil)
		assert.ErrorIs(t, err, queue.ErrPayloadNil)
	})

	t.Run("unserializable payload", func(t *testing.T) {
		t.Parallel()

		_, err := queue.DeriveIdentity(struct{ Ch chan int }{Ch: make(chan int)})
		assert.ErrorIs(t, err, queue.ErrPayloadMarshal)
	})
}
