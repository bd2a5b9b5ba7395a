package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

func TestResolveDelay(t *testing.T) {
	t.Parallel()

	t.Run("window always wins", func(t *testing.T) {
		t.Parallel()

		for _, explicit := range []int{0, -10, 1, 30, 60, 86400} {
			delay, ok := queue.ResolveDelay(60, explicit)
			assert.True(t, ok)
			assert.Equal(t, 60, delay, "explicit=%d", explicit)
		}
	})

	t.Run("explicit delay without window", func(t *testing.T) {
		t.Parallel()

		delay, ok := queue.ResolveDelay(0, 45)
		assert.True(t, ok)
		assert.Equal(t, 45, delay)
	})

	t.Run("no delay", func(t *testing.T) {
		t.Parallel()

		for _, explicit := range []int{0, -1} {
			delay, ok := queue.ResolveDelay(0, explicit)
			assert.False(t, ok)
			assert.Zero(t, delay)
		}
	})
}
