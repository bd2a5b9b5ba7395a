package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/taskq/pkg/queue"
)

func TestWindowBoundary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		now      int64
		window   int
		expected int64
	}{
		{name: "epoch", now: 0, window: 60, expected: 0},
		{name: "scenario timestamp", now: 1700000000000, window: 60, expected: 28333333},
		{name: "exact edge starts new window", now: 120000, window: 60, expected: 2},
		{name: "one ms before edge", now: 119999, window: 60, expected: 1},
		{name: "one second window", now: 1500, window: 1, expected: 1},
		{name: "before epoch floors down", now: -1, window: 60, expected: -1},
		{name: "zero window", now: 1700000000000, window: 0, expected: 0},
		{name: "negative window", now: 1700000000000, window: -5, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, queue.WindowBoundary(tt.now, tt.window))
		})
	}
}

func TestWindowBoundary_Stability(t *testing.T) {
	t.Parallel()

	for _, w := range []int{1, 30, 60, 3600} {
		width := int64(w) * 1000
		for _, t1 := range []int64{0, 1, 999, 1700000000000, 1700000012345} {
			start := t1 - t1%width
			end := start + width - 1

			assert.Equal(t, queue.WindowBoundary(start, w), queue.WindowBoundary(t1, w), "w=%d t=%d", w, t1)
			assert.Equal(t, queue.WindowBoundary(end, w), queue.WindowBoundary(t1, w), "w=%d t=%d", w, t1)
			assert.Equal(t, queue.WindowBoundary(t1, w)+1, queue.WindowBoundary(t1+width, w), "w=%d t=%d", w, t1)
		}
	}
}
