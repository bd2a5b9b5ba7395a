package queue

import (
	"strconv"
	"time"
)

// WindowBoundary maps a unix-millisecond timestamp to the index of the epoch-aligned
// window of windowSeconds that contains it. Adjacent windows differ by exactly one.
func WindowBoundary(nowMillis int64, windowSeconds int) int64 {
	if windowSeconds <= 0 {
		return 0
	}
	width := int64(windowSeconds) * 1000
	b := nowMillis / width
	// floor, not truncation, for timestamps before the epoch
	if nowMillis%width != 0 && nowMillis < 0 {
		b--
	}
	return b
}

// windowSuffix is appended to task names so identities stay distinct across windows
// even when the transport remembers names for longer than one window.
func windowSuffix(now time.Time, windowSeconds int) string {
	return "-" + strconv.FormatInt(WindowBoundary(now.UnixMilli(), windowSeconds), 10)
}
