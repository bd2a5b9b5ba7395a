package queue

// ResolveDelay returns the execution delay in seconds and whether one applies.
//
// A positive window always wins: the task runs exactly windowSeconds from now no matter
// what the caller asked for, so a burst collapses into one future execution. Without a
// window a positive explicit delay is honored verbatim; otherwise the task runs as soon
// as the transport dispatches it.
func ResolveDelay(windowSeconds, explicitDelaySeconds int) (int, bool) {
	if windowSeconds > 0 {
		return windowSeconds, true
	}
	if explicitDelaySeconds > 0 {
		return explicitDelaySeconds, true
	}
	return 0, false
}
