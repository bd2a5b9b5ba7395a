package jetstream

import "errors"

var (
	ErrFailedToConnect   = errors.New("failed to connect to nats")
	ErrNilPublisher      = errors.New("jetstream publisher cannot be nil")
	ErrHealthcheckFailed = errors.New("nats healthcheck failed")
)
