package cloudtasks

import "errors"

var (
	ErrNilService        = errors.New("cloud tasks service cannot be nil")
	ErrEmptyTargetURL    = errors.New("cloud tasks target URL cannot be empty")
	ErrFailedToConnect   = errors.New("failed to create cloud tasks client")
	ErrHealthcheckFailed = errors.New("cloud tasks healthcheck failed")
)
