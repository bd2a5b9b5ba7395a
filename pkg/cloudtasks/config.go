package cloudtasks

import "time"

// Config describes how tasks are pushed by Google Cloud Tasks.
type Config struct {
	// TargetURL is the base URL of the taskhttp router; the queue name is appended.
	TargetURL string `env:"CLOUDTASKS_TARGET_URL,required"`

	// ServiceAccountEmail enables OIDC tokens on pushed requests when set.
	ServiceAccountEmail string `env:"CLOUDTASKS_SERVICE_ACCOUNT_EMAIL"`
	// Audience of the OIDC token; defaults to the target URL.
	Audience string `env:"CLOUDTASKS_OIDC_AUDIENCE"`

	// DispatchDeadline bounds a single push attempt.
	DispatchDeadline time.Duration `env:"CLOUDTASKS_DISPATCH_DEADLINE" envDefault:"10m"`

	// Endpoint overrides the API endpoint, e.g. for an emulator.
	Endpoint string `env:"CLOUDTASKS_ENDPOINT"`
	// CredentialsFile points to a service account key; ADC is used when empty.
	CredentialsFile string `env:"CLOUDTASKS_CREDENTIALS_FILE"`
}
