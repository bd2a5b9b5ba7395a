package jetstream

import "time"

// Config holds the NATS connection and stream settings.
type Config struct {
	URL            string        `env:"NATS_URL" envDefault:"nats://localhost:4222"`
	Name           string        `env:"NATS_CLIENT_NAME" envDefault:"taskq"`
	Token          string        `env:"NATS_TOKEN"`
	User           string        `env:"NATS_USER"`
	Password       string        `env:"NATS_PASSWORD"`
	ConnectTimeout time.Duration `env:"NATS_CONNECT_TIMEOUT" envDefault:"5s"`
	ReconnectWait  time.Duration `env:"NATS_RECONNECT_WAIT" envDefault:"2s"`
	MaxReconnects  int           `env:"NATS_MAX_RECONNECTS" envDefault:"-1"` // -1 means unlimited

	Stream        string `env:"NATS_TASKQ_STREAM" envDefault:"TASKQ"`
	SubjectPrefix string `env:"NATS_TASKQ_SUBJECT_PREFIX" envDefault:"taskq"`
	// DuplicateWindow is how long the stream remembers message ids.
	DuplicateWindow time.Duration `env:"NATS_TASKQ_DUPLICATE_WINDOW" envDefault:"4h"`
	Replicas        int           `env:"NATS_TASKQ_REPLICAS" envDefault:"1"`
}
