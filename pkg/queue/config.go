package queue

import "time"

// Config holds the configuration for the task scheduling client
type Config struct {
	Backend         string `env:"TASKQ_BACKEND" envDefault:"memory"`
	Project         string `env:"TASKQ_PROJECT" envDefault:"local"`
	Region          string `env:"TASKQ_REGION" envDefault:"local"`
	DefinitionsFile string `env:"TASKQ_DEFINITIONS_FILE"`

	SubmitMaxAttempts  int           `env:"TASKQ_SUBMIT_MAX_ATTEMPTS" envDefault:"5"`
	SubmitInitialDelay time.Duration `env:"TASKQ_SUBMIT_INITIAL_DELAY" envDefault:"100ms"`
	SubmitMaxDelay     time.Duration `env:"TASKQ_SUBMIT_MAX_DELAY" envDefault:"5s"`
	SubmitJitter       float64       `env:"TASKQ_SUBMIT_JITTER" envDefault:"0.2"`

	WorkerPollInterval       time.Duration `env:"TASKQ_WORKER_POLL_INTERVAL" envDefault:"1s"`
	WorkerMaxConcurrentTasks int           `env:"TASKQ_WORKER_MAX_CONCURRENT_TASKS" envDefault:"10"`
	WorkerTaskTimeout        time.Duration `env:"TASKQ_WORKER_TASK_TIMEOUT" envDefault:"5m"`
	WorkerLockTimeout        time.Duration `env:"TASKQ_WORKER_LOCK_TIMEOUT" envDefault:"10m"`
}

// Backoff builds the submission backoff strategy described by the config.
func (c Config) Backoff() ExponentialBackoff {
	return ExponentialBackoff{
		InitialInterval: c.SubmitInitialDelay,
		MaxInterval:     c.SubmitMaxDelay,
		Multiplier:      2,
		JitterFactor:    c.SubmitJitter,
	}
}
