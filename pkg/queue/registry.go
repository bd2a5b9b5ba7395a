package queue

import (
	"fmt"
	"maps"
	"slices"
)

// Definitions is the on-disk shape of queue definitions.
//
//	queues:
//	  send_email:
//	    deduplication_window_seconds: 60
//	  rebuild_index:
//	    use_deduplication: true
type Definitions struct {
	Queues map[string]TaskConfig `json:"queues" yaml:"queues" toml:"queues"`
}

// Registry maps queue names to their deduplication policy.
// It is populated once at construction and read-only afterwards, so it is safe for
// concurrent use without locking.
type Registry struct {
	queues map[string]TaskConfig
}

// NewRegistry validates and stores the queue definitions.
func NewRegistry(defs map[string]TaskConfig) (*Registry, error) {
	queues := make(map[string]TaskConfig, len(defs))
	for name, cfg := range defs {
		if name == "" {
			return nil, ErrEmptyQueueName
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("queue %q: %w", name, err)
		}
		queues[name] = cfg
	}
	return &Registry{queues: queues}, nil
}

// NewRegistryFromDefinitions is NewRegistry over a loaded definitions file.
func NewRegistryFromDefinitions(defs Definitions) (*Registry, error) {
	return NewRegistry(defs.Queues)
}

// Lookup returns the queue policy. Unknown queues get the zero config: no deduplication.
func (r *Registry) Lookup(queue string) (TaskConfig, bool) {
	cfg, ok := r.queues[queue]
	return cfg, ok
}

// Has reports whether the queue was registered.
func (r *Registry) Has(queue string) bool {
	_, ok := r.queues[queue]
	return ok
}

// Queues returns the registered queue names in sorted order.
func (r *Registry) Queues() []string {
	return slices.Sorted(maps.Keys(r.queues))
}

// Len returns the number of registered queues.
func (r *Registry) Len() int {
	return len(r.queues)
}
