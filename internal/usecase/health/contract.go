package health

import "context"

// Pinger checks availability of a backing store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks language model provider availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}
