package health

import "context"

// Pinger is a store that answers PING: the vector store and the cache.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Prober is a remote dependency with its own health endpoint, such as the embedding provider.
type Prober interface {
	HealthCheck(ctx context.Context) error
}
