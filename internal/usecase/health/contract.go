package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// SourceChecker checks that the product source answers.
type SourceChecker interface {
	HealthCheck(ctx context.Context) error
}
