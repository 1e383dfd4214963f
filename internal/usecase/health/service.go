// Package health aggregates dependency checks for the ops endpoint and the
// operator CLI.
package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component failed; runs still persist data.
	Degraded Status = "degraded"
	// Unhealthy indicates the knowledge base store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as report keys.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentSource    = "source"
)

// DefaultCheckTimeout bounds each component check.
const DefaultCheckTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
	Errors map[string]string      `json:"errors,omitempty"`
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	source    SourceChecker
	timeout   time.Duration
}

// New creates a Service. embedding and source can be nil.
func New(db DBPinger, embedding EmbeddingChecker, source SourceChecker) *Service {
	return &Service{db: db, embedding: embedding, source: source, timeout: DefaultCheckTimeout}
}

// Check runs health checks against all configured components.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{Status: Healthy, Checks: map[string]CheckResult{}, Errors: map[string]string{}}

	if !s.run(ctx, &r, ComponentDatabase, s.db.Ping) {
		r.Status = Unhealthy
	}
	if s.embedding != nil && !s.run(ctx, &r, ComponentEmbedding, s.embedding.HealthCheck) && r.Status == Healthy {
		r.Status = Degraded
	}
	if s.source != nil && !s.run(ctx, &r, ComponentSource, s.source.HealthCheck) && r.Status == Healthy {
		r.Status = Degraded
	}
	return r
}

func (s *Service) run(ctx context.Context, r *Report, name string, check func(context.Context) error) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := check(ctx); err != nil {
		r.Checks[name] = CheckError
		r.Errors[name] = err.Error()
		return false
	}
	r.Checks[name] = CheckOK
	return true
}
