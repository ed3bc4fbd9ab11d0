// Package health aggregates component checks into one readiness report.
package health

import "context"

// Status is the aggregated health status.
type Status string

const (
	// Healthy indicates every checked component is operational.
	Healthy Status = "ok"
	// Degraded indicates an optional component (embedding provider, shared
	// cache) is failing while the store is up. Retrieval still works in a
	// reduced form: zero-vector degrade, cache misses.
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is unreachable; retrieval cannot
	// serve at all.
	Unhealthy Status = "error"
)

// CheckResult is an individual component check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing check.
	CheckError CheckResult = "error"
)

// Report aggregates component check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks across the store, the embedding
// provider, and the shared cache.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
	cache     CachePinger
}

// New creates a health service. embedding and cache may be nil; their checks
// are then omitted from the report.
func New(store StorePinger, embedding EmbeddingChecker, cache CachePinger) *Service {
	return &Service{store: store, embedding: embedding, cache: cache}
}

// Check pings every wired component. The store is the hard dependency: its
// failure makes the whole report unhealthy, optional component failures only
// degrade it.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.store.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks["cache"] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
