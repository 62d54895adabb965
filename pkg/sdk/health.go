package georecon

import (
	"context"
)

// HealthStatus represents the aggregated engine health.
type HealthStatus struct {
	Status     string            // "ok", "degraded", "error"
	Checks     map[string]string // component -> "ok"/"error"
	Generation string
	Entities   int
}

// Health checks the index and, in Redis mode, the record store.
func (e *Engine) Health(ctx context.Context) HealthStatus {
	report := e.health.Check(ctx)
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	return HealthStatus{
		Status:     string(report.Status),
		Checks:     checks,
		Generation: report.Generation,
		Entities:   report.Entities,
	}
}
