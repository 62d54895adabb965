package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates nothing can be served.
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

// Check names.
const (
	CheckIndex    = "index"
	CheckDatabase = "database"
)

// Report aggregates health check results.
type Report struct {
	Status     Status
	Checks     map[string]CheckResult
	Generation string
	Entities   int
}

// Service coordinates health checks.
type Service struct {
	gens GenerationSource
	db   DBPinger
}

// New creates a Service. db can be nil when records are held in memory.
func New(gens GenerationSource, db DBPinger) *Service {
	return &Service{gens: gens, db: db}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var r Report

	if g := s.gens.Current(); g != nil {
		checks[CheckIndex] = CheckOK
		r.Generation = g.ID()
		r.Entities = g.Len()
	} else {
		checks[CheckIndex] = CheckError
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks[CheckDatabase] = CheckError
		} else {
			checks[CheckDatabase] = CheckOK
		}
	}

	r.Status = Healthy
	switch {
	case checks[CheckIndex] == CheckError:
		r.Status = Unhealthy
	case checks[CheckDatabase] == CheckError:
		r.Status = Degraded
	}
	r.Checks = checks
	return r
}
