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
	// Degraded indicates an optional component failed; search falls back to keywords.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckDisabled indicates the component is not configured.
	CheckDisabled CheckResult = "disabled"
)

const checkTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db    Pinger
	cache Pinger
	model ModelChecker
}

// New creates a Service. cache and model can be nil.
func New(db Pinger, cache Pinger, model ModelChecker) *Service {
	return &Service{db: db, cache: cache, model: model}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := map[string]CheckResult{
		"database": run(ctx, s.db.Ping),
		"cache":    CheckDisabled,
		"model":    CheckDisabled,
	}

	if s.cache != nil {
		checks["cache"] = run(ctx, s.cache.Ping)
	}
	if s.model != nil {
		checks["model"] = run(ctx, s.model.HealthCheck)
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}
	if checks["database"] == CheckError {
		status = Unhealthy
	}

	return Report{Status: status, Checks: checks}
}

func run(ctx context.Context, check func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := check(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
