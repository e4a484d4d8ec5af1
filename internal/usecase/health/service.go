package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the store itself is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckMissing indicates the target collection has not been initialized.
	CheckMissing CheckResult = "missing"
)

// Check names.
const (
	CheckStore      = "store"
	CheckEmbedding  = "embedding"
	CheckCollection = "collection"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	store      StorePinger
	embedding  EmbeddingChecker
	collection CollectionChecker
	target     string
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// WithCollection adds a target collection existence check.
func (s *Service) WithCollection(c CollectionChecker, target string) *Service {
	s.collection = c
	s.target = target
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.store.Ping(ctx); err != nil {
		checks[CheckStore] = CheckError
		// Nothing else is meaningful without the store.
		return Report{Status: Unhealthy, Checks: checks}
	}
	checks[CheckStore] = CheckOK

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[CheckEmbedding] = CheckError
		} else {
			checks[CheckEmbedding] = CheckOK
		}
	}

	if s.collection != nil {
		ok, err := s.collection.Exists(ctx, s.target)
		switch {
		case err != nil:
			checks[CheckCollection] = CheckError
		case !ok:
			checks[CheckCollection] = CheckMissing
		default:
			checks[CheckCollection] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v != CheckOK {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}
