package ports

import "context"

// HealthChecker checks one collaborator (database, redis) for readiness.
// Check returns nil while the collaborator is reachable.
type HealthChecker interface {
	Name() string
	Check(ctx context.Context) error
}
