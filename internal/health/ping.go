package health

import "context"

// HealthPinger is an optional fast path for checkers. Components that can
// probe themselves cheaply implement it; HealthPing returns nil when healthy.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
