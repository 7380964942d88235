package ports

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDuplicateChecker is returned when attempting to register a health checker
// with a name that is already registered.
var ErrDuplicateChecker = errors.New("duplicate health checker")

// DefaultCheckTimeout bounds a single health check when the registry has no
// timeout of its own.
const DefaultCheckTimeout = 2 * time.Second

// HealthChecker is implemented by components that can report their health.
// The database handle registers itself under the name "postgres" at startup.
type HealthChecker interface {
	// Name returns a unique identifier for this health check.
	Name() string

	// Check returns an error if the component is unhealthy. Implementations
	// must respect context cancellation.
	Check(ctx context.Context) error
}

// HealthRegistry aggregates health checks from multiple components.
type HealthRegistry interface {
	// Register adds a health checker to the registry.
	// Returns ErrDuplicateChecker if the name is taken.
	Register(checker HealthChecker) error

	// CheckAll runs all registered health checks concurrently.
	CheckAll(ctx context.Context) *HealthResult
}

// HealthStatus is the outcome of a check or of all checks together.
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthResult aggregates one CheckResult per registered checker. It is
// unhealthy as soon as any check is.
type HealthResult struct {
	Status    HealthStatus            `json:"status"`
	Checks    map[string]*CheckResult `json:"checks"`
	Timestamp time.Time               `json:"timestamp"`
}

type CheckResult struct {
	Status     HealthStatus `json:"status"`
	Message    string       `json:"message,omitempty"`
	DurationMS int64        `json:"durationMs"`
}

// DefaultHealthRegistry runs its checkers concurrently, each under its own
// timeout. It is safe for concurrent use.
type DefaultHealthRegistry struct {
	mu       sync.RWMutex
	checkers []HealthChecker
	timeout  time.Duration
}

// NewHealthRegistry creates a registry with DefaultCheckTimeout per check.
func NewHealthRegistry() *DefaultHealthRegistry {
	return NewHealthRegistryWithTimeout(DefaultCheckTimeout)
}

// NewHealthRegistryWithTimeout creates a registry with a per-check timeout.
// A non-positive timeout leaves checks bounded only by the caller's context.
func NewHealthRegistryWithTimeout(timeout time.Duration) *DefaultHealthRegistry {
	return &DefaultHealthRegistry{timeout: timeout}
}

func (r *DefaultHealthRegistry) Register(checker HealthChecker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := checker.Name()
	if slices.ContainsFunc(r.checkers, func(c HealthChecker) bool { return c.Name() == name }) {
		return fmt.Errorf("%w: %s", ErrDuplicateChecker, name)
	}

	r.checkers = append(r.checkers, checker)

	return nil
}

// CheckAll runs every check to completion; one failing check never stops
// the others.
func (r *DefaultHealthRegistry) CheckAll(ctx context.Context) *HealthResult {
	r.mu.RLock()
	checkers := slices.Clone(r.checkers)
	r.mu.RUnlock()

	results := make([]*CheckResult, len(checkers))

	var g errgroup.Group
	for i, checker := range checkers {
		g.Go(func() error {
			results[i] = r.run(ctx, checker)
			return nil
		})
	}

	_ = g.Wait()

	result := &HealthResult{
		Status:    HealthStatusHealthy,
		Checks:    make(map[string]*CheckResult, len(checkers)),
		Timestamp: time.Now(),
	}

	for i, checker := range checkers {
		result.Checks[checker.Name()] = results[i]

		if results[i].Status == HealthStatusUnhealthy {
			result.Status = HealthStatusUnhealthy
		}
	}

	return result
}

func (r *DefaultHealthRegistry) run(ctx context.Context, checker HealthChecker) *CheckResult {
	if r.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err := checker.Check(ctx)

	res := &CheckResult{
		Status:     HealthStatusHealthy,
		DurationMS: time.Since(start).Milliseconds(),
	}

	if err != nil {
		res.Status = HealthStatusUnhealthy
		res.Message = err.Error()
	}

	return res
}
