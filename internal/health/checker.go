// Package health runs periodic readiness checks of the document store and
// the quest catalog, with optional recovery hooks.
package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/domain"
	"github.com/questforge/questforge/internal/infra/metrics"
)

// DefaultInterval is the pause between check rounds.
const DefaultInterval = 30 * time.Second

// checkTimeout bounds a single check so a hung backend cannot stall the loop.
const checkTimeout = 5 * time.Second

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Pinger is the part of a DocumentStore the checker needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Checker runs periodic health checks.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	logger   *zap.Logger
}

// NewChecker creates a checker with the store and catalog checks.
func NewChecker(store Pinger, catalog domain.QuestCatalog, logger *zap.Logger) *Checker {
	return New(DefaultInterval, logger,
		Check{
			Name:    "store",
			CheckFn: store.Ping,
		},
		Check{
			Name: "catalog",
			CheckFn: func(ctx context.Context) error {
				return checkCatalog(ctx, catalog)
			},
		},
	)
}

// New creates a checker from arbitrary checks. A non-positive interval
// means DefaultInterval.
func New(interval time.Duration, logger *zap.Logger, checks ...Check) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		checks:   checks,
		interval: interval,
		logger:   logger.Named("health"),
	}
}

// Run starts the health check loop and blocks until ctx is done.
func (c *Checker) Run(ctx context.Context) {
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce executes every check once and publishes the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := runCheck(ctx, check.CheckFn); err != nil {
			s.Error = err.Error()
			c.logger.Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
			if check.RecoverFn != nil {
				if rerr := check.RecoverFn(ctx); rerr != nil {
					c.logger.Warn("recovery failed", zap.String("check", check.Name), zap.Error(rerr))
				}
			}
		} else {
			s.Healthy = true
		}
		gauge := 0.0
		if s.Healthy {
			gauge = 1
		}
		metrics.HealthCheckStatus.WithLabelValues(check.Name).Set(gauge)
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

func runCheck(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("no check function")
	}
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	return fn(ctx)
}

func checkCatalog(ctx context.Context, catalog domain.QuestCatalog) error {
	quests, err := catalog.ListQuests(ctx, domain.QuestFilter{FreeOnly: true})
	if err != nil {
		return fmt.Errorf("list quests: %w", err)
	}
	if len(quests) == 0 {
		return domain.ErrEmptyCatalog
	}
	return nil
}
