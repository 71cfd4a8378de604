// Package health provides readiness checks for the feed service's dependencies.
package health

import (
	"context"
	"database/sql"
	"fmt"

	gobreaker "github.com/sony/gobreaker/v2"
)

// Checker is implemented by every dependency probe.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// DBChecker pings a SQL database.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker returns a checker for db.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// BreakerState is satisfied by circuit-breaker wrapped stores.
type BreakerState interface {
	State() gobreaker.State
}

// BreakerChecker reports unhealthy while a circuit breaker is open, so the
// instance is taken out of rotation until the half-open probe succeeds.
type BreakerChecker struct {
	breaker BreakerState
}

// NewBreakerChecker returns a checker for b.
func NewBreakerChecker(b BreakerState) *BreakerChecker {
	return &BreakerChecker{breaker: b}
}

// HealthCheck fails only in the open state.
func (c *BreakerChecker) HealthCheck(context.Context) error {
	if state := c.breaker.State(); state == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker is %s", state)
	}
	return nil
}
