package types

import "errors"

// Domain errors surfaced by the orchestration subsystem. Callers match
// these with errors.Is; the orchestrator wraps them with context.
var (
	// ErrTenantNotFound is returned when a tenant id resolves to nothing
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNotEligible is returned when a tenant is unapproved or
	// suspended. Surfaced before any deployment record is created.
	ErrTenantNotEligible = errors.New("tenant not eligible for deployment")

	// ErrResourceExhausted is returned when no port is available in the
	// configured range. Fatal for the enclosing deployment attempt.
	ErrResourceExhausted = errors.New("no ports available in range")

	// ErrPortUnavailable is returned when a specific requested port is
	// reserved, out of range, or already held by another tenant.
	ErrPortUnavailable = errors.New("port unavailable")

	// ErrInvalidRollbackTarget is returned when a rollback references a
	// record that is not completed or has no stored manifest.
	ErrInvalidRollbackTarget = errors.New("invalid rollback target")

	// ErrRecordNotFound is returned when a deployment record id is unknown
	ErrRecordNotFound = errors.New("deployment record not found")
)
