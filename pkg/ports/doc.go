/*
Package ports implements NodePort allocation for tenant services.

The allocator hands out unique integers from a bounded NodePort range to
(tenant, service) pairs and reclaims them on teardown. Every allocation is
persisted as a row in the store before the port is returned to a caller,
so assignments survive restarts and two concurrent requests can never hold
the same port.

# Allocation Strategy

	┌──────────── NodePort range 30100..32767 ──────────────┐
	│                                                        │
	│  1. Contiguous block scan                              │
	│     Find N consecutive free ports from the bottom of   │
	│     the range. A taken port inside a candidate block   │
	│     restarts the scan just past the offender.          │
	│                                                        │
	│  2. Per-service fallback                               │
	│     When no contiguous run of size N remains, each     │
	│     service takes the lowest free port independently.  │
	│                                                        │
	│  Reserved ports are never allocatable. Released rows   │
	│  are reused in place (ownership flipped), not deleted. │
	└────────────────────────────────────────────────────────┘

Contiguous blocks keep one tenant's service ports adjacent, which keeps
operator-facing port tables readable.

# Atomicity

All mutating operations run under the allocator's mutex, and each chosen
port is persisted through the store before the call returns. The scan is
O(range) per request, which is acceptable at a few thousand ports; a
free-list index would be the next step if allocation ever became hot.

# Failure Mode

When no port is free before the end of the range, allocation fails with
types.ErrResourceExhausted. The enclosing deployment attempt treats this
as fatal and does not retry.

# Usage

	alloc := ports.NewAllocator(store, nil)

	assigned, err := alloc.AllocateBlock(tenant.ID, tenant.Namespace(),
		[]types.ServiceType{types.ServiceDashboard, types.ServiceStorage})
	if err != nil {
		return err
	}

	// Teardown
	released, err := alloc.Release(tenant.ID)
*/
package ports
