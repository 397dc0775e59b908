package ports

import (
	"fmt"
	"sync"
	"time"

	"github.com/tenantio/tenantd/pkg/log"
	"github.com/tenantio/tenantd/pkg/metrics"
	"github.com/tenantio/tenantd/pkg/storage"
	"github.com/tenantio/tenantd/pkg/types"
)

const (
	// DefaultRangeStart is the first allocatable NodePort
	DefaultRangeStart = 30100

	// DefaultRangeEnd is the last allocatable NodePort
	DefaultRangeEnd = 32767
)

// DefaultReservedPorts are pinned to infrastructure-level services and are
// never handed out to tenants.
var DefaultReservedPorts = map[int]bool{
	32700: true, // ingress controller
	32701: true, // monitoring gateway
	32702: true, // registry mirror
}

// Config holds allocator configuration
type Config struct {
	RangeStart    int
	RangeEnd      int
	ReservedPorts map[int]bool
}

// Allocator hands out unique NodePort-range ports to (tenant, service)
// pairs backed by persisted allocation rows. All mutating operations hold
// an internal mutex so a chosen port is persisted before any other request
// can observe it.
type Allocator struct {
	store      storage.Store
	rangeStart int
	rangeEnd   int
	reserved   map[int]bool
	mu         sync.Mutex
}

// NewAllocator creates a port allocator over the given store
func NewAllocator(store storage.Store, cfg *Config) *Allocator {
	a := &Allocator{
		store:      store,
		rangeStart: DefaultRangeStart,
		rangeEnd:   DefaultRangeEnd,
		reserved:   DefaultReservedPorts,
	}
	if cfg != nil {
		if cfg.RangeStart > 0 {
			a.rangeStart = cfg.RangeStart
		}
		if cfg.RangeEnd > 0 {
			a.rangeEnd = cfg.RangeEnd
		}
		if cfg.ReservedPorts != nil {
			a.reserved = cfg.ReservedPorts
		}
	}
	return a
}

// AllocateBlock assigns one port per service, preferring a contiguous block
// starting from the bottom of the range so related service ports stay
// adjacent. If no contiguous block of the required size exists, each
// service falls back to an independent linear scan.
//
// A service the tenant already holds an active port for keeps that port,
// so redeploying is idempotent with respect to allocations.
func (a *Allocator) AllocateBlock(tenantID, namespace string, services []types.ServiceType) (map[types.ServiceType]int, error) {
	if len(services) == 0 {
		return map[types.ServiceType]int{}, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	logger := log.WithComponent("ports")

	held, err := a.heldPorts(tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}

	assigned := make(map[types.ServiceType]int, len(services))
	var missing []types.ServiceType
	for _, svc := range services {
		if port, ok := held[svc]; ok {
			assigned[svc] = port
		} else {
			missing = append(missing, svc)
		}
	}

	if len(missing) > 0 {
		block := a.findContiguousBlock(len(missing))
		if block != 0 {
			for i, svc := range missing {
				assigned[svc] = block + i
			}
		} else {
			// No contiguous run left; take whatever is free per service
			logger.Warn().Int("needed", len(missing)).Msg("no contiguous port block available, falling back to per-service scan")
			taken := make(map[int]bool)
			for _, svc := range missing {
				port, err := a.scanFree(taken)
				if err != nil {
					metrics.PortAllocationFailures.Inc()
					return nil, err
				}
				assigned[svc] = port
				taken[port] = true
			}
		}
	}

	for _, svc := range missing {
		if err := a.persistAllocation(assigned[svc], tenantID, namespace, svc); err != nil {
			return nil, fmt.Errorf("failed to persist allocation for %s: %w", svc, err)
		}
	}

	logger.Info().
		Str("tenant_id", tenantID).
		Int("count", len(assigned)).
		Int("reused", len(assigned)-len(missing)).
		Msg("allocated ports")
	metrics.PortsAllocated.Add(float64(len(missing)))
	return assigned, nil
}

// heldPorts returns the tenant's active allocations by service type.
// Callers hold a.mu.
func (a *Allocator) heldPorts(tenantID string) (map[types.ServiceType]int, error) {
	allocs, err := a.store.ListAllocationsByTenant(tenantID)
	if err != nil {
		return nil, err
	}
	held := make(map[types.ServiceType]int)
	for _, alloc := range allocs {
		if alloc.IsAllocated {
			held[alloc.ServiceType] = alloc.Port
		}
	}
	return held, nil
}

// AllocateSingle assigns one port to a (tenant, service) pair. A preferred
// port is honored when it is free and inside the range; otherwise the
// allocator falls back to a linear scan.
func (a *Allocator) AllocateSingle(tenantID, namespace string, service types.ServiceType, preferredPort *int) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var port int
	if preferredPort != nil && a.isFree(*preferredPort) {
		port = *preferredPort
	} else {
		var err error
		port, err = a.scanFree(nil)
		if err != nil {
			metrics.PortAllocationFailures.Inc()
			return 0, err
		}
	}

	if err := a.persistAllocation(port, tenantID, namespace, service); err != nil {
		return 0, fmt.Errorf("failed to persist allocation for %s: %w", service, err)
	}

	metrics.PortsAllocated.Inc()
	return port, nil
}

// Release marks every allocation row owned by the tenant as released and
// returns the number of ports released. Rows are kept for audit; released
// ports are immediately eligible for reuse.
func (a *Allocator) Release(tenantID string) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	allocs, err := a.store.ListAllocationsByTenant(tenantID)
	if err != nil {
		return 0, fmt.Errorf("failed to list allocations: %w", err)
	}

	released := 0
	for _, alloc := range allocs {
		if !alloc.IsAllocated {
			continue
		}
		alloc.IsAllocated = false
		alloc.ReleasedAt = time.Now()
		if err := a.store.PutAllocation(alloc); err != nil {
			return released, fmt.Errorf("failed to release port %d: %w", alloc.Port, err)
		}
		released++
	}

	if released > 0 {
		logger := log.WithComponent("ports")
		logger.Info().
			Str("tenant_id", tenantID).
			Int("count", released).
			Msg("released ports")
		metrics.PortsAllocated.Sub(float64(released))
	}
	return released, nil
}

// IsAvailable reports whether a port could be allocated right now
func (a *Allocator) IsAvailable(port int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.isFree(port)
}

// isFree checks range, reservation, and active rows. Callers hold a.mu.
func (a *Allocator) isFree(port int) bool {
	if port < a.rangeStart || port > a.rangeEnd {
		return false
	}
	if a.reserved[port] {
		return false
	}
	alloc, err := a.store.GetAllocation(port)
	if err != nil {
		// Treat a read failure as unavailable rather than double-allocating
		return false
	}
	return alloc == nil || !alloc.IsAllocated
}

// findContiguousBlock returns the first port of a free run of size n, or 0
// when no such run exists before the end of the range. When a candidate
// run hits a taken port the scan resumes just past the offender.
func (a *Allocator) findContiguousBlock(n int) int {
	start := a.rangeStart
	for start+n-1 <= a.rangeEnd {
		ok := true
		for i := 0; i < n; i++ {
			if !a.isFree(start + i) {
				start = start + i + 1
				ok = false
				break
			}
		}
		if ok {
			return start
		}
	}
	return 0
}

// scanFree returns the lowest free port, skipping ports in the skip set
func (a *Allocator) scanFree(skip map[int]bool) (int, error) {
	for port := a.rangeStart; port <= a.rangeEnd; port++ {
		if skip[port] {
			continue
		}
		if a.isFree(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("%w: %d-%d", types.ErrResourceExhausted, a.rangeStart, a.rangeEnd)
}

// persistAllocation reuses a released row when one exists for the port,
// otherwise inserts a new row.
func (a *Allocator) persistAllocation(port int, tenantID, namespace string, service types.ServiceType) error {
	alloc, err := a.store.GetAllocation(port)
	if err != nil {
		return err
	}
	if alloc == nil {
		alloc = &types.PortAllocation{Port: port}
	}
	alloc.TenantID = tenantID
	alloc.ServiceType = service
	alloc.Namespace = namespace
	alloc.IsAllocated = true
	alloc.AllocatedAt = time.Now()
	alloc.ReleasedAt = time.Time{}
	return a.store.PutAllocation(alloc)
}
