package storage

import (
	"github.com/tenantio/tenantd/pkg/types"
)

// Store defines the interface for tenant provisioning state storage
// This is implemented by BoltDB-backed storage
type Store interface {
	// Tenants
	CreateTenant(tenant *types.Tenant) error
	GetTenant(id string) (*types.Tenant, error)
	GetTenantBySlug(slug string) (*types.Tenant, error)
	ListTenants() ([]*types.Tenant, error)
	UpdateTenant(tenant *types.Tenant) error
	DeleteTenant(id string) error

	// Port allocations (keyed by port; rows survive release for audit)
	PutAllocation(alloc *types.PortAllocation) error
	GetAllocation(port int) (*types.PortAllocation, error)
	ListAllocations() ([]*types.PortAllocation, error)
	ListAllocationsByTenant(tenantID string) ([]*types.PortAllocation, error)
	ListActiveAllocations() ([]*types.PortAllocation, error)

	// Deployment history (append-only; records mutated only by their owner)
	CreateDeployment(record *types.DeploymentRecord) error
	GetDeployment(id string) (*types.DeploymentRecord, error)
	UpdateDeployment(record *types.DeploymentRecord) error
	ListDeploymentsByTenant(tenantID string, page, pageSize int) ([]*types.DeploymentRecord, error)

	// Utility
	Close() error
}
