/*
Package types defines the core data structures used throughout tenantd.

This package contains all fundamental types that represent the tenant
provisioning domain model, including tenants, service descriptors, port
allocations, and deployment records. These types are used by all other
packages for state management, manifest generation, and orchestration logic.

# Architecture

The types package is the foundation of tenantd's data model. It defines:

  - Tenant identity and lifecycle flags (approval, suspension)
  - Service descriptors for the fixed per-tenant service set
  - Port allocation ownership rows
  - Deployment records and their state machine
  - Domain sentinel errors shared across packages

All types are designed to be:
  - Serializable (JSON for the bolt store, YAML where rendered)
  - Owned by a single writer (the orchestrator owns runtime fields)
  - Validated via enum constants rather than free-form strings

# Core Types

Tenant Lifecycle:
  - Tenant: An onboarded company with its own namespace and service set
  - DeploymentTarget: central_cloud, company_cloud, or self_hosted
  - ServiceDescriptor: One application service (image, ports, resources)
  - ServiceType: dashboard, login, storage, docs, mail, groups, admin

Port Management:
  - PortAllocation: Ownership row for one NodePort-range port

Deployment Tracking:
  - DeploymentRecord: Audit entity for one deployment attempt
  - DeploymentStatus: pending, in_progress, completed, failed
  - DeploymentType: deploy or rollback
  - ConfigSnapshot: Resolved namespace, port map, and service list

# Deployment State Machine

Records move through a monotonic state machine:

	pending ──▶ in_progress ──▶ completed
	                      └───▶ failed

A record never returns to pending once it leaves that state, and the
terminal states are final for that record. Any subsequent attempt for the
same tenant creates a new record; history is append-only.

# Ownership Rules

Tenant and ServiceDescriptor configuration fields are written by the
surrounding CRUD layer and are read-only to the orchestrator. The
orchestrator is the single writer for:

  - ServiceDescriptor runtime fields (IsDeployed, AssignedPort,
    LastDeployedAt), updated only on successful completion
  - PortAllocation rows
  - DeploymentRecord rows, each owned by exactly one attempt

# Usage

Deriving a tenant namespace:

	tenant := &types.Tenant{Slug: "acme"}
	ns := tenant.Namespace() // "tenant-acme"

Matching domain errors:

	_, err := deployer.Deploy(ctx, req)
	if errors.Is(err, types.ErrTenantNotEligible) {
		// reject before any record was created
	}

# See Also

  - pkg/storage for persistence of these types
  - pkg/ports for PortAllocation lifecycle
  - pkg/deploy for the DeploymentRecord state machine
*/
package types
