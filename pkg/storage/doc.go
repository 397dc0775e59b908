/*
Package storage provides persistent state storage for tenantd using BoltDB.

The storage package implements tenantd's persistence layer with an embedded
key-value store, holding tenant configuration, port allocation ownership,
and the append-only deployment history.

# Architecture

State is organized into three BoltDB buckets:

	┌──────────── tenantd.db ─────────────┐
	│                                      │
	│  tenants                             │
	│    key: tenant ID                    │
	│    val: JSON Tenant                  │
	│                                      │
	│  port_allocations                    │
	│    key: zero-padded port number      │
	│    val: JSON PortAllocation          │
	│                                      │
	│  deployment_history                  │
	│    key: deployment ID                │
	│    val: JSON DeploymentRecord        │
	│                                      │
	└──────────────────────────────────────┘

All values are JSON-serialized domain types from pkg/types. BoltDB provides
single-writer serialized transactions, which the port allocator relies on
for its pick-and-persist atomicity.

# Key Design Decisions

Port allocations are keyed by port number with a fixed-width encoding so a
cursor walks the NodePort range in numeric order. Rows are never deleted on
release; release flips IsAllocated and stamps ReleasedAt, keeping the full
ownership history for audit.

Deployment history is append-only. Records are created at deploy start and
mutated in place only by the single attempt that owns them; nothing deletes
them. Listing by tenant sorts newest first and paginates.

# Usage

Creating a store:

	store, err := storage.NewBoltStore("/var/lib/tenantd")
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

Recording a deployment:

	record := &types.DeploymentRecord{
		ID:       deploymentID,
		TenantID: tenant.ID,
		Status:   types.DeploymentPending,
	}
	if err := store.CreateDeployment(record); err != nil {
		return err
	}

# Consistency Model

  - Single process, single BoltDB file
  - Writes are serialized by BoltDB's single-writer lock
  - Reads run in snapshot-isolated View transactions
  - Upsert semantics: Update* is the same operation as Create*

# See Also

  - pkg/types for the stored entity definitions
  - pkg/ports for the allocation lifecycle on top of this store
  - pkg/deploy for deployment record ownership rules
*/
package storage
