// Package deploy drives tenant deployments from eligibility check to
// terminal record.
//
// # Lifecycle
//
// A deployment moves through pending, in_progress, and exactly one of
// completed or failed. The record is persisted at every transition, so a
// crash mid-apply leaves an in_progress record whose logs show the last
// document reached. Terminal records are never reopened; a retry is always
// a fresh record.
//
// # Apply semantics
//
// Manifests apply in dependency order: namespace first, then secrets,
// config, and storage, then one deployment and service per tenant service.
// Every document is created first and updated on conflict, which makes the
// whole sequence idempotent. The one exception is a Service whose NodePort
// drifted from the desired allocation; the cluster rejects NodePort
// mutations, so the Service is deleted and recreated instead.
//
// # Concurrency
//
// Deployments for the same tenant serialize on a per-tenant lock.
// Different tenants deploy in parallel; port uniqueness across tenants is
// the allocator's job, not this package's.
//
// # Rollback
//
// Rollback re-applies the manifest snapshot stored on a previous completed
// deployment, after decoding it back into discrete documents. The tenant's
// current configuration is not consulted; the snapshot is the source of
// truth for what the cluster should return to.
package deploy
