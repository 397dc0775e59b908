package deploy

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/tenantio/tenantd/pkg/cluster"
	"github.com/tenantio/tenantd/pkg/events"
	"github.com/tenantio/tenantd/pkg/log"
	"github.com/tenantio/tenantd/pkg/manifest"
	"github.com/tenantio/tenantd/pkg/metrics"
	"github.com/tenantio/tenantd/pkg/ports"
	"github.com/tenantio/tenantd/pkg/storage"
	"github.com/tenantio/tenantd/pkg/types"
)

// DefaultApplyTimeout bounds each individual cluster API call
const DefaultApplyTimeout = 30 * time.Second

// ProgressFunc receives real-time deployment progress. A nil function is
// a no-op, never an error.
type ProgressFunc func(deploymentID, message string, fields map[string]string)

// Config holds the collaborators a Deployer needs. Store, Allocator,
// Generator, and Cluster are required; the rest are optional.
type Config struct {
	Store        storage.Store
	Allocator    *ports.Allocator
	Generator    *manifest.Generator
	Cluster      cluster.Client
	Broker       *events.Broker
	Progress     ProgressFunc
	ApplyTimeout time.Duration
}

// Deployer drives tenant deployments end to end: eligibility, port
// allocation, manifest rendering, ordered idempotent apply, record
// bookkeeping, and rollback.
//
// Deployments for the same tenant are serialized through a per-tenant
// lock; the apply sequence is not transactional across manifest kinds, so
// concurrent writers to one namespace could interleave partial states.
// Different tenants deploy fully in parallel.
type Deployer struct {
	store        storage.Store
	allocator    *ports.Allocator
	generator    *manifest.Generator
	cluster      cluster.Client
	broker       *events.Broker
	progressFn   ProgressFunc
	applyTimeout time.Duration

	tenantLocks sync.Map // tenant ID -> *sync.Mutex
}

// NewDeployer creates a deployer from its collaborators
func NewDeployer(cfg *Config) (*Deployer, error) {
	if cfg.Store == nil || cfg.Allocator == nil || cfg.Generator == nil || cfg.Cluster == nil {
		return nil, fmt.Errorf("store, allocator, generator, and cluster client are required")
	}
	timeout := cfg.ApplyTimeout
	if timeout == 0 {
		timeout = DefaultApplyTimeout
	}
	return &Deployer{
		store:        cfg.Store,
		allocator:    cfg.Allocator,
		generator:    cfg.Generator,
		cluster:      cfg.Cluster,
		broker:       cfg.Broker,
		progressFn:   cfg.Progress,
		applyTimeout: timeout,
	}, nil
}

// lockTenant serializes work per tenant id
func (d *Deployer) lockTenant(tenantID string) func() {
	muIface, _ := d.tenantLocks.LoadOrStore(tenantID, &sync.Mutex{})
	mu := muIface.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// checkEligibility rejects tenants that may not be deployed
func checkEligibility(tenant *types.Tenant) error {
	if !tenant.IsApproved || tenant.IsSuspended {
		return fmt.Errorf("%w: %s (approved=%t suspended=%t)",
			types.ErrTenantNotEligible, tenant.Slug, tenant.IsApproved, tenant.IsSuspended)
	}
	return nil
}

// newDeploymentID generates a short random deployment token
func newDeploymentID() string {
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		panic("failed to generate deployment id: " + err.Error())
	}
	return "dep-" + hex.EncodeToString(bytes)
}

// Deploy provisions or refreshes a tenant's stack.
//
// serviceSet limits the deployment to specific services; nil deploys every
// enabled service. An ineligible tenant is rejected before any record or
// allocation exists. After the PENDING record is persisted every failure
// is captured on the record, which is returned alongside the error.
func (d *Deployer) Deploy(ctx context.Context, tenantID string, serviceSet []types.ServiceType, force bool, initiator string) (*types.DeploymentRecord, error) {
	tenant, err := d.store.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}
	if err := checkEligibility(tenant); err != nil {
		return nil, err
	}

	unlock := d.lockTenant(tenantID)
	defer unlock()

	// Reload and re-verify under the lock; a concurrent attempt may have
	// just finished, and approval or suspension may have changed while we
	// waited.
	tenant, err = d.store.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}
	if err := checkEligibility(tenant); err != nil {
		return nil, err
	}

	// An explicit service set must name enabled services only; a disabled
	// or unknown service would allocate a port and be recorded as deployed
	// while the generator renders nothing for it.
	for _, st := range serviceSet {
		desc := tenant.Service(st)
		if desc == nil || !desc.IsEnabled {
			return nil, fmt.Errorf("service %s is not enabled for tenant %s", st, tenant.Slug)
		}
	}

	if !force {
		for _, svc := range tenant.Services {
			if svc.IsDeployed {
				return nil, fmt.Errorf("tenant %s already has a deployment; use force to redeploy", tenant.Slug)
			}
		}
	}

	record := &types.DeploymentRecord{
		ID:        newDeploymentID(),
		TenantID:  tenantID,
		Type:      types.DeploymentTypeDeploy,
		Status:    types.DeploymentPending,
		Initiator: initiator,
		StartedAt: time.Now(),
	}
	if err := d.store.CreateDeployment(record); err != nil {
		return nil, fmt.Errorf("failed to persist deployment record: %w", err)
	}

	logger := log.WithDeployment(record.ID)
	logger.Info().
		Str("tenant_id", tenantID).
		Str("slug", tenant.Slug).
		Msg("deployment starting")
	d.publish(events.EventDeploymentStarted, record, "deployment starting")

	servicesToDeploy := serviceSet
	if len(servicesToDeploy) == 0 {
		for _, svc := range tenant.EnabledServices() {
			servicesToDeploy = append(servicesToDeploy, svc.ServiceType)
		}
	}
	if len(servicesToDeploy) == 0 {
		return record, d.fail(record, fmt.Errorf("tenant %s has no enabled services", tenant.Slug))
	}

	record.Status = types.DeploymentInProgress
	record.ServicesDeployed = servicesToDeploy
	if err := d.store.UpdateDeployment(record); err != nil {
		return record, d.fail(record, err)
	}

	// Allocate ports and persist the snapshot immediately; an allocator
	// success must never be lost to a later failure.
	portMap, err := d.allocator.AllocateBlock(tenantID, tenant.Namespace(), servicesToDeploy)
	if err != nil {
		return record, d.fail(record, err)
	}
	record.ConfigSnapshot = &types.ConfigSnapshot{
		Namespace: tenant.Namespace(),
		Ports:     portMap,
		Services:  servicesToDeploy,
	}
	if err := d.store.UpdateDeployment(record); err != nil {
		return record, d.fail(record, err)
	}
	d.progress(record, "allocated ports", map[string]string{"count": fmt.Sprintf("%d", len(portMap))})

	docs, err := d.generator.RenderAll(tenant, portMap)
	if err != nil {
		return record, d.fail(record, err)
	}
	combined, err := manifest.Combine(docs)
	if err != nil {
		return record, d.fail(record, err)
	}
	record.GeneratedManifest = combined
	if err := d.store.UpdateDeployment(record); err != nil {
		return record, d.fail(record, err)
	}
	d.progress(record, "rendered manifests", map[string]string{"documents": fmt.Sprintf("%d", len(docs))})

	// Self-hosted tenants receive manifests only; nothing touches the cluster
	if tenant.DeploymentTarget == types.TargetSelfHosted {
		d.complete(record, "manifests generated for self-hosted installation; cluster apply skipped")
		return record, nil
	}

	if err := d.applyDocs(ctx, record, docs); err != nil {
		return record, d.fail(record, err)
	}

	// Apply succeeded; stamp the runtime fields on each deployed service
	now := time.Now()
	firstDeploy := true
	for _, svc := range tenant.Services {
		if svc.IsDeployed {
			firstDeploy = false
		}
	}
	for _, st := range servicesToDeploy {
		if desc := tenant.Service(st); desc != nil {
			desc.IsDeployed = true
			desc.AssignedPort = portMap[st]
			desc.LastDeployedAt = now
		}
	}
	tenant.UpdatedAt = now
	if err := d.store.UpdateTenant(tenant); err != nil {
		return record, d.fail(record, fmt.Errorf("applied but failed to update tenant state: %w", err))
	}
	if firstDeploy {
		metrics.TenantsDeployed.Inc()
	}

	d.complete(record, fmt.Sprintf("deployed %d services to %s", len(servicesToDeploy), tenant.Namespace()))
	return record, nil
}

// DeleteTenantDeployment tears down a tenant's stack: the namespace (which
// cascades to everything in it), the port allocations, and the runtime
// fields on the service descriptors. Deleting an absent namespace is
// success, so teardown is idempotent.
func (d *Deployer) DeleteTenantDeployment(ctx context.Context, tenantID string) error {
	tenant, err := d.store.GetTenant(tenantID)
	if err != nil {
		return err
	}

	unlock := d.lockTenant(tenantID)
	defer unlock()

	logger := log.WithTenant(tenantID)

	callCtx, cancel := context.WithTimeout(ctx, d.applyTimeout)
	err = d.cluster.DeleteNamespace(callCtx, tenant.Namespace())
	cancel()
	if err != nil && !cluster.IsNotFound(err) {
		return fmt.Errorf("failed to delete namespace %s: %w", tenant.Namespace(), err)
	}

	released, err := d.allocator.Release(tenantID)
	if err != nil {
		return fmt.Errorf("failed to release ports: %w", err)
	}

	wasDeployed := false
	for _, svc := range tenant.Services {
		if svc.IsDeployed {
			wasDeployed = true
		}
		svc.IsDeployed = false
		svc.AssignedPort = 0
		svc.LastDeployedAt = time.Time{}
	}
	tenant.UpdatedAt = time.Now()
	if err := d.store.UpdateTenant(tenant); err != nil {
		return fmt.Errorf("failed to update tenant state: %w", err)
	}
	if wasDeployed {
		metrics.TenantsDeployed.Dec()
	}

	logger.Info().
		Str("namespace", tenant.Namespace()).
		Int("ports_released", released).
		Msg("tenant deployment removed")
	if d.broker != nil {
		d.broker.Publish(&events.Event{
			Type:     events.EventTenantRemoved,
			TenantID: tenantID,
			Message:  fmt.Sprintf("namespace %s removed, %d ports released", tenant.Namespace(), released),
		})
	}
	return nil
}

// Rollback re-applies the manifest snapshot of a previous completed
// deployment. The target must be COMPLETED with a stored manifest;
// anything else is rejected before any cluster call.
func (d *Deployer) Rollback(ctx context.Context, tenantID, targetDeploymentID, initiator string) (*types.DeploymentRecord, error) {
	target, err := d.store.GetDeployment(targetDeploymentID)
	if err != nil {
		return nil, err
	}
	if target.TenantID != tenantID {
		return nil, fmt.Errorf("%w: deployment %s does not belong to tenant %s",
			types.ErrInvalidRollbackTarget, targetDeploymentID, tenantID)
	}
	if target.Status != types.DeploymentCompleted {
		return nil, fmt.Errorf("%w: deployment %s has status %s",
			types.ErrInvalidRollbackTarget, targetDeploymentID, target.Status)
	}
	if target.GeneratedManifest == "" {
		return nil, fmt.Errorf("%w: deployment %s has no stored manifest",
			types.ErrInvalidRollbackTarget, targetDeploymentID)
	}

	docs, err := manifest.Parse(target.GeneratedManifest)
	if err != nil {
		return nil, fmt.Errorf("%w: stored manifest unreadable: %v",
			types.ErrInvalidRollbackTarget, err)
	}

	unlock := d.lockTenant(tenantID)
	defer unlock()

	record := &types.DeploymentRecord{
		ID:                newDeploymentID(),
		TenantID:          tenantID,
		Type:              types.DeploymentTypeRollback,
		Status:            types.DeploymentInProgress,
		ServicesDeployed:  target.ServicesDeployed,
		ConfigSnapshot:    target.ConfigSnapshot,
		GeneratedManifest: target.GeneratedManifest,
		Initiator:         initiator,
		RollbackFromID:    targetDeploymentID,
		StartedAt:         time.Now(),
	}
	if err := d.store.CreateDeployment(record); err != nil {
		return nil, fmt.Errorf("failed to persist rollback record: %w", err)
	}

	logger := log.WithDeployment(record.ID)
	logger.Info().
		Str("tenant_id", tenantID).
		Str("target", targetDeploymentID).
		Msg("rollback starting")
	d.publish(events.EventRollbackStarted, record, "rollback to "+targetDeploymentID)

	if err := d.applyDocs(ctx, record, docs); err != nil {
		return record, d.fail(record, err)
	}

	d.complete(record, fmt.Sprintf("rolled back to deployment %s", targetDeploymentID))
	return record, nil
}

// GetDeploymentStatus returns the record for a deployment id
func (d *Deployer) GetDeploymentStatus(deploymentID string) (*types.DeploymentRecord, error) {
	return d.store.GetDeployment(deploymentID)
}

// HistoryPageSize is the number of records returned per history page
const HistoryPageSize = 20

// GetDeploymentHistory returns a page of a tenant's deployment records,
// newest first.
func (d *Deployer) GetDeploymentHistory(tenantID string, page int) ([]*types.DeploymentRecord, error) {
	return d.store.ListDeploymentsByTenant(tenantID, page, HistoryPageSize)
}

// complete marks a record COMPLETED and persists the final bookkeeping
func (d *Deployer) complete(record *types.DeploymentRecord, message string) {
	record.Status = types.DeploymentCompleted
	record.StatusMessage = message
	record.CompletedAt = time.Now()
	record.DurationSeconds = record.CompletedAt.Sub(record.StartedAt).Seconds()
	logger := log.WithDeployment(record.ID)
	if err := d.store.UpdateDeployment(record); err != nil {
		logger.Error().Err(err).Msg("failed to persist completed record")
	}

	metrics.DeploymentsTotal.WithLabelValues(string(record.Type), string(record.Status)).Inc()
	metrics.DeploymentDuration.WithLabelValues(string(record.Type)).Observe(record.DurationSeconds)
	d.publish(events.EventDeploymentCompleted, record, message)
	logger.Info().
		Float64("duration_seconds", record.DurationSeconds).
		Msg(message)
}

// fail marks a record FAILED, stores the error text, and returns the error
// for the caller. No automatic retry happens here.
func (d *Deployer) fail(record *types.DeploymentRecord, cause error) error {
	record.Status = types.DeploymentFailed
	record.StatusMessage = cause.Error()
	record.Logs = append(record.Logs, cause.Error())
	record.CompletedAt = time.Now()
	record.DurationSeconds = record.CompletedAt.Sub(record.StartedAt).Seconds()
	logger := log.WithDeployment(record.ID)
	if err := d.store.UpdateDeployment(record); err != nil {
		logger.Error().Err(err).Msg("failed to persist failed record")
	}

	metrics.DeploymentsTotal.WithLabelValues(string(record.Type), string(record.Status)).Inc()
	d.publish(events.EventDeploymentFailed, record, cause.Error())
	logger.Error().Err(cause).Msg("deployment failed")
	return cause
}

// progress records a progress line and notifies the optional subscriber
func (d *Deployer) progress(record *types.DeploymentRecord, message string, fields map[string]string) {
	record.Logs = append(record.Logs, message)
	if d.progressFn != nil {
		d.progressFn(record.ID, message, fields)
	}
	d.publish(events.EventDeploymentProgress, record, message)
}

func (d *Deployer) publish(eventType events.EventType, record *types.DeploymentRecord, message string) {
	if d.broker == nil {
		return
	}
	d.broker.Publish(&events.Event{
		Type:         eventType,
		TenantID:     record.TenantID,
		DeploymentID: record.ID,
		Message:      message,
	})
}
