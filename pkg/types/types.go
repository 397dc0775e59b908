package types

import (
	"time"
)

// Tenant represents an onboarded company with its own namespace and service set
type Tenant struct {
	ID               string
	Slug             string
	Name             string
	DeploymentTarget DeploymentTarget
	IsApproved       bool
	IsSuspended      bool
	StorageQuotaGB   int
	Branding         map[string]string
	Services         []*ServiceDescriptor
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Namespace returns the Kubernetes namespace derived from the tenant slug.
// The derivation is fixed so re-rendering always targets the same namespace.
func (t *Tenant) Namespace() string {
	return "tenant-" + t.Slug
}

// EnabledServices returns the tenant's enabled service descriptors in order
func (t *Tenant) EnabledServices() []*ServiceDescriptor {
	var enabled []*ServiceDescriptor
	for _, svc := range t.Services {
		if svc.IsEnabled {
			enabled = append(enabled, svc)
		}
	}
	return enabled
}

// Service returns the descriptor for a service type, or nil if absent
func (t *Tenant) Service(st ServiceType) *ServiceDescriptor {
	for _, svc := range t.Services {
		if svc.ServiceType == st {
			return svc
		}
	}
	return nil
}

// DeploymentTarget defines where a tenant's stack runs
type DeploymentTarget string

const (
	TargetCentralCloud DeploymentTarget = "central_cloud"
	TargetCompanyCloud DeploymentTarget = "company_cloud"
	TargetSelfHosted   DeploymentTarget = "self_hosted"
)

// ServiceType identifies one of the fixed application services in a tenant stack
type ServiceType string

const (
	ServiceDashboard ServiceType = "dashboard"
	ServiceLogin     ServiceType = "login"
	ServiceStorage   ServiceType = "storage"
	ServiceDocs      ServiceType = "docs"
	ServiceMail      ServiceType = "mail"
	ServiceGroups    ServiceType = "groups"
	ServiceAdmin     ServiceType = "admin"
)

// AllServiceTypes lists every service type in stack order
var AllServiceTypes = []ServiceType{
	ServiceDashboard,
	ServiceLogin,
	ServiceStorage,
	ServiceDocs,
	ServiceMail,
	ServiceGroups,
	ServiceAdmin,
}

// ServiceDescriptor describes one application service a tenant has enabled.
// Configuration fields are owned by the tenant CRUD layer; the runtime fields
// are written only by the orchestrator on successful deployment.
type ServiceDescriptor struct {
	ServiceType     ServiceType
	ImageRepository string
	ImageTag        string
	InternalPort    int
	Replicas        int
	CPURequest      string
	CPULimit        string
	MemoryRequest   string
	MemoryLimit     string
	IsEnabled       bool

	// Runtime fields
	IsDeployed     bool
	AssignedPort   int
	LastDeployedAt time.Time
}

// PortAllocation tracks ownership of one NodePort-range port.
// Rows are kept after release for audit; the port key is globally unique.
type PortAllocation struct {
	Port        int
	TenantID    string
	ServiceType ServiceType
	Namespace   string
	IsAllocated bool
	AllocatedAt time.Time
	ReleasedAt  time.Time
}

// DeploymentStatus represents the state of a deployment attempt
type DeploymentStatus string

const (
	DeploymentPending    DeploymentStatus = "pending"
	DeploymentInProgress DeploymentStatus = "in_progress"
	DeploymentCompleted  DeploymentStatus = "completed"
	DeploymentFailed     DeploymentStatus = "failed"
)

// Terminal reports whether the status is final for its record
func (s DeploymentStatus) Terminal() bool {
	return s == DeploymentCompleted || s == DeploymentFailed
}

// DeploymentType distinguishes forward deployments from rollbacks
type DeploymentType string

const (
	DeploymentTypeDeploy   DeploymentType = "deploy"
	DeploymentTypeRollback DeploymentType = "rollback"
)

// ConfigSnapshot captures the resolved inputs of one deployment attempt.
// Persisted as soon as port allocation succeeds so a later failure never
// loses the assignments.
type ConfigSnapshot struct {
	Namespace string              `json:"namespace"`
	Ports     map[ServiceType]int `json:"ports"`
	Services  []ServiceType       `json:"services"`
}

// DeploymentRecord is the audit entity for one attempt to bring a tenant's
// manifests in line with the cluster. Records are append-only: a new attempt
// always creates a new record, and terminal records are never reopened.
type DeploymentRecord struct {
	ID                string
	TenantID          string
	Type              DeploymentType
	Status            DeploymentStatus
	ServicesDeployed  []ServiceType
	ConfigSnapshot    *ConfigSnapshot
	GeneratedManifest string
	Initiator         string
	StatusMessage     string
	Logs              []string
	RollbackFromID    string
	StartedAt         time.Time
	CompletedAt       time.Time
	DurationSeconds   float64
}
