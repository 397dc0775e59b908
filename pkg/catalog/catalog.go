package catalog

import (
	"fmt"

	"github.com/tenantio/tenantd/pkg/types"
)

// ServiceTemplate holds the default deployment parameters for one service
// type in the tenant stack.
type ServiceTemplate struct {
	ImageRepository string
	ImageTag        string
	InternalPort    int
	Replicas        int
	CPURequest      string
	CPULimit        string
	MemoryRequest   string
	MemoryLimit     string
	ProbePath       string
}

// ServiceCatalog is the single source of truth for per-service defaults.
// It is injected into the manifest generator; nothing else hardcodes
// images or ports.
type ServiceCatalog struct {
	templates map[types.ServiceType]ServiceTemplate
}

// Default returns the catalog for the standard tenant stack
func Default() *ServiceCatalog {
	return &ServiceCatalog{
		templates: map[types.ServiceType]ServiceTemplate{
			types.ServiceDashboard: {
				ImageRepository: "registry.tenantio.dev/stack/dashboard",
				ImageTag:        "stable",
				InternalPort:    3000,
				Replicas:        2,
				CPURequest:      "100m",
				CPULimit:        "500m",
				MemoryRequest:   "128Mi",
				MemoryLimit:     "512Mi",
				ProbePath:       "/healthz",
			},
			types.ServiceLogin: {
				ImageRepository: "registry.tenantio.dev/stack/login",
				ImageTag:        "stable",
				InternalPort:    4000,
				Replicas:        2,
				CPURequest:      "100m",
				CPULimit:        "250m",
				MemoryRequest:   "128Mi",
				MemoryLimit:     "256Mi",
				ProbePath:       "/healthz",
			},
			types.ServiceStorage: {
				ImageRepository: "registry.tenantio.dev/stack/storage",
				ImageTag:        "stable",
				InternalPort:    5000,
				Replicas:        1,
				CPURequest:      "250m",
				CPULimit:        "1",
				MemoryRequest:   "256Mi",
				MemoryLimit:     "1Gi",
				ProbePath:       "/healthz",
			},
			types.ServiceDocs: {
				ImageRepository: "registry.tenantio.dev/stack/docs",
				ImageTag:        "stable",
				InternalPort:    5500,
				Replicas:        1,
				CPURequest:      "100m",
				CPULimit:        "500m",
				MemoryRequest:   "256Mi",
				MemoryLimit:     "512Mi",
				ProbePath:       "/healthz",
			},
			types.ServiceMail: {
				ImageRepository: "registry.tenantio.dev/stack/mail",
				ImageTag:        "stable",
				InternalPort:    6000,
				Replicas:        1,
				CPURequest:      "100m",
				CPULimit:        "250m",
				MemoryRequest:   "128Mi",
				MemoryLimit:     "256Mi",
				ProbePath:       "/healthz",
			},
			types.ServiceGroups: {
				ImageRepository: "registry.tenantio.dev/stack/groups",
				ImageTag:        "stable",
				InternalPort:    7000,
				Replicas:        1,
				CPURequest:      "100m",
				CPULimit:        "250m",
				MemoryRequest:   "128Mi",
				MemoryLimit:     "256Mi",
				ProbePath:       "/healthz",
			},
			types.ServiceAdmin: {
				ImageRepository: "registry.tenantio.dev/stack/admin",
				ImageTag:        "stable",
				InternalPort:    8000,
				Replicas:        1,
				CPURequest:      "100m",
				CPULimit:        "250m",
				MemoryRequest:   "128Mi",
				MemoryLimit:     "256Mi",
				ProbePath:       "/healthz",
			},
		},
	}
}

// Template returns the default template for a service type
func (c *ServiceCatalog) Template(st types.ServiceType) (ServiceTemplate, error) {
	tpl, ok := c.templates[st]
	if !ok {
		return ServiceTemplate{}, fmt.Errorf("unknown service type: %s", st)
	}
	return tpl, nil
}

// Resolve merges a tenant's service descriptor over the catalog defaults.
// Empty or zero descriptor fields fall back to the template.
func (c *ServiceCatalog) Resolve(desc *types.ServiceDescriptor) (ServiceTemplate, error) {
	tpl, err := c.Template(desc.ServiceType)
	if err != nil {
		return ServiceTemplate{}, err
	}
	if desc.ImageRepository != "" {
		tpl.ImageRepository = desc.ImageRepository
	}
	if desc.ImageTag != "" {
		tpl.ImageTag = desc.ImageTag
	}
	if desc.InternalPort > 0 {
		tpl.InternalPort = desc.InternalPort
	}
	if desc.Replicas > 0 {
		tpl.Replicas = desc.Replicas
	}
	if desc.CPURequest != "" {
		tpl.CPURequest = desc.CPURequest
	}
	if desc.CPULimit != "" {
		tpl.CPULimit = desc.CPULimit
	}
	if desc.MemoryRequest != "" {
		tpl.MemoryRequest = desc.MemoryRequest
	}
	if desc.MemoryLimit != "" {
		tpl.MemoryLimit = desc.MemoryLimit
	}
	return tpl, nil
}

// Image returns the full image reference for a resolved template
func (t ServiceTemplate) Image() string {
	return t.ImageRepository + ":" + t.ImageTag
}
