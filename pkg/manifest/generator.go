package manifest

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tenantio/tenantd/pkg/catalog"
	"github.com/tenantio/tenantd/pkg/types"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultStorageGB is requested when a tenant has no quota configured
	DefaultStorageGB = 10

	// MaxStorageGB caps the PVC regardless of the tenant's quota
	MaxStorageGB = 500

	docSeparator = "---\n"
)

// Doc is one rendered manifest document. Object holds the typed shape for
// freshly rendered docs, or a generic map for docs re-parsed from a stored
// snapshot; both marshal to the same wire body.
type Doc struct {
	Key       string // logical key, e.g. "namespace" or "acme-dashboard-deployment"
	Kind      string
	Name      string
	Namespace string
	Object    any
}

// YAML renders the document body
func (d Doc) YAML() (string, error) {
	out, err := yaml.Marshal(d.Object)
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s %s: %w", d.Kind, d.Name, err)
	}
	return string(out), nil
}

// JSON renders the document body for the cluster API
func (d Doc) JSON() ([]byte, error) {
	out, err := json.Marshal(d.Object)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s %s: %w", d.Kind, d.Name, err)
	}
	return out, nil
}

// Generator renders the manifest set for a tenant. It is a pure
// transformation of (tenant, port map) except for the secret values, which
// are generated fresh on every render.
type Generator struct {
	catalog *catalog.ServiceCatalog
}

// NewGenerator creates a generator backed by a service catalog
func NewGenerator(cat *catalog.ServiceCatalog) *Generator {
	return &Generator{catalog: cat}
}

// RenderAll produces the tenant's manifest documents in apply order:
// namespace, secrets, configmap, pvc, then a deployment and service per
// enabled service present in the port map. Resource names derive from the
// tenant slug so re-rendering yields the same names.
func (g *Generator) RenderAll(tenant *types.Tenant, ports map[types.ServiceType]int) ([]Doc, error) {
	docs := []Doc{
		g.renderNamespace(tenant),
		g.renderSecret(tenant),
		g.renderConfigMap(tenant),
		g.renderPVC(tenant),
	}

	for _, desc := range tenant.EnabledServices() {
		port, ok := ports[desc.ServiceType]
		if !ok {
			continue
		}
		tpl, err := g.catalog.Resolve(desc)
		if err != nil {
			return nil, err
		}
		docs = append(docs,
			g.renderDeployment(tenant, desc, tpl, ports),
			g.renderService(tenant, desc, tpl, port),
		)
	}

	return docs, nil
}

// RenderCombined renders all documents as one separator-joined YAML stream
// for audit storage and rollback.
func (g *Generator) RenderCombined(tenant *types.Tenant, ports map[types.ServiceType]int) (string, error) {
	docs, err := g.RenderAll(tenant, ports)
	if err != nil {
		return "", err
	}
	return Combine(docs)
}

// Combine joins rendered documents with the YAML document separator
func Combine(docs []Doc) (string, error) {
	var b strings.Builder
	for i, doc := range docs {
		body, err := doc.YAML()
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteString(docSeparator)
		}
		b.WriteString(body)
	}
	return b.String(), nil
}

func resourceName(tenant *types.Tenant, st types.ServiceType) string {
	return tenant.Slug + "-" + string(st)
}

func stackLabels(tenant *types.Tenant, app string) map[string]string {
	return map[string]string{
		"app":        app,
		"tenant":     tenant.Slug,
		"managed-by": "tenantd",
	}
}

func (g *Generator) renderNamespace(tenant *types.Tenant) Doc {
	ns := tenant.Namespace()
	return Doc{
		Key:  "namespace",
		Kind: "Namespace",
		Name: ns,
		Object: &Namespace{
			APIVersion: "v1",
			Kind:       "Namespace",
			Metadata: Metadata{
				Name:   ns,
				Labels: stackLabels(tenant, ns),
			},
		},
	}
}

func (g *Generator) renderSecret(tenant *types.Tenant) Doc {
	name := tenant.Slug + "-secrets"
	return Doc{
		Key:       "secrets",
		Kind:      "Secret",
		Name:      name,
		Namespace: tenant.Namespace(),
		Object: &Secret{
			APIVersion: "v1",
			Kind:       "Secret",
			Metadata: Metadata{
				Name:      name,
				Namespace: tenant.Namespace(),
				Labels:    stackLabels(tenant, name),
			},
			Type: "Opaque",
			StringData: map[string]string{
				"jwt-secret":     GenerateSecretValue(),
				"session-secret": GenerateSecretValue(),
			},
		},
	}
}

func (g *Generator) renderConfigMap(tenant *types.Tenant) Doc {
	name := tenant.Slug + "-config"

	branding, _ := json.Marshal(tenant.Branding)
	data := map[string]string{
		"tenant-id":     tenant.ID,
		"tenant-slug":   tenant.Slug,
		"tenant-name":   tenant.Name,
		"branding.json": string(branding),
	}

	return Doc{
		Key:       "configmap",
		Kind:      "ConfigMap",
		Name:      name,
		Namespace: tenant.Namespace(),
		Object: &ConfigMap{
			APIVersion: "v1",
			Kind:       "ConfigMap",
			Metadata: Metadata{
				Name:      name,
				Namespace: tenant.Namespace(),
				Labels:    stackLabels(tenant, name),
			},
			Data: data,
		},
	}
}

func (g *Generator) renderPVC(tenant *types.Tenant) Doc {
	name := tenant.Slug + "-storage"

	sizeGB := tenant.StorageQuotaGB
	if sizeGB <= 0 {
		sizeGB = DefaultStorageGB
	}
	if sizeGB > MaxStorageGB {
		sizeGB = MaxStorageGB
	}

	return Doc{
		Key:       "pvc",
		Kind:      "PersistentVolumeClaim",
		Name:      name,
		Namespace: tenant.Namespace(),
		Object: &PersistentVolumeClaim{
			APIVersion: "v1",
			Kind:       "PersistentVolumeClaim",
			Metadata: Metadata{
				Name:      name,
				Namespace: tenant.Namespace(),
				Labels:    stackLabels(tenant, name),
			},
			Spec: PVCSpec{
				AccessModes: []string{"ReadWriteOnce"},
				Resources: PVCResources{
					Requests: map[string]string{
						"storage": fmt.Sprintf("%dGi", sizeGB),
					},
				},
			},
		},
	}
}

func (g *Generator) renderDeployment(tenant *types.Tenant, desc *types.ServiceDescriptor, tpl catalog.ServiceTemplate, ports map[types.ServiceType]int) Doc {
	name := resourceName(tenant, desc.ServiceType)
	labels := stackLabels(tenant, name)

	env := []EnvVar{
		{Name: "TENANT_SLUG", Value: tenant.Slug},
		{Name: "SERVICE_NAME", Value: string(desc.ServiceType)},
		{
			Name: "JWT_SECRET",
			ValueFrom: &EnvVarSource{SecretKeyRef: &SecretKeySelector{
				Name: tenant.Slug + "-secrets",
				Key:  "jwt-secret",
			}},
		},
		{
			Name: "SESSION_SECRET",
			ValueFrom: &EnvVarSource{SecretKeyRef: &SecretKeySelector{
				Name: tenant.Slug + "-secrets",
				Key:  "session-secret",
			}},
		},
	}

	// Cross-service port references, sorted so renders are deterministic
	var peers []types.ServiceType
	for st := range ports {
		peers = append(peers, st)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	for _, st := range peers {
		env = append(env, EnvVar{
			Name:  strings.ToUpper(string(st)) + "_NODE_PORT",
			Value: strconv.Itoa(ports[st]),
		})
	}

	probe := &Probe{
		HTTPGet:             HTTPGetAction{Path: tpl.ProbePath, Port: tpl.InternalPort},
		InitialDelaySeconds: 10,
		PeriodSeconds:       15,
	}

	return Doc{
		Key:       name + "-deployment",
		Kind:      "Deployment",
		Name:      name,
		Namespace: tenant.Namespace(),
		Object: &Deployment{
			APIVersion: "apps/v1",
			Kind:       "Deployment",
			Metadata: Metadata{
				Name:      name,
				Namespace: tenant.Namespace(),
				Labels:    labels,
			},
			Spec: DeploymentSpec{
				Replicas: tpl.Replicas,
				Selector: Selector{MatchLabels: map[string]string{"app": name}},
				Template: PodTemplate{
					Metadata: Metadata{Labels: labels},
					Spec: PodSpec{
						Containers: []Container{
							{
								Name:  string(desc.ServiceType),
								Image: tpl.Image(),
								Ports: []ContainerPort{{ContainerPort: tpl.InternalPort}},
								Env:   env,
								Resources: ResourceRequirements{
									Requests: map[string]string{
										"cpu":    tpl.CPURequest,
										"memory": tpl.MemoryRequest,
									},
									Limits: map[string]string{
										"cpu":    tpl.CPULimit,
										"memory": tpl.MemoryLimit,
									},
								},
								LivenessProbe:  probe,
								ReadinessProbe: probe,
							},
						},
					},
				},
			},
		},
	}
}

func (g *Generator) renderService(tenant *types.Tenant, desc *types.ServiceDescriptor, tpl catalog.ServiceTemplate, nodePort int) Doc {
	name := resourceName(tenant, desc.ServiceType)
	return Doc{
		Key:       name + "-service",
		Kind:      "Service",
		Name:      name,
		Namespace: tenant.Namespace(),
		Object: &Service{
			APIVersion: "v1",
			Kind:       "Service",
			Metadata: Metadata{
				Name:      name,
				Namespace: tenant.Namespace(),
				Labels:    stackLabels(tenant, name),
			},
			Spec: ServiceSpec{
				Type:     "NodePort",
				Selector: map[string]string{"app": name},
				Ports: []ServicePort{
					{
						Name:       "http",
						Port:       tpl.InternalPort,
						TargetPort: tpl.InternalPort,
						NodePort:   nodePort,
					},
				},
			},
		},
	}
}

// NodePortOf extracts the desired NodePort from a Service document,
// handling both typed objects and re-parsed snapshots. Returns 0 when the
// document carries none.
func NodePortOf(doc Doc) int {
	switch obj := doc.Object.(type) {
	case *Service:
		if len(obj.Spec.Ports) > 0 {
			return obj.Spec.Ports[0].NodePort
		}
	case map[string]any:
		spec, _ := obj["spec"].(map[string]any)
		ports, _ := spec["ports"].([]any)
		if len(ports) > 0 {
			if p, ok := ports[0].(map[string]any); ok {
				switch v := p["nodePort"].(type) {
				case int:
					return v
				case float64:
					return int(v)
				}
			}
		}
	}
	return 0
}
