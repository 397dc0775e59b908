package manifest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantio/tenantd/pkg/catalog"
	"github.com/tenantio/tenantd/pkg/types"
)

func testTenant() *types.Tenant {
	return &types.Tenant{
		ID:               "ten-1",
		Slug:             "acme",
		Name:             "Acme Corp",
		DeploymentTarget: types.TargetCentralCloud,
		IsApproved:       true,
		StorageQuotaGB:   50,
		Branding:         map[string]string{"primaryColor": "#204080"},
		Services: []*types.ServiceDescriptor{
			{ServiceType: types.ServiceDashboard, IsEnabled: true},
			{ServiceType: types.ServiceStorage, IsEnabled: true},
			{ServiceType: types.ServiceMail, IsEnabled: false},
		},
	}
}

func testPorts() map[types.ServiceType]int {
	return map[types.ServiceType]int{
		types.ServiceDashboard: 30100,
		types.ServiceStorage:   30101,
	}
}

func TestRenderAllDocumentSet(t *testing.T) {
	gen := NewGenerator(catalog.Default())

	docs, err := gen.RenderAll(testTenant(), testPorts())
	require.NoError(t, err)
	require.Len(t, docs, 8) // 4 base + 2 per enabled service

	wantKeys := []string{
		"namespace", "secrets", "configmap", "pvc",
		"acme-dashboard-deployment", "acme-dashboard-service",
		"acme-storage-deployment", "acme-storage-service",
	}
	var gotKeys []string
	for _, d := range docs {
		gotKeys = append(gotKeys, d.Key)
	}
	assert.Equal(t, wantKeys, gotKeys)

	assert.Equal(t, "Namespace", docs[0].Kind)
	assert.Equal(t, "tenant-acme", docs[0].Name)
	assert.Empty(t, docs[0].Namespace, "namespace doc is cluster-scoped")
	for _, d := range docs[1:] {
		assert.Equal(t, "tenant-acme", d.Namespace)
	}
}

func TestRenderDisabledServiceExcluded(t *testing.T) {
	gen := NewGenerator(catalog.Default())

	docs, err := gen.RenderAll(testTenant(), testPorts())
	require.NoError(t, err)
	for _, d := range docs {
		assert.NotContains(t, d.Key, "mail")
	}
}

func TestRenderServiceNodePort(t *testing.T) {
	gen := NewGenerator(catalog.Default())

	docs, err := gen.RenderAll(testTenant(), testPorts())
	require.NoError(t, err)

	var svc *Service
	for _, d := range docs {
		if d.Key == "acme-dashboard-service" {
			svc = d.Object.(*Service)
		}
	}
	require.NotNil(t, svc)
	assert.Equal(t, "NodePort", svc.Spec.Type)
	require.Len(t, svc.Spec.Ports, 1)
	assert.Equal(t, 30100, svc.Spec.Ports[0].NodePort)
	assert.Equal(t, 3000, svc.Spec.Ports[0].TargetPort) // catalog default
}

func TestRenderDeploymentEnvCrossReferences(t *testing.T) {
	gen := NewGenerator(catalog.Default())

	docs, err := gen.RenderAll(testTenant(), testPorts())
	require.NoError(t, err)

	var dep *Deployment
	for _, d := range docs {
		if d.Key == "acme-storage-deployment" {
			dep = d.Object.(*Deployment)
		}
	}
	require.NotNil(t, dep)

	env := map[string]string{}
	for _, e := range dep.Spec.Template.Spec.Containers[0].Env {
		env[e.Name] = e.Value
	}
	assert.Equal(t, "30100", env["DASHBOARD_NODE_PORT"])
	assert.Equal(t, "30101", env["STORAGE_NODE_PORT"])
	assert.Equal(t, "acme", env["TENANT_SLUG"])
}

func TestRenderPVCQuotaCap(t *testing.T) {
	gen := NewGenerator(catalog.Default())

	tests := []struct {
		name    string
		quotaGB int
		want    string
	}{
		{"default when unset", 0, "10Gi"},
		{"quota honored", 50, "50Gi"},
		{"capped at maximum", 9000, "500Gi"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenant := testTenant()
			tenant.StorageQuotaGB = tt.quotaGB
			docs, err := gen.RenderAll(tenant, testPorts())
			require.NoError(t, err)

			pvc := docs[3].Object.(*PersistentVolumeClaim)
			assert.Equal(t, tt.want, pvc.Spec.Resources.Requests["storage"])
		})
	}
}

// Two renders with identical inputs must agree on everything except the
// freshly generated secret values.
func TestRenderDeterminism(t *testing.T) {
	gen := NewGenerator(catalog.Default())
	tenant := testTenant()
	ports := testPorts()

	first, err := gen.RenderAll(tenant, ports)
	require.NoError(t, err)
	second, err := gen.RenderAll(tenant, ports)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Key, second[i].Key)
		assert.Equal(t, first[i].Name, second[i].Name)
		assert.Equal(t, first[i].Kind, second[i].Kind)

		if first[i].Kind == "Secret" {
			continue
		}
		a, err := first[i].YAML()
		require.NoError(t, err)
		b, err := second[i].YAML()
		require.NoError(t, err)
		assert.Equal(t, a, b, "doc %s not deterministic", first[i].Key)
	}
}

func TestRenderCombinedSeparators(t *testing.T) {
	gen := NewGenerator(catalog.Default())

	combined, err := gen.RenderCombined(testTenant(), testPorts())
	require.NoError(t, err)
	assert.Equal(t, 7, strings.Count(combined, "---\n"), "8 docs need 7 separators")
	assert.True(t, strings.Contains(combined, "kind: Namespace"))
	assert.True(t, strings.Contains(combined, "nodePort: 30100"))
}

func TestGenerateSecretValue(t *testing.T) {
	a := GenerateSecretValue()
	b := GenerateSecretValue()
	assert.NotEqual(t, a, b)
	assert.GreaterOrEqual(t, len(a), 40) // 32 bytes base64url
}

func TestNodePortOf(t *testing.T) {
	gen := NewGenerator(catalog.Default())
	docs, err := gen.RenderAll(testTenant(), testPorts())
	require.NoError(t, err)

	for _, d := range docs {
		if d.Kind == "Service" && d.Name == "acme-dashboard" {
			assert.Equal(t, 30100, NodePortOf(d))
		}
		if d.Kind == "Deployment" {
			assert.Zero(t, NodePortOf(d))
		}
	}
}
