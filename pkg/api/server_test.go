package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tenantio/tenantd/pkg/catalog"
	"github.com/tenantio/tenantd/pkg/deploy"
	"github.com/tenantio/tenantd/pkg/manifest"
	"github.com/tenantio/tenantd/pkg/ports"
	"github.com/tenantio/tenantd/pkg/storage"
	"github.com/tenantio/tenantd/pkg/types"
)

// noopCluster satisfies the cluster client for read-only API tests
type noopCluster struct{}

func (noopCluster) Create(ctx context.Context, doc manifest.Doc) error { return nil }
func (noopCluster) Update(ctx context.Context, doc manifest.Doc) error { return nil }
func (noopCluster) Get(ctx context.Context, kind, namespace, name string) ([]byte, error) {
	return nil, nil
}
func (noopCluster) Delete(ctx context.Context, kind, namespace, name string) error { return nil }
func (noopCluster) DeleteNamespace(ctx context.Context, name string) error         { return nil }

func newTestDeployer(t *testing.T, store storage.Store) *deploy.Deployer {
	t.Helper()
	d, err := deploy.NewDeployer(&deploy.Config{
		Store:     store,
		Allocator: ports.NewAllocator(store, nil),
		Generator: manifest.NewGenerator(catalog.Default()),
		Cluster:   noopCluster{},
	})
	require.NoError(t, err)
	return d
}

func newTestServer(t *testing.T) (*Server, storage.Store) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewServer(store, newTestDeployer(t, store), ":0"), store
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doGet(t, s, "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doGet(t, s, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tenantd_")
}

func TestGetTenant(t *testing.T) {
	s, store := newTestServer(t)
	require.NoError(t, store.CreateTenant(&types.Tenant{
		ID:         "ten-1",
		Slug:       "acme",
		Name:       "Acme GmbH",
		IsApproved: true,
		CreatedAt:  time.Now(),
	}))

	rec := doGet(t, s, "/v1/tenants/ten-1")
	require.Equal(t, http.StatusOK, rec.Code)

	var tenant types.Tenant
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tenant))
	assert.Equal(t, "acme", tenant.Slug)

	rec = doGet(t, s, "/v1/tenants/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListTenants(t *testing.T) {
	s, store := newTestServer(t)

	rec := doGet(t, s, "/v1/tenants")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tenants []*types.Tenant `json:"tenants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Tenants)

	require.NoError(t, store.CreateTenant(&types.Tenant{ID: "ten-1", Slug: "acme"}))
	require.NoError(t, store.CreateTenant(&types.Tenant{ID: "ten-2", Slug: "globex"}))

	rec = doGet(t, s, "/v1/tenants")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Tenants, 2)
}

func TestGetDeploymentNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doGet(t, s, "/v1/deployments/dep-missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTenantHistory(t *testing.T) {
	s, store := newTestServer(t)

	require.NoError(t, store.CreateTenant(&types.Tenant{ID: "ten-1", Slug: "acme"}))
	base := time.Now()
	for i, id := range []string{"dep-a", "dep-b", "dep-c"} {
		require.NoError(t, store.CreateDeployment(&types.DeploymentRecord{
			ID:        id,
			TenantID:  "ten-1",
			Type:      types.DeploymentTypeDeploy,
			Status:    types.DeploymentCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec := doGet(t, s, "/v1/tenants/ten-1/deployments")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Page        int                       `json:"page"`
		PageSize    int                       `json:"page_size"`
		Deployments []*types.DeploymentRecord `json:"deployments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 20, body.PageSize)
	require.Len(t, body.Deployments, 3)
	assert.Equal(t, "dep-c", body.Deployments[0].ID)

	rec = doGet(t, s, "/v1/tenants/ten-1/deployments?page=2")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Empty(t, body.Deployments)

	rec = doGet(t, s, "/v1/tenants/ten-1/deployments?page=zero")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doGet(t, s, "/v1/tenants/missing/deployments")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
