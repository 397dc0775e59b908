package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantio/tenantd/pkg/types"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()
	store, err := NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTenantCRUD(t *testing.T) {
	store := newTestStore(t)

	tenant := &types.Tenant{
		ID:               "ten-1",
		Slug:             "acme",
		Name:             "Acme Corp",
		DeploymentTarget: types.TargetCentralCloud,
		IsApproved:       true,
		CreatedAt:        time.Now(),
	}
	require.NoError(t, store.CreateTenant(tenant))

	got, err := store.GetTenant("ten-1")
	require.NoError(t, err)
	assert.Equal(t, "acme", got.Slug)
	assert.True(t, got.IsApproved)

	bySlug, err := store.GetTenantBySlug("acme")
	require.NoError(t, err)
	assert.Equal(t, "ten-1", bySlug.ID)

	got.IsSuspended = true
	require.NoError(t, store.UpdateTenant(got))
	got, err = store.GetTenant("ten-1")
	require.NoError(t, err)
	assert.True(t, got.IsSuspended)

	_, err = store.GetTenant("missing")
	assert.ErrorIs(t, err, types.ErrTenantNotFound)

	require.NoError(t, store.DeleteTenant("ten-1"))
	_, err = store.GetTenant("ten-1")
	assert.ErrorIs(t, err, types.ErrTenantNotFound)
}

func TestAllocationRows(t *testing.T) {
	store := newTestStore(t)

	// Missing rows come back nil without an error
	alloc, err := store.GetAllocation(30100)
	require.NoError(t, err)
	assert.Nil(t, alloc)

	require.NoError(t, store.PutAllocation(&types.PortAllocation{
		Port:        30100,
		TenantID:    "ten-1",
		ServiceType: types.ServiceDashboard,
		Namespace:   "tenant-acme",
		IsAllocated: true,
		AllocatedAt: time.Now(),
	}))
	require.NoError(t, store.PutAllocation(&types.PortAllocation{
		Port:        30101,
		TenantID:    "ten-2",
		ServiceType: types.ServiceStorage,
		IsAllocated: false,
		ReleasedAt:  time.Now(),
	}))

	alloc, err = store.GetAllocation(30100)
	require.NoError(t, err)
	require.NotNil(t, alloc)
	assert.Equal(t, "ten-1", alloc.TenantID)

	active, err := store.ListActiveAllocations()
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 30100, active[0].Port)

	byTenant, err := store.ListAllocationsByTenant("ten-2")
	require.NoError(t, err)
	require.Len(t, byTenant, 1)
	assert.False(t, byTenant[0].IsAllocated)
}

func TestDeploymentHistoryPaging(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.CreateDeployment(&types.DeploymentRecord{
			ID:        string(rune('a'+i)) + "-dep",
			TenantID:  "ten-1",
			Status:    types.DeploymentCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	// Another tenant's record must not leak into the listing
	require.NoError(t, store.CreateDeployment(&types.DeploymentRecord{
		ID:        "other",
		TenantID:  "ten-2",
		StartedAt: base,
	}))

	page1, err := store.ListDeploymentsByTenant("ten-1", 1, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	assert.Equal(t, "e-dep", page1[0].ID) // newest first
	assert.Equal(t, "d-dep", page1[1].ID)

	page3, err := store.ListDeploymentsByTenant("ten-1", 3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "a-dep", page3[0].ID)

	empty, err := store.ListDeploymentsByTenant("ten-1", 4, 2)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestDeploymentRecordUpdate(t *testing.T) {
	store := newTestStore(t)

	record := &types.DeploymentRecord{
		ID:       "dep-1",
		TenantID: "ten-1",
		Status:   types.DeploymentPending,
	}
	require.NoError(t, store.CreateDeployment(record))

	record.Status = types.DeploymentCompleted
	record.StatusMessage = "deployed 2 services"
	require.NoError(t, store.UpdateDeployment(record))

	got, err := store.GetDeployment("dep-1")
	require.NoError(t, err)
	assert.Equal(t, types.DeploymentCompleted, got.Status)
	assert.Equal(t, "deployed 2 services", got.StatusMessage)

	_, err = store.GetDeployment("missing")
	assert.ErrorIs(t, err, types.ErrRecordNotFound)
}
