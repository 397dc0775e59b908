package ports

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tenantio/tenantd/pkg/storage"
	"github.com/tenantio/tenantd/pkg/types"
)

func newTestAllocator(t *testing.T, cfg *Config) (*Allocator, storage.Store) {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewAllocator(store, cfg), store
}

func TestAllocateBlockContiguous(t *testing.T) {
	alloc, _ := newTestAllocator(t, nil)

	services := []types.ServiceType{types.ServiceDashboard, types.ServiceStorage}
	assigned, err := alloc.AllocateBlock("ten-1", "tenant-acme", services)
	require.NoError(t, err)
	require.Len(t, assigned, 2)

	assert.Equal(t, DefaultRangeStart, assigned[types.ServiceDashboard])
	assert.Equal(t, DefaultRangeStart+1, assigned[types.ServiceStorage])
}

func TestAllocateBlockSkipsTakenRun(t *testing.T) {
	alloc, store := newTestAllocator(t, nil)

	// Poke a hole at the second port of the range
	_, err := alloc.AllocateSingle("other", "tenant-other", types.ServiceMail, intPtr(DefaultRangeStart+1))
	require.NoError(t, err)

	assigned, err := alloc.AllocateBlock("ten-1", "tenant-acme", []types.ServiceType{
		types.ServiceDashboard, types.ServiceLogin, types.ServiceStorage,
	})
	require.NoError(t, err)

	// The block must start past the hole and stay contiguous
	assert.Equal(t, DefaultRangeStart+2, assigned[types.ServiceDashboard])
	assert.Equal(t, DefaultRangeStart+3, assigned[types.ServiceLogin])
	assert.Equal(t, DefaultRangeStart+4, assigned[types.ServiceStorage])

	active, err := store.ListActiveAllocations()
	require.NoError(t, err)
	assert.Len(t, active, 4)
}

func TestAllocateBlockFallbackToScan(t *testing.T) {
	// Tiny range: 5 ports with a taken port in the middle leaves no
	// contiguous run of 3 but enough free ports overall.
	cfg := &Config{RangeStart: 31000, RangeEnd: 31004, ReservedPorts: map[int]bool{}}
	alloc, _ := newTestAllocator(t, cfg)

	_, err := alloc.AllocateSingle("other", "ns", types.ServiceMail, intPtr(31002))
	require.NoError(t, err)

	assigned, err := alloc.AllocateBlock("ten-1", "tenant-acme", []types.ServiceType{
		types.ServiceDashboard, types.ServiceLogin, types.ServiceStorage,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t,
		[]int{31000, 31001, 31003},
		[]int{assigned[types.ServiceDashboard], assigned[types.ServiceLogin], assigned[types.ServiceStorage]})
}

func TestAllocateSinglePreferred(t *testing.T) {
	alloc, _ := newTestAllocator(t, nil)

	port, err := alloc.AllocateSingle("ten-1", "tenant-acme", types.ServiceDocs, intPtr(30500))
	require.NoError(t, err)
	assert.Equal(t, 30500, port)

	// Preferred port now taken: next request falls back to the scan
	port2, err := alloc.AllocateSingle("ten-2", "tenant-beta", types.ServiceDocs, intPtr(30500))
	require.NoError(t, err)
	assert.Equal(t, DefaultRangeStart, port2)

	// Out-of-range preference is ignored
	port3, err := alloc.AllocateSingle("ten-3", "tenant-gamma", types.ServiceDocs, intPtr(99))
	require.NoError(t, err)
	assert.Equal(t, DefaultRangeStart+1, port3)
}

func TestReleaseAndReuse(t *testing.T) {
	alloc, store := newTestAllocator(t, nil)

	assigned, err := alloc.AllocateBlock("ten-1", "tenant-acme", []types.ServiceType{
		types.ServiceDashboard, types.ServiceStorage,
	})
	require.NoError(t, err)

	released, err := alloc.Release("ten-1")
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	// Rows survive release for audit
	row, err := store.GetAllocation(assigned[types.ServiceDashboard])
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.False(t, row.IsAllocated)
	assert.False(t, row.ReleasedAt.IsZero())

	// A different tenant can reuse the released port in place
	port, err := alloc.AllocateSingle("ten-2", "tenant-beta", types.ServiceLogin, nil)
	require.NoError(t, err)
	assert.Equal(t, assigned[types.ServiceDashboard], port)

	row, err = store.GetAllocation(port)
	require.NoError(t, err)
	assert.Equal(t, "ten-2", row.TenantID)
	assert.True(t, row.IsAllocated)
	assert.True(t, row.ReleasedAt.IsZero())

	// Releasing again is a no-op
	released, err = alloc.Release("ten-1")
	require.NoError(t, err)
	assert.Zero(t, released)
}

func TestIsAvailable(t *testing.T) {
	alloc, _ := newTestAllocator(t, nil)

	assert.False(t, alloc.IsAvailable(80), "out of range")
	assert.False(t, alloc.IsAvailable(32700), "reserved")
	assert.True(t, alloc.IsAvailable(DefaultRangeStart))

	_, err := alloc.AllocateSingle("ten-1", "ns", types.ServiceAdmin, intPtr(DefaultRangeStart))
	require.NoError(t, err)
	assert.False(t, alloc.IsAvailable(DefaultRangeStart))
}

func TestExhaustion(t *testing.T) {
	cfg := &Config{RangeStart: 31000, RangeEnd: 31001, ReservedPorts: map[int]bool{}}
	alloc, _ := newTestAllocator(t, cfg)

	_, err := alloc.AllocateBlock("ten-1", "ns", []types.ServiceType{
		types.ServiceDashboard, types.ServiceStorage,
	})
	require.NoError(t, err)

	_, err = alloc.AllocateSingle("ten-2", "ns2", types.ServiceLogin, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrResourceExhausted))

	_, err = alloc.AllocateBlock("ten-3", "ns3", []types.ServiceType{types.ServiceDocs})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrResourceExhausted))
}

func TestConcurrentAllocationUniqueness(t *testing.T) {
	alloc, store := newTestAllocator(t, nil)

	const tenants = 16
	var wg sync.WaitGroup
	errs := make([]error, tenants)
	for i := 0; i < tenants; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			tenantID := fmt.Sprintf("ten-%d", n)
			_, errs[n] = alloc.AllocateBlock(tenantID, "tenant-"+tenantID, []types.ServiceType{
				types.ServiceDashboard, types.ServiceStorage,
			})
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	active, err := store.ListActiveAllocations()
	require.NoError(t, err)
	require.Len(t, active, tenants*2)

	seen := make(map[int]string)
	for _, row := range active {
		if owner, dup := seen[row.Port]; dup {
			t.Fatalf("port %d allocated to both %s and %s", row.Port, owner, row.TenantID)
		}
		seen[row.Port] = row.TenantID
	}
}

func TestAllocateBlockReusesHeldPorts(t *testing.T) {
	alloc, store := newTestAllocator(t, nil)

	services := []types.ServiceType{types.ServiceDashboard, types.ServiceStorage}
	first, err := alloc.AllocateBlock("ten-1", "tenant-acme", services)
	require.NoError(t, err)

	// A second allocation for the same tenant keeps the same ports and adds
	// rows only for new services
	second, err := alloc.AllocateBlock("ten-1", "tenant-acme", append(services, types.ServiceMail))
	require.NoError(t, err)
	assert.Equal(t, first[types.ServiceDashboard], second[types.ServiceDashboard])
	assert.Equal(t, first[types.ServiceStorage], second[types.ServiceStorage])
	assert.NotZero(t, second[types.ServiceMail])

	active, err := store.ListActiveAllocations()
	require.NoError(t, err)
	assert.Len(t, active, 3)
}

func intPtr(n int) *int { return &n }
