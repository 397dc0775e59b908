package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/tenantio/tenantd/pkg/types"
	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketTenants     = []byte("tenants")
	bucketAllocations = []byte("port_allocations")
	bucketDeployments = []byte("deployment_history")
)

// BoltStore implements Store interface using BoltDB
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a new BoltDB-backed store
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "tenantd.db")

	db, err := bolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Create buckets
	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			bucketTenants,
			bucketAllocations,
			bucketDeployments,
		}

		for _, bucket := range buckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})

	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Tenant operations
func (s *BoltStore) CreateTenant(tenant *types.Tenant) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		data, err := json.Marshal(tenant)
		if err != nil {
			return err
		}
		return b.Put([]byte(tenant.ID), data)
	})
}

func (s *BoltStore) GetTenant(id string) (*types.Tenant, error) {
	var tenant types.Tenant
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", types.ErrTenantNotFound, id)
		}
		return json.Unmarshal(data, &tenant)
	})
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *BoltStore) GetTenantBySlug(slug string) (*types.Tenant, error) {
	var found *types.Tenant
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		return b.ForEach(func(k, v []byte) error {
			var tenant types.Tenant
			if err := json.Unmarshal(v, &tenant); err != nil {
				return err
			}
			if tenant.Slug == slug {
				found = &tenant
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: slug %s", types.ErrTenantNotFound, slug)
	}
	return found, nil
}

func (s *BoltStore) ListTenants() ([]*types.Tenant, error) {
	var tenants []*types.Tenant
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		return b.ForEach(func(k, v []byte) error {
			var tenant types.Tenant
			if err := json.Unmarshal(v, &tenant); err != nil {
				return err
			}
			tenants = append(tenants, &tenant)
			return nil
		})
	})
	return tenants, err
}

func (s *BoltStore) UpdateTenant(tenant *types.Tenant) error {
	return s.CreateTenant(tenant) // Same as create (upsert)
}

func (s *BoltStore) DeleteTenant(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketTenants)
		return b.Delete([]byte(id))
	})
}

// Port allocation operations
//
// Allocations are keyed by port number. The key encoding is fixed-width so
// cursor iteration walks the range in numeric order.
func allocationKey(port int) []byte {
	return []byte(fmt.Sprintf("%05d", port))
}

func (s *BoltStore) PutAllocation(alloc *types.PortAllocation) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAllocations)
		data, err := json.Marshal(alloc)
		if err != nil {
			return err
		}
		return b.Put(allocationKey(alloc.Port), data)
	})
}

func (s *BoltStore) GetAllocation(port int) (*types.PortAllocation, error) {
	var alloc *types.PortAllocation
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAllocations)
		data := b.Get(allocationKey(port))
		if data == nil {
			return nil // No row is not an error; caller checks nil
		}
		return json.Unmarshal(data, &alloc)
	})
	return alloc, err
}

func (s *BoltStore) ListAllocations() ([]*types.PortAllocation, error) {
	var allocs []*types.PortAllocation
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketAllocations)
		return b.ForEach(func(k, v []byte) error {
			var alloc types.PortAllocation
			if err := json.Unmarshal(v, &alloc); err != nil {
				return err
			}
			allocs = append(allocs, &alloc)
			return nil
		})
	})
	return allocs, err
}

func (s *BoltStore) ListAllocationsByTenant(tenantID string) ([]*types.PortAllocation, error) {
	allocs, err := s.ListAllocations()
	if err != nil {
		return nil, err
	}

	var filtered []*types.PortAllocation
	for _, alloc := range allocs {
		if alloc.TenantID == tenantID {
			filtered = append(filtered, alloc)
		}
	}
	return filtered, nil
}

func (s *BoltStore) ListActiveAllocations() ([]*types.PortAllocation, error) {
	allocs, err := s.ListAllocations()
	if err != nil {
		return nil, err
	}

	var filtered []*types.PortAllocation
	for _, alloc := range allocs {
		if alloc.IsAllocated {
			filtered = append(filtered, alloc)
		}
	}
	return filtered, nil
}

// Deployment history operations
func (s *BoltStore) CreateDeployment(record *types.DeploymentRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		return b.Put([]byte(record.ID), data)
	})
}

func (s *BoltStore) GetDeployment(id string) (*types.DeploymentRecord, error) {
	var record types.DeploymentRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		data := b.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", types.ErrRecordNotFound, id)
		}
		return json.Unmarshal(data, &record)
	})
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *BoltStore) UpdateDeployment(record *types.DeploymentRecord) error {
	return s.CreateDeployment(record)
}

// ListDeploymentsByTenant returns a tenant's deployment records newest first.
// Pages are 1-based; page 0 is treated as page 1.
func (s *BoltStore) ListDeploymentsByTenant(tenantID string, page, pageSize int) ([]*types.DeploymentRecord, error) {
	var records []*types.DeploymentRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketDeployments)
		return b.ForEach(func(k, v []byte) error {
			var record types.DeploymentRecord
			if err := json.Unmarshal(v, &record); err != nil {
				return err
			}
			if record.TenantID == tenantID {
				records = append(records, &record)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].StartedAt.After(records[j].StartedAt)
	})

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	start := (page - 1) * pageSize
	if start >= len(records) {
		return nil, nil
	}
	end := start + pageSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end], nil
}
