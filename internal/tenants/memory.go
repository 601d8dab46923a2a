package tenants

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and the memory storage
// driver.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]Tenant
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]Tenant)}
}

func (s *MemoryStore) UpsertTenant(_ context.Context, tenant Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants[tenant.ClientKey] = tenant
	return nil
}

func (s *MemoryStore) GetTenant(_ context.Context, clientKey string) (Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tenant, ok := s.tenants[clientKey]
	if !ok {
		return Tenant{}, ErrTenantNotFound
	}
	return tenant, nil
}

func (s *MemoryStore) DeleteTenant(_ context.Context, clientKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tenants[clientKey]; !ok {
		return ErrTenantNotFound
	}
	delete(s.tenants, clientKey)
	return nil
}

var _ Store = (*MemoryStore)(nil)
