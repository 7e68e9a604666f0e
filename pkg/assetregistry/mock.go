package assetregistry

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockRegistry is an in-memory Registry used in mock mode and in tests.
type MockRegistry struct {
	mu     sync.Mutex
	owners map[string]string // asset key -> owner
}

// NewMockRegistry creates an empty in-memory registry.
func NewMockRegistry() *MockRegistry {
	return &MockRegistry{owners: make(map[string]string)}
}

// MintAsset assigns an asset to an owner, for seeding test and demo state.
func (m *MockRegistry) MintAsset(contract string, tokenID int64, owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[assetKey(contract, tokenID)] = normalize(owner)
}

// Transfer moves the asset if from is its current owner.
func (m *MockRegistry) Transfer(_ context.Context, contract, from, to string, tokenID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := assetKey(contract, tokenID)
	owner, ok := m.owners[key]
	if !ok || owner != normalize(from) {
		return fmt.Errorf("%w: asset %s owned by %q, not %q", ErrNotOwner, key, owner, normalize(from))
	}
	m.owners[key] = normalize(to)
	return nil
}

// OwnerOf returns the current owner of the asset.
func (m *MockRegistry) OwnerOf(_ context.Context, contract string, tokenID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok := m.owners[assetKey(contract, tokenID)]
	if !ok {
		return "", fmt.Errorf("unknown asset %s", assetKey(contract, tokenID))
	}
	return owner, nil
}

func assetKey(contract string, tokenID int64) string {
	return fmt.Sprintf("%s/%d", normalize(contract), tokenID)
}

func normalize(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
