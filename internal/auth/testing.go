package auth

import (
	"sync"

	"github.com/99designs/keyring"
)

// MockKeyringProvider is an in-memory KeyringProvider for tests.
type MockKeyringProvider struct {
	mu    sync.Mutex
	items map[string]keyring.Item
}

// NewMockKeyringProvider returns an empty in-memory keyring.
func NewMockKeyringProvider() *MockKeyringProvider {
	return &MockKeyringProvider{items: map[string]keyring.Item{}}
}

func (m *MockKeyringProvider) Get(key string) (keyring.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[key]
	if !ok {
		return keyring.Item{}, keyring.ErrKeyNotFound
	}
	return item, nil
}

func (m *MockKeyringProvider) Set(item keyring.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.Key] = item
	return nil
}

func (m *MockKeyringProvider) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; !ok {
		return keyring.ErrKeyNotFound
	}
	delete(m.items, key)
	return nil
}

// SetProviderFunc replaces the keyring opener and returns a restore func.
func SetProviderFunc(f func() (KeyringProvider, error)) (restore func()) {
	prev := defaultProvider
	defaultProvider = f
	return func() { defaultProvider = prev }
}
