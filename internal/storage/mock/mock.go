// Package mock provides in-memory implementations of the storage interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/names-to-faces/internal/storage"
)

var (
	_ storage.Backend    = (*MockStore)(nil)
	_ storage.ImageStore = (*MockStore)(nil)
)

// MockStore is an in-memory slot, secret and image store.
type MockStore struct {
	mu      sync.RWMutex
	slots   map[string][]byte
	secrets map[string]string
	images  map[string][]byte

	// Error injection
	GetError         error
	PutError         error
	GetSecretError   error
	SetSecretError   error
	WriteImageError  error
	ReadImageError   error
	DeleteImageError error

	// Call counters
	PutCalls       int
	SetSecretCalls int
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		slots:   make(map[string][]byte),
		secrets: make(map[string]string),
		images:  make(map[string][]byte),
	}
}

// Close does nothing.
func (m *MockStore) Close() error {
	return nil
}

// Get returns a copy of the slot data. Like the database backends it fails
// once ctx is done.
func (m *MockStore) Get(ctx context.Context, slot string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.slots[slot]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Put stores a copy of data in the slot.
func (m *MockStore) Put(ctx context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PutCalls++
	if m.PutError != nil {
		return m.PutError
	}
	m.slots[slot] = append([]byte(nil), data...)
	return nil
}

// SetSlot seeds a slot directly, bypassing error injection.
func (m *MockStore) SetSlot(slot string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), data...)
}

// GetSecret returns a secret.
func (m *MockStore) GetSecret(ctx context.Context, name string) (string, error) {
	if m.GetSecretError != nil {
		return "", m.GetSecretError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.secrets[name]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// SetSecret stores a secret.
func (m *MockStore) SetSecret(ctx context.Context, name, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetSecretCalls++
	if m.SetSecretError != nil {
		return m.SetSecretError
	}
	m.secrets[name] = value
	return nil
}

// DeleteSecret removes a secret.
func (m *MockStore) DeleteSecret(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, name)
	return nil
}

// Secret returns a secret and whether it is set, bypassing error injection.
func (m *MockStore) Secret(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.secrets[name]
	return v, ok
}

// WriteImage stores an image.
func (m *MockStore) WriteImage(ctx context.Context, ref string, data []byte) error {
	if m.WriteImageError != nil {
		return m.WriteImageError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[ref] = append([]byte(nil), data...)
	return nil
}

// ReadImage returns an image.
func (m *MockStore) ReadImage(ctx context.Context, ref string) ([]byte, error) {
	if m.ReadImageError != nil {
		return nil, m.ReadImageError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.images[ref]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// DeleteImage removes an image.
func (m *MockStore) DeleteImage(ctx context.Context, ref string) error {
	if m.DeleteImageError != nil {
		return m.DeleteImageError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.images, ref)
	return nil
}

// ImageCount returns the number of stored images.
func (m *MockStore) ImageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.images)
}
