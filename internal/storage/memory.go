package storage

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// MemoryStorage is an in-process Storage used by tests and local
// development. Safe for concurrent use.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailWrites makes every Save return an error, for exercising the
	// compensating-delete path.
	FailWrites bool
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		blobs: make(map[string][]byte),
	}
}

func (m *MemoryStorage) Save(key string, data io.Reader) (int64, error) {
	if m.FailWrites {
		return 0, fmt.Errorf("memory storage: writes disabled")
	}

	buf, err := io.ReadAll(data)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	m.blobs[key] = buf
	m.mu.Unlock()

	return int64(len(buf)), nil
}

func (m *MemoryStorage) Open(key string) (io.ReadCloser, error) {
	m.mu.RLock()
	buf, ok := m.blobs[key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("memory storage: no blob for key %q", key)
	}

	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (m *MemoryStorage) Delete(key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

// Has reports whether a blob exists, for test assertions.
func (m *MemoryStorage) Has(key string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.blobs[key]
	return ok
}
