package docstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
)

// MemStore is an in-memory Store for tests and local development.
type MemStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemStore creates an empty in-memory document store.
func NewMemStore() *MemStore {
	return &MemStore{docs: make(map[string][]byte)}
}

// Put stores the content under its sha256 reference.
func (m *MemStore) Put(ctx context.Context, content io.Reader, contentType string) (string, error) {
	data, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("docstore: read payload: %w", err)
	}

	sum := sha256.Sum256(data)
	ref := "sha256:" + hex.EncodeToString(sum[:])

	m.mu.Lock()
	m.docs[ref] = data
	m.mu.Unlock()

	return ref, nil
}

// Get retrieves a stored document by reference.
func (m *MemStore) Get(ctx context.Context, ref string) (io.ReadCloser, error) {
	m.mu.RLock()
	data, ok := m.docs[ref]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
