package hitkit

import (
	"context"
	"sync"
)

// MemoryVisitorRegistry keeps visitor records in process memory. It backs
// dev mode and tests; records do not survive a restart.
type MemoryVisitorRegistry struct {
	mutex   sync.Mutex
	records map[string]string
}

// NewMemoryVisitorRegistry constructs an empty in-memory registry.
func NewMemoryVisitorRegistry() *MemoryVisitorRegistry {
	return &MemoryVisitorRegistry{records: make(map[string]string)}
}

// Save writes or replaces the record for the fingerprint.
func (registry *MemoryVisitorRegistry) Save(ctx context.Context, fingerprint string, canonicalDescriptor string) error {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	registry.records[fingerprint] = canonicalDescriptor
	return nil
}

// Lookup returns the stored canonical descriptor for the fingerprint.
func (registry *MemoryVisitorRegistry) Lookup(ctx context.Context, fingerprint string) (string, error) {
	registry.mutex.Lock()
	defer registry.mutex.Unlock()
	canonicalDescriptor, exists := registry.records[fingerprint]
	if !exists {
		return "", ErrVisitorNotFound
	}
	return canonicalDescriptor, nil
}
