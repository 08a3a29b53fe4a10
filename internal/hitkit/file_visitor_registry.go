package hitkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FileVisitorRegistry stores one file per fingerprint whose entire content
// is the visitor's canonical descriptor string, no delimiters or framing.
type FileVisitorRegistry struct {
	directory string
}

// NewFileVisitorRegistry constructs a registry rooted at directory, creating
// the directory when it does not exist.
func NewFileVisitorRegistry(directory string) (*FileVisitorRegistry, error) {
	if mkdirErr := os.MkdirAll(directory, 0o755); mkdirErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, mkdirErr)
	}
	return &FileVisitorRegistry{directory: directory}, nil
}

// Save writes or replaces the record for the fingerprint.
func (registry *FileVisitorRegistry) Save(ctx context.Context, fingerprint string, canonicalDescriptor string) error {
	if writeErr := os.WriteFile(registry.recordPath(fingerprint), []byte(canonicalDescriptor), 0o644); writeErr != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, writeErr)
	}
	return nil
}

// Lookup returns the stored canonical descriptor for the fingerprint.
func (registry *FileVisitorRegistry) Lookup(ctx context.Context, fingerprint string) (string, error) {
	content, readErr := os.ReadFile(registry.recordPath(fingerprint))
	if readErr != nil {
		if os.IsNotExist(readErr) {
			return "", ErrVisitorNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, readErr)
	}
	return string(content), nil
}

func (registry *FileVisitorRegistry) recordPath(fingerprint string) string {
	return filepath.Join(registry.directory, fingerprint)
}
