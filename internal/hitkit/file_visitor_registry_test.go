package hitkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func newTestFileVisitorRegistry(t *testing.T) *FileVisitorRegistry {
	t.Helper()
	registry, buildErr := NewFileVisitorRegistry(t.TempDir())
	if buildErr != nil {
		t.Fatalf("unexpected error building registry: %v", buildErr)
	}
	return registry
}

func TestFileVisitorRegistrySaveAndLookup(t *testing.T) {
	t.Parallel()

	registry := newTestFileVisitorRegistry(t)
	canonical := "TestAgent/1.0|192.168.1.42|EN"
	if saveErr := registry.Save(context.Background(), "a1b2c3d4e5", canonical); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	stored, lookupErr := registry.Lookup(context.Background(), "a1b2c3d4e5")
	if lookupErr != nil {
		t.Fatalf("unexpected lookup error: %v", lookupErr)
	}
	if stored != canonical {
		t.Fatalf("expected %q, got %q", canonical, stored)
	}
}

func TestFileVisitorRegistrySaveWritesRawBytes(t *testing.T) {
	t.Parallel()

	registry := newTestFileVisitorRegistry(t)
	canonical := "TestAgent/1.0|192.168.1.42|EN"
	if saveErr := registry.Save(context.Background(), "a1b2c3d4e5", canonical); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	content, readErr := os.ReadFile(filepath.Join(registry.directory, "a1b2c3d4e5"))
	if readErr != nil {
		t.Fatalf("unexpected read error: %v", readErr)
	}
	if string(content) != canonical {
		t.Fatalf("expected raw canonical bytes, got %q", string(content))
	}
}

func TestFileVisitorRegistrySaveReplacesExistingRecord(t *testing.T) {
	t.Parallel()

	registry := newTestFileVisitorRegistry(t)
	if saveErr := registry.Save(context.Background(), "a1b2c3d4e5", "OldAgent/0.9|10.0.0.1|DE"); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}
	if saveErr := registry.Save(context.Background(), "a1b2c3d4e5", "NewAgent/2.0|203.0.113.7|EN"); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	stored, lookupErr := registry.Lookup(context.Background(), "a1b2c3d4e5")
	if lookupErr != nil {
		t.Fatalf("unexpected lookup error: %v", lookupErr)
	}
	if stored != "NewAgent/2.0|203.0.113.7|EN" {
		t.Fatalf("expected replacement to win, got %q", stored)
	}
}

func TestFileVisitorRegistryLookupMissingFingerprint(t *testing.T) {
	t.Parallel()

	registry := newTestFileVisitorRegistry(t)
	_, lookupErr := registry.Lookup(context.Background(), "ffffffffff")
	if !errors.Is(lookupErr, ErrVisitorNotFound) {
		t.Fatalf("expected ErrVisitorNotFound, got %v", lookupErr)
	}
}

func TestNewFileVisitorRegistryCreatesDirectory(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	nested := filepath.Join(root, "data", "visitors")
	if _, buildErr := NewFileVisitorRegistry(nested); buildErr != nil {
		t.Fatalf("unexpected error: %v", buildErr)
	}
	info, statErr := os.Stat(nested)
	if statErr != nil || !info.IsDir() {
		t.Fatalf("expected directory to be created, stat err %v", statErr)
	}
}
