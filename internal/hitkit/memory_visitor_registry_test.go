package hitkit

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryVisitorRegistrySaveAndLookup(t *testing.T) {
	t.Parallel()

	registry := NewMemoryVisitorRegistry()
	if saveErr := registry.Save(context.Background(), "a1b2c3d4e5", "TestAgent/1.0|192.168.1.42|EN"); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	stored, lookupErr := registry.Lookup(context.Background(), "a1b2c3d4e5")
	if lookupErr != nil {
		t.Fatalf("unexpected lookup error: %v", lookupErr)
	}
	if stored != "TestAgent/1.0|192.168.1.42|EN" {
		t.Fatalf("unexpected descriptor: %q", stored)
	}
}

func TestMemoryVisitorRegistrySaveReplaces(t *testing.T) {
	t.Parallel()

	registry := NewMemoryVisitorRegistry()
	if saveErr := registry.Save(context.Background(), "a1b2c3d4e5", "first"); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}
	if saveErr := registry.Save(context.Background(), "a1b2c3d4e5", "second"); saveErr != nil {
		t.Fatalf("unexpected save error: %v", saveErr)
	}

	stored, lookupErr := registry.Lookup(context.Background(), "a1b2c3d4e5")
	if lookupErr != nil {
		t.Fatalf("unexpected lookup error: %v", lookupErr)
	}
	if stored != "second" {
		t.Fatalf("expected latest value, got %q", stored)
	}
}

func TestMemoryVisitorRegistryLookupMissing(t *testing.T) {
	t.Parallel()

	registry := NewMemoryVisitorRegistry()
	_, lookupErr := registry.Lookup(context.Background(), "ffffffffff")
	if !errors.Is(lookupErr, ErrVisitorNotFound) {
		t.Fatalf("expected ErrVisitorNotFound, got %v", lookupErr)
	}
}
