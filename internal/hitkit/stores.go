package hitkit

import "context"

// VisitorRegistry persists the mapping from fingerprint to canonical
// descriptor string. Save is create-or-replace: overwriting with an equal
// value is idempotent, and a hash collision silently replaces the stored
// descriptor. Records are never deleted by this subsystem.
type VisitorRegistry interface {
	Save(ctx context.Context, fingerprint string, canonicalDescriptor string) error
	Lookup(ctx context.Context, fingerprint string) (canonicalDescriptor string, err error)
}

// HitLog stores the append-only per-resource hit records. NextCount and
// Append for one resource key form a read-modify-write pair; callers must
// serialize the pair per key (HitRecorder holds a key lock across both).
type HitLog interface {
	NextCount(ctx context.Context, resourceKey string) (int64, error)
	Append(ctx context.Context, resourceKey string, record HitRecord) error
}
