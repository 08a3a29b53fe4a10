package hitkit

import (
	"context"
	"testing"
)

func TestMemoryHitLogNextCountStartsAtOne(t *testing.T) {
	t.Parallel()

	hitLog := NewMemoryHitLog()
	count, countErr := hitLog.NextCount(context.Background(), "project_badge")
	if countErr != nil {
		t.Fatalf("unexpected error: %v", countErr)
	}
	if count != 1 {
		t.Fatalf("expected 1, got %d", count)
	}
}

func TestMemoryHitLogAppendAdvancesCount(t *testing.T) {
	t.Parallel()

	hitLog := NewMemoryHitLog()
	first := HitRecord{TimestampMillis: 100, ResourcePath: "project/badge.svg", Fingerprint: "a1b2c3d4e5", Count: 1}
	if appendErr := hitLog.Append(context.Background(), "project_badge", first); appendErr != nil {
		t.Fatalf("unexpected append error: %v", appendErr)
	}
	second := HitRecord{TimestampMillis: 200, ResourcePath: "project/badge.svg", Fingerprint: "a1b2c3d4e5", Count: 2}
	if appendErr := hitLog.Append(context.Background(), "project_badge", second); appendErr != nil {
		t.Fatalf("unexpected append error: %v", appendErr)
	}

	count, countErr := hitLog.NextCount(context.Background(), "project_badge")
	if countErr != nil {
		t.Fatalf("unexpected error: %v", countErr)
	}
	if count != 3 {
		t.Fatalf("expected 3, got %d", count)
	}
}

func TestMemoryHitLogKeysAreIndependent(t *testing.T) {
	t.Parallel()

	hitLog := NewMemoryHitLog()
	record := HitRecord{TimestampMillis: 100, ResourcePath: "project/badge.svg", Fingerprint: "a1b2c3d4e5", Count: 1}
	if appendErr := hitLog.Append(context.Background(), "project_badge", record); appendErr != nil {
		t.Fatalf("unexpected append error: %v", appendErr)
	}

	count, countErr := hitLog.NextCount(context.Background(), "other_badge")
	if countErr != nil {
		t.Fatalf("unexpected error: %v", countErr)
	}
	if count != 1 {
		t.Fatalf("expected 1 for untouched key, got %d", count)
	}
}

func TestMemoryHitLogRecordsReturnsCopy(t *testing.T) {
	t.Parallel()

	hitLog := NewMemoryHitLog()
	record := HitRecord{TimestampMillis: 100, ResourcePath: "project/badge.svg", Fingerprint: "a1b2c3d4e5", Count: 1}
	if appendErr := hitLog.Append(context.Background(), "project_badge", record); appendErr != nil {
		t.Fatalf("unexpected append error: %v", appendErr)
	}

	snapshot := hitLog.Records("project_badge")
	if len(snapshot) != 1 {
		t.Fatalf("expected 1 record, got %d", len(snapshot))
	}
	snapshot[0].Count = 99

	fresh := hitLog.Records("project_badge")
	if fresh[0].Count != 1 {
		t.Fatalf("expected stored record untouched, got count %d", fresh[0].Count)
	}
}
