package hitkit

import (
	"context"
	"sync"
)

// MemoryHitLog keeps per-resource records in process memory with the same
// semantics as FileHitLog. It backs dev mode and tests; counts reset on
// restart.
type MemoryHitLog struct {
	mutex   sync.Mutex
	records map[string][]HitRecord
}

// NewMemoryHitLog constructs an empty in-memory hit log.
func NewMemoryHitLog() *MemoryHitLog {
	return &MemoryHitLog{records: make(map[string][]HitRecord)}
}

// NextCount returns one past the count of the resource's last record, or 1
// when the resource has no records yet.
func (hitLog *MemoryHitLog) NextCount(ctx context.Context, resourceKey string) (int64, error) {
	hitLog.mutex.Lock()
	defer hitLog.mutex.Unlock()
	records := hitLog.records[resourceKey]
	if len(records) == 0 {
		return 1, nil
	}
	return records[len(records)-1].Count + 1, nil
}

// Append adds one record to the end of the resource's log.
func (hitLog *MemoryHitLog) Append(ctx context.Context, resourceKey string, record HitRecord) error {
	hitLog.mutex.Lock()
	defer hitLog.mutex.Unlock()
	hitLog.records[resourceKey] = append(hitLog.records[resourceKey], record)
	return nil
}

// Records returns a copy of the resource's log in append order.
func (hitLog *MemoryHitLog) Records(resourceKey string) []HitRecord {
	hitLog.mutex.Lock()
	defer hitLog.mutex.Unlock()
	records := hitLog.records[resourceKey]
	clone := make([]HitRecord, len(records))
	copy(clone, records)
	return clone
}
