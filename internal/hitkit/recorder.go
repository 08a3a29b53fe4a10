package hitkit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// HitRecorder orchestrates one hit: fingerprint the visitor, persist the
// visitor record, advance the resource's log under its key lock, and notify
// feed subscribers.
type HitRecorder struct {
	visitorRegistry  VisitorRegistry
	hitLog           HitLog
	broadcaster      Broadcaster
	metrics          MetricsRecorder
	logger           *zap.Logger
	locks            *resourceLockSet
	fingerprintWidth int
	now              func() time.Time
}

// NewHitRecorder wires a recorder from its collaborators. A nil broadcaster,
// metrics recorder, or logger is replaced with a no-op implementation, and a
// non-positive fingerprint width falls back to DefaultFingerprintWidth.
func NewHitRecorder(visitorRegistry VisitorRegistry, hitLog HitLog, broadcaster Broadcaster, metricsRecorder MetricsRecorder, logger *zap.Logger, fingerprintWidth int) *HitRecorder {
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	if metricsRecorder == nil {
		metricsRecorder = NewCounterMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if fingerprintWidth <= 0 {
		fingerprintWidth = DefaultFingerprintWidth
	}
	return &HitRecorder{
		visitorRegistry:  visitorRegistry,
		hitLog:           hitLog,
		broadcaster:      broadcaster,
		metrics:          metricsRecorder,
		logger:           logger,
		locks:            newResourceLockSet(),
		fingerprintWidth: fingerprintWidth,
		now:              time.Now,
	}
}

// RecordHit registers the visitor and appends the next record to the
// resource's log, returning the new running count.
//
// The visitor registry write is best-effort bookkeeping: its failure is
// logged and counted but never aborts the hit. A log read or append failure
// aborts the call and suppresses the broadcast, so no count is ever reported
// that was not durably appended. Once the append has committed, cancellation
// no longer affects the outcome; the broadcast proceeds and the count is
// returned.
func (recorder *HitRecorder) RecordHit(ctx context.Context, pathSegments []string, descriptor VisitorDescriptor) (int64, error) {
	segments := cleanedSegments(pathSegments)
	if len(segments) == 0 {
		return 0, ErrEmptyResourcePath
	}
	resourceKey := ResourceKeyFromSegments(segments)
	resourcePath := ResourcePathFromSegments(segments)
	feedPath := FeedPathFromSegments(segments)

	canonicalDescriptor := descriptor.Canonical()
	fingerprint := HashFingerprint(canonicalDescriptor, recorder.fingerprintWidth)

	if saveErr := recorder.visitorRegistry.Save(ctx, fingerprint, canonicalDescriptor); saveErr != nil {
		recorder.metrics.Increment(metricVisitorSaveFailed)
		recorder.logger.Warn("visitor record write failed",
			zap.String("fingerprint", fingerprint),
			zap.Error(saveErr))
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		recorder.metrics.Increment(metricHitFailed)
		return 0, ctxErr
	}

	count, advanceErr := recorder.advanceLog(ctx, resourceKey, resourcePath, fingerprint)
	if advanceErr != nil {
		recorder.metrics.Increment(metricHitFailed)
		return 0, advanceErr
	}

	recorder.broadcaster.Publish(TopicHits, FormatHitMessage(recorder.now(), feedPath, fingerprint, count))
	recorder.metrics.Increment(metricBroadcastPublished)
	recorder.metrics.Increment(metricHitRecorded)
	return count, nil
}

// advanceLog runs the read-then-append sequence for the resource key as one
// critical section, so two concurrent hits on one resource can never observe
// the same last count. Hits on different keys do not contend.
func (recorder *HitRecorder) advanceLog(ctx context.Context, resourceKey string, resourcePath string, fingerprint string) (int64, error) {
	lock := recorder.locks.forKey(resourceKey)
	lock.Lock()
	defer lock.Unlock()

	count, nextErr := recorder.hitLog.NextCount(ctx, resourceKey)
	if nextErr != nil {
		return 0, nextErr
	}

	record := HitRecord{
		TimestampMillis: recorder.now().UnixMilli(),
		ResourcePath:    resourcePath,
		Fingerprint:     fingerprint,
		Count:           count,
	}
	if appendErr := recorder.hitLog.Append(ctx, resourceKey, record); appendErr != nil {
		return 0, appendErr
	}
	return count, nil
}
