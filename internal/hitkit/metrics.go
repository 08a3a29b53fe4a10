package hitkit

import "sync"

const (
	metricHitRecorded        = "hit_recorded"
	metricHitFailed          = "hit_failed"
	metricVisitorSaveFailed  = "visitor_save_failed"
	metricBroadcastPublished = "broadcast_published"
	metricFeedSubscribed     = "feed_subscribed"
	metricFeedUnsubscribed   = "feed_unsubscribed"
	metricFeedDropped        = "feed_dropped"
	metricBadgeFallback      = "badge_fallback"
)

// MetricsRecorder increments counters for hit and feed events.
type MetricsRecorder interface {
	Increment(event string)
}

// CounterMetrics implements MetricsRecorder with in-memory counts.
type CounterMetrics struct {
	mutex  sync.Mutex
	counts map[string]int64
}

// NewCounterMetrics constructs an in-memory metrics recorder.
func NewCounterMetrics() *CounterMetrics {
	return &CounterMetrics{counts: make(map[string]int64)}
}

// Increment increases the counter for the given event.
func (recorder *CounterMetrics) Increment(event string) {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	recorder.counts[event]++
}

// Count returns the current value for the given event.
func (recorder *CounterMetrics) Count(event string) int64 {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	return recorder.counts[event]
}

// Snapshot returns a copy of all recorded counters.
func (recorder *CounterMetrics) Snapshot() map[string]int64 {
	recorder.mutex.Lock()
	defer recorder.mutex.Unlock()
	clone := make(map[string]int64, len(recorder.counts))
	for event, value := range recorder.counts {
		clone[event] = value
	}
	return clone
}
