package hitkit

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultFeedBuffer is the per-subscriber channel capacity used when no
// buffer size is configured.
const DefaultFeedBuffer = 16

// FeedSubscription is one subscriber's handle on a topic feed. The channel
// is closed on Unsubscribe.
type FeedSubscription struct {
	ID       string
	Messages <-chan string
}

// FeedHub is the in-process Broadcaster and the subscription surface for the
// live feed transport. Publish hands each message to every subscriber's
// buffered channel without ever blocking on a slow consumer; a subscriber
// whose buffer is full misses that message.
type FeedHub struct {
	mutex       sync.Mutex
	subscribers map[string]map[string]chan string
	buffer      int
	metrics     MetricsRecorder
	logger      *zap.Logger
}

// NewFeedHub constructs a hub whose subscriber channels buffer up to buffer
// messages. A non-positive buffer selects DefaultFeedBuffer; nil metrics and
// logger are replaced with no-ops.
func NewFeedHub(buffer int, metricsRecorder MetricsRecorder, logger *zap.Logger) *FeedHub {
	if buffer <= 0 {
		buffer = DefaultFeedBuffer
	}
	if metricsRecorder == nil {
		metricsRecorder = NewCounterMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedHub{
		subscribers: make(map[string]map[string]chan string),
		buffer:      buffer,
		metrics:     metricsRecorder,
		logger:      logger,
	}
}

// Subscribe registers a new subscriber on the topic and returns its handle.
func (hub *FeedHub) Subscribe(topic string) FeedSubscription {
	channel := make(chan string, hub.buffer)
	subscriptionID := uuid.NewString()

	hub.mutex.Lock()
	topicSubscribers, exists := hub.subscribers[topic]
	if !exists {
		topicSubscribers = make(map[string]chan string)
		hub.subscribers[topic] = topicSubscribers
	}
	topicSubscribers[subscriptionID] = channel
	hub.mutex.Unlock()

	hub.metrics.Increment(metricFeedSubscribed)
	return FeedSubscription{ID: subscriptionID, Messages: channel}
}

// Unsubscribe removes the subscriber and closes its channel. Calling it for
// an unknown or already-removed subscription is a no-op.
func (hub *FeedHub) Unsubscribe(topic string, subscriptionID string) {
	hub.mutex.Lock()
	channel, exists := hub.subscribers[topic][subscriptionID]
	if exists {
		delete(hub.subscribers[topic], subscriptionID)
		close(channel)
	}
	hub.mutex.Unlock()

	if exists {
		hub.metrics.Increment(metricFeedUnsubscribed)
	}
}

// SubscriberCount reports the number of current subscribers on the topic.
func (hub *FeedHub) SubscriberCount(topic string) int {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	return len(hub.subscribers[topic])
}

// Publish delivers the message to every current subscriber of the topic.
// The hub lock is held across the non-blocking sends, so a concurrent
// Unsubscribe cannot close a channel mid-delivery.
func (hub *FeedHub) Publish(topic string, message string) {
	hub.mutex.Lock()
	defer hub.mutex.Unlock()

	for subscriptionID, channel := range hub.subscribers[topic] {
		select {
		case channel <- message:
		default:
			hub.metrics.Increment(metricFeedDropped)
			hub.logger.Debug("feed subscriber buffer full, message dropped",
				zap.String("topic", topic),
				zap.String("subscription_id", subscriptionID))
		}
	}
}
