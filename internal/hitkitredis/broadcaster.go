package hitkitredis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/tyemirov/hitbadge/internal/hitkit"
)

const (
	channelPrefix       = "hitbadge:"
	publishTimeout      = 2 * time.Second
	connectProbeTimeout = 3 * time.Second
)

const metricRedisPublishFailed = "redis_publish_failed"

// BuildClient parses the broadcast URL, builds a client, and verifies the
// connection with a bounded ping.
func BuildClient(ctx context.Context, broadcastURL string) (*redis.Client, error) {
	options, parseErr := redis.ParseURL(broadcastURL)
	if parseErr != nil {
		return nil, parseErr
	}
	client := redis.NewClient(options)

	probeContext, cancel := context.WithTimeout(ctx, connectProbeTimeout)
	defer cancel()
	if pingErr := client.Ping(probeContext).Err(); pingErr != nil {
		_ = client.Close()
		return nil, pingErr
	}
	return client, nil
}

// ChannelName maps a hub topic to the redis channel carrying it.
func ChannelName(topic string) string {
	return channelPrefix + topic
}

// Broadcaster publishes hit messages to redis so feed subscribers on every
// replica see hits recorded by any replica.
type Broadcaster struct {
	client  *redis.Client
	metrics hitkit.MetricsRecorder
	logger  *zap.Logger
}

// NewBroadcaster wraps an established client. A nil metrics recorder or
// logger is replaced with a no-op implementation.
func NewBroadcaster(client *redis.Client, metricsRecorder hitkit.MetricsRecorder, logger *zap.Logger) *Broadcaster {
	if metricsRecorder == nil {
		metricsRecorder = hitkit.NewCounterMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{client: client, metrics: metricsRecorder, logger: logger}
}

// Publish forwards the message best-effort. By the time this runs the hit has
// already committed, so failures are logged and counted, never surfaced.
func (broadcaster *Broadcaster) Publish(topic string, message string) {
	publishContext, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if publishErr := broadcaster.client.Publish(publishContext, ChannelName(topic), message).Err(); publishErr != nil {
		broadcaster.metrics.Increment(metricRedisPublishFailed)
		broadcaster.logger.Warn("redis publish failed",
			zap.String("topic", topic),
			zap.Error(publishErr))
	}
}

// RunFeedBridge mirrors redis channel traffic into the in-process hub until
// the context ends. It blocks, so callers run it in a goroutine.
func RunFeedBridge(ctx context.Context, client *redis.Client, hub *hitkit.FeedHub, topics []string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	channels := make([]string, 0, len(topics))
	for _, topic := range topics {
		channels = append(channels, ChannelName(topic))
	}

	subscription := client.Subscribe(ctx, channels...)
	defer func() {
		if closeErr := subscription.Close(); closeErr != nil {
			logger.Warn("redis subscription close failed", zap.Error(closeErr))
		}
	}()

	messages := subscription.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case message, open := <-messages:
			if !open {
				return nil
			}
			hub.Publish(strings.TrimPrefix(message.Channel, channelPrefix), message.Payload)
		}
	}
}
