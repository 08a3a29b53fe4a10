package hitkit

import (
	"strconv"
	"strings"
	"time"
)

// TopicHits is the well-known topic every hit notification is published to.
// Every subscriber of this topic sees every hit for every resource; there is
// no per-resource fan-out.
const TopicHits = "hits"

// Broadcaster delivers hit notifications to the topic's current subscribers
// on a best-effort, at-most-once basis. Publishing to a topic with no
// subscribers is a no-op, and delivery problems never reach the publisher.
type Broadcaster interface {
	Publish(topic string, message string)
}

// FormatHitMessage renders the feed line for one hit:
// "<RFC3339 UTC timestamp> <resource path without extension> <fingerprint> <count>",
// single-space separated, in that field order.
func FormatHitMessage(at time.Time, feedPath string, fingerprint string, count int64) string {
	return strings.Join([]string{
		at.UTC().Format(time.RFC3339),
		feedPath,
		fingerprint,
		strconv.FormatInt(count, 10),
	}, " ")
}

type noopBroadcaster struct{}

func (noopBroadcaster) Publish(topic string, message string) {}
