// Package hitfeed provides a client for the hitbadge live feed. It connects
// to a /feed endpoint, parses the announced hits, and delivers them on a
// channel until the connection ends.
package hitfeed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns the current UTC timestamp.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Config configures the Client.
type Config struct {
	FeedURL          string
	HandshakeTimeout time.Duration
	Clock            Clock
}

// DefaultHandshakeTimeout is used when Config.HandshakeTimeout is zero.
const DefaultHandshakeTimeout = 10 * time.Second

const (
	eventBuffer  = 16
	readTimeout  = 90 * time.Second
	writeTimeout = 10 * time.Second
)

// Sentinel errors exposed by the client.
var (
	ErrMissingFeedURL = errors.New("hitfeed.client.missing_feed_url")
	ErrInvalidFeedURL = errors.New("hitfeed.client.invalid_feed_url")
	ErrMalformedEvent = errors.New("hitfeed.client.malformed_event")
)

// HitEvent is one hit announcement from the feed.
type HitEvent struct {
	Timestamp    time.Time
	ResourcePath string
	Fingerprint  string
	Count        int64
}

// ParseHitEvent parses one feed message of the form
// "<timestamp> <resourcePath> <fingerprint> <count>".
func ParseHitEvent(message string) (HitEvent, error) {
	fields := strings.Split(message, " ")
	if len(fields) != 4 {
		return HitEvent{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedEvent, len(fields))
	}
	timestamp, timestampErr := time.Parse(time.RFC3339, fields[0])
	if timestampErr != nil {
		return HitEvent{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedEvent, fields[0])
	}
	if fields[1] == "" || fields[2] == "" {
		return HitEvent{}, fmt.Errorf("%w: empty field", ErrMalformedEvent)
	}
	count, countErr := strconv.ParseInt(fields[3], 10, 64)
	if countErr != nil || count < 1 {
		return HitEvent{}, fmt.Errorf("%w: bad count %q", ErrMalformedEvent, fields[3])
	}
	return HitEvent{
		Timestamp:    timestamp,
		ResourcePath: fields[1],
		Fingerprint:  fields[2],
		Count:        count,
	}, nil
}

// Client subscribes to a hitbadge live feed.
type Client struct {
	feedURL          string
	handshakeTimeout time.Duration
	clock            Clock

	mutex      sync.Mutex
	connection *websocket.Conn
	events     chan HitEvent
	readErr    error
}

// New constructs a Client after validating the supplied configuration.
func New(configuration Config) (*Client, error) {
	trimmed := strings.TrimSpace(configuration.FeedURL)
	if trimmed == "" {
		return nil, fmt.Errorf("hitfeed.client.new: %w", ErrMissingFeedURL)
	}
	parsed, parseErr := url.Parse(trimmed)
	if parseErr != nil {
		return nil, fmt.Errorf("hitfeed.client.new: %w: %s", ErrInvalidFeedURL, trimmed)
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "ws" && scheme != "wss" {
		return nil, fmt.Errorf("hitfeed.client.new: %w: scheme %q", ErrInvalidFeedURL, parsed.Scheme)
	}
	handshakeTimeout := configuration.HandshakeTimeout
	if handshakeTimeout <= 0 {
		handshakeTimeout = DefaultHandshakeTimeout
	}
	clock := configuration.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Client{
		feedURL:          trimmed,
		handshakeTimeout: handshakeTimeout,
		clock:            clock,
	}, nil
}

// Connect dials the feed and starts the read loop. Calling Connect on an
// already connected client is a no-op; calling it after Close establishes a
// fresh event stream.
func (client *Client) Connect(ctx context.Context) error {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	if client.connection != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: client.handshakeTimeout}
	connection, response, dialErr := dialer.DialContext(ctx, client.feedURL, nil)
	if dialErr != nil {
		if response != nil && response.Body != nil {
			response.Body.Close()
		}
		return fmt.Errorf("hitfeed.client.connect: %w", dialErr)
	}

	events := make(chan HitEvent, eventBuffer)
	client.connection = connection
	client.events = events
	client.readErr = nil
	go client.readLoop(connection, events)
	return nil
}

// Events returns the channel the connected stream delivers on. The channel
// closes when the connection ends; Err explains why. Before the first
// Connect the channel is nil.
func (client *Client) Events() <-chan HitEvent {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	return client.events
}

// Err reports why the most recent event stream ended. A clean shutdown
// through Close yields the close error of the underlying connection.
func (client *Client) Err() error {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	return client.readErr
}

// Close tears down the connection. The event channel closes shortly after.
func (client *Client) Close() error {
	client.mutex.Lock()
	defer client.mutex.Unlock()
	if client.connection == nil {
		return nil
	}
	deadline := client.clock.Now().Add(writeTimeout)
	_ = client.connection.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	closeErr := client.connection.Close()
	client.connection = nil
	return closeErr
}

// readLoop consumes the connection until it fails, parsing and delivering
// events. Malformed messages are skipped so one bad frame cannot end the
// stream; a slow consumer loses events rather than stalling the connection.
func (client *Client) readLoop(connection *websocket.Conn, events chan HitEvent) {
	defer close(events)

	_ = connection.SetReadDeadline(client.clock.Now().Add(readTimeout))
	connection.SetPingHandler(func(appData string) error {
		_ = connection.SetReadDeadline(client.clock.Now().Add(readTimeout))
		return connection.WriteControl(websocket.PongMessage, []byte(appData), client.clock.Now().Add(writeTimeout))
	})

	for {
		_, payload, readErr := connection.ReadMessage()
		if readErr != nil {
			client.mutex.Lock()
			client.readErr = readErr
			client.mutex.Unlock()
			return
		}
		_ = connection.SetReadDeadline(client.clock.Now().Add(readTimeout))

		event, parseErr := ParseHitEvent(string(payload))
		if parseErr != nil {
			continue
		}
		select {
		case events <- event:
		default:
		}
	}
}
