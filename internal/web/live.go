package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tyemirov/hitbadge/internal/hitkit"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedPongTimeout  = 60 * time.Second
	feedPingInterval = 54 * time.Second
	feedReadLimit    = 512
)

// Badges embed on arbitrary pages, so the feed is open to any origin. It
// only ever streams data that the badge endpoints already serve publicly.
var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(request *http.Request) bool { return true },
}

// HandleLiveFeed upgrades the connection and streams hub messages to the
// client until either side disconnects.
func HandleLiveFeed(hub *hitkit.FeedHub, logger *zap.Logger) gin.HandlerFunc {
	if hub == nil {
		panic("feed hub is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(contextGin *gin.Context) {
		connection, upgradeErr := feedUpgrader.Upgrade(contextGin.Writer, contextGin.Request, nil)
		if upgradeErr != nil {
			logger.Warn("feed upgrade failed",
				zap.String("code", "feed.upgrade_failed"),
				zap.Error(upgradeErr))
			return
		}
		subscription := hub.Subscribe(hitkit.TopicHits)
		go runFeedConnection(connection, subscription, hub, logger)
	}
}

func runFeedConnection(connection *websocket.Conn, subscription hitkit.FeedSubscription, hub *hitkit.FeedHub, logger *zap.Logger) {
	pingTicker := time.NewTicker(feedPingInterval)
	defer func() {
		pingTicker.Stop()
		hub.Unsubscribe(hitkit.TopicHits, subscription.ID)
		if closeErr := connection.Close(); closeErr != nil {
			logger.Debug("feed connection close failed", zap.Error(closeErr))
		}
	}()

	// The reader drains control frames and signals when the peer goes away.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		connection.SetReadLimit(feedReadLimit)
		_ = connection.SetReadDeadline(time.Now().Add(feedPongTimeout))
		connection.SetPongHandler(func(string) error {
			return connection.SetReadDeadline(time.Now().Add(feedPongTimeout))
		})
		for {
			if _, _, readErr := connection.ReadMessage(); readErr != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-disconnected:
			return
		case message, open := <-subscription.Messages:
			_ = connection.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if !open {
				_ = connection.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if writeErr := connection.WriteMessage(websocket.TextMessage, []byte(message)); writeErr != nil {
				return
			}
		case <-pingTicker.C:
			_ = connection.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
			if pingErr := connection.WriteMessage(websocket.PingMessage, nil); pingErr != nil {
				return
			}
		}
	}
}
