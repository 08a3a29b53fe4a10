package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// FeedConfig contains dynamic values exposed to the badge frontend.
type FeedConfig struct {
	FeedURL string
}

// ServeFeedConfig emits a JavaScript payload that hydrates window.__HITBADGE_CONFIG.
func ServeFeedConfig(contextGin *gin.Context, configuration FeedConfig) {
	feedURL := strings.TrimSpace(configuration.FeedURL)
	if feedURL == "" {
		scheme := "ws"
		if forwardedProto(contextGin.Request) == "https" {
			scheme = "wss"
		}
		host := contextGin.Request.Host
		if host == "" {
			host = "localhost"
		}
		feedURL = fmt.Sprintf("%s://%s/feed", scheme, host)
	}
	payload := struct {
		FeedURL string `json:"feedUrl"`
	}{
		FeedURL: feedURL,
	}

	encoded, encodeErr := json.Marshal(payload)
	if encodeErr != nil {
		contextGin.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "web.feed_config.encode_failed",
		})
		return
	}

	script := fmt.Sprintf(`(function(){var config=Object.freeze(%s);window.__HITBADGE_CONFIG=config;if(typeof window==="undefined"||typeof document==="undefined"){return;}document.dispatchEvent(new CustomEvent("hitbadge:config",{detail:config}));})();`, string(encoded))

	contextGin.Header("Content-Type", "application/javascript; charset=utf-8")
	contextGin.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")
	contextGin.Header("Pragma", "no-cache")
	contextGin.Header("X-Content-Type-Options", "nosniff")
	contextGin.String(http.StatusOK, script)
}

func forwardedProto(request *http.Request) string {
	if request == nil {
		return "https"
	}
	if headerValue := request.Header.Get("X-Forwarded-Proto"); headerValue != "" {
		return headerValue
	}
	if request.TLS != nil {
		return "https"
	}
	if request.URL != nil && request.URL.Scheme != "" {
		return request.URL.Scheme
	}
	return "http"
}
