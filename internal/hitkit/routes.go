package hitkit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultBadgeCacheControl = "no-cache, no-store, must-revalidate"

// BadgeRenderer turns a count into the badge image served to the requester.
// RenderUnavailable is the fallback image served when no count could be
// recorded; the badge request itself must still succeed.
type BadgeRenderer interface {
	Render(count int64) ([]byte, error)
	RenderUnavailable() ([]byte, error)
}

// MountBadgeRoutes registers /hit/*resource, /api/visitors/:fingerprint, and /healthz.
func MountBadgeRoutes(router gin.IRouter, configuration RoutesConfig, recorder *HitRecorder, renderer BadgeRenderer, visitors VisitorRegistry, metricsRecorder MetricsRecorder, logger *zap.Logger) {
	cacheControl := configuration.BadgeCacheControl
	if cacheControl == "" {
		cacheControl = defaultBadgeCacheControl
	}

	router.GET("/hit/*resource", func(contextGin *gin.Context) {
		segments := SplitResourcePath(contextGin.Param("resource"))
		descriptor := ExtractVisitorDescriptor(contextGin.Request)

		count, recordErr := recorder.RecordHit(contextGin.Request.Context(), segments, descriptor)

		var badge []byte
		var renderErr error
		if recordErr != nil {
			// Serving the badge outranks counting; a recording failure
			// degrades to the fallback image, never to an error response.
			metricsRecorder.Increment(metricBadgeFallback)
			logger.Error("hit recording failed, serving fallback badge",
				zap.Strings("segments", segments),
				zap.Error(recordErr))
			badge, renderErr = renderer.RenderUnavailable()
		} else {
			badge, renderErr = renderer.Render(count)
		}
		if renderErr != nil {
			logger.Error("badge rendering failed", zap.Error(renderErr))
			contextGin.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "render_failed"})
			return
		}

		contextGin.Header("Cache-Control", cacheControl)
		contextGin.Header("Pragma", "no-cache")
		contextGin.Header("Expires", "0")
		contextGin.Data(http.StatusOK, "image/svg+xml; charset=utf-8", badge)
	})

	router.GET("/api/visitors/:fingerprint", func(contextGin *gin.Context) {
		fingerprint := contextGin.Param("fingerprint")
		canonicalDescriptor, lookupErr := visitors.Lookup(contextGin.Request.Context(), fingerprint)
		if lookupErr != nil {
			if errors.Is(lookupErr, ErrVisitorNotFound) {
				contextGin.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "visitor_not_found"})
				return
			}
			logger.Error("visitor lookup failed",
				zap.String("fingerprint", fingerprint),
				zap.Error(lookupErr))
			contextGin.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{
			"fingerprint": fingerprint,
			"descriptor":  canonicalDescriptor,
		})
	})

	router.GET("/healthz", func(contextGin *gin.Context) {
		contextGin.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
