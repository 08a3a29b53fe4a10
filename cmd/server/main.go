package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tyemirov/hitbadge/internal/hitkit"
	"github.com/tyemirov/hitbadge/internal/hitkitredis"
	"github.com/tyemirov/hitbadge/internal/web"
	webassets "github.com/tyemirov/hitbadge/web"
)

var serveHTTP = func(server *http.Server) error {
	return server.ListenAndServe()
}

var buildRedisBroadcaster = func(ctx context.Context, broadcastURL string, hub *hitkit.FeedHub, metricsRecorder hitkit.MetricsRecorder, logger *zap.Logger) (hitkit.Broadcaster, func(), error) {
	client, clientErr := hitkitredis.BuildClient(ctx, broadcastURL)
	if clientErr != nil {
		return nil, nil, clientErr
	}

	bridgeContext, bridgeCancel := context.WithCancel(context.Background())
	go func() {
		if bridgeErr := hitkitredis.RunFeedBridge(bridgeContext, client, hub, []string{hitkit.TopicHits}, logger); bridgeErr != nil && !errors.Is(bridgeErr, context.Canceled) {
			logger.Warn("feed bridge stopped", zap.Error(bridgeErr))
		}
	}()

	cleanup := func() {
		bridgeCancel()
		if closeErr := client.Close(); closeErr != nil {
			logger.Warn("redis client close failed", zap.Error(closeErr))
		}
	}
	return hitkitredis.NewBroadcaster(client, metricsRecorder, logger), cleanup, nil
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "hitbadge",
		Short:   "Hit counter service that serves SVG badges, fingerprints visitors, and streams hits live",
		PreRunE: prepareServerConfig,
		RunE:    runServer,
	}

	rootCmd.Flags().String("listen_addr", ":8080", "HTTP listen address")
	rootCmd.Flags().String("data_dir", "", "Directory for visitor records and hit logs; leave empty for in-memory stores")
	rootCmd.Flags().String("broadcast_url", "", "Redis URL for cross-replica hit broadcasting (redis://; leave empty for in-process only)")
	rootCmd.Flags().Int("fingerprint_width", hitkit.DefaultFingerprintWidth, "Visitor fingerprint length in hex characters (1-64)")
	rootCmd.Flags().String("badge_label", "hits", "Label rendered on the left badge cell")
	rootCmd.Flags().Int("feed_buffer", hitkit.DefaultFeedBuffer, "Buffered messages per live feed subscriber")
	rootCmd.Flags().Bool("enable_cors", false, "Enable CORS for cross-origin API reads")
	rootCmd.Flags().StringSlice("cors_allowed_origins", []string{}, "Allowed origins when CORS is enabled; \"*\" allows any")
	rootCmd.Flags().Bool("metrics_enabled", false, "Expose Prometheus metrics on /metrics")
	rootCmd.Flags().String("log_file", "", "Log file path with rotation; leave empty for stderr")
	rootCmd.Flags().Int("log_max_size_mb", 100, "Log file size before rotation in megabytes")
	rootCmd.Flags().Int("log_max_backups", 3, "Rotated log files to retain")
	rootCmd.Flags().Int("log_max_age_days", 28, "Days to retain rotated log files")

	_ = viper.BindPFlag("listen_addr", rootCmd.Flags().Lookup("listen_addr"))
	_ = viper.BindPFlag("data_dir", rootCmd.Flags().Lookup("data_dir"))
	_ = viper.BindPFlag("broadcast_url", rootCmd.Flags().Lookup("broadcast_url"))
	_ = viper.BindPFlag("fingerprint_width", rootCmd.Flags().Lookup("fingerprint_width"))
	_ = viper.BindPFlag("badge_label", rootCmd.Flags().Lookup("badge_label"))
	_ = viper.BindPFlag("feed_buffer", rootCmd.Flags().Lookup("feed_buffer"))
	_ = viper.BindPFlag("enable_cors", rootCmd.Flags().Lookup("enable_cors"))
	_ = viper.BindPFlag("cors_allowed_origins", rootCmd.Flags().Lookup("cors_allowed_origins"))
	_ = viper.BindPFlag("metrics_enabled", rootCmd.Flags().Lookup("metrics_enabled"))
	_ = viper.BindPFlag("log_file", rootCmd.Flags().Lookup("log_file"))
	_ = viper.BindPFlag("log_max_size_mb", rootCmd.Flags().Lookup("log_max_size_mb"))
	_ = viper.BindPFlag("log_max_backups", rootCmd.Flags().Lookup("log_max_backups"))
	_ = viper.BindPFlag("log_max_age_days", rootCmd.Flags().Lookup("log_max_age_days"))

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()

	return rootCmd
}

const (
	maxFingerprintWidth = 64

	configCodeInvalidFingerprintWidth = "config.invalid_fingerprint_width"
	configCodeInvalidBadgeLabel       = "config.invalid_badge_label"
	configCodeInvalidFeedBuffer       = "config.invalid_feed_buffer"
	configCodeUninitializedServerConf = "config.uninitialized_server_config"
	configCodeBroadcasterInit         = "config.broadcaster_init"
)

type contextKey string

const serverConfigContextKey contextKey = "serverConfig"

func prepareServerConfig(command *cobra.Command, arguments []string) error {
	serverConfig, loadErr := LoadServerConfig()
	if loadErr != nil {
		return loadErr
	}
	existingContext := command.Context()
	if existingContext == nil {
		existingContext = context.Background()
	}
	command.SetContext(context.WithValue(existingContext, serverConfigContextKey, serverConfig))
	return nil
}

func configError(code, message string) error {
	return fmt.Errorf("%s: %s", code, message)
}

func LoadServerConfig() (hitkit.ServerConfig, error) {
	fingerprintWidth := viper.GetInt("fingerprint_width")
	if fingerprintWidth < 1 || fingerprintWidth > maxFingerprintWidth {
		return hitkit.ServerConfig{}, configError(configCodeInvalidFingerprintWidth, "fingerprint_width must be between 1 and 64")
	}

	badgeLabel := strings.TrimSpace(viper.GetString("badge_label"))
	if badgeLabel == "" {
		return hitkit.ServerConfig{}, configError(configCodeInvalidBadgeLabel, "badge_label must not be blank")
	}

	feedBuffer := viper.GetInt("feed_buffer")
	if feedBuffer <= 0 {
		return hitkit.ServerConfig{}, configError(configCodeInvalidFeedBuffer, "feed_buffer must be greater than zero")
	}

	return hitkit.ServerConfig{
		DataDir:          viper.GetString("data_dir"),
		BroadcastURL:     viper.GetString("broadcast_url"),
		BadgeLabel:       badgeLabel,
		FingerprintWidth: fingerprintWidth,
		FeedBuffer:       feedBuffer,
	}, nil
}

func runServer(command *cobra.Command, arguments []string) error {
	logger, loggerErr := buildLogger()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	commandContext := command.Context()
	var contextValue any
	if commandContext != nil {
		contextValue = commandContext.Value(serverConfigContextKey)
	}
	serverConfig, ok := contextValue.(hitkit.ServerConfig)
	if !ok {
		return configError(configCodeUninitializedServerConf, "server configuration not prepared; PreRunE must execute before RunE")
	}

	listenAddr := viper.GetString("listen_addr")
	enableCORS := viper.GetBool("enable_cors")
	corsAllowedOrigins := viper.GetStringSlice("cors_allowed_origins")
	metricsEnabled := viper.GetBool("metrics_enabled")

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(zapLoggerMiddleware(logger))

	if enableCORS {
		corsMiddleware, corsErr := web.ConfigureCORS(logger, corsAllowedOrigins)
		if corsErr != nil {
			return corsErr
		}
		router.Use(corsMiddleware)
	}

	router.GET("/static/feed-client.js", func(contextGin *gin.Context) {
		web.ServeEmbeddedStaticJS(contextGin, webassets.FS, "feed-client.js")
	})

	router.GET("/feed/config.js", func(contextGin *gin.Context) {
		web.ServeFeedConfig(contextGin, web.FeedConfig{})
	})

	router.GET("/demo", func(contextGin *gin.Context) {
		contextGin.File("web/demo.html")
	})

	var visitorRegistry hitkit.VisitorRegistry
	var hitLog hitkit.HitLog

	if serverConfig.DataDir != "" {
		fileRegistry, registryErr := hitkit.NewFileVisitorRegistry(filepath.Join(serverConfig.DataDir, "visitors"))
		if registryErr != nil {
			return registryErr
		}
		fileLog, logErr := hitkit.NewFileHitLog(filepath.Join(serverConfig.DataDir, "hits"), logger)
		if logErr != nil {
			return logErr
		}
		visitorRegistry = fileRegistry
		hitLog = fileLog
		logger.Info("using file-backed stores", zap.String("data_dir", serverConfig.DataDir))
	} else {
		visitorRegistry = hitkit.NewMemoryVisitorRegistry()
		hitLog = hitkit.NewMemoryHitLog()
		logger.Info("using in-memory stores")
	}

	var metricsRecorder hitkit.MetricsRecorder
	if metricsEnabled {
		prometheusMetrics := hitkit.NewPrometheusMetrics()
		metricsRecorder = prometheusMetrics
		router.GET("/metrics", gin.WrapH(prometheusMetrics.Handler()))
		logger.Info("metrics enabled")
	} else {
		metricsRecorder = hitkit.NewCounterMetrics()
	}

	hub := hitkit.NewFeedHub(serverConfig.FeedBuffer, metricsRecorder, logger)

	// With no broadcast URL the hub is the broadcaster, so hits fan out in
	// process. With redis the recorder publishes there instead and the
	// bridge feeds the hub, so subscribers see hits from every replica.
	var broadcaster hitkit.Broadcaster = hub
	if serverConfig.BroadcastURL != "" {
		redisBroadcaster, cleanup, broadcasterErr := buildRedisBroadcaster(command.Context(), serverConfig.BroadcastURL, hub, metricsRecorder, logger)
		if broadcasterErr != nil {
			return fmt.Errorf("%s: %w", configCodeBroadcasterInit, broadcasterErr)
		}
		defer cleanup()
		broadcaster = redisBroadcaster
		logger.Info("broadcasting hits through redis")
	} else {
		logger.Info("broadcasting hits in process")
	}

	renderer, rendererErr := web.NewFlatBadge(serverConfig.BadgeLabel)
	if rendererErr != nil {
		return rendererErr
	}

	recorder := hitkit.NewHitRecorder(visitorRegistry, hitLog, broadcaster, metricsRecorder, logger, serverConfig.FingerprintWidth)

	hitkit.MountBadgeRoutes(router, hitkit.RoutesConfig{}, recorder, renderer, visitorRegistry, metricsRecorder, logger)

	router.GET("/feed", web.HandleLiveFeed(hub, logger))

	server := &http.Server{
		Addr:              listenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	defer shutdownCancel()

	go func() {
		stopSignals := make(chan os.Signal, 1)
		signal.Notify(stopSignals, syscall.SIGINT, syscall.SIGTERM)
		<-stopSignals
		graceCtx, graceCancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer graceCancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", listenAddr))
	if err := serveHTTP(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen error: %w", err)
	}
	return nil
}

func buildLogger() (*zap.Logger, error) {
	logFile := viper.GetString("log_file")
	if logFile == "" {
		return zap.NewProduction()
	}

	rotatingWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    viper.GetInt("log_max_size_mb"),
		MaxBackups: viper.GetInt("log_max_backups"),
		MaxAge:     viper.GetInt("log_max_age_days"),
		Compress:   true,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(rotatingWriter),
		zapcore.InfoLevel,
	)
	return zap.New(core), nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		startTime := time.Now()
		contextGin.Next()
		duration := time.Since(startTime)
		logger.Info("http",
			zap.String("method", contextGin.Request.Method),
			zap.String("path", contextGin.Request.URL.Path),
			zap.Int("status", contextGin.Writer.Status()),
			zap.String("ip", contextGin.ClientIP()),
			zap.Duration("elapsed", duration),
		)
	}
}
