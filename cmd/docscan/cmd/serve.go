package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the scanning API",
	Long: `Start an HTTP server that provides REST and WebSocket endpoints for
page detection and rectification.

The server provides the following endpoints:
  GET  /health     - Health check endpoint
  POST /detect     - Detect the page outline in an uploaded image
  POST /rectify    - Return the rectified (and filtered) page
  GET  /ws/detect  - WebSocket stream of detections for live preview
  GET  /metrics    - Prometheus metrics

Examples:
  docscan serve
  docscan serve --port 8080
  docscan serve --host 0.0.0.0 --port 3000 --rate-limit`,
	SilenceUsage: true,
	RunE:         runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	sc := cfg.Server

	if sc.Port < 1 || sc.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", sc.Port)
	}

	pCfg, err := cfg.ToPipelineConfig()
	if err != nil {
		return fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	colors, err := cfg.OverlayColors()
	if err != nil {
		slog.Warn("Invalid overlay colours, using defaults", "error", err)
		colors = pipeline.DefaultOverlayColors()
	}

	serverConfig := server.Config{
		Host:          sc.Host,
		Port:          sc.Port,
		CORSOrigin:    sc.CORSOrigin,
		MaxUploadMB:   int64(sc.MaxUploadMB),
		TimeoutSec:    sc.TimeoutSec,
		JPEGQuality:   cfg.Output.JPEGQuality,
		Pipeline:      pCfg,
		OverlayColors: colors,
		RateLimit: server.RateLimitConfig{
			Enabled:           sc.RateLimit.Enabled,
			RequestsPerMinute: sc.RateLimit.RequestsPerMinute,
			RequestsPerHour:   sc.RateLimit.RequestsPerHour,
			MaxRequestsPerDay: sc.RateLimit.MaxRequestsPerDay,
			MaxDataPerDay:     sc.RateLimit.MaxDataPerDayMB << 20,
		},
	}

	scanServer, err := server.NewServer(serverConfig)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	timeout := time.Duration(sc.TimeoutSec) * time.Second
	httpServer := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", sc.Host, sc.Port),
		Handler:           scanServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		// WebSocket connections manage their own deadlines.
		WriteTimeout: timeout + 5*time.Second,
	}

	go func() {
		slog.Info("Starting scan server", "host", sc.Host, "port", sc.Port,
			"rate_limit", sc.RateLimit.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			cancel()
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		slog.Info("Context cancelled, initiating shutdown")
	}

	slog.Info("Starting graceful shutdown", "timeout", fmt.Sprintf("%ds", sc.ShutdownTimeout))
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		time.Duration(sc.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server shutdown completed")
	}
	if err := scanServer.Close(); err != nil {
		slog.Error("Server cleanup error", "error", err)
	}

	slog.Info("Graceful shutdown completed")
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	addDetectorFlags(serveCmd)
	addScanFlags(serveCmd)

	flags := serveCmd.Flags()
	flags.StringP("host", "H", "localhost", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("cors-origin", "*", "CORS allowed origins")
	flags.Int("max-upload-size", 50, "maximum upload size in MB")
	flags.Int("timeout", 30, "request timeout in seconds")
	flags.Int("shutdown-timeout", 10, "shutdown timeout in seconds")
	bindFlag(flags, "host", "server.host")
	bindFlag(flags, "port", "server.port")
	bindFlag(flags, "cors-origin", "server.cors_origin")
	bindFlag(flags, "max-upload-size", "server.max_upload_mb")
	bindFlag(flags, "timeout", "server.timeout_sec")
	bindFlag(flags, "shutdown-timeout", "server.shutdown_timeout")

	// Rate limiting flags
	flags.Bool("rate-limit", false, "enable per-client rate limiting")
	flags.Int("requests-per-minute", 60, "maximum requests per minute per client")
	flags.Int("requests-per-hour", 1000, "maximum requests per hour per client")
	flags.Int("max-requests-per-day", 10000, "maximum requests per day per client")
	flags.Int64("max-data-per-day", 1024, "maximum upload volume per day per client in MB")
	bindFlag(flags, "rate-limit", "server.rate_limit.enabled")
	bindFlag(flags, "requests-per-minute", "server.rate_limit.requests_per_minute")
	bindFlag(flags, "requests-per-hour", "server.rate_limit.requests_per_hour")
	bindFlag(flags, "max-requests-per-day", "server.rate_limit.max_requests_per_day")
	bindFlag(flags, "max-data-per-day", "server.rate_limit.max_data_per_day_mb")
}
