// Package server exposes document detection and rectification over HTTP
// and WebSocket.
package server

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// scanner is the part of *pipeline.Pipeline the handlers need.
type scanner interface {
	ProcessImage(ctx context.Context, img image.Image) (*pipeline.ScanResult, error)
	ProcessImageWithCorners(ctx context.Context, img image.Image, corners utils.Quad) (*pipeline.ScanResult, error)
}

// Server handles HTTP requests for document scanning.
type Server struct {
	pipelineConfig pipeline.Config
	detector       scanner // rectification disabled
	scanner        scanner

	corsOrigin    string
	maxUploadMB   int64
	timeout       time.Duration
	jpegQuality   int
	overlayColors pipeline.OverlayColors
	rateLimiter   *RateLimiter
	upgrader      websocket.Upgrader
}

// Config holds server configuration.
type Config struct {
	Host          string
	Port          int
	CORSOrigin    string
	MaxUploadMB   int64
	TimeoutSec    int
	JPEGQuality   int
	Pipeline      pipeline.Config
	OverlayColors pipeline.OverlayColors
	RateLimit     RateLimitConfig
}

// RateLimitConfig holds per-client limits. A zero limit is not enforced.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Time    time.Time `json:"time"`
}

// DetectResponse is returned by POST /detect.
type DetectResponse struct {
	Success           bool                 `json:"success"`
	RequestID         string               `json:"request_id,omitempty"`
	Result            *pipeline.ScanResult `json:"result"`
	NormalizedCorners utils.Quad           `json:"normalized_corners"`
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// NewServer creates a server with one pipeline for detection and one for
// full scans.
func NewServer(config Config) (*Server, error) {
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}
	if config.TimeoutSec <= 0 {
		config.TimeoutSec = 30
	}
	if config.OverlayColors == (pipeline.OverlayColors{}) {
		config.OverlayColors = pipeline.DefaultOverlayColors()
	}

	detectCfg := config.Pipeline
	detectCfg.SkipRectify = true
	detect, err := pipeline.New(detectCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection pipeline: %w", err)
	}

	scanCfg := config.Pipeline
	scanCfg.SkipRectify = false
	scan, err := pipeline.New(scanCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create scan pipeline: %w", err)
	}

	s := &Server{
		pipelineConfig: scanCfg,
		detector:       detect,
		scanner:        scan,
		corsOrigin:     config.CORSOrigin,
		maxUploadMB:    config.MaxUploadMB,
		timeout:        time.Duration(config.TimeoutSec) * time.Second,
		jpegQuality:    config.JPEGQuality,
		overlayColors:  config.OverlayColors,
	}
	if rl := config.RateLimit; rl.Enabled {
		s.rateLimiter = NewRateLimiter(rl.RequestsPerMinute, rl.RequestsPerHour, rl.MaxRequestsPerDay, rl.MaxDataPerDay)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s, nil
}

// Close releases server resources.
func (s *Server) Close() error {
	if s == nil {
		return errors.New("server is nil")
	}
	return nil
}

// SetupRoutes registers all handlers on mux.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.wrap("/health", s.healthHandler))
	mux.HandleFunc("/detect", s.wrap("/detect", s.rateLimited(s.detectHandler)))
	mux.HandleFunc("/rectify", s.wrap("/rectify", s.rateLimited(s.rectifyHandler)))
	mux.HandleFunc("/ws/detect", s.wrap("/ws/detect", s.rateLimited(s.detectWebSocketHandler)))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns a mux with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return mux
}

func (s *Server) maxUploadBytes() int64 { return s.maxUploadMB << 20 }

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	return s.corsOrigin == "" || s.corsOrigin == "*" || origin == "" || origin == s.corsOrigin
}
