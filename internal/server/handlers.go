package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/docscan/internal/pipeline"
	"github.com/MeKo-Tech/docscan/internal/rectify"
	"github.com/MeKo-Tech/docscan/internal/utils"
	"github.com/MeKo-Tech/docscan/internal/version"
)

// requestError carries the HTTP status for invalid client input.
type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, msg: msg}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now(),
	})
}

// detectHandler finds the document boundary and answers with JSON, or with
// a PNG overlay when output=overlay.
func (s *Server) detectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	img, err := s.parseImageRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	output := strings.ToLower(r.FormValue("output"))
	if output != "" && output != "json" && output != "overlay" {
		s.writeError(w, r, badRequest("output must be json or overlay"))
		return
	}

	res, err := s.detect(ctx, img)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if output == "overlay" {
		s.writeImage(w, r, pipeline.RenderOverlay(img, res, s.overlayColors), "png", res)
		return
	}
	writeJSON(w, http.StatusOK, DetectResponse{
		Success:           true,
		RequestID:         requestIDFrom(r.Context()),
		Result:            res,
		NormalizedCorners: res.NormalizedCorners(),
	})
}

// rectifyHandler rectifies the uploaded image along the given corners, or
// along the detected boundary when none are supplied.
func (s *Server) rectifyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	img, err := s.parseImageRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := parseRectifyOptions(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.pipelineFor(opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	var res *pipeline.ScanResult
	if opts.corners != nil {
		corners := *opts.corners
		if opts.normalized {
			b := img.Bounds()
			corners = corners.Denormalize(b.Dx(), b.Dy())
		}
		res, err = p.ProcessImageWithCorners(ctx, img, corners)
	} else {
		res, err = p.ProcessImage(ctx, img)
	}
	recordScan("rectify", res, err, time.Since(start))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Output == nil {
		s.writeError(w, r, errors.New("rectification produced no output"))
		return
	}
	s.writeImage(w, r, res.Output, opts.format, res)
}

// detect runs boundary detection only and records metrics.
func (s *Server) detect(ctx context.Context, img image.Image) (*pipeline.ScanResult, error) {
	start := time.Now()
	res, err := s.detector.ProcessImage(ctx, img)
	recordScan("detect", res, err, time.Since(start))
	return res, err
}

func (s *Server) writeImage(w http.ResponseWriter, r *http.Request, img image.Image, format string, res *pipeline.ScanResult) {
	data, err := utils.EncodeImageBytes(img, format, s.jpegQuality)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	contentType := "image/png"
	if format == "jpeg" || format == "jpg" {
		contentType = "image/jpeg"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Scan-Confidence", strconv.FormatFloat(res.Confidence, 'f', 3, 64))
	w.Header().Set("X-Scan-Needs-Review", strconv.FormatBool(res.NeedsReview))
	w.Header().Set("X-Scan-Corners", formatCorners(res.Flat))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Warn("Failed to write image response", "error", err)
	}
}

func formatCorners(flat [8]float64) string {
	parts := make([]string, len(flat))
	for i, v := range flat {
		parts[i] = strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strings.Join(parts, ",")
}

// statusFor maps pipeline and request errors onto HTTP status codes.
func statusFor(err error) int {
	var reqErr *requestError
	var maxBytes *http.MaxBytesError
	var transformErr *rectify.TransformError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case rectify.IsInputError(err), errors.Is(err, utils.ErrEmptyImage), errors.Is(err, utils.ErrInvalidCorners):
		return http.StatusBadRequest
	case errors.As(err, &transformErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "request_id", requestIDFrom(r.Context()), "path", r.URL.Path, "error", err)
	} else {
		slog.Debug("Request rejected", "request_id", requestIDFrom(r.Context()), "status", status, "error", err)
	}
	writeErrorResponse(w, r, status, err.Error())
}

func writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, ErrorResponse{
		Success:   false,
		Error:     msg,
		RequestID: requestIDFrom(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}
